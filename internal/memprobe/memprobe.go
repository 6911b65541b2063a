// Package memprobe implements C1, the Memory Probe: reporting the host or
// container memory ceiling and the current process RSS, so the Batch
// Planner (internal/planner) has something concrete to plan against.
//
// Grounded on the teacher's common/statsMonitor.go, which layers gopsutil's
// mem/process packages under /proc-level fallbacks; this package keeps that
// layering but narrows it to exactly the two numbers spec §4.1 asks for.
package memprobe

import (
	"os"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// fallbackMemoryMB is used when every other source of memory information
// fails (spec §4.1: "Falls back to 1024 MB if all sources fail").
const fallbackMemoryMB = 1024

const (
	cgroupV2MaxPath     = "/sys/fs/cgroup/memory.max"
	cgroupV2CurrentPath = "/sys/fs/cgroup/memory.current"
	cgroupV1LimitPath   = "/sys/fs/cgroup/memory/memory.limit_in_bytes"
	cgroupV1UsagePath   = "/sys/fs/cgroup/memory/memory.usage_in_bytes"
)

// Prober reports the two figures the planner needs. It is an interface
// purely so tests can stub it out without touching gopsutil or the
// filesystem.
type Prober interface {
	AvailableMemoryMB() float64
	ProcessRSSMB() float64
}

type prober struct {
	pid int32
}

func New() Prober {
	return &prober{pid: int32(os.Getpid())}
}

// AvailableMemoryMB reconciles host-level free+buffer memory with a
// container memory ceiling when present, per spec §4.1: returns the smaller
// of (container_limit - container_usage) and host_free+buffer. Falls back
// to 1024MB if every source fails. Advisory only — callers must treat the
// result as a coarse ceiling, not a guarantee.
func (p *prober) AvailableMemoryMB() float64 {
	hostMB, hostOk := hostAvailableMB()
	containerMB, containerOk := containerAvailableMB()

	switch {
	case hostOk && containerOk:
		if containerMB < hostMB {
			return containerMB
		}
		return hostMB
	case hostOk:
		return hostMB
	case containerOk:
		return containerMB
	default:
		return fallbackMemoryMB
	}
}

// ProcessRSSMB reports this process's current resident set size.
func (p *prober) ProcessRSSMB() float64 {
	proc, err := process.NewProcess(p.pid)
	if err != nil {
		return 0
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		return 0
	}
	return float64(info.RSS) / (1024 * 1024)
}

func hostAvailableMB() (float64, bool) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, false
	}
	// gopsutil's Available already reconciles free+buffers+reclaimable
	// cache the way /proc/meminfo's MemAvailable does; that is the
	// "host free+buffer" figure spec §4.1 asks for.
	return float64(vm.Available) / (1024 * 1024), true
}

// containerAvailableMB reads cgroup v2 first, falling back to v1. Absence of
// these files is not an error (spec §6): it just means there is no
// container ceiling to reconcile against.
func containerAvailableMB() (float64, bool) {
	if limit, usage, ok := readCgroupPair(cgroupV2MaxPath, cgroupV2CurrentPath); ok {
		return cgroupAvailableMB(limit, usage)
	}
	if limit, usage, ok := readCgroupPair(cgroupV1LimitPath, cgroupV1UsagePath); ok {
		return cgroupAvailableMB(limit, usage)
	}
	return 0, false
}

func cgroupAvailableMB(limitBytes, usageBytes int64) (float64, bool) {
	if limitBytes <= 0 || limitBytes > cgroupUnlimitedThreshold {
		// cgroup v1 reports an enormous sentinel (commonly near 2^63-1,
		// rounded down to a page boundary) when no limit is set; v2 prints
		// the literal string "max", already filtered out in readCgroupPair.
		return 0, false
	}
	avail := limitBytes - usageBytes
	if avail < 0 {
		avail = 0
	}
	return float64(avail) / (1024 * 1024), true
}

// cgroupUnlimitedThreshold: cgroup v1's "no limit" sentinel is close to
// math.MaxInt64 rounded to a page; any limit above 2^62 bytes is treated
// as "no real limit" rather than a literal multi-exabyte ceiling.
const cgroupUnlimitedThreshold = int64(1) << 62

func readCgroupPair(limitPath, usagePath string) (limit, usage int64, ok bool) {
	limitRaw, err := os.ReadFile(limitPath)
	if err != nil {
		return 0, 0, false
	}
	limitStr := strings.TrimSpace(string(limitRaw))
	if limitStr == "max" {
		return 0, 0, false
	}
	limit, err = strconv.ParseInt(limitStr, 10, 64)
	if err != nil {
		return 0, 0, false
	}

	usageRaw, err := os.ReadFile(usagePath)
	if err != nil {
		return 0, 0, false
	}
	usage, err = strconv.ParseInt(strings.TrimSpace(string(usageRaw)), 10, 64)
	if err != nil {
		return 0, 0, false
	}

	return limit, usage, true
}
