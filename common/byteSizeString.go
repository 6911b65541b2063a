package common

import "strconv"

// mebiSize is the IEC unit table used throughout WikiFilter's progress
// output; adapted from the teacher's own common/byteSizeString.go (same
// table, same stepping loop), just narrowed to int64 since nothing here
// needs to format a generic integer type.
var mebiSize = []string{
	"B",
	"KiB",
	"MiB",
	"GiB",
	"TiB",
	"PiB",
	"EiB",
}

// ByteSizeToString renders a byte count using IEC (1024-based) units, e.g.
// "483.00 MiB".
func ByteSizeToString(size int64) string {
	unit := 0
	floatSize := float64(size)

	for floatSize/1024 >= 1 && unit < len(mebiSize)-1 {
		unit++
		floatSize /= 1024
	}

	return strconv.FormatFloat(floatSize, 'f', 2, 64) + " " + mebiSize[unit]
}
