package common

import "github.com/google/uuid"

// RunID identifies one invocation of WikiFilter in logs, the way the
// teacher's JobID (itself UUID-backed, see common/fe-ste-models.go)
// identifies one azcopy job. Unlike a JobID, a RunID is never persisted:
// WikiFilter has no resumable job state, so it exists purely to let a
// human correlate progress-sink lines from one run.
type RunID uuid.UUID

func NewRunID() RunID {
	return RunID(uuid.New())
}

func (r RunID) String() string {
	return uuid.UUID(r).String()
}
