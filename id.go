package orpipe

import (
	"time"

	"github.com/google/uuid"
)

// NewID generates a globally unique, time-sortable UUIDv7 (RFC 9562).
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewStageID builds a stage-scoped sandbox job ID of the form
// "<jobId>_<stage>_<random>", matching the Visualizer's pattern of
// submitting multiple sandbox jobs (solver, viz) under one parent job.
func NewStageID(jobID, stage string) string {
	return jobID + "_" + stage + "_" + uuid.New().String()
}

// NowUnix returns current time as Unix seconds.
func NowUnix() int64 {
	return time.Now().Unix()
}
