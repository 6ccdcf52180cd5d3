package models

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisKind names the remote flow an AnalysisRun belongs to
type AnalysisKind string

const (
	AnalysisKindContiguity AnalysisKind = "contiguity"
	AnalysisKindUnassigned AnalysisKind = "unassigned"
)

// RunStatus is the outcome of one remote request
type RunStatus string

const (
	RunStatusApplied RunStatus = "applied"
	RunStatusStale   RunStatus = "stale"
	RunStatusFailed  RunStatus = "failed"
	RunStatusEmpty   RunStatus = "empty"
)

// AnalysisRun is one ledger entry of a remote analysis request
type AnalysisRun struct {
	ID            int64         `json:"id" db:"id"`
	SessionID     uuid.UUID     `json:"session_id" db:"session_id"`
	Seq           uint64        `json:"seq" db:"seq"`
	Kind          AnalysisKind  `json:"kind" db:"kind"`
	Status        RunStatus     `json:"status" db:"status"`
	ErrorCode     string        `json:"error_code,omitempty" db:"error_code"`
	Discontiguous []int         `json:"discontiguous,omitempty" db:"-"`
	Duration      time.Duration `json:"duration" db:"-"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}
