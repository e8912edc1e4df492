package model

import "time"

type ContestStatus string

const (
	ContestPending ContestStatus = "pending"
	ContestRunning ContestStatus = "running"
	ContestEnded   ContestStatus = "ended"

	// ContestNone is reported by the last-update probe when no contest row exists.
	ContestNone ContestStatus = "no_contest"
)

// ContestStateID addresses the singleton contest_state row.
const ContestStateID = 1

type ContestState struct {
	ID                   int           `json:"id"`
	Status               ContestStatus `json:"status"`
	StartTime            *time.Time    `json:"start_time,omitempty"`
	EndTime              *time.Time    `json:"end_time,omitempty"`
	TotalDurationMinutes int           `json:"total_duration_minutes"`
	IsVisible            bool          `json:"is_visible"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// RemainingSeconds is the whole number of seconds until the next threshold:
// start for a pending contest, end for a running one. Zero otherwise, and never negative.
func (c *ContestState) RemainingSeconds(now time.Time) int64 {
	var target *time.Time
	switch c.Status {
	case ContestPending:
		target = c.StartTime
	case ContestRunning:
		target = c.EndTime
	}
	if target == nil {
		return 0
	}
	remaining := int64(target.Sub(now) / time.Second)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// NextStatus reports the single transition due at now, if any. A pending contest whose
// start and end have both passed only advances to running; the following poll ends it.
func (c *ContestState) NextStatus(now time.Time) (ContestStatus, bool) {
	switch c.Status {
	case ContestPending:
		if c.StartTime != nil && !c.StartTime.After(now) {
			return ContestRunning, true
		}
	case ContestRunning:
		if c.EndTime != nil && !c.EndTime.After(now) {
			return ContestEnded, true
		}
	}
	return c.Status, false
}

func (s ContestStatus) Valid() bool {
	switch s {
	case ContestPending, ContestRunning, ContestEnded:
		return true
	}
	return false
}
