package ratingqueue

import (
	"time"

	"github.com/riverqueue/river"
)

const (
	// QueueName is the dedicated river queue for rating maintenance.
	QueueName = "rating"

	rolloverInterval = time.Hour
	replayInterval   = 24 * time.Hour
)

// SeasonRolloverJob closes expired seasons. An empty GroupID sweeps every
// known group.
type SeasonRolloverJob struct {
	GroupID string `json:"group_id,omitempty"`
}

// Kind returns the job type identifier for River
func (SeasonRolloverJob) Kind() string { return "season_rollover" }

// InsertOpts keeps at most one pending rollover per group.
func (SeasonRolloverJob) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:      QueueName,
		UniqueOpts: river.UniqueOpts{ByArgs: true, ByPeriod: rolloverInterval},
	}
}

// GroupReplayJob rebuilds groups from their match log and reports drift. An
// empty GroupID replays every known group.
type GroupReplayJob struct {
	GroupID string `json:"group_id,omitempty"`
}

// Kind returns the job type identifier for River
func (GroupReplayJob) Kind() string { return "group_replay" }

func (GroupReplayJob) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueName,
		MaxAttempts: 5,
		UniqueOpts:  river.UniqueOpts{ByArgs: true, ByPeriod: time.Minute},
	}
}
