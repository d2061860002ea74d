package scheduler

import (
	"github.com/rs/zerolog"
)

// Flusher is the part of the ledger store the flush retry job needs.
type Flusher interface {
	Dirty() bool
	Flush() error
}

// FlushRetryJob rewrites the ledger snapshot while a previous write has
// failed, closing the window in which acknowledged orders exist only in memory.
type FlushRetryJob struct {
	store Flusher
	log   zerolog.Logger
}

// NewFlushRetryJob creates a new flush retry job
func NewFlushRetryJob(store Flusher, log zerolog.Logger) *FlushRetryJob {
	return &FlushRetryJob{
		store: store,
		log:   log.With().Str("job", "ledger-flush-retry").Logger(),
	}
}

// Name returns the job name
func (j *FlushRetryJob) Name() string {
	return "ledger-flush-retry"
}

// Run flushes the store if it is dirty. A clean store is left alone.
func (j *FlushRetryJob) Run() error {
	if !j.store.Dirty() {
		return nil
	}

	j.log.Warn().Msg("Ledger has unpersisted changes, retrying write")
	return j.store.Flush()
}
