package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/juridibot/legal-chat-api/databases"
)

// DefaultIdleWindow is how long a resolved_by_ai conversation can sit without
// a new message before it is considered closed
const DefaultIdleWindow = 72 * time.Hour

// Scheduler handles periodic background jobs for the conversation lifecycle
type Scheduler struct {
	cron       *cron.Cron
	CDB        databases.ConversationDatabase
	idleWindow time.Duration
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cdb databases.ConversationDatabase, idleWindow time.Duration) *Scheduler {
	if idleWindow <= 0 {
		idleWindow = DefaultIdleWindow
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		CDB:        cdb,
		idleWindow: idleWindow,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Sweep idle AI-resolved conversations every 15 minutes
	_, err := s.cron.AddFunc("*/15 * * * *", s.completeIdleResolved)
	if err != nil {
		zap.S().Errorw("failed to register idle resolution job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Conversation lifecycle scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Conversation lifecycle scheduler stopped")
}

// completeIdleResolved moves resolved_by_ai conversations with no recent
// activity to completed. This is the external policy side of the
// resolved_by_ai -> completed edge; the update runs in the store so the
// state machine's monotonic lifecycle is preserved across instances.
func (s *Scheduler) completeIdleResolved() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.idleWindow)
	n, err := s.CDB.CompleteIdleResolved(ctx, cutoff)
	if err != nil {
		zap.S().Errorw("idle resolution sweep failed", "error", err)
		return
	}
	if n > 0 {
		zap.S().Infow("completed idle resolved conversations", "count", n, "cutoff", cutoff)
	}
}
