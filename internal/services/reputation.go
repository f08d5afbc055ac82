package services

import (
	"context"
	"time"

	"brokenexp/internal/gamification"
	"brokenexp/internal/models"

	"github.com/charmbracelet/log/v2"
	"github.com/robfig/cron/v3"
)

// ReputationStore is the part of the store the job needs.
type ReputationStore interface {
	ProfileIDs(ctx context.Context) ([]string, error)
	Activity(ctx context.Context, userID string) (gamification.Activity, error)
	ApplyReputation(ctx context.Context, userID string, reputation int, badges []models.Badge) (int, error)
}

// ReputationJob recomputes every profile's reputation and awards badges.
type ReputationJob struct {
	store   ReputationStore
	logger  *log.Logger
	timeout time.Duration
	onRun   func(profiles, awarded int, err error)
}

func NewReputationJob(store ReputationStore, logger *log.Logger) *ReputationJob {
	return &ReputationJob{store: store, logger: logger, timeout: 5 * time.Minute}
}

// OnRun registers a hook called after every run, used for metrics.
func (j *ReputationJob) OnRun(fn func(profiles, awarded int, err error)) {
	j.onRun = fn
}

// Run implements cron.Job.
func (j *ReputationJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	profiles, awarded, err := j.RunOnce(ctx)
	if j.onRun != nil {
		j.onRun(profiles, awarded, err)
	}
}

// RunOnce processes every profile. A failing profile is logged and skipped; the
// last such error is returned.
func (j *ReputationJob) RunOnce(ctx context.Context) (profiles, awarded int, err error) {
	ids, err := j.store.ProfileIDs(ctx)
	if err != nil {
		j.logger.Error("reputation: list profiles", "err", err)
		return 0, 0, err
	}

	var lastErr error
	for _, id := range ids {
		if ctx.Err() != nil {
			return profiles, awarded, ctx.Err()
		}
		activity, err := j.store.Activity(ctx, id)
		if err != nil {
			j.logger.Warn("reputation: count activity", "profile", id, "err", err)
			lastErr = err
			continue
		}
		n, err := j.store.ApplyReputation(ctx, id, gamification.Reputation(activity), gamification.Earned(activity))
		if err != nil {
			j.logger.Warn("reputation: apply", "profile", id, "err", err)
			lastErr = err
			continue
		}
		profiles++
		awarded += n
	}
	j.logger.Info("reputation recomputed", "profiles", profiles, "badges_awarded", awarded)
	return profiles, awarded, lastErr
}

// Schedule registers the job on a new cron scheduler and starts it. Callers stop
// it with the returned scheduler's Stop.
func (j *ReputationJob) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddJob(spec, cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(j)); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
