// Package scheduler drives the periodic summary generation: a tick
// loop that finds due (user, period) pairs, runs the generator for
// each, and records a watermark so a period is generated once.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/strideapp/stride/internal/model"
	"github.com/strideapp/stride/internal/repository"
	"github.com/strideapp/stride/internal/summary"
)

const jobTimeout = 5 * time.Minute

// Runner generates one summary. Satisfied by *summary.Generator.
type Runner interface {
	Run(ctx context.Context, userID, summaryType string, anchor model.Date) (*model.Summary, error)
}

// task is one due generation: the period anchor plus the watermark
// key that marks it done.
type task struct {
	userID      string
	summaryType string
	anchor      model.Date
	periodStart model.Date
}

func (t task) key() string {
	return t.userID + "/" + t.summaryType + "/" + t.periodStart.String()
}

type Scheduler struct {
	db        *sqlx.DB
	users     repository.UserRepository
	generator Runner
	logger    *slog.Logger

	tick    time.Duration
	maxConc int
	now     func() time.Time

	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

func New(db *sqlx.DB, users repository.UserRepository, generator Runner, tick time.Duration, maxConcurrent int, logger *slog.Logger) *Scheduler {
	if tick <= 0 {
		tick = time.Minute
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	return &Scheduler{
		db:        db,
		users:     users,
		generator: generator,
		logger:    logger,
		tick:      tick,
		maxConc:   maxConcurrent,
		now:       time.Now,
		running:   make(map[string]struct{}),
	}
}

// Start begins the tick loop. It returns immediately; the loop stops
// when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.tickLoop(ctx)
}

func (s *Scheduler) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	// Also check immediately on start.
	s.checkAndFire(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAndFire(ctx)
		}
	}
}

// Wait blocks until all in-flight generations finish. Call after
// cancelling the Start context.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) checkAndFire(ctx context.Context) {
	users, err := s.users.All()
	if err != nil {
		s.logger.Error("listing users for scheduling", "error", err)
		return
	}

	now := s.now()
	for _, user := range users {
		for _, t := range dueTasks(user.ID, now) {
			done, err := s.marked(t)
			if err != nil {
				s.logger.Error("checking schedule mark", "error", err, "task", t.key())
				continue
			}
			if done {
				continue
			}
			s.fire(ctx, t)
		}
	}
}

// dueTasks returns the generations owed at now: yesterday's daily
// summary, the preceding week's weekly summary on Mondays, and the
// preceding month's monthly summary on the 1st.
func dueTasks(userID string, now time.Time) []task {
	today := model.DateOf(now)
	yesterday := today.AddDays(-1)

	tasks := []task{{
		userID:      userID,
		summaryType: model.SummaryDaily,
		anchor:      yesterday,
		periodStart: yesterday,
	}}

	if now.Weekday() == time.Monday {
		lastWeek := summary.WeeklyPeriod(today.AddDays(-7))
		tasks = append(tasks, task{
			userID:      userID,
			summaryType: model.SummaryWeekly,
			anchor:      lastWeek.Start,
			periodStart: lastWeek.Start,
		})
	}

	if now.Day() == 1 {
		lastMonth := summary.MonthlyPeriod(yesterday)
		tasks = append(tasks, task{
			userID:      userID,
			summaryType: model.SummaryMonthly,
			anchor:      lastMonth.Start,
			periodStart: lastMonth.Start,
		})
	}

	return tasks
}

func (s *Scheduler) marked(t task) (bool, error) {
	var n int
	err := s.db.Get(&n,
		`SELECT COUNT(*) FROM schedule_marks WHERE user_id = ? AND summary_type = ? AND period_start = ?`,
		t.userID, t.summaryType, t.periodStart,
	)
	return n > 0, err
}

func (s *Scheduler) mark(t task) error {
	_, err := s.db.Exec(
		`INSERT INTO schedule_marks (user_id, summary_type, period_start) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, summary_type, period_start) DO NOTHING`,
		t.userID, t.summaryType, t.periodStart,
	)
	return err
}

// fire runs one generation in the background. A task already in
// flight is not stacked, and new work is skipped once maxConc
// generations are running; an unmarked task comes back on the next
// tick.
func (s *Scheduler) fire(ctx context.Context, t task) {
	s.mu.Lock()
	if _, active := s.running[t.key()]; active {
		s.mu.Unlock()
		return
	}
	if len(s.running) >= s.maxConc {
		s.mu.Unlock()
		s.logger.Warn("max concurrent generations reached, deferring", "task", t.key())
		return
	}
	s.running[t.key()] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.running, t.key())
			s.mu.Unlock()
			s.wg.Done()
		}()

		jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()

		if err := s.runTask(jobCtx, t); err != nil {
			s.logger.Error("scheduled generation failed", "error", err, "task", t.key())
		}
	}()
}

// runTask generates the summary and records the watermark. A period
// with no entries is marked too: it stays empty forever, so there is
// nothing to retry. Failures leave the mark unset and the next tick
// retries.
func (s *Scheduler) runTask(ctx context.Context, t task) error {
	if _, err := s.generator.Run(ctx, t.userID, t.summaryType, t.anchor); err != nil {
		return err
	}
	if err := s.mark(t); err != nil {
		return fmt.Errorf("recording schedule mark: %w", err)
	}
	return nil
}
