// Package adaptation содержит периодические задачи ядра: перевод истёкших
// подписок, анализ тренда веса с адаптацией калорийности, напоминания и
// запуск перегенерации планов питания. Задачи выполняются планировщиком с
// фиксированным интервалом, каждая в своей горутине.
package adaptation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fitcoachapp/fitcoach/internal/lib/sl"
)

// Job — одна периодическая задача планировщика.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler запускает задачи по расписанию. Каждая задача выполняется
// сразу при старте, затем по тикеру, до отмены контекста.
type Scheduler struct {
	jobs []Job
	log  *slog.Logger
	wg   sync.WaitGroup
}

// NewScheduler создаёт планировщик с набором задач.
func NewScheduler(log *slog.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs, log: log}
}

// Start запускает все задачи. Возврат из Start не означает завершения
// задач: дождаться его можно через Wait.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		s.wg.Add(1)
		go func(job Job) {
			defer s.wg.Done()
			s.runLoop(ctx, job)
		}(job)
	}
}

// Wait блокируется до завершения всех задач после отмены контекста.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	s.runOnce(ctx, job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("job loop stopped", slog.String("job", job.Name))
			return
		case <-ticker.C:
			s.runOnce(ctx, job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	s.log.Info("starting job", slog.String("job", job.Name))
	start := time.Now()

	err := job.Run(ctx)
	jobDuration.WithLabelValues(job.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		jobRuns.WithLabelValues(job.Name, "error").Inc()
		s.log.Error("job failed", slog.String("job", job.Name), sl.Err(err))
		return
	}
	jobRuns.WithLabelValues(job.Name, "success").Inc()
	s.log.Info("job finished",
		slog.String("job", job.Name),
		slog.Duration("took", time.Since(start)))
}
