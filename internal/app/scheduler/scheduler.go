// Package scheduler собирает сервис периодических задач: перевод истёкших
// подписок, анализ тренда, напоминания и перегенерация планов.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/fitcoachapp/fitcoach/internal/config"
	"github.com/fitcoachapp/fitcoach/internal/rabbitmq"
	adaptationservice "github.com/fitcoachapp/fitcoach/internal/services/adaptation"
	"github.com/fitcoachapp/fitcoach/internal/storage/repository"
)

// App представляет приложение планировщика.
type App struct {
	scheduler *adaptationservice.Scheduler
	db        *repository.Storage
	conn      *amqp.Connection
	ch        *amqp.Channel
	logger    *slog.Logger
}

func waitForDB(db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	queues := append(rabbitmq.GetNotificationQueues(), rabbitmq.GetPlanQueues()...)
	ch, err := rabbitmq.SetupChannel(conn, queues)
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(db); err != nil {
		closeResources(ch, conn, logger)
		return nil, err
	}

	publisher := rabbitmq.NewPublisher(ch)
	jobs := adaptationservice.New(db, publisher, publisher, logger, cfg.TrialPeriod())

	sched := adaptationservice.NewScheduler(logger,
		adaptationservice.Job{Name: "expiry_sweep", Interval: cfg.ExpirySweepInterval, Run: jobs.RunExpirySweep},
		adaptationservice.Job{Name: "trend_analysis", Interval: cfg.TrendInterval, Run: jobs.RunTrendAnalysis},
		adaptationservice.Job{Name: "renewal_reminders", Interval: cfg.RenewalInterval, Run: jobs.RunRenewalReminders},
		adaptationservice.Job{Name: "checkin_reminders", Interval: cfg.CheckinInterval, Run: jobs.RunCheckinReminders},
		adaptationservice.Job{Name: "plan_regeneration", Interval: cfg.PlanInterval, Run: jobs.RunPlanRegeneration},
	)

	return &App{
		scheduler: sched,
		db:        db,
		conn:      conn,
		ch:        ch,
		logger:    logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", slog.Any("err", err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", slog.Any("err", err))
		}
	}
}

// Run запускает задачи планировщика до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	a.scheduler.Start(ctx)

	<-ctx.Done()
	a.scheduler.Wait()

	a.logger.Info("shutting down scheduler service")
	closeResources(a.ch, a.conn, a.logger)
	_ = a.db.DB.Close()
	return nil
}
