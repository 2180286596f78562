package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/salonflow/platform/internal/domain/notification"
)

// Worker runs the asynq server handling scheduled booking tasks.
type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	dispatcher *Dispatcher
	logger     *zap.Logger
}

// NewWorker creates the task worker.
func NewWorker(redisOpt asynq.RedisClientOpt, dispatcher *Dispatcher, logger *zap.Logger) *Worker {
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"default": 1,
		},
	})

	w := &Worker{
		server:     server,
		mux:        asynq.NewServeMux(),
		dispatcher: dispatcher,
		logger:     logger,
	}
	w.mux.HandleFunc(TypeBookingReminder, w.handleBookingReminder)
	w.mux.HandleFunc(TypeReviewPrompt, w.handleReviewPrompt)
	return w
}

// Run starts the worker and blocks until shutdown.
func (w *Worker) Run() error {
	w.logger.Info("reminder worker starting")
	return w.server.Run(w.mux)
}

// Shutdown stops the worker gracefully.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleBookingReminder(ctx context.Context, task *asynq.Task) error {
	var p BookingTaskPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		w.logger.Error("invalid reminder payload", zap.Error(err))
		return err
	}

	subject := "Upcoming appointment"
	body := fmt.Sprintf("Your appointment starts at %s.", p.StartTime.Format(time.RFC1123))
	return w.dispatcher.Dispatch(ctx, p.CustomerID, p.BookingID, notification.KindBookingReminder, subject, body)
}

func (w *Worker) handleReviewPrompt(ctx context.Context, task *asynq.Task) error {
	var p BookingTaskPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		w.logger.Error("invalid review prompt payload", zap.Error(err))
		return err
	}

	subject := "How was your visit?"
	body := "Leave a review for your recent appointment."
	return w.dispatcher.Dispatch(ctx, p.CustomerID, p.BookingID, notification.KindReviewPrompt, subject, body)
}

// MonitorRedis pings Redis periodically to surface queue backend outages while
// the worker is running. It blocks until the context is cancelled.
func MonitorRedis(ctx context.Context, client *redis.Client, logger *zap.Logger) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("redis connection lost", zap.Error(err))
			}
		}
	}
}
