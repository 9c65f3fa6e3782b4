// Package tasks runs notification side channels off the request path,
// either through asynq workers or inline goroutines.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/bazaarhub/negotiation-backend/internal/sender"
	pkglogger "github.com/bazaarhub/negotiation-backend/pkg/logger"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

// TaskType defines the type of a background task.
const (
	TypeNotificationDeliver = "notification:deliver"
)

const (
	queueDefault     = "default"
	deliverMaxRetry  = 3
	deliverTimeout   = 30 * time.Second
	inlineSendBudget = 10 * time.Second
	enqueueBudget    = 3 * time.Second
)

var sideChannelFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "negotiation_side_channel_failures_total",
		Help: "Side channel deliveries or enqueues that failed",
	},
	[]string{"stage"},
)

// NotificationPayload 사이드 채널 작업 페이로드
type NotificationPayload struct {
	NotificationID uint                    `json:"notification_id"`
	RecipientID    string                  `json:"recipient_id"`
	Type           domain.NotificationType `json:"type"`
	Message        string                  `json:"message"`
	RequirementID  *string                 `json:"requirement_id,omitempty"`
}

func payloadFor(n *domain.Notification) NotificationPayload {
	return NotificationPayload{
		NotificationID: n.ID,
		RecipientID:    n.RecipientID,
		Type:           n.Type,
		Message:        n.Message,
		RequirementID:  n.RequirementID,
	}
}

func (p NotificationPayload) notification() *domain.Notification {
	return &domain.Notification{
		ID:            p.NotificationID,
		RecipientID:   p.RecipientID,
		Type:          p.Type,
		Message:       p.Message,
		RequirementID: p.RequirementID,
	}
}

// NewNotificationTask builds the asynq task for one stored notification
func NewNotificationTask(n *domain.Notification) (*asynq.Task, error) {
	data, err := json.Marshal(payloadFor(n))
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeNotificationDeliver, data,
		asynq.MaxRetry(deliverMaxRetry),
		asynq.Timeout(deliverTimeout),
		asynq.Queue(queueDefault),
	), nil
}

// --- Task Client (Enqueuing tasks) ---

// redisOpt carries the app's Redis settings over to asynq
func redisOpt(rdb *redis.Client) asynq.RedisClientOpt {
	opts := rdb.Options()
	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}
}

// NewClient creates an asynq client sharing the app's Redis
func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(redisOpt(rdb))
}

// Enqueuer is satisfied by *asynq.Client
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueDispatcher enqueues side-channel work for cmd/worker
type QueueDispatcher struct {
	enqueuer Enqueuer
}

// NewQueueDispatcher creates an asynq-backed dispatcher
func NewQueueDispatcher(enqueuer Enqueuer) *QueueDispatcher {
	return &QueueDispatcher{enqueuer: enqueuer}
}

// Dispatch returns immediately. enqueue 실패는 로그만 남김
func (d *QueueDispatcher) Dispatch(ctx context.Context, n *domain.Notification) {
	go func() {
		enqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueBudget)
		defer cancel()

		task, err := NewNotificationTask(n)
		if err == nil {
			_, err = d.enqueuer.EnqueueContext(enqCtx, task)
		}
		if err != nil {
			sideChannelFailures.WithLabelValues("enqueue").Inc()
			pkglogger.GetLogger().Warn().Err(err).
				Uint("notification_id", n.ID).
				Msg("side channel enqueue failed")
		}
	}()
}

// InlineDispatcher sends from a goroutine in the API process.
// Used when no queue is configured.
type InlineDispatcher struct {
	sender sender.Sender
}

// NewInlineDispatcher creates a goroutine-backed dispatcher
func NewInlineDispatcher(s sender.Sender) *InlineDispatcher {
	return &InlineDispatcher{sender: s}
}

// Dispatch returns immediately
func (d *InlineDispatcher) Dispatch(ctx context.Context, n *domain.Notification) {
	go func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), inlineSendBudget)
		defer cancel()
		if err := d.sender.Send(sendCtx, n); err != nil {
			sideChannelFailures.WithLabelValues("send").Inc()
			pkglogger.GetLogger().Warn().Err(err).
				Uint("notification_id", n.ID).
				Msg("side channel delivery failed")
		}
	}()
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
type TaskProcessor struct {
	sender sender.Sender
}

// NewTaskProcessor creates a processor delivering through s
func NewTaskProcessor(s sender.Sender) *TaskProcessor {
	return &TaskProcessor{sender: s}
}

// HandleNotificationDeliveryTask delivers one notification. Returned errors
// are retried by asynq up to deliverMaxRetry, then archived.
func (p *TaskProcessor) HandleNotificationDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var payload NotificationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal notification payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := p.sender.Send(ctx, payload.notification()); err != nil {
		sideChannelFailures.WithLabelValues("send").Inc()
		return fmt.Errorf("deliver notification %d: %w", payload.NotificationID, err)
	}
	return nil
}

// NewServeMux registers every task handler
func NewServeMux(processor *TaskProcessor) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeNotificationDeliver, processor.HandleNotificationDeliveryTask)
	return mux
}

// NewServer configures the worker server
func NewServer(rdb *redis.Client, concurrency int) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 10
	}
	return asynq.NewServer(
		redisOpt(rdb),
		asynq.Config{
			Concurrency: concurrency,
			Queues:      map[string]int{queueDefault: 1},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				pkglogger.GetLogger().Warn().Err(err).
					Str("task_type", task.Type()).
					Msg("task failed")
			}),
		},
	)
}
