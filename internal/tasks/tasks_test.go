package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu   sync.Mutex
	err  error
	got  []*domain.Notification
	done chan struct{}
}

func (s *fakeSender) Name() string { return "fake" }

func (s *fakeSender) Send(_ context.Context, n *domain.Notification) error {
	s.mu.Lock()
	s.got = append(s.got, n)
	s.mu.Unlock()
	if s.done != nil {
		s.done <- struct{}{}
	}
	return s.err
}

type fakeEnqueuer struct {
	mu      sync.Mutex
	err     error
	release chan struct{}
	tasks   []*asynq.Task
	done    chan struct{}
}

func (e *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if e.release != nil {
		<-e.release
	}
	defer func() {
		if e.done != nil {
			e.done <- struct{}{}
		}
	}()
	if e.err != nil {
		return nil, e.err
	}
	e.mu.Lock()
	e.tasks = append(e.tasks, task)
	e.mu.Unlock()
	return &asynq.TaskInfo{ID: "t1", Type: task.Type()}, nil
}

func (e *fakeEnqueuer) wait(t *testing.T) {
	t.Helper()
	select {
	case <-e.done:
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue never ran")
	}
}

func sampleNotification() *domain.Notification {
	req := "req-1"
	return &domain.Notification{ID: 7, RecipientID: "seller-1", Type: domain.NotifyReverseAuctionInvoked, Message: "go", RequirementID: &req}
}

func TestQueueDispatcher(t *testing.T) {
	t.Run("작업 enqueue", func(t *testing.T) {
		enq := &fakeEnqueuer{done: make(chan struct{}, 1)}
		NewQueueDispatcher(enq).Dispatch(context.Background(), sampleNotification())
		enq.wait(t)

		enq.mu.Lock()
		defer enq.mu.Unlock()
		require.Len(t, enq.tasks, 1)
		assert.Equal(t, TypeNotificationDeliver, enq.tasks[0].Type())

		var p NotificationPayload
		require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &p))
		assert.Equal(t, uint(7), p.NotificationID)
		assert.Equal(t, "req-1", *p.RequirementID)
	})

	t.Run("느린 redis 가 호출자를 막지 않음", func(t *testing.T) {
		enq := &fakeEnqueuer{release: make(chan struct{}), done: make(chan struct{}, 3)}
		d := NewQueueDispatcher(enq)

		returned := make(chan struct{})
		go func() {
			for i := 0; i < 3; i++ {
				d.Dispatch(context.Background(), sampleNotification())
			}
			close(returned)
		}()
		select {
		case <-returned:
		case <-time.After(time.Second):
			t.Fatal("Dispatch blocked on enqueue")
		}

		close(enq.release)
		for i := 0; i < 3; i++ {
			enq.wait(t)
		}
		enq.mu.Lock()
		defer enq.mu.Unlock()
		assert.Len(t, enq.tasks, 3)
	})

	t.Run("enqueue 실패는 삼킴", func(t *testing.T) {
		before := testutil.ToFloat64(sideChannelFailures.WithLabelValues("enqueue"))
		enq := &fakeEnqueuer{err: errors.New("redis down"), done: make(chan struct{}, 1)}
		NewQueueDispatcher(enq).Dispatch(context.Background(), sampleNotification())
		enq.wait(t)
		assert.Eventually(t, func() bool {
			return testutil.ToFloat64(sideChannelFailures.WithLabelValues("enqueue")) == before+1
		}, time.Second, 10*time.Millisecond)
	})
}

func TestInlineDispatcher(t *testing.T) {
	s := &fakeSender{err: errors.New("smtp down"), done: make(chan struct{}, 1)}
	NewInlineDispatcher(s).Dispatch(context.Background(), sampleNotification())

	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		t.Fatal("inline dispatcher never sent")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Len(t, s.got, 1)
}

func TestHandleNotificationDeliveryTask(t *testing.T) {
	t.Run("성공", func(t *testing.T) {
		s := &fakeSender{}
		task, err := NewNotificationTask(sampleNotification())
		require.NoError(t, err)

		require.NoError(t, NewTaskProcessor(s).HandleNotificationDeliveryTask(context.Background(), task))
		require.Len(t, s.got, 1)
		assert.Equal(t, "seller-1", s.got[0].RecipientID)
		assert.Equal(t, domain.NotifyReverseAuctionInvoked, s.got[0].Type)
	})

	t.Run("전송 실패는 재시도 대상", func(t *testing.T) {
		s := &fakeSender{err: errors.New("gateway 503")}
		task, err := NewNotificationTask(sampleNotification())
		require.NoError(t, err)

		err = NewTaskProcessor(s).HandleNotificationDeliveryTask(context.Background(), task)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("잘못된 페이로드는 재시도 안함", func(t *testing.T) {
		task := asynq.NewTask(TypeNotificationDeliver, []byte("{"))
		err := NewTaskProcessor(&fakeSender{}).HandleNotificationDeliveryTask(context.Background(), task)
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}
