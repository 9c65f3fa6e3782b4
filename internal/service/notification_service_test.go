package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNotifyMany_DeliveryIndependence(t *testing.T) {
	pusher := new(MockPusher)
	pusher.On("Push", "seller-2", mock.Anything).Return(errors.New("socket closed"))
	pusher.On("Push", "seller-4", mock.Anything).Return(errors.New("queue full"))
	pusher.On("Push", mock.Anything, mock.Anything).Return(nil)

	f := newFixture(t, pusher)
	sellers := make([]string, 0, 5)
	for i := 1; i <= 5; i++ {
		sellers = append(sellers, fmt.Sprintf("seller-%d", i))
	}

	rows, err := f.notifications.NotifyMany(f.ctx, sellers, domain.NotifyReverseAuctionInvoked,
		"auction started", domain.NotifyContext{RequirementID: "req-1", FromUserID: "buyer"})
	require.NoError(t, err)
	assert.Len(t, rows, 5)

	for _, s := range sellers {
		assert.Equal(t, int64(1), f.countNotifications(t, s, domain.NotifyReverseAuctionInvoked, "req-1"), s)
	}
	pusher.AssertNumberOfCalls(t, "Push", 5)
	assert.Len(t, f.dispatcher.calls, 5)
}

func TestNotifyMany_DeduplicatesRecipients(t *testing.T) {
	f := newFixture(t, newRecordingPusher())

	rows, err := f.notifications.NotifyMany(f.ctx, []string{"a", "b", "a", ""}, domain.NotifyRequirementUpdated, "updated", domain.NotifyContext{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestNotificationReadState(t *testing.T) {
	pusher := newRecordingPusher()
	f := newFixture(t, pusher)

	var ids []uint
	for i := 0; i < 3; i++ {
		n, err := f.notifications.Notify(f.ctx, "user", domain.NotifyNewOffer, fmt.Sprintf("offer %d", i), domain.NotifyContext{})
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}

	list, err := f.notifications.List(f.ctx, "user", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), list.Total)
	assert.Equal(t, int64(3), list.UnreadCount)
	assert.Equal(t, 2, list.TotalPages)
	assert.Len(t, list.Items, 2)

	require.NoError(t, f.notifications.MarkAsRead(f.ctx, "user", ids[0]))
	count, err := f.notifications.UnreadCount(f.ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, 1, pusher.count("user", domain.LiveEventUnreadCount))

	// 다른 사용자의 알림은 읽음 처리 불가
	assert.Error(t, f.notifications.MarkAsRead(f.ctx, "intruder", ids[1]))

	n, err := f.notifications.MarkAllAsRead(f.ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	count, err = f.notifications.UnreadCount(f.ctx, "user")
	require.NoError(t, err)
	assert.Zero(t, count)
}
