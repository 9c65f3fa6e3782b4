package service

import (
	"testing"

	"github.com/bazaarhub/negotiation-backend/internal/common"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequirementService(t *testing.T) {
	f := newFixture(t, newRecordingPusher())

	t.Run("등록 - 플래그되어도 저장", func(t *testing.T) {
		req, err := f.requirements.Create(f.ctx, "buyer", &domain.CreateRequirementRequest{
			City: "Pune", Category: "furniture", ProductName: "Office chairs",
			Details: "details at www.my-shop.in",
		})
		require.NoError(t, err)
		assert.True(t, req.Moderation.Flagged)
		assert.Equal(t, ReasonLink, req.Moderation.FlaggedReason)
		assert.Equal(t, int64(1), req.Quantity)

		stored, err := f.requirements.Get(f.ctx, req.ID)
		require.NoError(t, err)
		assert.True(t, stored.Moderation.Flagged)
	})

	t.Run("수정 - 소유자만, 견적 낸 판매자에게 알림", func(t *testing.T) {
		req := f.createRequirement(t, "buyer")
		f.mustSubmit(t, req.ID, "s1", "100")
		f.mustSubmit(t, req.ID, "s2", "110")

		qty := int64(10)
		_, err := f.requirements.Update(f.ctx, req.ID, "s1", &domain.UpdateRequirementRequest{Quantity: &qty})
		assert.ErrorIs(t, err, common.ErrForbidden)

		updated, err := f.requirements.Update(f.ctx, req.ID, "buyer", &domain.UpdateRequirementRequest{Quantity: &qty})
		require.NoError(t, err)
		assert.Equal(t, qty, updated.Quantity)
		assert.Equal(t, int64(1), f.countNotifications(t, "s1", domain.NotifyRequirementUpdated, req.ID))
		assert.Equal(t, int64(1), f.countNotifications(t, "s2", domain.NotifyRequirementUpdated, req.ID))
	})

	t.Run("목록", func(t *testing.T) {
		items, meta, err := f.requirements.ListByBuyer(f.ctx, "buyer", 1, 10)
		require.NoError(t, err)
		assert.Len(t, items, 2)
		assert.Equal(t, int64(2), meta.Total)

		items, _, err = f.requirements.List(f.ctx, &domain.RequirementListParams{Category: "furniture"})
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("삭제 - 소유자 또는 모더레이터", func(t *testing.T) {
		req := f.createRequirement(t, "buyer")
		assert.ErrorIs(t, f.requirements.Remove(f.ctx, req.ID, "s1", false, ""), common.ErrForbidden)
		require.NoError(t, f.requirements.Remove(f.ctx, req.ID, "mod", true, "policy"))

		_, err := f.requirements.Get(f.ctx, req.ID)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}
