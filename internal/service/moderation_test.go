package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/bazaarhub/negotiation-backend/pkg/cache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allRules(keywords ...string) domain.ModerationRules {
	return domain.ModerationRules{Enabled: true, BlockPhone: true, BlockLinks: true, Keywords: keywords}
}

func TestScanText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		rules domain.ModerationRules
		want  string
	}{
		{"깨끗한 텍스트", "Can deliver 50 bags of cement within 3 days", allRules(), ""},
		{"국가번호 포함 전화번호", "call me on +91 98765 43210", allRules(), ReasonPhone},
		{"붙여쓴 전화번호", "whatsapp 9876543210", allRules(), ReasonPhone},
		{"https 링크", "see https://example.com/quote", allRules(), ReasonLink},
		{"www 링크", "catalog at www.shop-example.in", allRules(), ReasonLink},
		{"키워드 대소문자 무시", "Pay via CASH ONLY outside", allRules("cash only"), ReasonKeyword + ": cash only"},
		{"전화 차단 꺼짐", "9876543210", domain.ModerationRules{Enabled: true}, ""},
		{"모더레이션 비활성", "https://example.com", domain.ModerationRules{BlockLinks: true}, ""},
		{"가격 숫자는 통과", "Rs 45000 per unit, 2024-10-15 dispatch", allRules(), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScanText(tt.text, tt.rules))
		})
	}
}

func TestCachedRuleSource(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	static := NewStaticRuleSource(allRules("static"))
	source := NewCachedRuleSource(cache.NewService(client), static)

	t.Run("오버라이드 없으면 정적 규칙", func(t *testing.T) {
		rules, err := source.Rules(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"static"}, rules.Keywords)
	})

	t.Run("Redis 오버라이드 우선", func(t *testing.T) {
		require.NoError(t, source.Store(ctx, allRules("override"), time.Minute))
		rules, err := source.Rules(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"override"}, rules.Keywords)
	})

	t.Run("만료 후 정적 규칙", func(t *testing.T) {
		mr.FastForward(2 * time.Minute)
		rules, err := source.Rules(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"static"}, rules.Keywords)
	})

	t.Run("Redis 다운 시 정적 규칙", func(t *testing.T) {
		mr.Close()
		rules, err := source.Rules(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"static"}, rules.Keywords)
	})
}

func TestModerator_Scan(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := NewModerator(NewStaticRuleSource(allRules("scam")))
	m.now = func() time.Time { return fixed }

	flag := m.Scan(context.Background(), "fine text", "this is a scam")
	assert.True(t, flag.Flagged)
	assert.Equal(t, ReasonKeyword+": scam", flag.FlaggedReason)
	require.NotNil(t, flag.FlaggedAt)
	assert.Equal(t, fixed, *flag.FlaggedAt)

	assert.False(t, m.Scan(context.Background(), "fine text").Flagged)

	var nilModerator *Moderator
	assert.False(t, nilModerator.Scan(context.Background(), "scam").Flagged)
}
