package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/bazaarhub/negotiation-backend/pkg/cache"
	pkglogger "github.com/bazaarhub/negotiation-backend/pkg/logger"
)

// moderation rules cache key
const moderationRulesKey = cache.PrefixModeration + "rules"

// 플래그 사유
const (
	ReasonPhone   = "contains phone number"
	ReasonLink    = "contains link"
	ReasonKeyword = "contains blocked keyword"
)

var (
	// +91 98765 43210, 098765-43210, 9876543210, (020) 2612 3456
	phonePattern = regexp.MustCompile(`(?:\+?\d{1,3}[\s.-]?)?(?:\(?\d{2,5}\)?[\s.-]?)?\d{3,5}[\s.-]?\d{4,5}`)
	linkPattern  = regexp.MustCompile(`(?i)(?:https?://|www\.)\S+|\b[a-z0-9-]+\.(?:com|in|net|org|io|co|me|info|biz|shop|app|link|ly)\b(?:/\S*)?`)
	digitsOnly   = regexp.MustCompile(`\D`)
)

// ScanText returns a flag reason, or "" when text passes every enabled rule.
func ScanText(text string, rules domain.ModerationRules) string {
	if !rules.Enabled || strings.TrimSpace(text) == "" {
		return ""
	}
	if rules.BlockPhone && containsPhone(text) {
		return ReasonPhone
	}
	if rules.BlockLinks && linkPattern.MatchString(text) {
		return ReasonLink
	}
	lower := strings.ToLower(text)
	for _, kw := range rules.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(lower, kw) {
			return ReasonKeyword + ": " + kw
		}
	}
	return ""
}

// containsPhone 숫자 10~13자리 연속 (구분자 허용)
func containsPhone(text string) bool {
	for _, m := range phonePattern.FindAllString(text, -1) {
		n := len(digitsOnly.ReplaceAllString(m, ""))
		if n >= 10 && n <= 13 {
			return true
		}
	}
	return false
}

// RuleSource provides the current moderation rules. Read on every scan.
type RuleSource interface {
	Rules(ctx context.Context) (domain.ModerationRules, error)
}

// StaticRuleSource serves rules from configuration
type StaticRuleSource struct {
	rules domain.ModerationRules
}

// NewStaticRuleSource creates a config-backed rule source
func NewStaticRuleSource(rules domain.ModerationRules) *StaticRuleSource {
	return &StaticRuleSource{rules: rules}
}

func (s *StaticRuleSource) Rules(context.Context) (domain.ModerationRules, error) {
	return s.rules, nil
}

// CachedRuleSource reads an admin override from Redis and falls back to
// the static rules when the key is absent or Redis is down.
type CachedRuleSource struct {
	cache    cache.Service
	fallback RuleSource
}

// NewCachedRuleSource creates a Redis-backed rule source
func NewCachedRuleSource(c cache.Service, fallback RuleSource) *CachedRuleSource {
	return &CachedRuleSource{cache: c, fallback: fallback}
}

func (s *CachedRuleSource) Rules(ctx context.Context) (domain.ModerationRules, error) {
	if s.cache == nil || !s.cache.IsAvailable() {
		return s.fallback.Rules(ctx)
	}
	var rules domain.ModerationRules
	if err := s.cache.Get(ctx, moderationRulesKey, &rules); err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			pkglogger.GetLogger().Warn().Err(err).Msg("moderation rules cache read failed, using static rules")
		}
		return s.fallback.Rules(ctx)
	}
	return rules, nil
}

// Store writes the override. ttl 0 keeps it until replaced.
func (s *CachedRuleSource) Store(ctx context.Context, rules domain.ModerationRules, ttl time.Duration) error {
	if s.cache == nil || !s.cache.IsAvailable() {
		return errors.New("moderation override store unavailable")
	}
	return s.cache.Set(ctx, moderationRulesKey, rules, ttl)
}

// Moderator scans free text against the current rules. Advisory only.
type Moderator struct {
	source RuleSource
	now    func() time.Time
}

// NewModerator creates a Moderator
func NewModerator(source RuleSource) *Moderator {
	return &Moderator{source: source, now: time.Now}
}

// Scan returns the flag to store with the written record.
// A rule source failure yields an unflagged result; writes are never blocked.
func (m *Moderator) Scan(ctx context.Context, texts ...string) domain.Moderation {
	if m == nil || m.source == nil {
		return domain.Moderation{}
	}
	rules, err := m.source.Rules(ctx)
	if err != nil {
		pkglogger.GetLogger().Warn().Err(err).Msg("moderation rules unavailable, skipping scan")
		return domain.Moderation{}
	}
	for _, t := range texts {
		if reason := ScanText(t, rules); reason != "" {
			now := m.now()
			moderationFlags.WithLabelValues(reasonLabel(reason)).Inc()
			return domain.Moderation{Flagged: true, FlaggedAt: &now, FlaggedReason: reason}
		}
	}
	return domain.Moderation{}
}

func reasonLabel(reason string) string {
	switch {
	case reason == ReasonPhone:
		return "phone"
	case reason == ReasonLink:
		return "link"
	default:
		return "keyword"
	}
}
