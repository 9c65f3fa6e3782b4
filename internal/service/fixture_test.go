package service

import (
	"context"
	"sync"
	"testing"

	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/bazaarhub/negotiation-backend/internal/repository"
	"github.com/bazaarhub/negotiation-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPusher 실시간 채널 모의 객체
type MockPusher struct {
	mock.Mock
}

func (m *MockPusher) Push(userID string, event *domain.LiveEvent) error {
	args := m.Called(userID, event)
	return args.Error(0)
}

// recordingPusher keeps every pushed event per user
type recordingPusher struct {
	mu     sync.Mutex
	events map[string][]*domain.LiveEvent
}

func newRecordingPusher() *recordingPusher {
	return &recordingPusher{events: make(map[string][]*domain.LiveEvent)}
}

func (p *recordingPusher) Push(userID string, event *domain.LiveEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[userID] = append(p.events[userID], event)
	return nil
}

func (p *recordingPusher) count(userID, typ string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events[userID] {
		if e.Type == typ {
			n++
		}
	}
	return n
}

// recordingDispatcher 사이드 채널 호출 기록
type recordingDispatcher struct {
	mu    sync.Mutex
	calls []*domain.Notification
}

func (d *recordingDispatcher) Dispatch(_ context.Context, n *domain.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, n)
}

type fixture struct {
	ctx context.Context

	requirementRepo  repository.RequirementRepository
	offerRepo        repository.OfferRepository
	notificationRepo repository.NotificationRepository
	profileRepo      repository.ProfileRepository

	notifications NotificationService
	requirements  RequirementService
	offers        OfferService
	auctions      AuctionService
	contact       ContactService
	chat          ChatService
	profiles      ProfileService
	dispatcher    *recordingDispatcher
}

func newFixture(t *testing.T, pusher LivePusher) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)

	f := &fixture{
		ctx:              context.Background(),
		requirementRepo:  repository.NewRequirementRepository(db),
		offerRepo:        repository.NewOfferRepository(db),
		notificationRepo: repository.NewNotificationRepository(db),
		profileRepo:      repository.NewProfileRepository(db),
		dispatcher:       &recordingDispatcher{},
	}
	negotiation := repository.NewNegotiationRepository(db, 5)
	messages := repository.NewMessageRepository(db)
	moderator := NewModerator(NewStaticRuleSource(domain.ModerationRules{Enabled: true, BlockPhone: true, BlockLinks: true}))

	f.notifications = NewNotificationService(f.notificationRepo, pusher, f.dispatcher)
	f.requirements = NewRequirementService(f.requirementRepo, f.offerRepo, f.notifications, moderator)
	f.offers = NewOfferService(f.requirementRepo, f.offerRepo, negotiation, f.profileRepo, f.notifications, moderator)
	f.auctions = NewAuctionService(negotiation, f.requirementRepo, f.offerRepo, f.notifications, DefaultMinOffers)
	f.contact = NewContactService(f.requirementRepo, f.offerRepo, f.profileRepo, f.notifications)
	f.chat = NewChatService(messages, f.requirementRepo, f.contact, f.notifications, moderator, &fakeResolver{})
	f.profiles = NewProfileService(f.profileRepo)
	return f
}

func (f *fixture) createRequirement(t *testing.T, buyerID string) *domain.Requirement {
	t.Helper()
	req, err := f.requirements.Create(f.ctx, buyerID, &domain.CreateRequirementRequest{
		City:        "Pune",
		Category:    "appliances",
		ProductName: "Split AC 1.5 ton",
		BrandModel:  "any 5-star",
		Quantity:    2,
		Unit:        "pcs",
	})
	require.NoError(t, err)
	return req
}

func (f *fixture) submit(requirementID, sellerID, price string) (*domain.SubmitOfferResult, error) {
	return f.offers.Submit(f.ctx, requirementID, sellerID, &domain.SubmitOfferRequest{
		Price: decimal.RequireFromString(price),
	})
}

func (f *fixture) mustSubmit(t *testing.T, requirementID, sellerID, price string) *domain.SubmitOfferResult {
	t.Helper()
	res, err := f.submit(requirementID, sellerID, price)
	require.NoError(t, err)
	return res
}

func (f *fixture) countNotifications(t *testing.T, userID string, typ domain.NotificationType, requirementID string) int64 {
	t.Helper()
	n, err := f.notificationRepo.CountByRecipientAndType(f.ctx, userID, typ, requirementID)
	require.NoError(t, err)
	return n
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
