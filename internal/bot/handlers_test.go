package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	"gatekeeper-bot/internal/access"
	"gatekeeper-bot/internal/metrics"
	"gatekeeper-bot/internal/modules/approval"
	"gatekeeper-bot/internal/modules/audit"
	"gatekeeper-bot/internal/stats"
	"gatekeeper-bot/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type fakeAPI struct {
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update)
	close(ch)
	return tgbotapi.UpdatesChannel(ch)
}

func (f *fakeAPI) StopReceivingUpdates() {}

func newTestBot(t *testing.T) (*Bot, *fakeAPI, *storage.Store) {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logger := zap.NewNop()
	provider := metrics.New(false)
	auditLogger := audit.NewLogger(store, logger)
	fake := &fakeAPI{}
	b := &Bot{
		logger:   logger,
		policy:   access.New([]string{"100"}, "999"),
		stats:    stats.New(store, time.UTC, 5),
		approval: approval.New(approval.Config{RequireUsername: true, AutoApprove: true}, store, auditLogger, provider, logger),
		audit:    auditLogger,
		metrics:  provider,
		api:      fake,
		done:     make(chan struct{}),
	}
	return b, fake, store
}

func TestStatsCommandUnauthorized(t *testing.T) {
	b, fake, store := newTestBot(t)
	ctx := context.Background()

	if err := store.AddApproval(ctx, storage.Approval{Username: "alice", ChatTitle: "c", ApprovedAt: time.Now()}); err != nil {
		t.Fatalf("add approval: %v", err)
	}

	b.handleStatsCommand(ctx, command{ChatID: 5, UserID: 300, Name: "stats"})

	if len(fake.sent) != 1 {
		t.Fatalf("expected one reply, got %d", len(fake.sent))
	}
	text := fake.sent[0].Text
	if !strings.Contains(text, "not allowed") {
		t.Fatalf("expected a denial, got %q", text)
	}
	if strings.Contains(text, "Total approved") {
		t.Fatalf("denial must not leak statistics: %q", text)
	}
}

func TestStatsCommandAuthorized(t *testing.T) {
	b, fake, store := newTestBot(t)
	ctx := context.Background()

	now := time.Now()
	for _, name := range []string{"alice", "alice", "alice", "bob"} {
		if err := store.AddApproval(ctx, storage.Approval{Username: name, ChatTitle: "c", ApprovedAt: now}); err != nil {
			t.Fatalf("add approval: %v", err)
		}
	}

	b.handleStatsCommand(ctx, command{ChatID: 5, UserID: 100, Name: "stats"})

	if len(fake.sent) != 1 {
		t.Fatalf("expected one reply, got %d", len(fake.sent))
	}
	text := fake.sent[0].Text
	for _, want := range []string{"Total approved: 4", "Today: 4", "1. @alice: 3", "2. @bob: 1"} {
		if !strings.Contains(text, want) {
			t.Fatalf("stats message missing %q:\n%s", want, text)
		}
	}
	if fake.sent[0].ParseMode != tgbotapi.ModeMarkdown {
		t.Fatalf("expected markdown reply, got %q", fake.sent[0].ParseMode)
	}
}

func TestChannelOwnerIsAuthorized(t *testing.T) {
	b, fake, _ := newTestBot(t)

	b.handleStatsCommand(context.Background(), command{ChatID: 5, UserID: 999, Name: "stats"})

	if len(fake.sent) != 1 || !strings.Contains(fake.sent[0].Text, "Total approved: 0") {
		t.Fatalf("expected stats for the channel owner, got %+v", fake.sent)
	}
}

func TestJoinRequestUpdateApproves(t *testing.T) {
	b, fake, store := newTestBot(t)

	b.handleUpdate(tgbotapi.Update{ChatJoinRequest: &tgbotapi.ChatJoinRequest{
		Chat: tgbotapi.Chat{ID: 7, Title: "Main Channel"},
		From: tgbotapi.User{ID: 42, UserName: "alice", FirstName: "Alice"},
	}})

	if len(fake.requests) != 1 {
		t.Fatalf("expected one gateway approval, got %d", len(fake.requests))
	}
	approve, ok := fake.requests[0].(tgbotapi.ApproveChatJoinRequestConfig)
	if !ok {
		t.Fatalf("unexpected request type %T", fake.requests[0])
	}
	if approve.ChatID != 7 || approve.UserID != 42 {
		t.Fatalf("unexpected approval target: %+v", approve)
	}

	approvals, err := store.ListApprovals(context.Background())
	if err != nil {
		t.Fatalf("list approvals: %v", err)
	}
	if len(approvals) != 1 || approvals[0].Username != "alice" || approvals[0].ChatTitle != "Main Channel" {
		t.Fatalf("unexpected recorded event: %+v", approvals)
	}
}

func TestJoinRequestWithoutUsernameRejected(t *testing.T) {
	b, fake, store := newTestBot(t)

	b.handleUpdate(tgbotapi.Update{ChatJoinRequest: &tgbotapi.ChatJoinRequest{
		Chat: tgbotapi.Chat{ID: 7, Title: "Main Channel"},
		From: tgbotapi.User{ID: 42, FirstName: "Alice"},
	}})

	if len(fake.requests) != 0 {
		t.Fatalf("no approval call expected, got %d", len(fake.requests))
	}
	approvals, _ := store.ListApprovals(context.Background())
	if len(approvals) != 0 {
		t.Fatalf("no event expected, got %+v", approvals)
	}
}

func TestStatsCommandViaMessageUpdate(t *testing.T) {
	b, fake, _ := newTestBot(t)

	b.handleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: 5},
		From:     &tgbotapi.User{ID: 100},
		Text:     "/stats",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
	}})

	if len(fake.sent) != 1 || !strings.Contains(fake.sent[0].Text, "Total approved: 0") {
		t.Fatalf("expected a stats reply, got %+v", fake.sent)
	}
}
