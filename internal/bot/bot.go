package bot

import (
	"context"

	"gatekeeper-bot/internal/access"
	"gatekeeper-bot/internal/config"
	"gatekeeper-bot/internal/metrics"
	"gatekeeper-bot/internal/modules/approval"
	"gatekeeper-bot/internal/modules/audit"
	"gatekeeper-bot/internal/stats"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// api is the slice of the Telegram client the bot uses, so handlers can be
// exercised against a fake in tests.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Bot struct {
	logger   *zap.Logger
	policy   *access.Policy
	stats    *stats.Aggregator
	approval *approval.Module
	audit    *audit.Logger
	metrics  metrics.Provider
	api      api
	done     chan struct{}
}

func New(cfg config.Config, logger *zap.Logger, policy *access.Policy, aggregator *stats.Aggregator, approvalModule *approval.Module, auditLogger *audit.Logger, provider metrics.Provider) (*Bot, error) {
	client, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, err
	}

	return &Bot{
		logger:   logger,
		policy:   policy,
		stats:    aggregator,
		approval: approvalModule,
		audit:    auditLogger,
		metrics:  provider,
		api:      client,
		done:     make(chan struct{}),
	}, nil
}

func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)
	go b.run(updates)
	return nil
}

func (b *Bot) Close(ctx context.Context) {
	_ = ctx
	close(b.done)
	b.api.StopReceivingUpdates()
}

func (b *Bot) run(updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-b.done:
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(update)
		}
	}
}

// handleUpdate is the fault boundary: a panic in one update's handling is
// logged and the loop keeps serving the next update.
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("update handler fault", zap.Any("fault", r))
		}
	}()

	ctx := context.Background()
	switch {
	case update.ChatJoinRequest != nil:
		b.onJoinRequest(ctx, joinRequestEvent(update.ChatJoinRequest))
	case update.Message != nil:
		b.onMessage(ctx, update.Message)
	}
}

func joinRequestEvent(req *tgbotapi.ChatJoinRequest) approval.JoinRequest {
	return approval.JoinRequest{
		ChatID:    req.Chat.ID,
		ChatTitle: req.Chat.Title,
		UserID:    req.From.ID,
		Username:  req.From.UserName,
		FirstName: req.From.FirstName,
	}
}

// ApproveJoinRequest implements approval.Gateway.
func (b *Bot) ApproveJoinRequest(ctx context.Context, chatID, userID int64) error {
	_ = ctx
	_, err := b.api.Request(tgbotapi.ApproveChatJoinRequestConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
		UserID:     userID,
	})
	return err
}
