package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	"gatekeeper-bot/internal/modules/approval"
	"gatekeeper-bot/internal/modules/audit"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// command is the typed form of an inbound bot command.
type command struct {
	ChatID int64
	UserID int64
	Name   string
	Args   string
}

func (b *Bot) onJoinRequest(ctx context.Context, req approval.JoinRequest) {
	b.logger.Info("join request received", zap.Int64("chat_id", req.ChatID), zap.Int64("user_id", req.UserID))

	switch b.approval.HandleJoin(ctx, b, req) {
	case approval.DecisionApproved:
		b.logger.Info("join request approved", zap.String("username", req.DisplayName()), zap.String("chat", req.ChatTitle))
	case approval.DecisionRejected:
		b.logger.Warn("join request rejected", zap.String("first_name", req.FirstName), zap.String("chat", req.ChatTitle))
	}
}

func (b *Bot) onMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	b.logger.Debug("message received", zap.Int64("user_id", msg.From.ID))
	if !msg.IsCommand() {
		return
	}

	cmd := command{
		ChatID: msg.Chat.ID,
		UserID: msg.From.ID,
		Name:   msg.Command(),
		Args:   strings.TrimSpace(msg.CommandArguments()),
	}
	switch cmd.Name {
	case "start":
		b.reply(cmd.ChatID, "I approve join requests and keep statistics. Admins can run /stats and /activity.")
	case "stats":
		b.handleStatsCommand(ctx, cmd)
	case "activity":
		b.handleActivityCommand(ctx, cmd)
	}
}

func (b *Bot) handleStatsCommand(ctx context.Context, cmd command) {
	userID := strconv.FormatInt(cmd.UserID, 10)
	chatID := strconv.FormatInt(cmd.ChatID, 10)
	b.logger.Info("stats command received", zap.String("user_id", userID))

	if !b.policy.IsAuthorized(userID) {
		b.metrics.IncStatsDenied()
		b.logger.Warn("stats request from unauthorized user", zap.String("user_id", userID))
		b.audit.Log(ctx, audit.LevelWarn, chatID, userID, "stats_denied", "user not on the admin list")
		b.reply(cmd.ChatID, "⛔ You are not allowed to view statistics.")
		return
	}

	snap, err := b.stats.Snapshot(ctx, time.Now())
	if err != nil {
		b.metrics.IncStoreFaults()
		b.logger.Error("stats snapshot failed", zap.Error(err))
		b.reply(cmd.ChatID, "Statistics are temporarily unavailable.")
		return
	}

	b.metrics.IncStatsServed()
	b.audit.Log(ctx, audit.LevelInfo, chatID, userID, "stats_served", "")
	b.replyMarkdown(cmd.ChatID, formatSnapshot(snap))
}

func (b *Bot) handleActivityCommand(ctx context.Context, cmd command) {
	userID := strconv.FormatInt(cmd.UserID, 10)

	if !b.policy.IsAuthorized(userID) {
		b.logger.Warn("activity request from unauthorized user", zap.String("user_id", userID))
		b.reply(cmd.ChatID, "⛔ You are not allowed to view activity.")
		return
	}

	since := time.Now().Add(-24 * time.Hour)
	period := "day"
	if cmd.Args == "week" {
		since = time.Now().Add(-7 * 24 * time.Hour)
		period = "week"
	}
	report, err := b.stats.ActivityReport(ctx, since)
	if err != nil {
		b.logger.Error("activity report failed", zap.Error(err))
		b.reply(cmd.ChatID, "Activity is temporarily unavailable.")
		return
	}
	b.replyMarkdown(cmd.ChatID, formatReport(period, report))
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("reply failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) replyMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("reply failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
