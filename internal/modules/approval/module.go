package approval

import (
	"context"
	"strconv"
	"time"

	"gatekeeper-bot/internal/metrics"
	"gatekeeper-bot/internal/modules/audit"
	"gatekeeper-bot/internal/storage"

	"go.uber.org/zap"
)

// Gateway is the chat-platform call the module needs: approving a pending
// join request.
type Gateway interface {
	ApproveJoinRequest(ctx context.Context, chatID, userID int64) error
}

// JoinRequest is the typed form of an inbound join-request update, validated
// before it reaches this module.
type JoinRequest struct {
	ChatID    int64
	ChatTitle string
	UserID    int64
	Username  string
	FirstName string
}

// DisplayName is the identity recorded on approval: handle first, display
// name as fallback.
func (r JoinRequest) DisplayName() string {
	if r.Username != "" {
		return r.Username
	}
	return r.FirstName
}

type Decision int

const (
	DecisionIgnored Decision = iota
	DecisionRejected
	DecisionApproved
	DecisionFailed
)

type Config struct {
	RequireUsername bool
	AutoApprove     bool
}

type Module struct {
	cfg     Config
	store   *storage.Store
	audit   *audit.Logger
	metrics metrics.Provider
	logger  *zap.Logger
	now     func() time.Time
}

func New(cfg Config, store *storage.Store, auditLogger *audit.Logger, provider metrics.Provider, logger *zap.Logger) *Module {
	return &Module{
		cfg:     cfg,
		store:   store,
		audit:   auditLogger,
		metrics: provider,
		logger:  logger,
		now:     time.Now,
	}
}

func (m *Module) HandleJoin(ctx context.Context, gateway Gateway, req JoinRequest) Decision {
	chatID := strconv.FormatInt(req.ChatID, 10)
	userID := strconv.FormatInt(req.UserID, 10)

	if m.cfg.RequireUsername && req.Username == "" {
		m.metrics.IncRejected()
		m.audit.Log(ctx, audit.LevelWarn, chatID, userID, "join_rejected", "request from "+req.FirstName+" has no username")
		return DecisionRejected
	}

	if !m.cfg.AutoApprove {
		// Left pending for manual review in the client.
		m.logger.Debug("join request left pending", zap.String("chat_id", chatID), zap.String("user_id", userID))
		return DecisionIgnored
	}

	if err := gateway.ApproveJoinRequest(ctx, req.ChatID, req.UserID); err != nil {
		m.logger.Error("join request approval failed", zap.String("chat_id", chatID), zap.String("user_id", userID), zap.Error(err))
		return DecisionFailed
	}

	username := req.DisplayName()
	event := storage.Approval{
		Username:   username,
		ChatTitle:  req.ChatTitle,
		ApprovedAt: m.now(),
	}
	if err := m.store.AddApproval(ctx, event); err != nil {
		// The approval already happened at the gateway; the event is
		// dropped, not retried.
		m.metrics.IncStoreFaults()
		m.logger.Error("approval not recorded", zap.String("username", username), zap.Error(err))
	}

	m.metrics.IncApproved()
	m.audit.Log(ctx, audit.LevelInfo, chatID, userID, "join_approved", "@"+username+" in "+req.ChatTitle)
	return DecisionApproved
}
