package storage

import (
	"context"
	"fmt"
	"time"
)

// Approval is one approved join request. Rows are immutable once written and
// ListApprovals returns them in append order.
type Approval struct {
	ID         int64
	Username   string
	ChatTitle  string
	ApprovedAt time.Time
}

func (s *Store) AddApproval(ctx context.Context, approval Approval) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO approved_requests (username, chat_title, approved_at)
		VALUES (?, ?, ?)
	`, approval.Username, approval.ChatTitle, approval.ApprovedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *Store) ListApprovals(ctx context.Context) ([]Approval, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, chat_title, approved_at
		FROM approved_requests
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var approvals []Approval
	for rows.Next() {
		var approval Approval
		var approvedAt string
		if err := rows.Scan(&approval.ID, &approval.Username, &approval.ChatTitle, &approvedAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, approvedAt)
		if err != nil {
			return nil, fmt.Errorf("approval %d has bad timestamp %q: %w", approval.ID, approvedAt, err)
		}
		approval.ApprovedAt = parsed
		approvals = append(approvals, approval)
	}
	return approvals, rows.Err()
}
