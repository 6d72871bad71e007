package model

import (
	"context"
	"time"
)

type AlertRepository interface {
	// Publish appends an alert to the counsellor queue.
	Publish(ctx context.Context, alert *CrisisAlert) error

	// Recent returns up to limit of the newest alerts, oldest first.
	Recent(ctx context.Context, limit int) ([]*CrisisAlert, error)

	// Count returns the number of queued alerts.
	Count(ctx context.Context) (int, error)
}

// CrisisAlert is raised for counsellor follow-up whenever a chat message is
// routed to the crisis responder. It never carries the message text.
type CrisisAlert struct {
	ID              string    `json:"id"`
	RequestID       string    `json:"request_id"`
	UserID          string    `json:"user_id,omitempty"`
	Severity        Severity  `json:"severity"`
	MatchedPatterns []string  `json:"matched_patterns"`
	CreatedAt       time.Time `json:"created_at"`
}
