package model

import "time"

// FeedbackType classifies a feedback entry. Only positive entries may be
// showcased publicly; the authz package enforces the downgrade.
type FeedbackType string

const (
	FeedbackPositive FeedbackType = "positive"
	FeedbackNeutral  FeedbackType = "neutral"
	FeedbackNegative FeedbackType = "negative"
)

// Feedback mirrors the 'feedback' table.
type Feedback struct {
	ID        uint64
	UserID    uint64
	Type      FeedbackType
	Body      string
	Showcased bool
	CreatedAt time.Time
}
