package models

import "time"

// Note is a single journal entry written by the user.
type Note struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"    validate:"required"`
	Content   string    `json:"content" validate:"required"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Analysis is the structured result of the daily-audit analyze node. The
// language model produces it as JSON; the handler validates the shape before
// trusting it.
type Analysis struct {
	Summary    string   `json:"summary"`
	Mood       string   `json:"mood,omitempty"`
	RiskScore  int      `json:"risk_score"`
	Highlights []string `json:"highlights,omitempty"`
	Concerns   []string `json:"concerns,omitempty"`
}

// Summary is the persisted output of an approved daily audit.
type Summary struct {
	ID             string    `json:"id"`
	Date           string    `json:"date"`
	Content        string    `json:"content"`
	RiskScore      int       `json:"risk_score"`
	IdempotencyKey string    `json:"idempotency_key"`
	CreatedAt      time.Time `json:"created_at"`
}

// Routine is a generated daily routine proposal.
type Routine struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Steps          []string  `json:"steps"`
	IdempotencyKey string    `json:"idempotency_key"`
	CreatedAt      time.Time `json:"created_at"`
}
