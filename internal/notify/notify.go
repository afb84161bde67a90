// Package notify carries model-fallback announcements from whichever
// component detects a provider failure to whoever is listening, without the
// orchestration layer depending on who that is.
package notify

import "time"

// Category is the generation domain a fallback event belongs to.
type Category string

// The fixed set of generation domains.
const (
	CategoryImage Category = "image"
	CategoryVideo Category = "video"
	CategoryText  Category = "text"
)

// IsValid returns true if the category is part of the fixed domain set.
func (c Category) IsValid() bool {
	return c == CategoryImage || c == CategoryVideo || c == CategoryText
}

// Recognized reason values. Presentation translates ReasonQuotaExhausted
// into dedicated user-facing phrasing; everything else is rendered as a
// generic failure.
const (
	ReasonQuotaExhausted  = "quota exhausted"
	ReasonProviderFailure = "provider failure"
)

// Event is a one-shot notification that a model substitution occurred.
// Exactly one event is published per fallback decision. Display,
// accumulation and the timed 5-second removal are presentation concerns.
type Event struct {
	Category  Category  `json:"category"`
	FromModel string    `json:"from"`
	ToModel   string    `json:"to"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
