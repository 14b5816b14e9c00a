package domain

import (
	"fmt"
	"strings"
)

// Mode selects how a question is asked and scored.
type Mode string

const (
	// ModeSimple asks only for the hotel name.
	ModeSimple Mode = "simple"
	// ModeTwoStep asks for the hotel name and then the area type;
	// the question scores only if both answers are correct.
	ModeTwoStep Mode = "twostep"
)

// Valid reports whether the mode is one of the known modes.
func (m Mode) Valid() bool {
	return m == ModeSimple || m == ModeTwoStep
}

// SessionConfig is the player-chosen shape of a quiz run.
type SessionConfig struct {
	Questions int  `json:"questions"`
	Mode      Mode `json:"mode"`
}

// CategoryKey buckets leaderboard entries and session bests, e.g. "simple_10".
func (c SessionConfig) CategoryKey() string {
	return fmt.Sprintf("%s_%d", c.Mode, c.Questions)
}

// AreaTypes is the closed vocabulary of hotel area type tags. Catalog file
// names must contain exactly one of these tokens, and the two-step secondary
// question draws its options from this set.
var AreaTypes = []string{
	"casino",
	"lobby",
	"hallway",
	"elevator",
	"suite",
	"restaurant",
	"pool",
	"theater",
}

// IsAreaType reports whether token belongs to the area vocabulary.
func IsAreaType(token string) bool {
	for _, t := range AreaTypes {
		if t == token {
			return true
		}
	}
	return false
}

// QuizItem is one carpet image with its ground truth. Items are built once
// at catalog load and shared read-only across sessions.
type QuizItem struct {
	ID             string `json:"id"`
	PrimaryLabel   string `json:"primaryLabel"`
	SecondaryLabel string `json:"secondaryLabel,omitempty"`
	SubArea        string `json:"subArea,omitempty"`
	ImagePath      string `json:"imagePath,omitempty"`
	Description    string `json:"description,omitempty"`
}

// Catalog is an ordered, ID-deduplicated collection of quiz items.
type Catalog struct {
	Items []QuizItem `json:"items"`
}

// Len returns the number of items.
func (c Catalog) Len() int { return len(c.Items) }

// Labels returns the distinct primary labels in catalog order.
func (c Catalog) Labels() []string {
	seen := make(map[string]struct{}, len(c.Items))
	labels := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		if _, ok := seen[item.PrimaryLabel]; ok {
			continue
		}
		seen[item.PrimaryLabel] = struct{}{}
		labels = append(labels, item.PrimaryLabel)
	}
	return labels
}

// MaxEntryName caps leaderboard display names.
const MaxEntryName = 20

// LeaderboardEntry is one recorded score in a category bucket.
type LeaderboardEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Date  string `json:"date"`
}

// LeaderboardDocument is the whole remote scoreboard: category key mapped to
// a sorted, length-capped bucket of entries. The remote store owns it; local
// copies are short-lived cached reads.
type LeaderboardDocument map[string][]LeaderboardEntry

// Clone deep-copies the document so cached reads stay immutable.
func (d LeaderboardDocument) Clone() LeaderboardDocument {
	out := make(LeaderboardDocument, len(d))
	for key, bucket := range d {
		entries := make([]LeaderboardEntry, len(bucket))
		copy(entries, bucket)
		out[key] = entries
	}
	return out
}

// TruncateName trims whitespace and caps the name at MaxEntryName runes.
func TruncateName(name string) string {
	name = strings.TrimSpace(name)
	runes := []rune(name)
	if len(runes) > MaxEntryName {
		return string(runes[:MaxEntryName])
	}
	return name
}
