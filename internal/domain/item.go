package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ItemKind enumerates supported source families.
type ItemKind string

const (
	KindRSS     ItemKind = "rss"
	KindTwitter ItemKind = "twitter"
)

// Item is a core entity describing one collected piece of content,
// normalized to a common shape regardless of origin.
type Item struct {
	Identity    string
	Kind        ItemKind
	SourceLabel string
	Title       string
	Excerpt     string
	URL         string
	Author      string
	PublishedAt time.Time
	Score       *float64
}

// Scored reports whether the relevance scorer has populated Score.
func (i Item) Scored() bool {
	return i.Score != nil
}

// ScoreValue returns the score, or zero when unscored.
func (i Item) ScoreValue() float64 {
	if i.Score == nil {
		return 0
	}
	return *i.Score
}

// DeriveIdentity produces the stable deduplication key for an item.
// The key hashes the source kind and the canonical URL, so the same
// underlying content maps to the same identity across runs. Tweet URLs
// embed the tweet id, which keeps the rule uniform for both kinds.
func DeriveIdentity(kind ItemKind, canonicalURL string) string {
	sum := sha256.Sum256([]byte(string(kind) + "\x00" + canonicalURL))
	return hex.EncodeToString(sum[:])
}
