package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveIdentityIsStable(t *testing.T) {
	t.Parallel()

	first := DeriveIdentity(KindRSS, "https://example.com/article")
	second := DeriveIdentity(KindRSS, "https://example.com/article")
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestDeriveIdentityVariesByKindAndURL(t *testing.T) {
	t.Parallel()

	url := "https://example.com/article"
	assert.NotEqual(t, DeriveIdentity(KindRSS, url), DeriveIdentity(KindTwitter, url))
	assert.NotEqual(t, DeriveIdentity(KindRSS, url), DeriveIdentity(KindRSS, url+"?x=1"))
}

func TestScoreHelpers(t *testing.T) {
	t.Parallel()

	var item Item
	assert.False(t, item.Scored())
	assert.Equal(t, 0.0, item.ScoreValue())

	v := 0.75
	item.Score = &v
	assert.True(t, item.Scored())
	assert.Equal(t, 0.75, item.ScoreValue())
}
