package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

type stubSource struct{ label string }

func (s *stubSource) Label() string { return s.label }

func (s *stubSource) Collect(context.Context) ([]domain.Item, error) { return nil, nil }

func TestBuildConstructsOneAdapterPerEntry(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(domain.KindRSS, func(cfg config.SourceConfig) (ports.Source, error) {
		return &stubSource{label: cfg.Label}, nil
	})

	entries := []config.SourceConfig{
		{Kind: domain.KindRSS, Label: "Feed A", Address: "https://example.com/a"},
		{Kind: domain.KindRSS, Label: "Feed B", Address: "https://example.com/b"},
	}

	sources, err := reg.Build(entries)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "Feed A", sources[0].Label())
	assert.Equal(t, "Feed B", sources[1].Label())
}

func TestBuildUnknownKindFails(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	_, err := reg.Build([]config.SourceConfig{{Kind: domain.KindTwitter, Label: "@x", Address: "x"}})
	require.Error(t, err)
}
