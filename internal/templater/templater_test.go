package templater

import (
	"testing"

	"booru/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestExecTemplate(t *testing.T) {
	post := domain.Post{
		ID:         "42",
		SourceSite: "e926.net",
		Rating:     domain.RatingSafe,
		Score:      7,
		Hash:       "d41d8cd9",
	}

	tests := []struct {
		template string
		want     string
	}{
		{"{site}-{id}", "e926.net-42"},
		{"{id:6}", "000042"},
		{"{score:3}_{rating}", "007_safe"},
		{"{id}{md5:_<.>}", "42_d41d8cd9"},
		{"{unknown}-{id}", "{unknown}-42"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, New(post).ExecTemplate(tt.template), tt.template)
	}
}

func TestExecTemplate_OptionalParts(t *testing.T) {
	post := domain.Post{ID: "1", SourceSite: "derpibooru.org"}

	require.Equal(t, "1", New(post).ExecTemplate("{id}{md5:_<.>}"))
	require.Equal(t, "derpibooru.org-1-", New(post).ExecTemplate("{site}-{id}-{md5}"))
}
