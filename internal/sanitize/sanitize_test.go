package sanitize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilename(t *testing.T) {
	tests := map[string]string{
		"e926.net-42":           "e926.net-42",
		` ..a<b>c:"d"/e\f|g?*.`: "abcdefg",
		"tab\there":             "tabhere",
		"..":                    "",
	}

	for in, want := range tests {
		require.Equal(t, want, Filename(in), in)
	}
}
