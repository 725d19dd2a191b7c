package urlutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "plain https",
			input: "https://example.com/page",
			want:  "https://example.com/page",
		},
		{
			name:  "uppercase scheme and host lowered",
			input: "HTTPS://Example.COM/Page",
			want:  "https://example.com/Page",
		},
		{
			name:  "trailing slash dropped",
			input: "https://example.com/page/",
			want:  "https://example.com/page",
		},
		{
			name:  "root path collapses to bare host",
			input: "https://example.com/",
			want:  "https://example.com",
		},
		{
			name:  "fragment dropped",
			input: "https://example.com/page#section-2",
			want:  "https://example.com/page",
		},
		{
			name:  "query preserved",
			input: "https://example.com/page?ref=partner&utm=x",
			want:  "https://example.com/page?ref=partner&utm=x",
		},
		{
			name:  "surrounding whitespace trimmed",
			input: "  https://example.com/page  ",
			want:  "https://example.com/page",
		},
		{
			name:  "port preserved",
			input: "http://example.com:8080/page",
			want:  "http://example.com:8080/page",
		},
		{
			name:    "ftp scheme rejected",
			input:   "ftp://example.com/file",
			wantErr: true,
		},
		{
			name:    "relative URL rejected",
			input:   "/just/a/path",
			wantErr: true,
		},
		{
			name:    "scheme without host rejected",
			input:   "https://",
			wantErr: true,
		},
		{
			name:    "garbage rejected",
			input:   "ht tp://bad url",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidURL))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{
			name: "slash and fragment variants match",
			a:    "https://example.com/page/",
			b:    "https://example.com/page#top",
			want: true,
		},
		{
			name: "case-insensitive host",
			a:    "https://EXAMPLE.com/page",
			b:    "https://example.com/page",
			want: true,
		},
		{
			name: "different query does not match",
			a:    "https://example.com/page?a=1",
			b:    "https://example.com/page?a=2",
			want: false,
		},
		{
			name: "different path case does not match",
			a:    "https://example.com/Page",
			b:    "https://example.com/page",
			want: false,
		},
		{
			name: "malformed side never matches",
			a:    "not a url",
			b:    "not a url",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestResolveRef(t *testing.T) {
	t.Run("relative path", func(t *testing.T) {
		got, err := ResolveRef("https://blog.example.com/posts/review", "/partners/acme")
		require.NoError(t, err)
		assert.Equal(t, "https://blog.example.com/partners/acme", got)
	})

	t.Run("absolute href passes through", func(t *testing.T) {
		got, err := ResolveRef("https://blog.example.com/posts/review", "https://acme.dev/tool")
		require.NoError(t, err)
		assert.Equal(t, "https://acme.dev/tool", got)
	})

	t.Run("protocol-relative href adopts base scheme", func(t *testing.T) {
		got, err := ResolveRef("https://blog.example.com/posts/review", "//acme.dev/tool")
		require.NoError(t, err)
		assert.Equal(t, "https://acme.dev/tool", got)
	})
}
