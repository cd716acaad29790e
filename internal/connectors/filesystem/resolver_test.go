package filesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{
			name: "file:// URI is converted to local path",
			uri:  "file:///Users/test/documents/report.pdf",
			want: "/Users/test/documents/report.pdf",
		},
		{
			name: "file:// URI with spaces",
			uri:  "file:///Users/test/my documents/report.pdf",
			want: "/Users/test/my documents/report.pdf",
		},
		{
			name: "bare path passes through",
			uri:  "/Users/test/documents",
			want: "/Users/test/documents",
		},
		{
			name: "relative path is cleaned",
			uri:  "docs/./reports/../papers/",
			want: "docs/papers",
		},
		{
			name: "empty stays empty",
			uri:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePath(tt.uri))
		})
	}
}

func TestSource_ResolveRoot(t *testing.T) {
	src := New()

	assert.Equal(t, "/srv/docs", src.ResolveRoot("file:///srv/docs/"))
	assert.Equal(t, "/srv/docs", src.ResolveRoot("/srv/docs"))
	assert.Equal(t, "", src.ResolveRoot(""))
}
