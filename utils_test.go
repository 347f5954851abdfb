package filecrate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avelts/filecrate"
)

func TestIsValidKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want bool
	}{
		{name: "simple file", key: "file.txt", want: true},
		{name: "nested path", key: "videos/2024/clip.mp4", want: true},
		{name: "unicode", key: "docs/résumé.pdf", want: true},
		{name: "empty", key: "", want: false},
		{name: "root", key: "/", want: false},
		{name: "dot", key: ".", want: false},
		{name: "absolute", key: "/etc/passwd", want: false},
		{name: "trailing slash", key: "dir/", want: false},
		{name: "traversal", key: "../secret", want: false},
		{name: "embedded traversal", key: "a/../b", want: false},
		{name: "double slash", key: "a//b", want: false},
		{name: "dot segment", key: "a/./b", want: false},
		{name: "trailing dot segment", key: "a/.", want: false},
		{name: "backslash", key: `a\b`, want: false},
		{name: "question mark", key: "a?b", want: false},
		{name: "hash", key: "a#b", want: false},
		{name: "tilde", key: "a~b", want: false},
		{name: "space", key: "a b", want: false},
		{name: "control character", key: "a\x01b", want: false},
		{name: "null byte", key: "a\x00b", want: false},
		{name: "invalid utf8", key: string([]byte{0xff, 0xfe}), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filecrate.IsValidKey(tt.key))
		})
	}
}

func TestKeyFromPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "full object url", path: "https://bucket.s3.us-east-1.amazonaws.com/videos/clip.mp4", want: "videos/clip.mp4"},
		{name: "path-style url", path: "http://localhost:9000/bucket/clip.mp4", want: "bucket/clip.mp4"},
		{name: "bare key", path: "videos/clip.mp4", want: "videos/clip.mp4"},
		{name: "leading slash", path: "/videos/clip.mp4", want: "videos/clip.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filecrate.KeyFromPath(tt.path))
		})
	}
}
