package s3

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildCanonicalQueryString(t *testing.T) {
	t.Run("percent-encodes pairs per RFC 3986", func(t *testing.T) {
		query := url.Values{}
		query.Set("partNumber", "3")
		query.Set("uploadId", "2~a b+c/d")

		got := buildCanonicalQueryString(query)
		assert.Equal(t, "partNumber=3&uploadId=2~a%20b%2Bc%2Fd", got)
	})

	t.Run("sorts by parameter name", func(t *testing.T) {
		query := url.Values{}
		query.Set("uploadId", "uid-1")
		query.Set("X-Amz-Expires", "300")
		query.Set("partNumber", "1")

		assert.Equal(t, "X-Amz-Expires=300&partNumber=1&uploadId=uid-1", buildCanonicalQueryString(query))
	})

	t.Run("excludes the signature parameter", func(t *testing.T) {
		query := url.Values{}
		query.Set("X-Amz-Signature", "deadbeef")
		query.Set("uploadId", "uid-1")

		assert.Equal(t, "uploadId=uid-1", buildCanonicalQueryString(query))
	})

	t.Run("repeated names keep every value, sorted", func(t *testing.T) {
		query := url.Values{"tag": {"beta", "alpha"}}

		assert.Equal(t, "tag=alpha&tag=beta", buildCanonicalQueryString(query))
	})
}
