package s3_test

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelts/filecrate/s3"
)

var hexSignature = regexp.MustCompile(`^[0-9a-f]{64}$`)

func newFixedSigner() *s3.Signer {
	signer := s3.NewSigner("us-east-1", s3.Credentials{
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
	})
	signer.Now = func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return signer
}

func TestSigner_SignRequest(t *testing.T) {
	t.Run("sets date, payload hash, and authorization", func(t *testing.T) {
		signer := newFixedSigner()

		req, err := http.NewRequest(http.MethodPut, "https://bucket.s3.us-east-1.amazonaws.com/videos/clip.mp4", nil)
		require.NoError(t, err)

		signer.SignRequest(req)

		assert.Equal(t, "20240601T120000Z", req.Header.Get("X-Amz-Date"))
		assert.Equal(t, "UNSIGNED-PAYLOAD", req.Header.Get("X-Amz-Content-Sha256"))

		auth := req.Header.Get("Authorization")
		assert.True(t, strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20240601/us-east-1/s3/aws4_request, "))
		assert.Contains(t, auth, "SignedHeaders=")
		assert.Contains(t, auth, "host")

		_, signature, found := strings.Cut(auth, "Signature=")
		require.True(t, found)
		assert.Regexp(t, hexSignature, signature)
	})

	t.Run("deterministic under a fixed clock", func(t *testing.T) {
		signer := newFixedSigner()

		first, err := http.NewRequest(http.MethodPut, "https://bucket.s3.us-east-1.amazonaws.com/clip.mp4", nil)
		require.NoError(t, err)
		second, err := http.NewRequest(http.MethodPut, "https://bucket.s3.us-east-1.amazonaws.com/clip.mp4", nil)
		require.NoError(t, err)

		signer.SignRequest(first)
		signer.SignRequest(second)

		assert.Equal(t, first.Header.Get("Authorization"), second.Header.Get("Authorization"))
	})

	t.Run("signature changes with the path", func(t *testing.T) {
		signer := newFixedSigner()

		first, err := http.NewRequest(http.MethodPut, "https://bucket.s3.us-east-1.amazonaws.com/a.txt", nil)
		require.NoError(t, err)
		second, err := http.NewRequest(http.MethodPut, "https://bucket.s3.us-east-1.amazonaws.com/b.txt", nil)
		require.NoError(t, err)

		signer.SignRequest(first)
		signer.SignRequest(second)

		assert.NotEqual(t, first.Header.Get("Authorization"), second.Header.Get("Authorization"))
	})
}

func TestSigner_Presign(t *testing.T) {
	objectURL := func(t *testing.T) *url.URL {
		t.Helper()
		u, err := url.Parse("https://bucket.s3.us-east-1.amazonaws.com/videos/clip.mp4?partNumber=2&uploadId=uid-1")
		require.NoError(t, err)
		return u
	}

	t.Run("carries the full signing query", func(t *testing.T) {
		signer := newFixedSigner()

		signed, err := signer.Presign(http.MethodPut, objectURL(t), nil, 5*time.Minute)
		require.NoError(t, err)

		u, err := url.Parse(signed)
		require.NoError(t, err)
		query := u.Query()

		assert.Equal(t, "AWS4-HMAC-SHA256", query.Get("X-Amz-Algorithm"))
		assert.Equal(t, "AKIDEXAMPLE/20240601/us-east-1/s3/aws4_request", query.Get("X-Amz-Credential"))
		assert.Equal(t, "20240601T120000Z", query.Get("X-Amz-Date"))
		assert.Equal(t, "300", query.Get("X-Amz-Expires"))
		assert.Equal(t, "host", query.Get("X-Amz-SignedHeaders"))
		assert.Regexp(t, hexSignature, query.Get("X-Amz-Signature"))

		assert.Equal(t, "2", query.Get("partNumber"))
		assert.Equal(t, "uid-1", query.Get("uploadId"))
		assert.Equal(t, "/videos/clip.mp4", u.Path)
	})

	t.Run("signed headers include extra headers", func(t *testing.T) {
		signer := newFixedSigner()

		headers := http.Header{"Content-Type": []string{"video/mp4"}}
		signed, err := signer.Presign(http.MethodPut, objectURL(t), headers, time.Minute)
		require.NoError(t, err)

		u, err := url.Parse(signed)
		require.NoError(t, err)
		assert.Equal(t, "content-type;host", u.Query().Get("X-Amz-SignedHeaders"))
	})

	t.Run("expiry bounds", func(t *testing.T) {
		signer := newFixedSigner()
		u := objectURL(t)

		_, err := signer.Presign(http.MethodPut, u, nil, 0)
		assert.Error(t, err)

		_, err = signer.Presign(http.MethodPut, u, nil, -time.Minute)
		assert.Error(t, err)

		_, err = signer.Presign(http.MethodPut, u, nil, 7*24*time.Hour+time.Second)
		assert.Error(t, err)

		_, err = signer.Presign(http.MethodPut, u, nil, time.Second)
		assert.NoError(t, err)

		_, err = signer.Presign(http.MethodPut, u, nil, 7*24*time.Hour)
		assert.NoError(t, err)
	})

	t.Run("deterministic under a fixed clock", func(t *testing.T) {
		signer := newFixedSigner()

		first, err := signer.Presign(http.MethodPut, objectURL(t), nil, time.Minute)
		require.NoError(t, err)
		second, err := signer.Presign(http.MethodPut, objectURL(t), nil, time.Minute)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})
}
