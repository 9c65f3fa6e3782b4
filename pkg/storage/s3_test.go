package storage

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPresigner(t *testing.T) *S3Presigner {
	t.Helper()
	p, err := NewS3Presigner(S3Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		Bucket:          "attachments",
		BasePath:        "chat/",
		ForcePathStyle:  true,
		Expiry:          5 * time.Minute,
	})
	require.NoError(t, err)
	return p
}

func TestPresignGet(t *testing.T) {
	p := newTestPresigner(t)
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	raw, expiresAt, err := p.PresignGet(context.Background(), "req-1/quote.pdf")
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(5*time.Minute), expiresAt)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/attachments/chat/req-1/quote.pdf", u.Path)
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestPresignGetRejectsBadKeys(t *testing.T) {
	p := newTestPresigner(t)
	for _, key := range []string{"", "/", "../secrets"} {
		_, _, err := p.PresignGet(context.Background(), key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestNewS3PresignerRequiresBucket(t *testing.T) {
	_, err := NewS3Presigner(S3Config{})
	assert.Error(t, err)
}
