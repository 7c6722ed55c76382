package filestorage

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/SeakMengs/certportal/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestPublicBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.MinioConfig
		want string
	}{
		{
			name: "endpoint without ssl",
			cfg:  config.MinioConfig{ENDPOINT: "127.0.0.1:9000", BUCKET: "certificates"},
			want: "http://127.0.0.1:9000/certificates",
		},
		{
			name: "endpoint with ssl",
			cfg:  config.MinioConfig{ENDPOINT: "s3.example.com", BUCKET: "certs", USE_SSL: true},
			want: "https://s3.example.com/certs",
		},
		{
			name: "public url wins",
			cfg:  config.MinioConfig{ENDPOINT: "127.0.0.1:9000", BUCKET: "certs", PUBLIC_URL: "https://cdn.example.com/"},
			want: "https://cdn.example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PublicBaseURL(&tt.cfg))
		})
	}
}

func TestPublicURLRoundTrip(t *testing.T) {
	cfg := &config.MinioConfig{ENDPOINT: "127.0.0.1:9000", BUCKET: "certificates"}
	store := NewMinioStore(nil, cfg, zap.NewNop().Sugar())

	key := "events/e1/certificates/delegate/Alice Smith_abc.pdf"
	link := store.PublicURL(key)
	assert.Equal(t, "http://127.0.0.1:9000/certificates/events/e1/certificates/delegate/Alice%20Smith_abc.pdf", link)

	got, ok := store.KeyFromURL(link)
	assert.True(t, ok)
	assert.Equal(t, key, got)

	_, ok = store.KeyFromURL("https://drive.example.com/cert.pdf")
	assert.False(t, ok)
}

func TestIsPreconditionFailed(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "precondition code", err: minio.ErrorResponse{Code: "PreconditionFailed", StatusCode: http.StatusPreconditionFailed}, want: true},
		{name: "status only", err: minio.ErrorResponse{StatusCode: http.StatusPreconditionFailed}, want: true},
		{name: "wrapped", err: fmt.Errorf("put: %w", minio.ErrorResponse{Code: "PreconditionFailed"}), want: true},
		{name: "access denied", err: minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}, want: false},
		{name: "network", err: errors.New("connection refused"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isPreconditionFailed(tt.err))
		})
	}
}
