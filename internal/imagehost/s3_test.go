package imagehost

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewS3_RequiresConfig(t *testing.T) {
	_, err := NewS3(context.Background(), S3Config{Bucket: "photos"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestS3PublicURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
		want string
	}{
		{
			name: "aws",
			cfg:  S3Config{Bucket: "photos", Region: "eu-west-3"},
			want: "https://photos.s3.eu-west-3.amazonaws.com/listings/a.jpg",
		},
		{
			name: "custom endpoint",
			cfg:  S3Config{Bucket: "photos", Endpoint: "http://localhost:9000/"},
			want: "http://localhost:9000/photos/listings/a.jpg",
		},
		{
			name: "public base",
			cfg:  S3Config{Bucket: "photos", Endpoint: "https://r2.example", PublicBaseURL: "https://cdn.betna.ci/"},
			want: "https://cdn.betna.ci/listings/a.jpg",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &S3{cfg: tt.cfg}
			if got := u.PublicURL("listings/a.jpg"); got != tt.want {
				t.Errorf("PublicURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestS3ObjectKey(t *testing.T) {
	u := &S3{now: func() time.Time { return time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC) }}

	key := u.objectKey("Villa.PNG")
	if !strings.HasPrefix(key, "listings/2026/03/") {
		t.Errorf("key = %q, want listings/2026/03/ prefix", key)
	}
	if !strings.HasSuffix(key, ".png") {
		t.Errorf("key = %q, want .png suffix", key)
	}
	if key == u.objectKey("Villa.PNG") {
		t.Error("expected unique keys per upload")
	}
	if got := u.objectKey("noext"); !strings.HasSuffix(got, ".jpg") {
		t.Errorf("key = %q, want .jpg default", got)
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.png":  "image/png",
		"a.GIF":  "image/gif",
		"a.webp": "image/webp",
		"a.jpeg": "image/jpeg",
		"a":      "image/jpeg",
	}
	for name, want := range tests {
		if got := contentType(name); got != want {
			t.Errorf("contentType(%q) = %q, want %q", name, got, want)
		}
	}
}
