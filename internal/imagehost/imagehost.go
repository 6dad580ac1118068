// Package imagehost stores listing photos with an external host and returns
// their public URLs.
package imagehost

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrNotConfigured is returned when no image host credentials are set.
var ErrNotConfigured = errors.New("image hosting not configured")

// Uploader uploads one image and returns the URL it can be fetched from.
type Uploader interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
}

// contentType guesses a MIME type from the file extension.
func contentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
