// Package storage holds the blob backends for synthesized responses.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
)

// Blob is a stored response read back for serving.
type Blob struct {
	Body        io.ReadCloser
	ContentType string
}

// Reader is implemented by the backends the service can serve from itself.
type Reader interface {
	Open(ctx context.Context, name string) (*Blob, error)
}

// cleanName rejects names that would escape the store root.
func cleanName(name string) (string, error) {
	name = strings.TrimPrefix(name, "/")
	if name == "" || strings.Contains(name, "\\") {
		return "", fmt.Errorf("invalid blob name %q", name)
	}
	cleaned := path.Clean(name)
	if cleaned != name || cleaned == "." || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("invalid blob name %q", name)
	}
	return cleaned, nil
}

func publicURL(base, name string) string {
	return strings.TrimRight(base, "/") + "/" + name
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "audio/mpeg"
}
