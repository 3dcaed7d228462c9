package application

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// writeTransient stores data in a uniquely named file under dir. The caller
// must defer the returned cleanup immediately; it is safe to call on every
// exit path, including a panic unwinding through the caller.
func writeTransient(dir, ext string, data []byte, logger *slog.Logger) (string, func(), error) {
	f, err := os.CreateTemp(dir, "farmvoice-"+uuid.NewString()+"-*"+ext)
	if err != nil {
		return "", func() {}, fmt.Errorf("creating transient file: %w", err)
	}
	path := f.Name()

	cleanup := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("removing transient file", "path", path, "error", err)
		}
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", func() {}, fmt.Errorf("writing transient file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("closing transient file: %w", err)
	}

	return path, cleanup, nil
}
