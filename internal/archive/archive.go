// Package archive keeps a copy of every exported machine document.
package archive

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/tphummel/machine_registry/internal/apiclient"
	"github.com/tphummel/machine_registry/internal/mutation"
)

// Store persists exported documents under a key.
type Store interface {
	Put(ctx context.Context, key string, doc apiclient.Document) error
}

// Key returns the archive key for a document exported at the given time:
// <yyyy>/<mm>/<dd>/<unix-nanos>_<name>.
func Key(name string, at time.Time) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	at = at.UTC()
	return path.Join(at.Format("2006/01/02"), fmt.Sprintf("%d_%s", at.UnixNano(), name)), nil
}

// validName rejects names that could escape the archive root.
func validName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("empty document name")
	case strings.Contains(name, ".."):
		return fmt.Errorf("invalid document name %q: contains '..'", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("invalid document name %q: contains a path separator", name)
	}
	return nil
}

// Tee delivers every download to next and then copies it into store. An
// archive failure is logged and does not fail the download.
func Tee(next mutation.Downloader, store Store, logger *slog.Logger) mutation.Downloader {
	if logger == nil {
		logger = slog.Default()
	}
	return mutation.DownloadFunc(func(ctx context.Context, name string, doc apiclient.Document) error {
		if err := next.Download(ctx, name, doc); err != nil {
			return err
		}
		key, err := Key(name, time.Now())
		if err == nil {
			err = store.Put(ctx, key, doc)
		}
		if err != nil {
			logger.Warn("archive export", "name", name, "error", err)
			return nil
		}
		logger.Info("export archived", "key", key, "bytes", len(doc.Data))
		return nil
	})
}
