package fixtures

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads path into set whenever the file is written or recreated. It
// blocks until ctx is done. A file that fails to decode is logged and the
// previous data is kept.
func Watch(ctx context.Context, path string, set *Set, log *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fixture watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(path)

	// Editors often replace the file, so watch the directory.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching fixture dir: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			data, err := LoadFile(target)
			if err != nil {
				log.Warn("keeping previous fixtures", zap.String("path", target), zap.Error(err))
				continue
			}

			set.Replace(*data)
			log.Info("reloaded fixtures",
				zap.String("path", target),
				zap.Int("hotspots", len(data.Hotspots)),
				zap.Int("reports", len(data.Reports)),
			)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("fixture watcher error: %w", err)
		}
	}
}
