package config

import (
	"time"

	"github.com/timetracker/tdash/internal/logging"
	"github.com/timetracker/tdash/internal/watcher"
)

// WatchDebounce is how long the file must be quiet before a reload.
const WatchDebounce = 500 * time.Millisecond

// Watch reloads path whenever it changes and passes the new config to
// onChange. Files that fail to parse are logged and skipped so the caller
// keeps its previous config. The returned func stops watching.
func Watch(path string, onChange func(*Config)) (func(), error) {
	if path == "" {
		path = DefaultPath()
	}

	log := logging.Default().With("path", path)
	w, err := watcher.New(func(_ []string) {
		cfg, err := Load(path)
		if err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		log.Info("config reloaded")
		if onChange != nil {
			onChange(cfg)
		}
	},
		watcher.WithDebounceDuration(WatchDebounce),
		watcher.WithErrorHandler(func(err error) {
			log.Warn("config watch error", "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}
	return func() { w.Close() }, nil
}
