package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"modelman/pkg/logger"
)

// Watch reloads the configuration whenever the file at path changes and
// hands the result to onChange. It returns a stop function. Used by
// long-running sessions to pick up log-level changes without restarting.
func Watch(path string, onChange func(*Config)) (func(), error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: editors replace the file on save, which would
	// otherwise drop the watch.
	if err := watcher.Add(filepath.Dir(expanded)); err != nil {
		watcher.Close()
		return nil, err
	}

	log := logger.With("config")
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != expanded {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(expanded)
				if err != nil {
					log.Warn().Err(err).Msg("Failed to reload config")
					continue
				}
				log.Info().Msg("Config reloaded")
				onChange(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("Config watcher error")
			}
		}
	}()

	return func() { watcher.Close() }, nil
}
