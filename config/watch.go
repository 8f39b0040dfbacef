package config

import (
	"fmt"

	"github.com/knadh/koanf/providers/file"
)

// Watcher reloads a configuration file when it changes.
type Watcher struct {
	provider *file.File
}

// Watch calls onChange with a freshly loaded configuration each time the
// file at path changes. Load failures are passed to onChange and watching
// continues.
func Watch(path string, onChange func(*Config, error)) (*Watcher, error) {
	provider := file.Provider(path)
	err := provider.Watch(func(_ any, err error) {
		if err != nil {
			onChange(nil, fmt.Errorf("config watch: %w", err))
			return
		}
		onChange(LoadFile(path))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}
	return &Watcher{provider: provider}, nil
}

// Stop ends watching.
func (w *Watcher) Stop() error {
	return w.provider.Unwatch()
}
