package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// PresetOverlay loads custom mapping presets from a directory of JSON files
// (one preset per file, named <preset>.json) and reloads them when the
// directory changes. Reloads affect subsequent runs only; a run in flight
// keeps the config it resolved at start.
type PresetOverlay struct {
	dir      string
	logger   zerolog.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration
	timer    *time.Timer
	stopCh   chan struct{}

	mu      sync.RWMutex
	watched bool
	presets map[string]*ProjectConfig
}

// NewPresetOverlay creates an overlay registry for a preset directory. A
// missing directory is not an error; it simply yields no overlays until
// created.
func NewPresetOverlay(dir string, logger zerolog.Logger) (*PresetOverlay, error) {
	o := &PresetOverlay{
		dir:      dir,
		logger:   logger.With().Str("component", "preset-overlay").Logger(),
		debounce: 500 * time.Millisecond,
		stopCh:   make(chan struct{}),
		presets:  make(map[string]*ProjectConfig),
	}

	if err := o.Reload(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create preset watcher: %w", err)
	}
	o.watcher = watcher

	o.ensureWatch()

	go o.run()

	return o, nil
}

// Preset returns a clone of an overlay preset by name.
func (o *PresetOverlay) Preset(name string) (*ProjectConfig, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	p, ok := o.presets[name]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// Names returns the names of all loaded overlay presets.
func (o *PresetOverlay) Names() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	names := make([]string, 0, len(o.presets))
	for name := range o.presets {
		names = append(names, name)
	}
	return names
}

// ensureWatch adds the preset directory to the watcher once it exists. The
// directory may be created after construction, so this is retried on every
// reload until it takes.
func (o *PresetOverlay) ensureWatch() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.watcher == nil || o.watched {
		return
	}
	if _, err := os.Stat(o.dir); err != nil {
		return
	}
	if err := o.watcher.Add(o.dir); err != nil {
		o.logger.Warn().Err(err).Msg("Failed to watch preset directory")
		return
	}
	o.watched = true
}

// Reload re-reads all preset files from the overlay directory. Files that
// fail to parse or validate are skipped with a warning; they never poison the
// registry.
func (o *PresetOverlay) Reload() error {
	o.ensureWatch()

	entries, err := os.ReadDir(o.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read preset directory: %w", err)
	}

	loaded := make(map[string]*ProjectConfig)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".json") {
			continue
		}

		path := filepath.Join(o.dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			o.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to read preset file")
			continue
		}

		if err := ValidateConfigJSON(raw); err != nil {
			o.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Invalid preset file")
			continue
		}

		var cfg ProjectConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			o.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to parse preset file")
			continue
		}

		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		cfg.Preset = name
		loaded[name] = &cfg
	}

	o.mu.Lock()
	o.presets = loaded
	o.mu.Unlock()

	o.logger.Debug().Int("presets", len(loaded)).Msg("Preset overlays loaded")
	return nil
}

// Stop stops the overlay watcher.
func (o *PresetOverlay) Stop() error {
	close(o.stopCh)
	if o.watcher != nil {
		return o.watcher.Close()
	}
	return nil
}

// run processes file system events
func (o *PresetOverlay) run() {
	for {
		select {
		case event, ok := <-o.watcher.Events:
			if !ok {
				return
			}

			if !strings.HasSuffix(strings.ToLower(event.Name), ".json") {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) {
				o.logger.Debug().
					Str("file", filepath.Base(event.Name)).
					Str("op", event.Op.String()).
					Msg("Preset change detected")

				o.scheduleReload()
			}

		case err, ok := <-o.watcher.Errors:
			if !ok {
				return
			}
			o.logger.Error().Err(err).Msg("Preset watcher error")

		case <-o.stopCh:
			return
		}
	}
}

// scheduleReload debounces the reload operation
func (o *PresetOverlay) scheduleReload() {
	if o.timer != nil {
		o.timer.Stop()
	}

	o.timer = time.AfterFunc(o.debounce, func() {
		if err := o.Reload(); err != nil {
			o.logger.Warn().Err(err).Msg("Preset reload failed")
		}
	})
}
