package receiver

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/bft-labs/xferbench/pkg/log"
)

// watchedConfig is the subset of the config file the watcher applies
// without a restart.
type watchedConfig struct {
	RejectProbability *float64 `toml:"reject_probability"`
}

// ConfigWatcher monitors the TOML config file while the receiver is
// serving and applies rejection-probability changes to the sink on the
// fly. Events are debounced because editors and atomic writes produce
// bursts.
type ConfigWatcher struct {
	path          string
	sink          *Sink
	logger        log.Logger
	debounceDelay time.Duration

	mu       sync.Mutex
	debounce *time.Timer
}

// NewConfigWatcher creates a watcher for the config file at path.
func NewConfigWatcher(path string, sink *Sink, logger log.Logger) *ConfigWatcher {
	return &ConfigWatcher{
		path:          path,
		sink:          sink,
		logger:        logger,
		debounceDelay: 100 * time.Millisecond,
	}
}

// Run watches until the context is canceled. The parent directory is
// watched rather than the file itself so rename-and-replace writes keep
// working.
func (w *ConfigWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	base := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.scheduleApply()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", log.Err(err))
		}
	}
}

// scheduleApply resets the debounce timer so a burst of events produces
// one reload.
func (w *ConfigWatcher) scheduleApply() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(w.debounceDelay, w.apply)
}

// apply re-reads the config file and swaps the sink's rejection
// probability if the file sets one.
func (w *ConfigWatcher) apply() {
	b, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.Warn("config reload failed", log.String("path", w.path), log.Err(err))
		return
	}

	var wc watchedConfig
	if err := toml.Unmarshal(b, &wc); err != nil {
		w.logger.Warn("config reload parse failed", log.String("path", w.path), log.Err(err))
		return
	}
	if wc.RejectProbability == nil {
		return
	}

	w.sink.SetRejectProbability(*wc.RejectProbability)
	w.logger.Info("reject probability reloaded",
		log.Float64("reject_probability", w.sink.RejectProbability()))
}
