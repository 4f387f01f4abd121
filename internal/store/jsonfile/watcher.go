package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const (
	debounceDelay   = 50 * time.Millisecond
	eventBufferSize = 100
)

// ChangeEvent reports that a JSON file in the watched directory changed.
type ChangeEvent struct {
	Name      string // file name without the .json suffix
	Timestamp time.Time
}

// Watcher watches a directory for changes to JSON files using fsnotify.
type Watcher struct {
	dir     string
	watcher *fsnotify.Watcher

	mu          sync.RWMutex
	subscribers map[string][]chan<- ChangeEvent // pattern -> channels
	debounce    map[string]*time.Timer          // name -> debounce timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher for dir. The directory is created if it
// doesn't exist.
func NewWatcher(dir string) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		dir:         dir,
		watcher:     watcher,
		subscribers: make(map[string][]chan<- ChangeEvent),
		debounce:    make(map[string]*time.Timer),
		ctx:         ctx,
		cancel:      cancel,
	}

	w.wg.Add(1)
	go w.run()

	return w, nil
}

// Watch returns a channel that receives events when files matching pattern
// change. Patterns are "*" for every file, "prefix*" or an exact name.
func (w *Watcher) Watch(ctx context.Context, pattern string) (<-chan ChangeEvent, error) {
	ch := make(chan ChangeEvent, eventBufferSize)

	w.mu.Lock()
	w.subscribers[pattern] = append(w.subscribers[pattern], ch)
	w.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			w.unsubscribe(pattern, ch)
		case <-w.ctx.Done():
			// Close owns the channel now.
		}
	}()

	return ch, nil
}

// Close stops watching and closes all subscriber channels.
func (w *Watcher) Close() error {
	w.cancel()

	w.mu.Lock()
	for _, timer := range w.debounce {
		timer.Stop()
	}

	for _, subs := range w.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}
	w.subscribers = make(map[string][]chan<- ChangeEvent)
	w.mu.Unlock()

	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) unsubscribe(pattern string, ch chan<- ChangeEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	subs := w.subscribers[pattern]
	for i, sub := range subs {
		if sub == ch {
			w.subscribers[pattern] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(w.subscribers[pattern]) == 0 {
		delete(w.subscribers, pattern)
	}
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Str("dir", w.dir).Msg("file watcher error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	filename := filepath.Base(event.Name)

	// Atomic writes land as .tmp then rename; only the final file counts.
	if !strings.HasSuffix(filename, ".json") {
		return
	}

	name := strings.TrimSuffix(filename, ".json")

	w.mu.Lock()
	if timer, exists := w.debounce[name]; exists {
		timer.Stop()
	}
	w.debounce[name] = time.AfterFunc(debounceDelay, func() {
		w.notifySubscribers(name)
	})
	w.mu.Unlock()
}

func (w *Watcher) notifySubscribers(name string) {
	event := ChangeEvent{
		Name:      name,
		Timestamp: time.Now(),
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for pattern, subs := range w.subscribers {
		if !matchesPattern(pattern, name) {
			continue
		}
		for _, ch := range subs {
			select {
			case ch <- event:
			default:
				// Slow subscriber; drop.
			}
		}
	}

	delete(w.debounce, name)
}

func matchesPattern(pattern, name string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}

	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(name, prefix)
	}

	return pattern == name
}
