package observer

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// BrandChangeCallback is called when the brand list file changes
type BrandChangeCallback func(path string)

// BrandWatcher monitors the brand list file and fires a debounced
// callback on change, so the IP gate can reload without a restart.
// The parent directory is watched rather than the file itself: most
// editors replace the file on save, which drops a file-level watch.
type BrandWatcher struct {
	watcher  *fsnotify.Watcher
	callback BrandChangeCallback
	path     string
	debounce time.Duration

	timer  *time.Timer
	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewBrandWatcher creates a watcher for the given brand list file
func NewBrandWatcher(path string, callback BrandChangeCallback) (*BrandWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, err
	}

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}

	return &BrandWatcher{
		watcher:  watcher,
		callback: callback,
		path:     abs,
		debounce: 500 * time.Millisecond,
	}, nil
}

// Start begins watching for file changes
func (bw *BrandWatcher) Start(ctx context.Context) {
	ctx, bw.cancel = context.WithCancel(ctx)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-bw.watcher.Events:
				if !ok {
					return
				}
				bw.handleEvent(event)
			case _, ok := <-bw.watcher.Errors:
				if !ok {
					return
				}
				// Watch errors are transient; keep watching.
			}
		}
	}()
}

// Stop stops watching for file changes
func (bw *BrandWatcher) Stop() {
	if bw.cancel != nil {
		bw.cancel()
	}
	bw.watcher.Close()
}

func (bw *BrandWatcher) handleEvent(event fsnotify.Event) {
	if !bw.matches(event.Name) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	bw.mu.Lock()
	defer bw.mu.Unlock()

	if bw.timer != nil {
		bw.timer.Stop()
	}
	bw.timer = time.AfterFunc(bw.debounce, bw.flush)
}

func (bw *BrandWatcher) matches(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	return strings.EqualFold(abs, bw.path)
}

func (bw *BrandWatcher) flush() {
	if bw.callback != nil {
		bw.callback(bw.path)
	}
}

// SetDebounce sets the debounce duration for batching rapid saves
func (bw *BrandWatcher) SetDebounce(d time.Duration) {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	bw.debounce = d
}
