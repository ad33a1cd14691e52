package rod

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// DefaultMaxPages is the default number of pages before browser recycling.
const DefaultMaxPages = 75

// Instance is one running browser and the means to shut it down.
type Instance struct {
	Browser *rod.Browser

	// PID is the browser process ID, zero when unknown.
	PID int

	// Shutdown closes the browser and kills its process.
	Shutdown func() error
}

// BrowserManager hands out a shared browser and replaces it after a fixed
// number of pages. Chrome memory grows with every page and never returns
// to its baseline, so long-running servers recycle the process.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	mu       sync.Mutex
	current  *Instance
	launch   func() (*Instance, error)
	maxPages int64
	pages    atomic.Int64
	closed   atomic.Bool
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets the maximum number of pages before the browser is recycled.
func WithMaxPages(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxPages = n
	}
}

// WithLauncher replaces the headless Chrome launcher.
func WithLauncher(launch func() (*Instance, error)) ManagerOption {
	return func(bm *BrowserManager) {
		bm.launch = launch
	}
}

// NewBrowserManager starts a browser. Close must be called when the
// BrowserManager is no longer needed.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{
		launch:   LaunchHeadless,
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(bm)
	}

	inst, err := bm.launch()
	if err != nil {
		return nil, err
	}
	bm.current = inst
	return bm, nil
}

// Browser returns the current browser, first replacing it if it has served
// maxPages pages. If a replacement cannot be launched the old browser is kept.
func (bm *BrowserManager) Browser() *rod.Browser {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.current == nil {
		return nil
	}
	if bm.pages.Load() >= bm.maxPages {
		if next, err := bm.launch(); err == nil {
			old := bm.current
			bm.current = next
			bm.pages.Store(0)
			_ = old.Shutdown()
		}
	}
	return bm.current.Browser
}

// PageDone records that a page was served by the current browser.
func (bm *BrowserManager) PageDone() {
	bm.pages.Add(1)
}

// LauncherPID returns the process ID of the current browser.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.current == nil {
		return 0
	}
	return bm.current.PID
}

// Close shuts the browser down. Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	if !bm.closed.CompareAndSwap(false, true) {
		return nil
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.current == nil {
		return nil
	}
	err := bm.current.Shutdown()
	bm.current = nil
	return err
}

// LaunchHeadless starts headless Chrome with flags that keep background
// tabs from being throttled.
func LaunchHeadless() (*Instance, error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(true)

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	return &Instance{
		Browser: browser,
		PID:     l.PID(),
		Shutdown: func() error {
			err := browser.Close()
			l.Kill()
			return err
		},
	}, nil
}
