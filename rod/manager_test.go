package rod_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/fwojciec/gleaner/rod"
	gorod "github.com/go-rod/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLauncher hands out unconnected browsers and counts launches and
// shutdowns.
type fakeLauncher struct {
	launches  atomic.Int32
	shutdowns atomic.Int32
	fail      atomic.Bool
}

func (l *fakeLauncher) launch() (*rod.Instance, error) {
	if l.fail.Load() {
		return nil, errors.New("no chrome")
	}
	n := l.launches.Add(1)
	return &rod.Instance{
		Browser: gorod.New(),
		PID:     int(1000 + n),
		Shutdown: func() error {
			l.shutdowns.Add(1)
			return nil
		},
	}, nil
}

func TestBrowserManager(t *testing.T) {
	t.Parallel()

	t.Run("recycles browser after max pages", func(t *testing.T) {
		t.Parallel()

		l := &fakeLauncher{}
		manager, err := rod.NewBrowserManager(rod.WithMaxPages(3), rod.WithLauncher(l.launch))
		require.NoError(t, err)
		defer manager.Close()

		first := manager.Browser()
		require.NotNil(t, first)
		assert.Equal(t, 1001, manager.LauncherPID())

		manager.PageDone()
		manager.PageDone()
		manager.PageDone()

		second := manager.Browser()
		assert.NotSame(t, first, second)
		assert.Equal(t, 1002, manager.LauncherPID())
		assert.Equal(t, int32(1), l.shutdowns.Load())
	})

	t.Run("does not recycle before max pages", func(t *testing.T) {
		t.Parallel()

		l := &fakeLauncher{}
		manager, err := rod.NewBrowserManager(rod.WithMaxPages(5), rod.WithLauncher(l.launch))
		require.NoError(t, err)
		defer manager.Close()

		first := manager.Browser()
		manager.PageDone()
		manager.PageDone()

		assert.Same(t, first, manager.Browser())
		assert.Equal(t, int32(1), l.launches.Load())
	})

	t.Run("keeps old browser when relaunch fails", func(t *testing.T) {
		t.Parallel()

		l := &fakeLauncher{}
		manager, err := rod.NewBrowserManager(rod.WithMaxPages(1), rod.WithLauncher(l.launch))
		require.NoError(t, err)
		defer manager.Close()

		first := manager.Browser()
		manager.PageDone()
		l.fail.Store(true)

		assert.Same(t, first, manager.Browser())
		assert.Zero(t, l.shutdowns.Load())
	})

	t.Run("reports launch failure", func(t *testing.T) {
		t.Parallel()

		l := &fakeLauncher{}
		l.fail.Store(true)

		_, err := rod.NewBrowserManager(rod.WithLauncher(l.launch))

		assert.Error(t, err)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		t.Parallel()

		l := &fakeLauncher{}
		manager, err := rod.NewBrowserManager(rod.WithLauncher(l.launch))
		require.NoError(t, err)

		require.NoError(t, manager.Close())
		require.NoError(t, manager.Close())

		assert.Equal(t, int32(1), l.shutdowns.Load())
		assert.Nil(t, manager.Browser())
		assert.Zero(t, manager.LauncherPID())
	})
}
