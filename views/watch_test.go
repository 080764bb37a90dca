package views

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invalidations chan struct{}

func (c invalidations) Invalidate() {
	select {
	case c <- struct{}{}:
	default:
	}
}

// touchUntil rewrites file until the watcher reports an invalidation.
func touchUntil(t *testing.T, file string, got invalidations) {
	t.Helper()
	var deadline = time.After(5 * time.Second)
	var tick = time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		require.NoError(t, os.WriteFile(file, []byte(time.Now().String()), 0o644))
		select {
		case <-got:
			return
		case <-deadline:
			t.Fatalf("no invalidation after writing %s", file)
		case <-tick.C:
		}
	}
}

func drain(c invalidations) {
	for {
		select {
		case <-c:
		default:
			return
		}
	}
}

func TestWatch(t *testing.T) {
	var dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "home.liquid"), []byte("Home"), 0o644))

	var ctx, cancel = context.WithCancel(context.Background())
	var got = make(invalidations, 1)
	var done = make(chan error, 1)
	go func() {
		done <- Watch(ctx, got, []string{dir}, 10*time.Millisecond, nil)
	}()

	touchUntil(t, filepath.Join(dir, "home.liquid"), got)

	// directories created later are watched as well
	var sub = filepath.Join(dir, "layouts")
	require.NoError(t, os.Mkdir(sub, 0o755))
	time.Sleep(100 * time.Millisecond)
	drain(got)
	touchUntil(t, filepath.Join(sub, "main.liquid"), got)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchMissingDir(t *testing.T) {
	err := Watch(context.Background(), make(invalidations, 1), []string{filepath.Join(t.TempDir(), "missing")}, 0, nil)
	assert.Error(t, err)
}
