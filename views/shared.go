package views

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/tessera-cms/fluid/template"
)

// State is the lifecycle state of a SharedCompiler.
type State int

// Build states.  A failed build returns to Unbuilt.
const (
	Unbuilt State = iota
	Building
	Built
)

func (s State) String() string {
	switch s {
	case Unbuilt:
		return "unbuilt"
	case Building:
		return "building"
	case Built:
		return "built"
	}
	return "unknown"
}

// BuildFunc produces a compiled-view table.
type BuildFunc func() (*template.Registry, error)

// SharedCompiler lazily builds one compiled-view table and shares it with
// every caller.  Get may be called from any number of goroutines: exactly one
// caller runs each build attempt while the others wait for its outcome, and
// a partially built table is never visible.
//
// Once built, the same table is returned until Invalidate is called.  A
// failed attempt, whether by error or panic, publishes nothing and lets the
// next caller try again.
type SharedCompiler struct {
	build  BuildFunc
	logger *slog.Logger

	mu       sync.Mutex
	cond     *sync.Cond // signalled when a build attempt ends
	state    State
	registry *template.Registry
	stale    bool // invalidated during the current build
	builds   int  // number of build attempts started
}

// NewSharedCompiler returns an unbuilt SharedCompiler that builds with build.
func NewSharedCompiler(build BuildFunc, logger *slog.Logger) *SharedCompiler {
	if logger == nil {
		logger = slog.Default()
	}
	var c = &SharedCompiler{build: build, logger: logger}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// ForCompiler returns a SharedCompiler that builds with compiler.
func ForCompiler(compiler *Compiler) *SharedCompiler {
	return NewSharedCompiler(compiler.Build, compiler.Logger)
}

// Get returns the compiled-view table, building it first if necessary.  The
// error of a failed build is returned only to the caller that ran it.
func (c *SharedCompiler) Get() (*template.Registry, error) {
	c.mu.Lock()
	for c.state == Building {
		c.cond.Wait()
	}
	if c.state == Built {
		var reg = c.registry
		c.mu.Unlock()
		return reg, nil
	}
	c.state = Building
	c.stale = false
	c.builds++
	var attempt = c.builds
	c.mu.Unlock()

	var (
		reg      *template.Registry
		err      error
		returned bool
	)
	defer func() {
		c.mu.Lock()
		switch {
		case !returned:
			c.state = Unbuilt
			c.logger.Error("view build panicked", "attempt", attempt)
		case err != nil:
			c.state = Unbuilt
			c.logger.Error("view build failed", "attempt", attempt, "error", err)
		case c.stale:
			c.state = Unbuilt
			c.logger.Info("view build invalidated while running", "attempt", attempt)
		default:
			c.state = Built
			c.registry = reg
			c.logger.Debug("view table published", "attempt", attempt, "views", reg.Len())
		}
		c.stale = false
		c.cond.Broadcast()
		c.mu.Unlock()
	}()

	reg, err = c.build()
	if err == nil && reg == nil {
		err = errors.New("view build produced no table")
	}
	returned = true
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Invalidate discards the built table so that the next Get rebuilds it.  A
// build in progress completes for its caller but its table is not kept.
func (c *SharedCompiler) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case Built:
		c.state = Unbuilt
		c.registry = nil
	case Building:
		c.stale = true
	}
}

// State returns the current lifecycle state.
func (c *SharedCompiler) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Builds returns the number of build attempts started so far.
func (c *SharedCompiler) Builds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builds
}
