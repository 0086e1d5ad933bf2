// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"errors"
	"time"

	"github.com/danielhkuo/swipeflow/cliparse"
	"github.com/danielhkuo/swipeflow/db"
)

var (
	ErrFlowNotFound        = errors.New("flow not found")
	ErrRunNotFound         = errors.New("run not found")
	ErrCardNotFound        = errors.New("card not found in this flow")
	ErrTemplateNotFound    = errors.New("result template not found")
	ErrForbidden           = errors.New("forbidden")
	ErrActiveRuns          = errors.New("flow has runs in progress")
	ErrRunCompleted        = errors.New("run already completed")
	ErrRunNotCompleted     = errors.New("run not completed")
	ErrNotSkippable        = errors.New("card cannot be skipped")
	ErrInvalidAnswer       = errors.New("answer must be 0 or 1")
	ErrAnonymousNotAllowed = errors.New("flow requires a signed-in participant")
)

// Engine runs every flow and run operation against the store
type Engine struct {
	db       *db.DB
	cfg      cliparse.Config
	security SecurityReporter
	now      func() time.Time
}

type Option func(*Engine)

// WithSecurityReporter replaces the default log-based reporter
func WithSecurityReporter(r SecurityReporter) Option {
	return func(e *Engine) { e.security = r }
}

// WithClock overrides time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(database *db.DB, cfg cliparse.Config, opts ...Option) *Engine {
	e := &Engine{
		db:       database,
		cfg:      cfg,
		security: NewLogReporter(nil),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// timestamp returns the current time at the precision both stores keep
func (e *Engine) timestamp() time.Time {
	return e.now().UTC().Truncate(time.Microsecond)
}
