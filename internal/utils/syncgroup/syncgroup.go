package syncgroup

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

type (
	// Group runs workers on top of errgroup, optionally bounding how many run at once.
	// The first error returned by a worker cancels the group's context.
	Group interface {
		Go(fn func() error)
		Wait() error
	}

	Option func(group *groupImpl)

	// FilterFn maps a worker error before it reaches the group; returning nil swallows it.
	FilterFn func(err error) error

	groupImpl struct {
		group  *errgroup.Group
		ctx    context.Context
		err    error
		sem    *semaphore.Weighted
		filter FilterFn
	}
)

func New(ctx context.Context, opts ...Option) (Group, context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	group := &groupImpl{
		group:  g,
		ctx:    ctx,
		filter: func(err error) error { return err },
	}

	for _, opt := range opts {
		opt(group)
	}

	return group, ctx
}

// WithThrottling limits the number of workers running in parallel. Values below one are ignored.
func WithThrottling(limit int) Option {
	return func(group *groupImpl) {
		if limit < 1 {
			return
		}
		group.sem = semaphore.NewWeighted(int64(limit))
	}
}

func WithFilter(filter FilterFn) Option {
	return func(group *groupImpl) {
		group.filter = filter
	}
}

func (g *groupImpl) Go(fn func() error) {
	if g.sem != nil {
		// Acquire fails once the context is cancelled by a failing worker.
		if err := g.sem.Acquire(g.ctx, 1); err != nil {
			if g.err == nil {
				g.err = err
			}
			return
		}
	}

	g.group.Go(func() error {
		if g.sem != nil {
			defer g.sem.Release(1)
		}
		return g.filter(fn())
	})
}

func (g *groupImpl) Wait() error {
	// A worker's error takes precedence over the semaphore's.
	if err := g.group.Wait(); err != nil {
		return err
	}

	return g.err
}
