package gojacomplate

import (
	"errors"
	"io"
	"sync"
)

// ReEvaluatingRenderer is a [Renderer] that obtains a new renderer from its
// [Creator] for every call, and discards it afterwards. Combined with
// [Supplier] settings it observes the latest bundle source on every render,
// at the cost of recompiling each time.
type ReEvaluatingRenderer struct {
	creator Creator
}

var _ Renderer = (*ReEvaluatingRenderer)(nil)

// NewReEvaluatingRenderer wraps creator. It panics if creator is nil.
func NewReEvaluatingRenderer(creator Creator) *ReEvaluatingRenderer {
	if creator == nil {
		panic("gojacomplate: creator must not be nil")
	}
	return &ReEvaluatingRenderer{creator: creator}
}

// Render implements [Renderer].
func (r *ReEvaluatingRenderer) Render(view string, parameters any, stream Stream) (err error) {
	renderer, err := r.creator()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeRenderer(renderer); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	return renderer.Render(view, parameters, stream)
}

// RenderToString implements [Renderer].
func (r *ReEvaluatingRenderer) RenderToString(view string, parameters any) (_ string, err error) {
	renderer, err := r.creator()
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := closeRenderer(renderer); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	return renderer.RenderToString(view, parameters)
}

func closeRenderer(r Renderer) error {
	if c, ok := r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type syncRenderer struct {
	renderer Renderer
	mu       sync.Mutex
}

// Synchronized returns a [Renderer] serialising calls to renderer, allowing
// one renderer to be shared between goroutines. The result implements
// [io.Closer], closing renderer if it can be closed.
func Synchronized(renderer Renderer) Renderer {
	if renderer == nil {
		panic("gojacomplate: renderer must not be nil")
	}
	return &syncRenderer{renderer: renderer}
}

func (s *syncRenderer) Render(view string, parameters any, stream Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderer.Render(view, parameters, stream)
}

func (s *syncRenderer) RenderToString(view string, parameters any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderer.RenderToString(view, parameters)
}

func (s *syncRenderer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return closeRenderer(s.renderer)
}
