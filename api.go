package main

import (
	"context"
	"errors"
	"io"

	"github.com/jcorbin/gofolly/internal/panicerr"
)

// New builds a Runtime with its root environment and builtins
// registered, then applies any options.
func New(opts ...Option) *Runtime {
	var rt Runtime
	defaultOptions.apply(&rt)
	Options(opts...).apply(&rt)
	rt.bootstrap()
	return &rt
}

// Run drives every queued input source to completion. Fatal
// interpreter conditions surface as returned errors; end of input is
// not an error.
func (rt *Runtime) Run(ctx context.Context) error {
	err := panicerr.Recover("folly", func() error {
		return rt.run(ctx)
	})
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var he haltError
	if errors.As(err, &he) {
		err = he.error
	}
	return err
}

// WithFile queues the named file as an input source; it is opened when
// Run reaches it, and failure to open is a fatal runtime error.
func WithFile(path string) Option { return withFile(path) }

// WithInput queues a named reader as an input source.
func WithInput(name string, r io.Reader) Option { return withInput{name, r} }

// WithInteractive queues an interactive source that prompts on out and
// reads lines from in, printing each expression's result.
func WithInteractive(in io.Reader, out io.Writer) Option { return withInteractive{in, out} }

// WithOutput directs the print sink to w.
func WithOutput(w io.Writer) Option { return withOutput{w} }

// WithTee copies print output to w in addition to any prior sink.
func WithTee(w io.Writer) Option { return withTee{w} }

// WithLogf enables trace logging through the given printf-style hook.
func WithLogf(logfn func(mess string, args ...interface{})) Option { return withLogfn(logfn) }

// WithHeapLimit bounds the heap to the given number of value slots.
func WithHeapLimit(slots uint) Option { return withHeapLimit(slots) }

// WithChunkSize overrides the number of slots per heap chunk.
func WithChunkSize(slots int) Option { return withChunkSize(slots) }
