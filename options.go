package main

import (
	"io"

	"github.com/jcorbin/gofolly/internal/chario"
	"github.com/jcorbin/gofolly/internal/flushio"
)

// Option configures a Runtime under construction.
type Option interface{ apply(rt *Runtime) }

var defaultOptions = Options(
	withOutput{io.Discard},
)

// Options flattens any number of options into one.
func Options(opts ...Option) Option {
	var res options
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil, noption:
		case options:
			res = append(res, impl...)
		default:
			res = append(res, opt)
		}
	}
	switch len(res) {
	case 0:
		return noption{}
	case 1:
		return res[0]
	default:
		return res
	}
}

type noption struct{}

func (noption) apply(rt *Runtime) {}

type options []Option

func (opts options) apply(rt *Runtime) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(rt)
		}
	}
}

type withLogfn func(mess string, args ...interface{})

func (logfn withLogfn) apply(rt *Runtime) {
	rt.logfn = logfn
}

type withFile string

func (path withFile) apply(rt *Runtime) {
	rt.sources = append(rt.sources, sourceEntry{
		open: func() (chario.Source, error) { return chario.Open(string(path)) },
	})
}

type withInput struct {
	name string
	r    io.Reader
}

func (i withInput) apply(rt *Runtime) {
	rt.sources = append(rt.sources, sourceEntry{
		open: func() (chario.Source, error) { return chario.NewReaderSource(i.name, i.r), nil },
	})
	if cl, ok := i.r.(io.Closer); ok {
		rt.closers = append(rt.closers, cl)
	}
}

type withInteractive struct {
	in  io.Reader
	out io.Writer
}

func (i withInteractive) apply(rt *Runtime) {
	rt.sources = append(rt.sources, sourceEntry{
		open: func() (chario.Source, error) {
			return chario.NewLineSource("<interactive>", "> ", i.in, i.out), nil
		},
		interactive: true,
	})
}

type withOutput struct{ w io.Writer }

func (o withOutput) apply(rt *Runtime) {
	if rt.out != nil {
		rt.out.Flush()
	}
	rt.out = flushio.NewSink(o.w)
	if cl, ok := o.w.(io.Closer); ok {
		rt.closers = append(rt.closers, cl)
	}
}

type withTee struct{ w io.Writer }

func (o withTee) apply(rt *Runtime) {
	rt.out = flushio.Tee(rt.out, o.w)
	if cl, ok := o.w.(io.Closer); ok {
		rt.closers = append(rt.closers, cl)
	}
}

type withHeapLimit uint

func (lim withHeapLimit) apply(rt *Runtime) {
	rt.heapLimit = uint(lim)
}

type withChunkSize int

func (n withChunkSize) apply(rt *Runtime) {
	rt.chunkSize = int(n)
}
