package flushio

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSinkBufferPassthrough(t *testing.T) {
	var out strings.Builder
	s := NewSink(&out)
	io.WriteString(s, "hello")
	assert.Equal(t, "hello", out.String(), "in-memory sinks need no flush")
	assert.NoError(t, s.Flush())
}

func TestNewSinkBuffersPlainWriters(t *testing.T) {
	var out countingWriter
	s := NewSink(&out)
	io.WriteString(s, "hello")
	assert.Equal(t, 0, out.writes, "plain writers are buffered")
	assert.NoError(t, s.Flush())
	assert.Equal(t, "hello", out.String())
}

func TestNewSinkDiscard(t *testing.T) {
	s := NewSink(io.Discard)
	_, err := io.WriteString(s, "gone")
	assert.NoError(t, err)
	assert.NoError(t, s.Flush())
}

func TestTee(t *testing.T) {
	var a, b strings.Builder
	s := Tee(NewSink(&a), &b)
	io.WriteString(s, "both")
	assert.NoError(t, s.Flush())
	assert.Equal(t, "both", a.String())
	assert.Equal(t, "both", b.String())
}

func TestTeeWithoutPrior(t *testing.T) {
	var out strings.Builder
	s := Tee(nil, &out)
	io.WriteString(s, "solo")
	assert.Equal(t, "solo", out.String())
}

// countingWriter deliberately looks nothing like an in-memory buffer,
// so NewSink wraps it in a bufio.Writer.
type countingWriter struct {
	buf    []byte
	writes int
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	cw.writes++
	cw.buf = append(cw.buf, p...)
	return len(p), nil
}

func (cw *countingWriter) String() string { return string(cw.buf) }

