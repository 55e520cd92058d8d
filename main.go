/* Package main: folly -- a small prototype-based scripting language

Folly programs are streams of expressions: number, string, list, and
hash literals; prefix property references and assignments; dotted
property chains; parenthesised invocations; quoted (deferred)
expressions; and an arrow form introducing user-defined functions.

	add: (x, y) -> (+(x, y))
	io.print(add(2, 40))

Every value is a member-mapped object linked to a prototype through its
__parent__ member; lookup walks from the receiver toward the one object
root, binding inherited callables to the receiver on first access.
Deferred expressions are closures: a quoted form captures both the
expression and the environment it appeared in, and the control-flow
builtins (cond, while, and the boolean operators) drive them.

Values live in a size-bucketed chunked arena collected by mark-and-sweep
over an explicit root set; reference counts reclaim acyclic garbage
eagerly while the collector handles anything the prototype graph ties
into cycles.

Run with a file argument to execute it, or with none for an interactive
session that prints each expression's result.
*/
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/jcorbin/gofolly/internal/logio"
)

func main() {
	var (
		heapLimit uint
		timeout   time.Duration
		trace     bool
		dump      bool
	)
	flag.UintVar(&heapLimit, "heap-limit", 0, "limit heap slot count")
	flag.DurationVar(&timeout, "timeout", 0, "specify a time limit")
	flag.BoolVar(&trace, "trace", false, "enable trace logging")
	flag.BoolVar(&dump, "dump", false, "print a runtime dump after execution")
	flag.Parse()

	log := logio.Logger{}
	log.SetOutput(os.Stderr)
	defer os.Exit(log.ExitCode())

	opts := []Option{
		WithHeapLimit(heapLimit),
		WithOutput(os.Stdout),
	}
	if trace {
		opts = append(opts, WithLogf(log.Leveledf("TRACE")))
	}
	if path := flag.Arg(0); path != "" {
		opts = append(opts, WithFile(path))
	} else {
		opts = append(opts, WithInteractive(os.Stdin, os.Stdout))
	}

	rt := New(opts...)
	defer rt.Close()

	if dump {
		lw := &logio.Writer{Logf: log.Leveledf("DUMP")}
		defer lw.Close()
		defer runtimeDumper{rt: rt, out: lw}.dump()
	}

	ctx := context.Background()
	if timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	log.ErrorIf(rt.Run(ctx))
}
