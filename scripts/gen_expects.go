// Command gen_expects regenerates the golden .expect files beside the
// example programs under testdata/ by running each one through a built
// interpreter binary.
//
// Usage: go run ./scripts [interpreter-binary] [testdata-dir]
package main

import (
	"bytes"
	"flag"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/context"
	"golang.org/x/sync/errgroup"
)

var (
	bin     = "./gofolly"
	dir     = "testdata"
	timeout = 10 * time.Second
)

func parseFlags() {
	flag.DurationVar(&timeout, "timeout", timeout, "time limit for running all programs")
	flag.Parse()

	args := flag.Args()
	if len(args) > 0 {
		bin, args = args[0], args[1:]
	}
	if len(args) > 0 {
		dir = args[0]
	}
}

func main() {
	parseFlags()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	names, err := filepath.Glob(filepath.Join(dir, "*.folly"))
	if err != nil {
		log.Fatalf("failed to list %v: %v", dir, err)
	}

	eg, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		name := name
		eg.Go(func() error {
			var out bytes.Buffer
			cmd := exec.CommandContext(ctx, bin, name)
			cmd.Stdout = &out
			cmd.Stderr = os.Stderr
			if err := cmd.Run(); err != nil {
				return err
			}
			expect := strings.TrimSuffix(name, ".folly") + ".expect"
			if err := os.WriteFile(expect, out.Bytes(), 0644); err != nil {
				return err
			}
			log.Printf("wrote %v (%v bytes)", expect, out.Len())
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		log.Fatalf("generation failed: %v", err)
	}
}
