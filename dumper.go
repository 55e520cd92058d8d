package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/jcorbin/gofolly/internal/intern"
)

// runtimeDumper renders a post-execution picture of the runtime: heap
// occupancy per bucket and the top-level bindings.
type runtimeDumper struct {
	rt  *Runtime
	out io.Writer
}

func (dump runtimeDumper) dump() {
	fmt.Fprintf(dump.out, "# Runtime Dump\n")
	dump.dumpHeap()
	dump.dumpBindings()
}

func (dump runtimeDumper) dumpHeap() {
	h := dump.rt.heap
	st := h.stats()
	fmt.Fprintf(dump.out, "  heap: %v live, %v freed, %v unused in %v chunks; %v roots; %v gc runs\n",
		st.live, st.free, st.unused, st.chunks, st.roots, st.gcRuns)
	for i := range h.buckets {
		b := &h.buckets[i]
		if len(b.chunks) == 0 {
			continue
		}
		live, free := 0, 0
		for _, c := range b.chunks {
			live += c.allocated
			free += len(c.free)
		}
		fmt.Fprintf(dump.out, "  bucket[%v] %vB slots: %v chunks, %v live, %v freed\n",
			i, b.slotSize, len(b.chunks), live, free)
	}
}

func (dump runtimeDumper) dumpBindings() {
	rt := dump.rt
	type binding struct {
		name string
		kind valKind
	}
	var bindings []binding
	rt.topLevel.members.Each(func(key *intern.Str, val *value) bool {
		bindings = append(bindings, binding{key.String(), val.kind})
		return true
	})
	sort.Slice(bindings, func(i, j int) bool { return bindings[i].name < bindings[j].name })
	fmt.Fprintf(dump.out, "  top level: %v bindings\n", len(bindings))
	for _, b := range bindings {
		fmt.Fprintf(dump.out, "    %v: %v\n", b.name, b.kind)
	}
}
