package main

import "github.com/jcorbin/gofolly/internal/intern"

// nativeEachPair applies its single function argument to every
// (key, value) pair of the receiver, walking __parent__ links
// depth-first. A name seen on a descendant hides the same name on any
// ancestor, so shadowed entries are never yielded; prototype links
// themselves are not yielded either.
func nativeEachPair(rt *Runtime, self, args *value) *value {
	if args == nil || args.kind != listVal || len(args.list) != 1 {
		return rt.newBoolean(false)
	}
	fn := rt.argValue(args.list[0])

	arglist := rt.newList()
	rt.heap.addRoot(arglist)
	keywrap := rt.newHash()
	rt.listAppend(arglist, keywrap)
	rt.release(keywrap)
	valwrap := rt.newHash()
	rt.listAppend(arglist, valwrap)
	rt.release(valwrap)

	reached := map[string]struct{}{}
	ancestors := []*value{self}
	for len(ancestors) > 0 {
		cur := ancestors[0]
		ancestors = ancestors[1:]
		cur.members.Each(func(key *intern.Str, val *value) bool {
			if intern.Equal(key, rt.keyParent) {
				if val != nil {
					ancestors = append([]*value{val}, ancestors...)
				}
				return true
			}
			name := key.String()
			if _, seen := reached[name]; seen {
				return true
			}
			reached[name] = struct{}{}

			keyStr := rt.newString(key)
			rt.hashPut(keywrap, rt.keyValue, keyStr)
			rt.release(keyStr)
			rt.hashPut(valwrap, rt.keyValue, val)

			result := rt.callFunction(fn, arglist, rt.topLevel)
			rt.release(result)
			return true
		})
	}

	rt.heap.removeRoot(arglist)
	rt.release(arglist)
	return rt.newBoolean(true)
}
