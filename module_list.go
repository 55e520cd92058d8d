package main

// nativeListClone returns a fresh empty list.
func nativeListClone(rt *Runtime, self, args *value) *value {
	return rt.newList()
}

// nativeListPush inserts each argument at the head of the receiver.
func nativeListPush(rt *Runtime, self, args *value) *value {
	if self == nil || self.kind != listVal {
		rt.halt(typeErrorf("List.push", "receiver is not a list"))
	}
	if args != nil && args.kind == listVal {
		for _, d := range args.list {
			elem := rt.argValue(d)
			rt.retain(elem)
			self.list = append([]*value{elem}, self.list...)
		}
	}
	return rt.retain(self)
}

// nativeListPop removes and returns the head of the receiver, or false
// when the list is empty. The list's share of the element transfers to
// the caller.
func nativeListPop(rt *Runtime, self, args *value) *value {
	if self == nil || self.kind != listVal {
		rt.halt(typeErrorf("List.pop", "receiver is not a list"))
	}
	if len(self.list) == 0 {
		return rt.newBoolean(false)
	}
	head := self.list[0]
	self.list = self.list[1:]
	return head
}

// nativeListForeach applies a function to each element of a list in
// order. Invoked as a method the receiver is the list and the function
// is the only argument; invoked through the prototype the list leads
// the argument list instead.
func nativeListForeach(rt *Runtime, self, args *value) *value {
	if args == nil || args.kind != listVal {
		return rt.newBoolean(false)
	}
	list, rest := self, args.list
	if list == nil || list.kind != listVal {
		if len(rest) == 0 {
			return rt.newBoolean(false)
		}
		list = rt.argValue(rest[0])
		rest = rest[1:]
		if list == nil || list.kind != listVal {
			rt.halt(typeErrorf("List.foreach", "expected a list to iterate"))
		}
	}
	if len(rest) != 1 {
		return rt.newBoolean(false)
	}
	fn := rt.argValue(rest[0])

	arglist := rt.newList()
	rt.heap.addRoot(arglist)
	wrap := rt.newHash()
	rt.listAppend(arglist, wrap)
	rt.release(wrap)

	for _, elem := range list.list {
		rt.checkCtx()
		rt.hashPut(wrap, rt.keyValue, elem)
		result := rt.callFunction(fn, arglist, rt.topLevel)
		rt.release(result)
	}

	rt.heap.removeRoot(arglist)
	rt.release(arglist)
	return rt.newBoolean(true)
}
