package main

import (
	"bufio"
	"os"
	"strings"
)

// fileExt is the extension payload carried by file-handle values; it
// rides behind the base value slot, which is why file values allocate
// from a larger heap bucket.
type fileExt struct {
	f   *os.File
	r   *bufio.Reader
	eof bool
}

// newFileValue allocates an extended value ready to carry a file
// handle; members are installed by cloning from the File prototype.
func (rt *Runtime) newFileValue() *value {
	v := rt.heap.alloc(valueSize + fileExtSize)
	v.kind = hashVal
	v.ext = &fileExt{}
	return v
}

// nativeFileClone copies the receiver's members onto a fresh
// file-extended value; an open handle is not carried over.
func nativeFileClone(rt *Runtime, self, args *value) *value {
	file := rt.newFileValue()
	rt.heap.addRoot(file)
	rt.cloneMembersInto(file, self)
	if file.hashGetLocal(rt.keyParent) == nil && self != nil {
		rt.hashPut(file, rt.keyParent, self)
	}
	rt.heap.removeRoot(file)
	return file
}

// nativeFileOpen opens the path named by the receiver's path member in
// the given mode ("r", "w", or "a"), answering whether it succeeded.
func nativeFileOpen(rt *Runtime, self, args *value) *value {
	var mode *value
	rt.extractArgs("File.open", args, wantArg(&mode, stringVal))
	if self == nil || self.ext == nil {
		rt.halt(typeErrorf("File.open", "receiver is not a file"))
	}

	path, _ := rt.hashLookup(self, rt.keyPath)
	if path == nil || path.kind != stringVal {
		return rt.newBoolean(false)
	}

	var flag int
	switch strings.TrimSpace(mode.str.String()) {
	case "r":
		flag = os.O_RDONLY
	case "w":
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case "a":
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	default:
		rt.halt(typeErrorf("File.open", "unknown mode %q", mode.str.String()))
	}

	f, err := os.OpenFile(path.str.String(), flag, 0644)
	if err != nil {
		return rt.newBoolean(false)
	}
	self.ext.f = f
	self.ext.r = bufio.NewReader(f)
	self.ext.eof = false
	return rt.newBoolean(true)
}

func nativeFileClose(rt *Runtime, self, args *value) *value {
	if self == nil || self.ext == nil || self.ext.f == nil {
		return rt.newBoolean(false)
	}
	err := self.ext.f.Close()
	self.ext.f = nil
	self.ext.r = nil
	return rt.newBoolean(err == nil)
}

func nativeFileEOF(rt *Runtime, self, args *value) *value {
	if self == nil || self.ext == nil || self.ext.f == nil {
		return rt.newBoolean(true)
	}
	return rt.newBoolean(self.ext.eof)
}

// nativeFileReadLine returns the next input line without its trailing
// newline; at end of input it returns the empty string and eof reports
// true thereafter.
func nativeFileReadLine(rt *Runtime, self, args *value) *value {
	if self == nil || self.ext == nil || self.ext.f == nil {
		rt.halt(typeErrorf("File.read_line", "file not open; cannot read"))
	}
	line, err := self.ext.r.ReadString('\n')
	if err != nil {
		self.ext.eof = true
	}
	line = strings.TrimSuffix(line, "\n")
	return rt.newStringOf(line)
}
