package fs

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"syscall"
)

// InjectedError marks an error as intentionally injected by [Faulty].
//
// It wraps the underlying error so errors.Is/As continue to work.
type InjectedError struct {
	Op   string
	Path string
	Err  error
}

// Error returns "<op> <path>: <cause>".
func (e *InjectedError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *InjectedError) Unwrap() error {
	return e.Err
}

// IsInjected reports whether err (or any wrapped error) was injected by [Faulty].
func IsInjected(err error) bool {
	var injected *InjectedError

	return errors.As(err, &injected)
}

// Op names an [FS] method that [Faulty] can fail.
type Op string

// Operations that can be failed.
const (
	OpOpenFile Op = "openfile"
	OpReadFile Op = "readfile"
	OpWrite    Op = "writefile"
	OpReadDir  Op = "readdir"
	OpMkdirAll Op = "mkdirall"
	OpStat     Op = "stat"
	OpExists   Op = "exists"
	OpRemove   Op = "remove"
)

// Faulty wraps an [FS] and fails selected operations with an injected errno.
//
// Rules match by operation and base name ([filepath.Match] glob, "*"
// matches everything). A rule fires on every matching call until it is
// cleared.
//
// Example:
//
//	fsys := fs.NewFaulty(fs.NewReal())
//	fsys.Fail(fs.OpReadFile, "pages.json", syscall.EIO)
//	_, err := fsys.ReadFile(filepath.Join(dir, "pages.json")) // EIO
//
// Safe for concurrent use.
type Faulty struct {
	fs FS

	mu    sync.Mutex
	rules map[Op]map[string]syscall.Errno
	calls map[Op]int
}

// NewFaulty returns a [Faulty] passing calls through to underlying.
func NewFaulty(underlying FS) *Faulty {
	return &Faulty{
		fs:    underlying,
		rules: make(map[Op]map[string]syscall.Errno),
		calls: make(map[Op]int),
	}
}

// Fail makes every op on a path whose base name matches pattern fail with errno.
func (f *Faulty) Fail(op Op, pattern string, errno syscall.Errno) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.rules[op] == nil {
		f.rules[op] = make(map[string]syscall.Errno)
	}

	f.rules[op][pattern] = errno
}

// Clear removes every rule.
func (f *Faulty) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rules = make(map[Op]map[string]syscall.Errno)
}

// Calls returns how often op was invoked, failed or not.
func (f *Faulty) Calls(op Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[op]
}

func (f *Faulty) check(op Op, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[op]++

	base := filepath.Base(path)

	for pattern, errno := range f.rules[op] {
		if ok, _ := filepath.Match(pattern, base); ok {
			return &InjectedError{Op: string(op), Path: path, Err: errno}
		}
	}

	return nil
}

func (f *Faulty) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	if err := f.check(OpOpenFile, path); err != nil {
		return nil, err
	}

	return f.fs.OpenFile(path, flag, perm)
}

func (f *Faulty) ReadFile(path string) ([]byte, error) {
	if err := f.check(OpReadFile, path); err != nil {
		return nil, err
	}

	return f.fs.ReadFile(path)
}

func (f *Faulty) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := f.check(OpWrite, path); err != nil {
		return err
	}

	return f.fs.WriteFileAtomic(path, data, perm)
}

func (f *Faulty) ReadDir(path string) ([]os.DirEntry, error) {
	if err := f.check(OpReadDir, path); err != nil {
		return nil, err
	}

	return f.fs.ReadDir(path)
}

func (f *Faulty) MkdirAll(path string, perm os.FileMode) error {
	if err := f.check(OpMkdirAll, path); err != nil {
		return err
	}

	return f.fs.MkdirAll(path, perm)
}

func (f *Faulty) Stat(path string) (os.FileInfo, error) {
	if err := f.check(OpStat, path); err != nil {
		return nil, err
	}

	return f.fs.Stat(path)
}

func (f *Faulty) Exists(path string) (bool, error) {
	if err := f.check(OpExists, path); err != nil {
		return false, err
	}

	return f.fs.Exists(path)
}

func (f *Faulty) Remove(path string) error {
	if err := f.check(OpRemove, path); err != nil {
		return err
	}

	return f.fs.Remove(path)
}

// Compile-time interface check.
var _ FS = (*Faulty)(nil)
