package experiment

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

const lockFileName = ".multistair.lock"

// dirLock serializes writers to one output directory across processes
// using flock(2). Batch runs save into a shared directory.
type dirLock struct {
	path string
	file *os.File
}

func newDirLock(dir string) *dirLock {
	return &dirLock{path: filepath.Join(dir, lockFileName)}
}

// Lock acquires an exclusive lock, blocking until available.
func (l *dirLock) Lock() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		_ = f.Close()
		return fmt.Errorf("flock: %w", err)
	}
	l.file = f
	return nil
}

// Unlock releases the lock. It is a no-op when the lock is not held.
func (l *dirLock) Unlock() error {
	if l.file == nil {
		return nil
	}
	defer func() { l.file = nil }()

	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		_ = l.file.Close()
		return fmt.Errorf("funlock: %w", err)
	}
	return l.file.Close()
}
