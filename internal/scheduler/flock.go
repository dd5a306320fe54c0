package scheduler

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// ErrLockHeld reports that another process already runs the tick loop.
var ErrLockHeld = errors.New("scheduler: leader lock held by another process")

// acquireLock takes the exclusive leader lock. The returned handle must
// stay open for the scheduler's lifetime; the kernel releases the lock if
// the process dies.
func acquireLock(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("scheduler: open lock %s: %w", path, err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return nil, ErrLockHeld
		}
		return nil, fmt.Errorf("scheduler: lock %s: %w", path, err)
	}

	// Write our PID for debugging
	f.Truncate(0)
	f.Seek(0, 0)
	fmt.Fprintf(f, "%d\n", os.Getpid())

	return f, nil
}

// releaseLock releases the lock and removes the lock file.
func releaseLock(f *os.File) {
	if f == nil {
		return
	}
	syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	name := f.Name()
	f.Close()
	os.Remove(name)
}
