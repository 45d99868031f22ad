//go:build unix

package ps

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// lockFile takes a flock on path, exclusive for writers and shared for
// readers, and returns the release func. Readers open the lock file read
// only and go unlocked when it cannot be created, so databases in read-only
// directories stay loadable.
func lockFile(path string, exclusive bool) (func(), error) {
	var f *os.File
	var err error
	if exclusive {
		f, err = os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	} else {
		f, err = openReadLock(path)
		if f == nil && err == nil {
			return func() {}, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", path, err)
	}

	how := unix.LOCK_SH
	if exclusive {
		how = unix.LOCK_EX
	}
	for {
		err = unix.Flock(int(f.Fd()), how)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	return func() {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
	}, nil
}

// openReadLock opens an existing lock file, creating it when missing. It
// returns a nil file and nil error when the file cannot be created.
func openReadLock(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	f, err = os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0644)
	if err != nil {
		return nil, nil
	}
	return f, nil
}
