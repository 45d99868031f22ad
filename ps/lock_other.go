//go:build !unix

package ps

// lockFile is a no-op where flock is unavailable.
func lockFile(path string, exclusive bool) (func(), error) {
	return func() {}, nil
}
