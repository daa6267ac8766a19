//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !windows

package errors

func isTerminal(fd uintptr) bool {
	return false
}
