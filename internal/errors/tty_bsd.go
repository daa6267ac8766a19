//go:build darwin || freebsd || netbsd || openbsd

package errors

import "golang.org/x/sys/unix"

// isTerminal 通过 termios 判断文件描述符是否为终端
func isTerminal(fd uintptr) bool {
	_, err := unix.IoctlGetTermios(int(fd), unix.TIOCGETA)
	return err == nil
}
