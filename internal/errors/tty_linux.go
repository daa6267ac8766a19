package errors

import "golang.org/x/sys/unix"

// isTerminal 通过 termios 判断文件描述符是否为终端
func isTerminal(fd uintptr) bool {
	_, err := unix.IoctlGetTermios(int(fd), unix.TCGETS)
	return err == nil
}
