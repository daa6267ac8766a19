//go:build !windows

package main

// systemLocaleChinese 非 Windows 平台只看环境变量
func systemLocaleChinese() bool { return false }
