//go:build windows

package main

import (
	"strings"

	"golang.org/x/sys/windows"
)

// systemLocaleChinese 通过用户界面语言判断
func systemLocaleChinese() bool {
	langs, err := windows.GetUserPreferredUILanguages(windows.MUI_LANGUAGE_NAME)
	if err != nil || len(langs) == 0 {
		return false
	}
	return strings.HasPrefix(strings.ToLower(langs[0]), "zh")
}
