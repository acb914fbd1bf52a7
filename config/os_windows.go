//go:build windows

package config

import (
	"os"
	"strings"

	"golang.org/x/sys/windows"
	"golang.org/x/term"
)

// CleanFileName drops characters Windows does not allow in file names.
func CleanFileName(in string) string {
	out := strings.TrimRight(strings.Map(func(sym rune) rune {
		if sym < 0x20 || strings.ContainsRune(`<>":/\|?*`, sym) {
			return -1
		}
		return sym
	}, in), ". ")
	if len(out) == 0 {
		return "_bad_file_name_"
	}
	return out
}

// EnableColorOutput turns on VT100 sequence processing for console stream.
// It fails on consoles which predate Windows 10.
func EnableColorOutput(stream *os.File) bool {
	if !term.IsTerminal(int(stream.Fd())) {
		return false
	}

	const enableVirtualTerminalProcessing uint32 = 0x4

	var mode uint32
	h := windows.Handle(stream.Fd())
	if err := windows.GetConsoleMode(h, &mode); err != nil {
		return false
	}
	return windows.SetConsoleMode(h, mode|enableVirtualTerminalProcessing) == nil
}
