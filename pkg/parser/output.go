package parser

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// DecodeCommandOutput turns raw command output into a trimmed string.
// wsl.exe writes UTF-16LE, usually without a BOM, so that is detected
// and decoded; everything else is treated as UTF-8.
func DecodeCommandOutput(raw []byte) string {
	if looksUTF16LE(raw) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		if out, err := dec.Bytes(raw); err == nil {
			raw = out
		}
	}
	raw = bytes.ReplaceAll(raw, []byte{0}, nil)
	s := strings.ReplaceAll(string(raw), "\r\n", "\n")
	return strings.TrimSpace(s)
}

func looksUTF16LE(b []byte) bool {
	if len(b) >= 2 && b[0] == 0xFF && b[1] == 0xFE {
		return true
	}
	if len(b) < 4 {
		return false
	}
	var odd, zeros int
	for i := 1; i < len(b); i += 2 {
		odd++
		if b[i] == 0 {
			zeros++
		}
	}
	return zeros*2 > odd
}

// ParseBool reads a PowerShell boolean. ok is false when the text is
// neither True nor False.
func ParseBool(s string) (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// FirstLine returns the first non-empty line of s.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
