package diff

import (
	"bytes"
	"io"
	"strings"
)

// ProbeSize is how many leading bytes are inspected for a null byte
const ProbeSize = 1024

// IsBinary reports whether data holds a null byte within its first ProbeSize bytes
func IsBinary(data []byte) bool {
	if len(data) > ProbeSize {
		data = data[:ProbeSize]
	}
	return bytes.IndexByte(data, 0) >= 0
}

// ReadPrefix reads at most ProbeSize bytes from r. A shorter file is not an
// error.
func ReadPrefix(r io.Reader) ([]byte, error) {
	buf := make([]byte, ProbeSize)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return buf[:n], nil
}

// Decode converts raw bytes to text, replacing invalid UTF-8 sequences with U+FFFD
func Decode(data []byte) string {
	return strings.ToValidUTF8(string(data), "\uFFFD")
}

// SplitLines splits text on \n, \r\n and \r. A trailing line break does not
// produce an extra empty line, and empty text has no lines.
func SplitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			lines = append(lines, text[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, text[start:i])
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}
