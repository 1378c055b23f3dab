package realtime

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Frame payloads sent on the update stream.
const (
	FrameConnected = "connected"
	FrameUpdate    = "update"
)

// WriteEvent writes one data frame.
func WriteEvent(w io.Writer, data string) error {
	_, err := fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

// WriteComment writes a comment frame, which readers ignore.
func WriteComment(w io.Writer, text string) error {
	_, err := fmt.Fprintf(w, ": %s\n\n", text)
	return err
}

// Reader splits an event stream into data payloads.
type Reader struct {
	sc *bufio.Scanner
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{sc: bufio.NewScanner(r)}
}

// Next returns the data of the next event. Multi-line data is joined with
// newlines; comments and other fields are skipped. io.EOF marks a clean end
// of stream.
func (r *Reader) Next() (string, error) {
	var (
		lines []string
		seen  bool
	)
	for r.sc.Scan() {
		line := r.sc.Text()
		if line == "" {
			if seen {
				return strings.Join(lines, "\n"), nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		if field != "data" {
			continue
		}
		seen = true
		lines = append(lines, strings.TrimPrefix(value, " "))
	}
	if err := r.sc.Err(); err != nil {
		return "", err
	}
	if seen {
		return strings.Join(lines, "\n"), nil
	}
	return "", io.EOF
}
