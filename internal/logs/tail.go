package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"
)

const (
	defaultPoll   = 250 * time.Millisecond
	maxLineLength = 1024 * 1024
)

// Options controls Tail.
type Options struct {
	// Lines is how many trailing lines to emit first. Zero emits none.
	Lines int
	// Follow keeps polling for appended lines until ctx ends.
	Follow bool
	// Poll is the follow interval.
	Poll time.Duration
	// Match keeps only lines containing every term.
	Match []string
}

func (o Options) keep(line string) bool {
	for _, term := range o.Match {
		if term != "" && !strings.Contains(line, term) {
			return false
		}
	}
	return true
}

// Tail writes matching lines of path to emit. A missing file is not an error
// when following; the file is picked up once the daemon creates it.
func Tail(ctx context.Context, path string, opts Options, emit func(string)) error {
	lines, offset, err := Last(path, opts.Lines)
	if err != nil && !(opts.Follow && errors.Is(err, fs.ErrNotExist)) {
		return err
	}
	for _, line := range lines {
		if opts.keep(line) {
			emit(line)
		}
	}
	if !opts.Follow {
		return nil
	}

	poll := opts.Poll
	if poll <= 0 {
		poll = defaultPoll
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		lines, next, err := ReadFrom(path, offset)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				offset = 0
				continue
			}
			return err
		}
		offset = next
		for _, line := range lines {
			if opts.keep(line) {
				emit(line)
			}
		}
	}
}

// Last returns the final n lines of path and the offset of its end.
func Last(path string, n int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}
	if n <= 0 {
		return nil, info.Size(), nil
	}

	ring := make([]string, n)
	count, idx := 0, 0
	scanner := newScanner(file)
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % n
		if count < n {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}
	offset, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("determine log offset: %w", err)
	}

	lines := make([]string, count)
	start := 0
	if count == n {
		start = idx
	}
	for i := range count {
		lines[i] = ring[(start+i)%n]
	}
	return lines, offset, nil
}

// ReadFrom returns complete lines written after offset and the new offset.
// A file smaller than offset has been rotated and is read from the start.
func ReadFrom(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, offset, fmt.Errorf("stat log file: %w", err)
	}
	if offset < 0 || offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	var lines []string
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			// Partial lines stay unread until their newline arrives.
			break
		}
		if err != nil {
			return nil, offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		lines = append(lines, strings.TrimRight(line, "\r\n"))
	}
	return lines, offset, nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	return scanner
}
