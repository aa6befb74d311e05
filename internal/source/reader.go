package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// maxLineBytes bounds a single log line. Lines beyond this are almost
// certainly corruption, not usage records.
const maxLineBytes = 8 * 1024 * 1024

// LineChunk is the outcome of one incremental read: the complete lines found
// after the starting offset, and the offset the cursor may safely advance to.
type LineChunk struct {
	Lines      [][]byte
	NextOffset uint64
}

// ReadLines reads the file from offset and returns newline-terminated lines
// with their terminators stripped. NextOffset always lands on a line
// boundary, so a write that is still in flight is re-read on the next run. A
// trailing unterminated line is included, and the offset moved past it, only
// when it already parses as a JSON object.
func ReadLines(path string, offset uint64) (LineChunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return LineChunk{}, err
	}
	defer func() { _ = f.Close() }()

	if offset > 0 {
		if _, err := f.Seek(int64(offset), io.SeekStart); err != nil {
			return LineChunk{}, fmt.Errorf("seeking %s to %d: %w", path, offset, err)
		}
	}

	chunk := LineChunk{NextOffset: offset}
	reader := bufio.NewReaderSize(f, 256*1024)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > maxLineBytes {
			return chunk, fmt.Errorf("%s: line exceeds %d bytes", path, maxLineBytes)
		}
		switch {
		case err == nil:
			chunk.NextOffset += uint64(len(line))
			if trimmed := trimLine(line); len(trimmed) > 0 {
				chunk.Lines = append(chunk.Lines, trimmed)
			}
		case errors.Is(err, io.EOF):
			if trimmed := trimLine(line); len(trimmed) > 0 && json.Valid(trimmed) {
				chunk.NextOffset += uint64(len(line))
				chunk.Lines = append(chunk.Lines, trimmed)
			}
			return chunk, nil
		default:
			// Lines read so far are still usable; NextOffset remains a
			// safe resume point.
			return chunk, err
		}
	}
}

func trimLine(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	return line
}
