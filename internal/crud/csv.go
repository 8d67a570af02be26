package crud

import (
	"bufio"
	"encoding/csv"
	"io"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

// csvStreamer writes rows through a buffered csv writer, flushing
// periodically so large exports do not accumulate in memory.
type csvStreamer struct {
	buf     *bufio.Writer
	csv     *csv.Writer
	pending int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	return &csvStreamer{buf: buf, csv: csv.NewWriter(buf)}
}

func (s *csvStreamer) writeRow(row []string) error {
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pending++
	if s.pending >= csvFlushEvery {
		return s.flush()
	}
	return nil
}

func (s *csvStreamer) flush() error {
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pending = 0
	return nil
}

func (s *csvStreamer) Close() error {
	return s.flush()
}
