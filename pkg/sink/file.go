package sink

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/vnykmshr/threadio/internal/logger"
)

// fileSink writes through an encoder stack into a file.
type fileSink struct {
	name  string
	path  string
	file  *os.File
	w     io.Writer
	start time.Time
	sync  bool

	// flush pushes everything buffered by the encoder into the file.
	flush func() error

	// finish finalizes the encoder. The file is closed afterwards.
	finish func() error

	// keepOpen leaves the file open on Close, for stdout.
	keepOpen bool
}

func (s *fileSink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

// Flush flushes the encoder and, when configured, fsyncs the file.
func (s *fileSink) Flush() error {
	if err := s.flush(); err != nil {
		return fmt.Errorf("error flushing %s output: %w", s.name, err)
	}
	if s.sync {
		if err := s.file.Sync(); err != nil {
			return fmt.Errorf("error syncing file: %w", err)
		}
	}
	return nil
}

// Close finalizes the encoder and closes the file, reporting every failure.
func (s *fileSink) Close() error {
	logger.Debug("Finalizing %s output: %s", s.name, s.path)
	err := s.finish()
	if !s.keepOpen {
		err = multierr.Append(err, s.file.Close())
	}
	logger.Debug("%s output closed in %v", s.name, time.Since(s.start))
	return err
}

func createOutputFile(path, kind string) (*os.File, error) {
	logger.Debug("Creating %s output file: %s", kind, path)
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("error creating file: %w", err)
	}
	return file, nil
}

func newFileSink(path string, size int, sync bool) (Sink, error) {
	if size <= 0 {
		size = DefaultBufferSize
	}
	file, err := createOutputFile(path, "uncompressed")
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriterSize(file, size)
	return &fileSink{
		name:   "file",
		path:   path,
		file:   file,
		w:      bw,
		start:  time.Now(),
		sync:   sync,
		flush:  bw.Flush,
		finish: bw.Flush,
	}, nil
}

func newStdoutSink(size int) Sink {
	if size <= 0 {
		size = DefaultBufferSize
	}
	bw := bufio.NewWriterSize(os.Stdout, size)
	return &fileSink{
		name:     "stdout",
		path:     "-",
		file:     os.Stdout,
		w:        bw,
		start:    time.Now(),
		flush:    bw.Flush,
		finish:   bw.Flush,
		keepOpen: true,
	}
}

func withExtension(path, ext string) string {
	if !strings.HasSuffix(strings.ToLower(path), ext) {
		path += ext
	}
	return path
}

func fixExtension(path, extension string) string {
	ext := filepath.Ext(path)

	if strings.ToLower(ext) != extension {
		path = path[:len(path)-len(ext)] + extension
	}
	return path
}
