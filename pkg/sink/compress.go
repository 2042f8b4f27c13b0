package sink

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"go.uber.org/multierr"

	"github.com/vnykmshr/threadio/internal/logger"
)

func newGzipSink(path string, sync bool) (Sink, error) {
	path = withExtension(path, ".gz")
	file, err := createOutputFile(path, "gzip-compressed")
	if err != nil {
		return nil, err
	}
	gz := gzip.NewWriter(file)
	return &fileSink{
		name:   "gzip",
		path:   path,
		file:   file,
		w:      gz,
		start:  time.Now(),
		sync:   sync,
		flush:  gz.Flush,
		finish: gz.Close,
	}, nil
}

func newZstdSink(path string, sync bool) (Sink, error) {
	path = withExtension(path, ".zst")
	file, err := createOutputFile(path, "Zstandard-compressed")
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(file)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("error creating zstd writer: %w", err), file.Close())
	}
	return &fileSink{
		name:   "zstd",
		path:   path,
		file:   file,
		w:      enc,
		start:  time.Now(),
		sync:   sync,
		flush:  enc.Flush,
		finish: enc.Close,
	}, nil
}

func newLz4Sink(path string, sync bool) (Sink, error) {
	path = withExtension(path, ".lz4")
	file, err := createOutputFile(path, "lz4-compressed")
	if err != nil {
		return nil, err
	}
	lw := lz4.NewWriter(file)
	return &fileSink{
		name:   "lz4",
		path:   path,
		file:   file,
		w:      lw,
		start:  time.Now(),
		sync:   sync,
		flush:  lw.Flush,
		finish: lw.Close,
	}, nil
}

// newZipSink writes a single-entry archive. The entry is deflated, so Flush
// only pushes completed blocks; the archive is readable after Close.
func newZipSink(path string, sync bool) (Sink, error) {
	fixedPath := fixExtension(path, ".zip")
	file, err := createOutputFile(fixedPath, "zip-compressed")
	if err != nil {
		return nil, err
	}
	zw := zip.NewWriter(file)
	entryName := zipEntryName(path)
	logger.Debug("Creating zip entry: %s", entryName)
	entry, err := zw.Create(entryName)
	if err != nil {
		return nil, multierr.Combine(fmt.Errorf("error creating zip entry: %w", err), zw.Close(), file.Close())
	}
	return &fileSink{
		name:   "zip",
		path:   fixedPath,
		file:   file,
		w:      entry,
		start:  time.Now(),
		sync:   sync,
		flush:  zw.Flush,
		finish: zw.Close,
	}, nil
}

func zipEntryName(outputPath string) string {
	name := filepath.Base(outputPath)
	if strings.EqualFold(filepath.Ext(name), ".zip") {
		name = name[:len(name)-len(".zip")]
	}
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "output"
	}
	return name
}
