// Package sink persists fetched result sets to durable storage.
package sink

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/harvest/errors"
)

// backupTimeFormat stamps backup filenames, e.g. data.json.bak_20260829_153000
const backupTimeFormat = "20060102_150405"

// FileSink writes result sets as indented JSON files. The write goes to a
// temp file in the destination directory followed by an atomic rename, so a
// partial write never replaces an intact prior file.
type FileSink struct {
	// Backup renames any existing file at the destination to a
	// timestamped .bak_ sibling before writing. Backup failure is logged
	// and the write proceeds.
	Backup bool

	// Logger is a structured logger (nil = nop logger)
	Logger *zap.SugaredLogger

	// now is overridable for tests
	now func() time.Time
}

// New creates a FileSink
func New(backup bool, logger *zap.SugaredLogger) *FileSink {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &FileSink{Backup: backup, Logger: logger, now: time.Now}
}

// Persist writes records to path as indented JSON
func (s *FileSink) Persist(records []json.RawMessage, path string) error {
	now := s.now
	if now == nil {
		now = time.Now
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create output directory %s", dir)
		}
	}

	if s.Backup {
		if _, err := os.Stat(path); err == nil {
			backupPath := path + ".bak_" + now().Format(backupTimeFormat)
			if err := os.Rename(path, backupPath); err != nil {
				logger.Warnw("Failed to back up existing output file",
					"path", path,
					"backup", backupPath,
					"error", err)
			} else {
				logger.Infow("Backed up existing output file",
					"path", path,
					"backup", backupPath)
			}
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal records")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrapf(err, "failed to write %s", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "failed to close %s", tmpPath)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "failed to move output into place at %s", path)
	}

	logger.Infow("Results persisted",
		"path", path,
		"records", len(records),
		"bytes", len(data))
	return nil
}
