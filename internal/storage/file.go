package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/IshaanNene/CourseLens/internal/types"
)

// WriteCSV serializes courses as CSV: the fixed header, then one row per
// course in input order. Missing fields are written as empty strings.
func WriteCSV(w io.Writer, courses []*types.Course) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(types.Columns); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, c := range courses {
		if err := cw.Write(c.Row()); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVStorage writes courses as rows of a fixed-schema CSV file.
// The header is written on creation, so a run with no records still
// produces a valid, header-only file.
type CSVStorage struct {
	path   string
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewCSVStorage creates the output file (and its parent directories),
// truncating any previous content.
func NewCSVStorage(outputPath string, logger *slog.Logger) (*CSVStorage, error) {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &types.StorageError{Backend: "csv", Err: fmt.Errorf("create output dir: %w", err)}
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return nil, &types.StorageError{Backend: "csv", Err: fmt.Errorf("create output file: %w", err)}
	}

	w := csv.NewWriter(f)
	if err := w.Write(types.Columns); err != nil {
		_ = f.Close()
		return nil, &types.StorageError{Backend: "csv", Err: fmt.Errorf("write CSV header: %w", err)}
	}

	return &CSVStorage{
		path:   outputPath,
		file:   f,
		writer: w,
		logger: logger.With("component", "csv_storage"),
	}, nil
}

func (s *CSVStorage) Name() string { return "csv" }

// Path returns the output file path.
func (s *CSVStorage) Path() string { return s.path }

func (s *CSVStorage) Store(courses []*types.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range courses {
		if err := s.writer.Write(c.Row()); err != nil {
			return &types.StorageError{Backend: "csv", Err: fmt.Errorf("write CSV row: %w", err)}
		}
		s.count++
	}

	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return &types.StorageError{Backend: "csv", Err: err}
	}
	return nil
}

// Count returns the number of rows written so far.
func (s *CSVStorage) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *CSVStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writer.Flush()
	flushErr := s.writer.Error()
	closeErr := s.file.Close()
	s.logger.Info("CSV written", "path", s.path, "rows", s.count)

	if flushErr != nil {
		return &types.StorageError{Backend: "csv", Err: flushErr}
	}
	if closeErr != nil {
		return &types.StorageError{Backend: "csv", Err: closeErr}
	}
	return nil
}
