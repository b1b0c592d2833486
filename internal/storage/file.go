package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/IshaanNene/PriceGoat/internal/types"
)

// --- JSON Storage ---

// JSONStorage writes comparison results as a JSON array to a file on Close.
type JSONStorage struct {
	path    string
	results []*types.ComparisonResult
	mu      sync.Mutex
	logger  *slog.Logger
}

// NewJSONStorage creates a new JSON file storage.
func NewJSONStorage(outputPath string, logger *slog.Logger) (*JSONStorage, error) {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	return &JSONStorage{
		path:    outputPath,
		results: make([]*types.ComparisonResult, 0),
		logger:  logger.With("component", "json_storage"),
	}, nil
}

func (s *JSONStorage) Name() string { return "json" }

func (s *JSONStorage) Store(results []*types.ComparisonResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, results...)
	s.logger.Debug("results buffered", "count", len(results), "total", len(s.results))
	return nil
}

func (s *JSONStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Create(s.path)
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("create output file: %w", err)}
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.results); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("encode JSON: %w", err)}
	}

	s.logger.Info("JSON written", "path", s.path, "results", len(s.results))
	return nil
}

// --- JSONL Storage ---

// JSONLStorage appends one comparison result per line.
type JSONLStorage struct {
	path   string
	file   *os.File
	enc    *json.Encoder
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewJSONLStorage opens outputPath for appending so repeated runs build a
// history.
func NewJSONLStorage(outputPath string, logger *slog.Logger) (*JSONLStorage, error) {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}

	return &JSONLStorage{
		path:   outputPath,
		file:   f,
		enc:    json.NewEncoder(f),
		logger: logger.With("component", "jsonl_storage"),
	}, nil
}

func (s *JSONLStorage) Name() string { return "jsonl" }

func (s *JSONLStorage) Store(results []*types.ComparisonResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range results {
		if err := s.enc.Encode(r); err != nil {
			return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("encode JSONL: %w", err)}
		}
		s.count++
	}
	return nil
}

func (s *JSONLStorage) Close() error {
	s.logger.Info("JSONL written", "path", s.path, "results", s.count)
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// --- CSV Storage ---

var csvHeaders = []string{
	"comparison_id", "query", "timestamp", "site", "title", "price", "currency",
	"link", "image", "seller", "location", "brand", "discount", "rating",
	"free_shipping", "best_deal",
}

// CSVStorage appends one row per listing. The header is written only when
// the file starts empty.
type CSVStorage struct {
	path          string
	file          *os.File
	writer        *csv.Writer
	headerWritten bool
	mu            sync.Mutex
	count         int
	logger        *slog.Logger
}

// NewCSVStorage creates a new CSV file storage.
func NewCSVStorage(outputPath string, logger *slog.Logger) (*CSVStorage, error) {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat output file: %w", err)
	}

	return &CSVStorage{
		path:          outputPath,
		file:          f,
		writer:        csv.NewWriter(f),
		headerWritten: info.Size() > 0,
		logger:        logger.With("component", "csv_storage"),
	}, nil
}

func (s *CSVStorage) Name() string { return "csv" }

func (s *CSVStorage) Store(results []*types.ComparisonResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.headerWritten {
		if err := s.writer.Write(csvHeaders); err != nil {
			return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("write CSV header: %w", err)}
		}
		s.headerWritten = true
	}

	for _, r := range results {
		for _, l := range r.Listings() {
			if err := s.writer.Write(listingRow(r, l)); err != nil {
				return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("write CSV row: %w", err)}
			}
			s.count++
		}
	}

	s.writer.Flush()
	return s.writer.Error()
}

func listingRow(r *types.ComparisonResult, l types.Listing) []string {
	best := r.Analysis.BestDeal != nil && *r.Analysis.BestDeal == l
	return []string{
		r.ID,
		r.Query,
		r.Timestamp.Format(time.RFC3339),
		l.Site,
		l.Title,
		strconv.FormatFloat(l.Price, 'f', 2, 64),
		l.Currency,
		l.URL,
		l.ImageURL,
		l.Seller,
		l.Location,
		l.Brand,
		strconv.Itoa(l.Discount),
		strconv.FormatFloat(l.Rating, 'f', -1, 64),
		strconv.FormatBool(l.FreeShipping),
		strconv.FormatBool(best),
	}
}

func (s *CSVStorage) Close() error {
	s.logger.Info("CSV written", "path", s.path, "rows", s.count)
	if s.writer != nil {
		s.writer.Flush()
	}
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}
