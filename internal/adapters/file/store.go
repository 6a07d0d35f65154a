package file

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/cavity/pkg/domain"
)

// ParametersFile is the name of the per-run parameter record.
const ParametersFile = "parameters.txt"

// Store implements ports.RunStore on the local filesystem.
// Each run is a directory holding a key=value parameters.txt.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to "output".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = "output"
	}
	return &Store{BasePath: basePath}
}

// RunDir returns the directory of a run.
func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.BasePath, runID)
}

// Save writes the record atomically.
func (s *Store) Save(ctx context.Context, rec *domain.RunRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("run ID cannot be empty")
	}
	return writeAtomic(s.RunDir(rec.ID), ParametersFile, Encode(rec))
}

// Encode renders a record in the parameters.txt format.
func Encode(rec *domain.RunRecord) []byte {
	var buf bytes.Buffer
	buf.WriteString("# Cavity droplet simulation\n")
	for _, kv := range rec.Pairs() {
		if kv.Key == "carreau_enabled" {
			buf.WriteString("# Carreau rheology\n")
		}
		fmt.Fprintf(&buf, "%s=%s\n", kv.Key, kv.Value)
	}
	return buf.Bytes()
}

// Decode parses the parameters.txt format. Blank lines and lines starting
// with '#' are skipped.
func Decode(data []byte) (*domain.RunRecord, error) {
	values := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		key, value, ok := strings.Cut(text, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: expected key=value", line)
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	rec, err := domain.DecodeRecord(values)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Load reads the record of a run.
func (s *Store) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	if runID == "" {
		return nil, fmt.Errorf("run ID cannot be empty")
	}
	data, err := os.ReadFile(filepath.Join(s.RunDir(runID), ParametersFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to read parameters: %w", err)
	}
	rec, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse parameters of %s: %w", runID, err)
	}
	return rec, nil
}

// Delete removes the parameter record. Snapshots in the run directory are
// kept; the directory is removed only when it ends up empty.
func (s *Store) Delete(ctx context.Context, runID string) error {
	if runID == "" {
		return fmt.Errorf("run ID cannot be empty")
	}
	err := os.Remove(filepath.Join(s.RunDir(runID), ParametersFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete parameters: %w", err)
	}
	_ = os.Remove(s.RunDir(runID))
	return nil
}

// List returns the runs that have a parameter record.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var runs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.BasePath, entry.Name(), ParametersFile)); err == nil {
			runs = append(runs, entry.Name())
		}
	}
	sort.Strings(runs)
	return runs, nil
}
