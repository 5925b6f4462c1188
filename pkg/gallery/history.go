package gallery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wan2gp/wanctl/pkg/models"
)

// HistoryStore keeps a prepend-only record of completed generations in
// a JSON file. Entries are never mutated or removed; the newest entry
// is always first.
type HistoryStore struct {
	mu   sync.Mutex
	path string
}

// NewHistoryStore creates a store backed by the given file path
func NewHistoryStore(path string) (*HistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	return &HistoryStore{path: path}, nil
}

// Add prepends an entry for a successful completion
func (s *HistoryStore) Add(jobID string, savedLocators []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}

	entry := models.HistoryEntry{
		JobID:         jobID,
		SavedLocators: savedLocators,
		CreatedAt:     time.Now(),
	}
	entries = append([]models.HistoryEntry{entry}, entries...)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}

// List returns all entries, most recent first
func (s *HistoryStore) List() ([]models.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *HistoryStore) load() ([]models.HistoryEntry, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var entries []models.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode history file: %w", err)
	}
	return entries, nil
}
