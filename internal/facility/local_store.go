package facility

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"barrierfree.app/internal/models"
)

// LocalStore is a thread-safe in-memory set of canonical rows bundled with
// the deployment, indexed by facility type. Aggregators consult it before
// the remote feed. Rows are replaced wholesale on reload, never edited.
type LocalStore struct {
	mu   sync.RWMutex
	data map[models.FacilityType][]models.FacilityRow
}

// NewLocalStore returns an empty store. The map is created on first Set.
func NewLocalStore() *LocalStore {
	return &LocalStore{}
}

// Set replaces the rows for t.
func (s *LocalStore) Set(t models.FacilityType, rows []models.FacilityRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = make(map[models.FacilityType][]models.FacilityRow)
	}
	s.data[t] = rows
}

// Get returns the rows for t. The returned slice must not be modified.
func (s *LocalStore) Get(t models.FacilityType) ([]models.FacilityRow, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, exists := s.data[t]
	return rows, exists
}

// Load reads a JSON object keyed by facility type into the store, replacing
// every type present in the file.
func (s *LocalStore) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read local rows: %w", err)
	}
	var byType map[string][]models.FacilityRow
	if err := json.Unmarshal(data, &byType); err != nil {
		return fmt.Errorf("failed to unmarshal local rows: %w", err)
	}
	for name, rows := range byType {
		t, ok := models.ParseFacilityType(name)
		if !ok {
			return fmt.Errorf("local rows: unknown facility type %q", name)
		}
		for i := range rows {
			rows[i].Type = t
		}
		s.Set(t, rows)
	}
	return nil
}
