package mapping

import (
	"context"
	"sync"
)

// MemStore is an in-memory Store used by tests, grounded on
// internal/storage/memory's in-process fake backing internal/tracker's
// engine tests.
type MemStore struct {
	mu sync.Mutex

	plugInID int

	artifacts map[int][]ArtifactMapping // keyed by artifactTypeID
	fieldValues map[int][]FieldValueMapping
	customProps map[int][]CustomPropertyMapping // keyed by artifactTypeID
	customPropValues map[[2]int][]CustomPropertyValueMapping
	users     []UserMapping
	watermark string
}

// NewMemStore constructs an empty in-memory mapping store for plugInID.
func NewMemStore(plugInID int) *MemStore {
	return &MemStore{
		plugInID:         plugInID,
		artifacts:        make(map[int][]ArtifactMapping),
		fieldValues:      make(map[int][]FieldValueMapping),
		customProps:      make(map[int][]CustomPropertyMapping),
		customPropValues: make(map[[2]int][]CustomPropertyValueMapping),
	}
}

// SeedFieldValueMappings preloads a translation table for tests.
func (s *MemStore) SeedFieldValueMappings(artifactFieldID int, entries []FieldValueMapping) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fieldValues[artifactFieldID] = append([]FieldValueMapping{}, entries...)
}

// SeedUserMappings preloads explicit user mappings for tests.
func (s *MemStore) SeedUserMappings(entries []UserMapping) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append([]UserMapping{}, entries...)
}

// SeedCustomPropertyMappings preloads property-definition mappings.
func (s *MemStore) SeedCustomPropertyMappings(artifactTypeID int, entries []CustomPropertyMapping) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customProps[artifactTypeID] = append([]CustomPropertyMapping{}, entries...)
}

// SeedCustomPropertyValueMappings preloads a value-translation table.
func (s *MemStore) SeedCustomPropertyValueMappings(artifactTypeID, customPropertyID int, entries []CustomPropertyValueMapping) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customPropValues[[2]int{artifactTypeID, customPropertyID}] = append([]CustomPropertyValueMapping{}, entries...)
}

func (s *MemStore) ListProjectMappings(_ context.Context) ([]ArtifactMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ArtifactMapping
	for _, list := range s.artifacts {
		out = append(out, list...)
	}
	return out, nil
}

func (s *MemStore) ListUserMappings(_ context.Context) ([]UserMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]UserMapping{}, s.users...), nil
}

func (s *MemStore) ListArtifactMappings(_ context.Context, projectID, artifactTypeID int) ([]ArtifactMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ArtifactMapping
	for _, m := range s.artifacts[artifactTypeID] {
		if m.ProjectID == projectID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *MemStore) ListFieldValueMappings(_ context.Context, artifactFieldID int) ([]FieldValueMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]FieldValueMapping{}, s.fieldValues[artifactFieldID]...), nil
}

func (s *MemStore) ListCustomPropertyMapping(_ context.Context, artifactTypeID int) ([]CustomPropertyMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CustomPropertyMapping{}, s.customProps[artifactTypeID]...), nil
}

func (s *MemStore) ListCustomPropertyValueMappings(_ context.Context, artifactTypeID, customPropertyID int) ([]CustomPropertyValueMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CustomPropertyValueMapping{}, s.customPropValues[[2]int{artifactTypeID, customPropertyID}]...), nil
}

// AddArtifactMappings inserts entries that don't already collide with an
// existing (projectID, artifactTypeID, internalID) key, making repeated
// calls with the same entries idempotent.
func (s *MemStore) AddArtifactMappings(_ context.Context, artifactTypeID int, entries []ArtifactMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.artifacts[artifactTypeID]
	for _, e := range entries {
		dup := false
		for _, cur := range existing {
			if cur.ProjectID == e.ProjectID && cur.InternalID == e.InternalID {
				dup = true
				break
			}
		}
		if !dup {
			existing = append(existing, e)
		}
	}
	s.artifacts[artifactTypeID] = existing
	return nil
}

func (s *MemStore) RemoveArtifactMappings(_ context.Context, artifactTypeID int, entries []ArtifactMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.artifacts[artifactTypeID]
	var kept []ArtifactMapping
	for _, cur := range existing {
		remove := false
		for _, e := range entries {
			if cur.ProjectID == e.ProjectID && cur.InternalID == e.InternalID {
				remove = true
				break
			}
		}
		if !remove {
			kept = append(kept, cur)
		}
	}
	s.artifacts[artifactTypeID] = kept
	return nil
}

func (s *MemStore) GetWatermark(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watermark, nil
}

func (s *MemStore) SetWatermark(_ context.Context, rfc3339 string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watermark = rfc3339
	return nil
}

func (s *MemStore) Close() error { return nil }

var _ Store = (*MemStore)(nil)
