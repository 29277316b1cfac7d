// internal/profilestore/memory.go
package profilestore

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"sponsorloop-workers/internal/matching"
	"sponsorloop-workers/internal/models"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// MemoryStore keeps profiles in insertion order.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles []models.Profile
	index    map[string]int
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{index: make(map[string]int), now: time.Now}
}

type seedFile struct {
	Profiles []models.Profile `yaml:"profiles"`
}

// ParseSeed decodes a YAML profile fixture.
func ParseSeed(data []byte) ([]models.Profile, error) {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("decode profile seed: %w", err)
	}
	return seed.Profiles, nil
}

// LoadSeed reads a YAML profile fixture from path.
func LoadSeed(path string) ([]models.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSeed(data)
}

// Seed creates every profile in order and stops at the first invalid one.
func (s *MemoryStore) Seed(ctx context.Context, profiles []models.Profile) error {
	for i, p := range profiles {
		if _, err := s.Create(ctx, p); err != nil {
			return fmt.Errorf("seed profile %d (%s): %w", i, p.DisplayName, err)
		}
	}
	return nil
}

func (s *MemoryStore) Create(_ context.Context, p models.Profile) (models.Profile, error) {
	if err := p.Validate(); err != nil {
		return models.Profile{}, err
	}
	p = p.Clone()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[p.ID]; ok {
		return models.Profile{}, fmt.Errorf("%w: %s", ErrDuplicate, p.ID)
	}
	s.index[p.ID] = len(s.profiles)
	s.profiles = append(s.profiles, p)
	return p.Clone(), nil
}

func (s *MemoryStore) ListByRole(_ context.Context, role models.Role) ([]models.Profile, error) {
	if err := checkRole(role); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		if p.Role == role {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) SearchByText(ctx context.Context, role models.Role, text, category string) ([]models.Profile, error) {
	all, err := s.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	return matching.Filter(all, matching.NewSearchQuery(text, category)), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return models.Profile{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.profiles[i].Clone(), nil
}

// Ping always succeeds; it lets the memory store sit in the health checker.
func (s *MemoryStore) Ping(context.Context) error { return nil }
