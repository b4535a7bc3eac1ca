package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mvandijk/laneplan/internal/packing"
)

var (
	// ErrInvalidVariants indicates the provided carrier variants violate validation rules.
	ErrInvalidVariants = errors.New("carrier variants must contain uniquely named models with two or more positive-capacity columns")
)

// The reference configurations: a single-carrier semi-trailer with two lanes,
// and a tandem combination with two lanes per carrier. Only the two-column
// variant may fall back to the full permutation search.
var defaultVariants = []packing.Variant{
	{
		Model: packing.CapacityModel{
			Name: "semi-trailer",
			Columns: []packing.Column{
				{Capacity: 13300, Carrier: 0},
				{Capacity: 13300, Carrier: 0},
			},
		},
		PermutationFallback: true,
	},
	{
		Model: packing.CapacityModel{
			Name: "tandem",
			Columns: []packing.Column{
				{Capacity: 7100, Carrier: 0},
				{Capacity: 7100, Carrier: 0},
				{Capacity: 8000, Carrier: 1},
				{Capacity: 8000, Carrier: 1},
			},
		},
	},
}

// Storage provides access to the carrier variants used by the planner.
type Storage interface {
	GetVariants() ([]packing.Variant, error)
	SetVariants(variants []packing.Variant) error
}

// MemoryStorage keeps carrier variants in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu       sync.RWMutex
	variants []packing.Variant
}

// NewMemoryStorage initialises storage with a copy of the default variants.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		variants: packing.CloneVariants(defaultVariants),
	}
}

// DefaultVariants returns a copy of the default carrier variants.
func DefaultVariants() []packing.Variant {
	return packing.CloneVariants(defaultVariants)
}

// GetVariants returns a defensive copy of the currently configured variants.
func (s *MemoryStorage) GetVariants() ([]packing.Variant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return packing.CloneVariants(s.variants), nil
}

// SetVariants validates and stores the provided carrier variants.
func (s *MemoryStorage) SetVariants(variants []packing.Variant) error {
	if err := validateVariants(variants); err != nil {
		return err
	}

	s.mu.Lock()
	s.variants = packing.CloneVariants(variants)
	s.mu.Unlock()

	return nil
}

func validateVariants(variants []packing.Variant) error {
	if len(variants) == 0 {
		return ErrInvalidVariants
	}

	seen := make(map[string]struct{}, len(variants))
	for _, variant := range variants {
		name := variant.Model.Name
		if name == "" {
			return fmt.Errorf("%w: variant without a name", ErrInvalidVariants)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: duplicate variant %q", ErrInvalidVariants, name)
		}
		seen[name] = struct{}{}

		if err := variant.Model.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidVariants, err)
		}
	}
	return nil
}
