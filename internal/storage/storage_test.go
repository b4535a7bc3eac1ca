package storage

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/mvandijk/laneplan/internal/packing"
)

func TestNewMemoryStorageReturnsDefaultVariants(t *testing.T) {
	t.Parallel()

	store := NewMemoryStorage()

	got, err := store.GetVariants()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := DefaultVariants()
	if len(got) != len(want) {
		t.Fatalf("expected %d variants, got %d", len(want), len(got))
	}
	if got[0].Model.Name != "semi-trailer" || got[1].Model.Name != "tandem" {
		t.Fatalf("unexpected variant names: %s, %s", got[0].Model.Name, got[1].Model.Name)
	}
	if !got[0].PermutationFallback || got[1].PermutationFallback {
		t.Fatalf("expected fallback only on the two-column variant")
	}

	// ensure mutation safety
	got[0].Model.Columns[0].Capacity = 1
	again, err := store.GetVariants()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again[0].Model.Columns[0].Capacity == 1 {
		t.Fatalf("expected defensive copy, got aliased columns")
	}
}

func TestSetVariantsUpdatesState(t *testing.T) {
	t.Parallel()

	store := NewMemoryStorage()
	variants := []packing.Variant{
		{
			Model: packing.CapacityModel{
				Name: "flatbed",
				Columns: []packing.Column{
					{Capacity: 6000, Carrier: 0},
					{Capacity: 6000, Carrier: 0},
				},
			},
			PermutationFallback: true,
		},
	}
	if err := store.SetVariants(variants); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.GetVariants()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Model.Name != "flatbed" {
		t.Fatalf("expected stored flatbed variant, got %+v", got)
	}
}

func TestSetVariantsRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	testCases := [][]packing.Variant{
		nil,
		{},
		// nameless model
		{{Model: packing.CapacityModel{Columns: []packing.Column{{Capacity: 10}, {Capacity: 10}}}}},
		// single column
		{{Model: packing.CapacityModel{Name: "one-lane", Columns: []packing.Column{{Capacity: 10}}}}},
		// non-positive capacity
		{{Model: packing.CapacityModel{Name: "zero", Columns: []packing.Column{{Capacity: 0}, {Capacity: 10}}}}},
		// baseline above capacity
		{{Model: packing.CapacityModel{Name: "over", Columns: []packing.Column{{Capacity: 10, Baseline: 11}, {Capacity: 10}}}}},
		// duplicate names
		{
			{Model: packing.CapacityModel{Name: "dup", Columns: []packing.Column{{Capacity: 10}, {Capacity: 10}}}},
			{Model: packing.CapacityModel{Name: "dup", Columns: []packing.Column{{Capacity: 20}, {Capacity: 20}}}},
		},
	}

	for idx, tc := range testCases {
		tc := tc
		t.Run(fmt.Sprintf("case_%d", idx), func(t *testing.T) {
			store := NewMemoryStorage()
			if err := store.SetVariants(tc); !errors.Is(err, ErrInvalidVariants) {
				t.Fatalf("expected ErrInvalidVariants, got %v", err)
			}
		})
	}
}

func TestMemoryStorageConcurrentAccess(t *testing.T) {
	store := NewMemoryStorage()
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(2)

		go func(offset int) {
			defer wg.Done()
			variants := []packing.Variant{
				{
					Model: packing.CapacityModel{
						Name: "rotating",
						Columns: []packing.Column{
							{Capacity: 5000 + offset, Carrier: 0},
							{Capacity: 5000 + offset, Carrier: 0},
						},
					},
				},
			}
			if err := store.SetVariants(variants); err != nil {
				t.Errorf("SetVariants failed: %v", err)
			}
		}(i)

		go func() {
			defer wg.Done()
			if _, err := store.GetVariants(); err != nil {
				t.Errorf("GetVariants failed: %v", err)
			}
		}()
	}

	wg.Wait()

	// final read should succeed
	if _, err := store.GetVariants(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
