package similarity

import (
	"errors"
	"math"
	"testing"

	"github.com/botirk38/semsim/types"
)

func set(items ...string) types.Set[string] {
	return types.NewSet(items...)
}

// Test similarity functions with known closures
func TestSimilarityFunctions(t *testing.T) {
	dog := set("Thing", "Animal", "Mammal", "Dog")
	bird := set("Thing", "Animal", "Bird")
	empty := set()

	t.Run("Jaccard", func(t *testing.T) {
		if sim := Jaccard(dog, bird); math.Abs(sim-0.4) > 1e-12 {
			t.Errorf("Expected 0.4, got %f", sim)
		}
		if Jaccard(dog, bird) != Jaccard(bird, dog) {
			t.Error("Jaccard should be symmetric")
		}
		if sim := Jaccard(dog, dog); sim != 1 {
			t.Errorf("Expected 1 for identical sets, got %f", sim)
		}
		if sim := Jaccard(empty, empty); sim != 0 {
			t.Errorf("Expected 0 for empty sets, got %f", sim)
		}
	})

	t.Run("AsymmetricJaccard", func(t *testing.T) {
		if sim := AsymmetricJaccard(dog, bird); math.Abs(sim-2.0/3.0) > 1e-12 {
			t.Errorf("Expected 2/3, got %f", sim)
		}
		if sim := AsymmetricJaccard(bird, dog); sim != 0.5 {
			t.Errorf("Expected 0.5, got %f", sim)
		}
		if sim := AsymmetricJaccard(dog, empty); sim != 0 {
			t.Errorf("Expected 0 for empty denominator, got %f", sim)
		}
	})

	t.Run("Dice", func(t *testing.T) {
		if sim := Dice(dog, bird); math.Abs(sim-4.0/7.0) > 1e-12 {
			t.Errorf("Expected 4/7, got %f", sim)
		}
		if sim := Dice(empty, empty); sim != 0 {
			t.Errorf("Expected 0 for empty sets, got %f", sim)
		}
	})

	t.Run("Overlap", func(t *testing.T) {
		if n := Overlap(dog, bird); n != 2 {
			t.Errorf("Expected 2, got %d", n)
		}
		if sim := NormalizedOverlap(dog, bird); math.Abs(sim-2.0/3.0) > 1e-12 {
			t.Errorf("Expected 2/3, got %f", sim)
		}
		if sim := NormalizedOverlap(dog, empty); sim != 0 {
			t.Errorf("Expected 0 for empty set, got %f", sim)
		}
	})
}

func TestFromSizes(t *testing.T) {
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"Jaccard", JaccardFromSizes(2, 4), 0.5},
		{"JaccardZero", JaccardFromSizes(0, 0), 0},
		{"Asymmetric", AsymmetricJaccardFromSizes(1, 4), 0.25},
		{"Dice", DiceFromSizes(2, 3, 5), 0.5},
		{"DiceZero", DiceFromSizes(0, 0, 0), 0},
		{"NormalizedOverlap", NormalizedOverlapFromSizes(2, 2, 7), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("Expected %f, got %f", tt.want, tt.got)
			}
		})
	}
}

func TestGraphIC(t *testing.T) {
	values := map[string]float64{"Thing": 0, "Animal": 0.5, "Mammal": 1, "Dog": 2, "Bird": 3}
	ic := func(term string) (float64, bool, error) {
		v, ok := values[term]
		return v, ok, nil
	}

	sim, err := GraphIC(set("Thing", "Animal", "Mammal", "Dog"), set("Thing", "Animal", "Bird"), ic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// common = 0.5, union = 0.5 + 1 + 2 + 3
	if math.Abs(sim-0.5/6.5) > 1e-12 {
		t.Errorf("Expected %f, got %f", 0.5/6.5, sim)
	}

	// Terms without IC drop out of both sums.
	sim, err = GraphIC(set("Animal", "Unscored"), set("Animal"), ic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sim != 1 {
		t.Errorf("Expected 1, got %f", sim)
	}

	sim, err = GraphIC(set("Thing"), set("Thing"), ic)
	if err != nil || sim != 0 {
		t.Errorf("Expected 0 with zero IC mass, got %f (%v)", sim, err)
	}

	boom := errors.New("boom")
	_, err = GraphIC(set("Dog"), set("Dog"), func(string) (float64, bool, error) { return 0, false, boom })
	if !errors.Is(err, boom) {
		t.Errorf("Expected IC error to propagate, got %v", err)
	}
}
