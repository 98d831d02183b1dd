package allocation

import (
	"errors"
	"testing"

	"etfbot/pkg/types"
)

func TestDefaultProfilesAreValid(t *testing.T) {
	if err := DefaultProfiles().Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestProfilesGet(t *testing.T) {
	profiles := DefaultProfiles()

	target, err := profiles.Get("moderate")
	if err != nil {
		t.Fatalf("Get(moderate) error = %v", err)
	}
	if target["BND"] != 0.30 {
		t.Errorf("moderate BND weight = %v, want 0.30", target["BND"])
	}

	if _, err := profiles.Get("yolo"); !errors.Is(err, types.ErrInvalidAllocation) {
		t.Errorf("Get(yolo) error = %v, want ErrInvalidAllocation", err)
	}
}

func TestProfilesNamesSorted(t *testing.T) {
	names := Profiles{"b": nil, "a": nil, "c": nil}.Names()
	want := []string{"a", "b", "c"}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("Names() = %v, want %v", names, want)
		}
	}
}
