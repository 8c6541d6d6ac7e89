package edit

import (
	"testing"

	"github.com/gogpu/darkroom/mask"
)

func TestStateAppendImmutable(t *testing.T) {
	s0 := NewState()
	s1, err := s0.Append(NewGlobalGroup(Exposure{EV: 1}))
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if s0.Len() != 0 {
		t.Error("Append modified the receiver")
	}
	if s1.Len() != 1 {
		t.Errorf("new state has %d groups, want 1", s1.Len())
	}
}

func TestStateAppendRejectsInvalid(t *testing.T) {
	if _, err := NewState().Append(NewGlobalGroup(Exposure{EV: 9})); err == nil {
		t.Error("out-of-range adjustment accepted")
	}
	bad := NewMaskedGroup(&mask.Mask{Kind: "swirl", Opacity: 1}, Contrast{Amount: 0.1})
	if _, err := NewState().Append(bad); err == nil {
		t.Error("invalid mask accepted")
	}
}

func TestStateMove(t *testing.T) {
	s, err := NewStateWith(
		NewGlobalGroup(Exposure{EV: 1}),
		NewGlobalGroup(Contrast{Amount: 0.5}),
		NewGlobalGroup(Vignette{Amount: -0.3}),
	)
	if err != nil {
		t.Fatal(err)
	}

	moved, err := s.Move(2, 0)
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if moved.Group(0).Adjustments[0].Kind() != KindVignette {
		t.Errorf("group 0 = %s, want vignette", moved.Group(0).Adjustments[0].Kind())
	}
	if moved.Group(1).Adjustments[0].Kind() != KindExposure {
		t.Errorf("group 1 = %s, want exposure", moved.Group(1).Adjustments[0].Kind())
	}
	if s.Group(0).Adjustments[0].Kind() != KindExposure {
		t.Error("Move modified the receiver")
	}

	if _, err := s.Move(0, 3); err == nil {
		t.Error("out-of-range move target accepted")
	}
}

func TestPrefixHashMinimalInvalidation(t *testing.T) {
	s, err := NewStateWith(
		NewGlobalGroup(Exposure{EV: 1}),
		NewGlobalGroup(Contrast{Amount: 0.5}),
		NewGlobalGroup(Vignette{Amount: -0.3}),
	)
	if err != nil {
		t.Fatal(err)
	}

	// Editing the last group keeps every earlier prefix hash.
	edited, err := s.Replace(2, NewGlobalGroup(Vignette{Amount: -0.8}))
	if err != nil {
		t.Fatal(err)
	}
	for n := 0; n <= 2; n++ {
		if s.PrefixHash(n) != edited.PrefixHash(n) {
			t.Errorf("prefix %d changed by editing group 2", n)
		}
	}
	if s.PrefixHash(3) == edited.PrefixHash(3) {
		t.Error("full hash unchanged by edit")
	}

	// Editing the first group changes every prefix from 1 on.
	edited, err = s.Replace(0, NewGlobalGroup(Exposure{EV: 2}))
	if err != nil {
		t.Fatal(err)
	}
	for n := 1; n <= 3; n++ {
		if s.PrefixHash(n) == edited.PrefixHash(n) {
			t.Errorf("prefix %d unchanged by editing group 0", n)
		}
	}

	// Reordering changes the chained hash even though the set is equal.
	moved, err := s.Move(0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if s.Hash() == moved.Hash() {
		t.Error("reorder produced identical hash")
	}
}

func TestGroupLabelNotHashed(t *testing.T) {
	g := NewGlobalGroup(Exposure{EV: 1})
	s1, _ := NewState().Append(g)
	g.Label = "Renamed"
	s2, _ := NewState().Append(g)

	if s1.Hash() != s2.Hash() {
		t.Error("renaming a group invalidated its hash")
	}
}

func TestStateIdentity(t *testing.T) {
	s, _ := NewStateWith(NewGlobalGroup(Exposure{}, Contrast{}))
	if !s.Identity() {
		t.Error("all-identity state not reported as identity")
	}
	s, _ = s.Append(NewGlobalGroup(Exposure{EV: 0.5}))
	if s.Identity() {
		t.Error("active state reported as identity")
	}

	// A masked group at opacity 0 contributes nothing.
	zero := NewMaskedGroup(mask.NewRadial(10, 10, 5, 5), Exposure{EV: 3})
	zero.Opacity = 0
	s2, err := NewState().Append(zero)
	if err != nil {
		t.Fatal(err)
	}
	if !s2.Identity() {
		t.Error("zero-opacity masked group should be identity")
	}
}
