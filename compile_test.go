package darkroom

import (
	"testing"

	"github.com/gogpu/darkroom/edit"
	"github.com/gogpu/darkroom/mask"
)

func mustState(t *testing.T, groups ...edit.Group) edit.State {
	t.Helper()
	s, err := edit.NewStateWith(groups...)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestCompileSkipsIdentityGroups(t *testing.T) {
	s := mustState(t,
		edit.NewGlobalGroup(edit.Exposure{EV: 1}),
		edit.NewGlobalGroup(edit.Contrast{}), // identity
		edit.NewGlobalGroup(edit.Vignette{Amount: -0.5}),
	)

	plan := Compile(s, 1000, 800)
	if len(plan.Passes) != 2 {
		t.Fatalf("compiled %d passes, want 2 (identity skipped)", len(plan.Passes))
	}
	if plan.Passes[0].GroupIndex != 0 || plan.Passes[1].GroupIndex != 2 {
		t.Errorf("group indices = %d, %d; want 0, 2",
			plan.Passes[0].GroupIndex, plan.Passes[1].GroupIndex)
	}

	empty := Compile(mustState(t, edit.NewGlobalGroup(edit.Exposure{})), 100, 100)
	if !empty.Empty() {
		t.Error("all-identity state compiled to a non-empty plan")
	}
}

func TestCompileDeterministic(t *testing.T) {
	s := mustState(t,
		edit.NewGlobalGroup(edit.Exposure{EV: 0.5}, edit.Sharpen{Amount: 1, Radius: 2}),
		edit.NewMaskedGroup(mask.NewRadial(50, 50, 20, 20), edit.Contrast{Amount: 0.3}),
	)

	a := Compile(s, 640, 480)
	b := Compile(s, 640, 480)
	if a.StateHash != b.StateHash || a.Halo != b.Halo || len(a.Passes) != len(b.Passes) {
		t.Fatal("two compilations of the same state differ")
	}
	for i := range a.Passes {
		if a.Passes[i].StackHash != b.Passes[i].StackHash {
			t.Errorf("pass %d stack hash differs between compilations", i)
		}
	}
}

func TestCompileHaloSumsReaches(t *testing.T) {
	feathered := mask.NewRadial(100, 100, 50, 50)
	feathered.Feather = 4

	s := mustState(t,
		edit.NewGlobalGroup(edit.Sharpen{Amount: 1, Radius: 2.5}),
		edit.NewMaskedGroup(feathered, edit.NoiseReduction{Amount: 0.5, Radius: 3}),
	)

	plan := Compile(s, 1000, 1000)
	// ceil(2.5) + (ceil(3) + feather 4) = 3 + 7 = 10. Chained convolutions
	// demand the sum of supports, not the max.
	if plan.Halo != 10 {
		t.Errorf("halo = %d, want 10", plan.Halo)
	}

	none := Compile(mustState(t, edit.NewGlobalGroup(edit.Exposure{EV: 1})), 100, 100)
	if none.Halo != 0 {
		t.Errorf("pointwise-only halo = %d, want 0", none.Halo)
	}
}

func TestCompileChangedFrom(t *testing.T) {
	s := mustState(t,
		edit.NewGlobalGroup(edit.Exposure{EV: 1}),
		edit.NewGlobalGroup(edit.Contrast{Amount: 0.2}),
		edit.NewGlobalGroup(edit.Vignette{Amount: -0.3}),
	)
	old := Compile(s, 500, 500)

	edited, err := s.Replace(2, edit.NewGlobalGroup(edit.Vignette{Amount: -0.6}))
	if err != nil {
		t.Fatal(err)
	}
	next := Compile(edited, 500, 500)

	if got := next.ChangedFrom(old); got != 2 {
		t.Errorf("ChangedFrom = %d, want 2 (only the last pass recomputes)", got)
	}
	if got := next.ChangedFrom(next); got != len(next.Passes) {
		t.Errorf("self comparison = %d, want %d", got, len(next.Passes))
	}
}
