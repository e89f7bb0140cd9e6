package noise

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/danmuck/planetctl/internal/config"
	"github.com/danmuck/planetctl/internal/testutil/testlog"
)

func seeded(seed int64) *int64 { return &seed }

func TestWrapStaysInRange(t *testing.T) {
	testlog.Start(t)
	dims := []int{1, 4, 7, 200}
	offsets := []float64{0, 3, -1, -250.5, 1e6, -1e6 - 0.25, 199.99}
	for _, dim := range dims {
		for _, off := range offsets {
			for v := -3; v < dim+3; v++ {
				got := Wrap(float64(v)+off, dim)
				if got < 0 || got >= dim {
					t.Fatalf("Wrap(%v, %d) = %d out of range", float64(v)+off, dim, got)
				}
			}
		}
	}
}

func TestWrapMatchesRepeatedShift(t *testing.T) {
	cases := []struct {
		v    float64
		dim  int
		want int
	}{
		{v: 0, dim: 10, want: 0},
		{v: 9, dim: 10, want: 9},
		{v: 10, dim: 10, want: 0},
		{v: -1, dim: 10, want: 9},
		{v: -10, dim: 10, want: 0},
		{v: 25, dim: 10, want: 5},
		{v: -0.5, dim: 10, want: 9},
	}
	for _, tc := range cases {
		if got := Wrap(tc.v, tc.dim); got != tc.want {
			t.Fatalf("Wrap(%v, %d) = %d want %d", tc.v, tc.dim, got, tc.want)
		}
	}
}

func TestBuildOctavedIsSeededAndSized(t *testing.T) {
	testlog.Start(t)
	p := ParamsFromSpec(config.NoiseSpec{Method: MethodOctaved, Seed: seeded(7)})
	a, err := Build("elevation", p, 32, 16)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	b, err := Build("elevation", p, 32, 16)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(a.Data) != 32*16 {
		t.Fatalf("unexpected length: %d", len(a.Data))
	}
	if !a.Matches(32, 16) || a.Matches(16, 32) {
		t.Fatalf("unexpected Matches result")
	}
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			t.Fatalf("seeded builds differ at %d: %v vs %v", i, a.Data[i], b.Data[i])
		}
		if a.Data[i] < 0 || a.Data[i] > 1 || math.IsNaN(a.Data[i]) {
			t.Fatalf("sample %d out of [0,1]: %v", i, a.Data[i])
		}
	}
	if a.Seed != 7 {
		t.Fatalf("unexpected seed: %d", a.Seed)
	}
}

func TestBuildRejectsUnknownMethodAndSize(t *testing.T) {
	p := ParamsFromSpec(config.NoiseSpec{Method: "simplex"})
	if _, err := Build("clouds", p, 8, 8); !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}
	p.Method = MethodOctaved
	if _, err := Build("clouds", p, 0, 8); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("expected ErrInvalidSize, got %v", err)
	}
}

func TestBuildRejectsNegativePersistence(t *testing.T) {
	p := ParamsFromSpec(config.NoiseSpec{Method: MethodOctaved, Persistence: -1, Seed: seeded(3)})
	if _, err := Build("elevation", p, 16, 16); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
}

func TestParamsFromSpecDefaults(t *testing.T) {
	p := ParamsFromSpec(config.NoiseSpec{Method: MethodOctaved})
	if p.Octaves != 4 || p.Amplitude != 0.1 || p.Persistence != 0.2 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
	if p.Scale != 8 {
		t.Fatalf("unexpected default scale: %v", p.Scale)
	}
	p = ParamsFromSpec(config.NoiseSpec{Method: MethodOctaved, Octaves: 6, Persistence: 0.5, Scale: 32, Seed: seeded(3)})
	if p.Octaves != 6 || p.Persistence != 0.5 || p.Scale != 32 || p.Seed != 3 {
		t.Fatalf("unexpected overrides: %+v", p)
	}
}

func TestFieldAtWrapsLookup(t *testing.T) {
	f := &Field{Width: 3, Height: 2, Data: []float64{0, 1, 2, 3, 4, 5}}
	if got := f.At(1, 1); got != 4 {
		t.Fatalf("At(1,1) = %v", got)
	}
	if got := f.At(-1, 3); got != 5 {
		t.Fatalf("At(-1,3) = %v", got)
	}
	if got := f.At(3.7, -2); got != 0 {
		t.Fatalf("At(3.7,-2) = %v", got)
	}
}

func TestStoreEnsureBuildsOnlyMissing(t *testing.T) {
	testlog.Start(t)
	s := NewStore()
	specs := map[string]config.NoiseSpec{
		"elevation": {Method: MethodOctaved, Seed: seeded(1)},
		"clouds":    {Method: MethodOctaved, Seed: seeded(2)},
	}

	built, err := s.Ensure(context.Background(), specs, 8, 8)
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if len(built) != 2 {
		t.Fatalf("expected two builds, got %d", len(built))
	}
	first, _ := s.Get("elevation")

	built, err = s.Ensure(context.Background(), specs, 8, 8)
	if err != nil || len(built) != 0 {
		t.Fatalf("expected cached fields reused, built=%d err=%v", len(built), err)
	}
	again, _ := s.Get("elevation")
	if first != again {
		t.Fatalf("field rebuilt without invalidation")
	}

	s.Invalidate("elevation")
	built, err = s.Ensure(context.Background(), specs, 8, 8)
	if err != nil || len(built) != 1 || built[0].Namespace != "elevation" {
		t.Fatalf("expected elevation rebuilt, built=%v err=%v", built, err)
	}

	built, err = s.Ensure(context.Background(), specs, 16, 8)
	if err != nil || len(built) != 2 {
		t.Fatalf("expected resize to rebuild both, built=%d err=%v", len(built), err)
	}

	s.InvalidateAll()
	if got := s.Namespaces(); len(got) != 0 {
		t.Fatalf("expected empty store, got %v", got)
	}
}

func TestStoreEnsurePublishesNothingOnError(t *testing.T) {
	s := NewStore()
	specs := map[string]config.NoiseSpec{
		"elevation": {Method: MethodOctaved, Seed: seeded(1)},
		"broken":    {Method: "voronoi"},
	}
	if _, err := s.Ensure(context.Background(), specs, 8, 8); !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}
	if got := s.Namespaces(); len(got) != 0 {
		t.Fatalf("expected no fields published, got %v", got)
	}
}
