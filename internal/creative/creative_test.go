package creative

import (
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/merchpilot/merchpilot/internal/domain"
	"github.com/merchpilot/merchpilot/internal/memory"
)

func newStage(t *testing.T, concepts, variants int) *Stage {
	t.Helper()
	store, err := memory.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return New(store, zap.NewNop().Sugar(), concepts, variants, 4.5)
}

func testNiche(name string) domain.NicheOpportunity {
	return domain.NicheOpportunity{
		Name:     name,
		Keywords: []string{"night shift", "scrubs"},
		Tier:     domain.TierExcellent,
	}
}

func runContext(mutationDue bool) *domain.RunContext {
	return &domain.RunContext{
		ExecutionID: "exec-creative",
		StartedAt:   time.Now(),
		MutationDue: mutationDue,
	}
}

func TestMutationDue_EveryFifthRun(t *testing.T) {
	// Across 5 consecutive invocations with a fresh counter, exactly the
	// 5th must be due.
	due := 0
	for run := 0; run < 5; run++ {
		if MutationDue(run, 5) {
			due++
			if run != 4 {
				t.Errorf("run %d flagged, want only the 5th", run+1)
			}
		}
	}
	if due != 1 {
		t.Errorf("%d runs flagged across 5, want exactly 1", due)
	}
}

func TestMutationDue_ZeroInterval(t *testing.T) {
	if MutationDue(4, 0) {
		t.Error("zero interval must never be due")
	}
}

func TestGenerate_ExpandsConceptsAndVariants(t *testing.T) {
	stage := newStage(t, 2, 3)
	candidates := stage.Generate(runContext(false), []domain.NicheOpportunity{testNiche("nurse humor")})

	if len(candidates) != 6 {
		t.Fatalf("generated %d candidates, want 2 concepts x 3 variants = 6", len(candidates))
	}
	for _, c := range candidates {
		if c.Status != domain.StatusPending {
			t.Errorf("candidate %s starts in %s, want pending", c.ID(), c.Status)
		}
		if c.Prompt == "" {
			t.Errorf("candidate %s has empty prompt", c.ID())
		}
		if c.IsMutation {
			t.Errorf("candidate %s is a mutation in a non-due run", c.ID())
		}
		if len(c.Products) != 3 {
			t.Errorf("candidate %s targets %d products, want 3", c.ID(), len(c.Products))
		}
	}
}

func TestGenerate_ColorPriorityContract(t *testing.T) {
	stage := newStage(t, 1, 5)
	candidates := stage.Generate(runContext(false), []domain.NicheOpportunity{testNiche("nurse humor")})

	// The catalog holds 5 variants but one is below the 4.5:1 contrast
	// floor and must be dropped at generation time.
	if len(candidates) != 4 {
		t.Fatalf("generated %d candidates, want 4 (low-contrast palette rejected)", len(candidates))
	}
	// Scheme A palettes come first.
	if candidates[0].Scheme != domain.SchemeDarkBackground {
		t.Errorf("first variant scheme = %s, want dark background first", candidates[0].Scheme)
	}
}

func TestGenerate_MutationInjectedOnce(t *testing.T) {
	stage := newStage(t, 2, 2)
	niches := []domain.NicheOpportunity{testNiche("nurse humor"), testNiche("plant parent")}
	candidates := stage.Generate(runContext(true), niches)

	mutations := 0
	for _, c := range candidates {
		if c.IsMutation {
			mutations++
			if c.Niche.Name != "nurse humor" {
				t.Errorf("mutation landed on %q, want the first niche", c.Niche.Name)
			}
		}
	}
	if mutations != 1 {
		t.Errorf("%d mutation candidates, want exactly 1", mutations)
	}
}

func TestContrastRatio(t *testing.T) {
	tests := []struct {
		fg, bg string
		want   float64
	}{
		{"#ffffff", "#000000", 21},
		{"#000000", "#ffffff", 21},
		{"#ffffff", "#ffffff", 1},
	}
	for _, tt := range tests {
		got, err := ContrastRatio(tt.fg, tt.bg)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-tt.want) > 0.01 {
			t.Errorf("ContrastRatio(%s, %s) = %v, want %v", tt.fg, tt.bg, got, tt.want)
		}
	}

	if _, err := ContrastRatio("not-a-color", "#ffffff"); err == nil {
		t.Error("want error for malformed color")
	}

	// The catalog's pastel palette sits under the floor.
	got, err := ContrastRatio("#c8c8c8", "#ffffff")
	if err != nil {
		t.Fatal(err)
	}
	if got >= 4.5 {
		t.Errorf("pastel palette contrast = %v, expected below 4.5", got)
	}
}
