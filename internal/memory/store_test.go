package memory

import (
	"testing"
	"time"

	"github.com/merchpilot/merchpilot/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_AppendAndLoadRecent(t *testing.T) {
	store := newTestStore(t)

	for i, payload := range []string{`{"n":1}`, `{"n":2}`, `{"n":3}`} {
		rec := Record{
			ExecutionID: "exec-1",
			Kind:        domain.AgentResearch,
			Success:     i != 1,
			Payload:     payload,
		}
		if err := store.AppendRecord(rec); err != nil {
			t.Fatal(err)
		}
	}
	// A record of a different kind must not leak into the result.
	if err := store.AppendRecord(Record{ExecutionID: "exec-1", Kind: domain.AgentCreative, Payload: `{}`}); err != nil {
		t.Fatal(err)
	}

	recs, err := store.LoadRecent(domain.AgentResearch, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	// Newest-last ordering.
	if recs[0].Payload != `{"n":2}` || recs[1].Payload != `{"n":3}` {
		t.Errorf("order = [%s, %s], want newest-last", recs[0].Payload, recs[1].Payload)
	}
}

func TestStore_DeriveNegativeKeywords(t *testing.T) {
	store := newTestStore(t)

	rejected := &domain.DesignCandidate{
		ConceptID: "c1", VariantID: "v1",
		Theme:    "Crypto Bro",
		Keywords: []string{"HODL", "moon", "hodl"},
	}
	result := &domain.GateResult{Verdict: domain.VerdictFail, Cause: domain.CausePolicy}
	if err := store.AppendRejection("exec-1", rejected, domain.StageQualityReview, result); err != nil {
		t.Fatal(err)
	}

	// Infrastructure failures must not feed the keyword loop.
	infra := &domain.DesignCandidate{ConceptID: "c2", VariantID: "v1", Theme: "Gardening"}
	infraResult := &domain.GateResult{Verdict: domain.VerdictFail, Cause: domain.CauseInfrastructure}
	if err := store.AppendRejection("exec-1", infra, domain.StagePostGeneration, infraResult); err != nil {
		t.Fatal(err)
	}

	if err := store.AddNegativeKeywords("exec-1", []string{"Lawsuit", "lawsuit", " "}); err != nil {
		t.Fatal(err)
	}

	set, err := store.DeriveNegativeKeywords()
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"crypto bro", "hodl", "moon", "lawsuit"} {
		if _, ok := set[want]; !ok {
			t.Errorf("missing keyword %q", want)
		}
	}
	if _, ok := set["gardening"]; ok {
		t.Error("infrastructure rejection leaked into negative keywords")
	}

	// Idempotence: deriving again yields the identical set.
	again, err := store.DeriveNegativeKeywords()
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != len(set) {
		t.Errorf("second derivation size %d, want %d", len(again), len(set))
	}
}

func TestStore_SummaryRoundTrip(t *testing.T) {
	store := newTestStore(t)

	sum := &domain.RunSummary{
		ExecutionID:      "exec-9",
		StartedAt:        time.Now().Add(-time.Hour).UTC(),
		Approved:         2,
		IPFlagged:        1,
		QualityRejected:  3,
		PolicyRejections: 4,
		PerNiche:         map[string]*domain.NicheStats{"cats": {Generated: 6, Approved: 2, Rejected: 4}},
	}
	sum.Finalize(time.Now().UTC())

	if err := store.AppendSummary(sum); err != nil {
		t.Fatal(err)
	}

	sums, err := store.RecentSummaries(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 1 {
		t.Fatalf("got %d summaries, want 1", len(sums))
	}
	got := sums[0]
	if got.ExecutionID != "exec-9" || got.Approved != 2 {
		t.Errorf("summary = %+v", got)
	}
	if got.PerNiche["cats"].Generated != 6 {
		t.Errorf("PerNiche lost in round trip: %+v", got.PerNiche)
	}
}

func TestStore_GenerationCounter(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	count, err := store.GenerationCountToday(now)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("fresh counter = %d, want 0", count)
	}

	for i := 0; i < 4; i++ {
		if err := store.IncrementGenerationCount(now); err != nil {
			t.Fatal(err)
		}
	}
	count, err = store.GenerationCountToday(now)
	if err != nil {
		t.Fatal(err)
	}
	if count != 4 {
		t.Errorf("counter = %d, want 4", count)
	}

	// A new day starts from zero.
	tomorrow := now.Add(24 * time.Hour)
	count, err = store.GenerationCountToday(tomorrow)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("next-day counter = %d, want 0", count)
	}
}

func TestStore_LearnedPatterns(t *testing.T) {
	store := newTestStore(t)

	ok := Record{ExecutionID: "e1", Kind: domain.AgentStrategy, Success: true,
		Payload: `{"Niche":"nurse humor","Theme":"night shift","Approved":3}`}
	failed := Record{ExecutionID: "e2", Kind: domain.AgentStrategy, Success: false,
		Payload: `{"Niche":"dropped","Theme":"x","Approved":0}`}

	for _, rec := range []Record{ok, failed} {
		if err := store.AppendRecord(rec); err != nil {
			t.Fatal(err)
		}
	}

	patterns, err := store.LearnedPatterns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(patterns) != 1 {
		t.Fatalf("got %d patterns, want 1", len(patterns))
	}
	if patterns[0].Niche != "nurse humor" || patterns[0].Approved != 3 {
		t.Errorf("pattern = %+v", patterns[0])
	}
}
