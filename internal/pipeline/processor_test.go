package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/merchpilot/merchpilot/internal/capability"
	"github.com/merchpilot/merchpilot/internal/domain"
	"github.com/merchpilot/merchpilot/internal/gate"
	"github.com/merchpilot/merchpilot/internal/memory"
	"github.com/merchpilot/merchpilot/internal/strategy"
)

type fakeSearcher struct {
	hits int
	err  error
}

func (f fakeSearcher) Search(_ context.Context, _ []string) (int, error) {
	return f.hits, f.err
}

type fakeImages struct {
	err       error
	failFirst int32
	calls     atomic.Int32
}

func (f *fakeImages) Generate(_ context.Context, prompt string) (string, error) {
	n := f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	if n <= f.failFirst {
		return "", errors.New("429 too many requests")
	}
	return "img://" + prompt, nil
}

type fakeAnalyzer struct {
	report *capability.ComplianceReport
	err    error
	calls  atomic.Int32
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ string, _ capability.CandidateMetadata) (*capability.ComplianceReport, error) {
	f.calls.Add(1)
	return f.report, f.err
}

type fakeScorer struct {
	report *capability.QualityReport
	err    error
	calls  atomic.Int32
}

func (f *fakeScorer) Score(_ context.Context, _ string, _ capability.CandidateMetadata) (*capability.QualityReport, error) {
	f.calls.Add(1)
	return f.report, f.err
}

type fakeListings struct{}

func (fakeListings) GenerateListing(_ context.Context, meta capability.CandidateMetadata, _ capability.MarketMetrics) (*capability.ListingCopy, error) {
	return &capability.ListingCopy{
		BrandName:   "Test Collective",
		Title:       meta.Text + " Shirt",
		Bullets:     []string{"printed on demand"},
		Description: "a design",
		SearchTerms: meta.Keywords,
	}, nil
}

type fakeArtifacts struct{}

func (fakeArtifacts) Upload(_ context.Context, _, filename string) (string, error) {
	return "art://" + filename, nil
}

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *captureSink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *captureSink) count(t EventType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func goodCompliance() *capability.ComplianceReport {
	return &capability.ComplianceReport{
		Verdict:           domain.VerdictPass,
		RiskScore:         1,
		ThumbnailReadable: true,
		ContrastRatio:     7.2,
	}
}

func goodQuality() *capability.QualityReport {
	return &capability.QualityReport{
		Simplicity:         9,
		Readability:        9.5,
		PrintQuality:       8.5,
		Versatility:        8.5,
		MobileVisibility:   9,
		Professionalism:    8.5,
		ColorEffectiveness: 9,
		PredictedCTR:       2.8,
	}
}

type testDeps struct {
	searcher capability.TrademarkSearcher
	images   *fakeImages
	analyzer *fakeAnalyzer
	scorer   *fakeScorer
}

func happyDeps() testDeps {
	return testDeps{
		searcher: fakeSearcher{},
		images:   &fakeImages{},
		analyzer: &fakeAnalyzer{report: goodCompliance()},
		scorer:   &fakeScorer{report: goodQuality()},
	}
}

func newTestProcessor(t *testing.T, d testDeps, batchSize int, sink EventSink) (*Processor, *memory.Store) {
	t.Helper()
	log := zap.NewNop().Sugar()
	store, err := memory.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	ip := gate.NewIPGate(gate.DefaultBrandList(), []capability.TrademarkSearcher{d.searcher}, time.Second, log)
	compliance := gate.NewComplianceGate(d.analyzer, time.Second, 5.0, 4.5, log)
	quality := gate.NewQualityGate(d.scorer, time.Second, 8.5, log)
	images := NewImageAdapter(d.images, 3, time.Millisecond, time.Second, log)
	pricing := strategy.PricingTable{Base: map[domain.ProductType]float64{
		domain.ProductStandardTee: 19.99,
		domain.ProductPremiumTee:  25.99,
		domain.ProductHoodie:      38.99,
	}}
	strat := strategy.New(pricing, fakeListings{}, fakeArtifacts{}, store, time.Second, log)

	return NewProcessor(ip, compliance, quality, images, strat, store, sink, batchSize, log), store
}

func pendingCandidate(conceptID string) *domain.DesignCandidate {
	return &domain.DesignCandidate{
		ConceptID: conceptID,
		VariantID: "v1",
		Niche:     domain.NicheOpportunity{Name: "nurse humor", Competitors: 150, Tier: domain.TierExcellent},
		Theme:     "night shift crew",
		Text:      "Night Shift Crew",
		Keywords:  []string{"nurse"},
		Prompt:    "prompt " + conceptID,
		Scheme:    domain.SchemeDarkBackground,
		Products:  domain.DefaultProducts,
		Status:    domain.StatusPending,
	}
}

func testRC() *domain.RunContext {
	return &domain.RunContext{
		ExecutionID: "exec-test",
		StartedAt:   time.Now().UTC(),
		Targets:     domain.Targets{QualityThreshold: 8.5},
	}
}

func TestProcess_BatchExhaustion(t *testing.T) {
	sink := &captureSink{}
	p, _ := newTestProcessor(t, happyDeps(), 3, sink)

	var candidates []*domain.DesignCandidate
	for _, id := range []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7"} {
		candidates = append(candidates, pendingCandidate(id))
	}

	summary := &domain.RunSummary{ExecutionID: "exec-test", StartedAt: time.Now().UTC()}
	if err := p.Process(context.Background(), testRC(), candidates, summary); err != nil {
		t.Fatal(err)
	}

	// 7 candidates with batch size 3 take exactly 3 batches: 3+3+1.
	if got := sink.count(EventBatchStarted); got != 3 {
		t.Errorf("batches started = %d, want 3", got)
	}
	if got := sink.count(EventBatchFinished); got != 3 {
		t.Errorf("batches finished = %d, want 3", got)
	}
	if got := sink.count(EventCandidateDone); got != 7 {
		t.Errorf("candidate events = %d, want 7", got)
	}

	for _, c := range candidates {
		if c.Pending() {
			t.Errorf("candidate %s still pending after processing", c.ID())
		}
	}
	if summary.Approved != 7 {
		t.Errorf("approved = %d, want 7", summary.Approved)
	}
}

func TestAdvance_BrandHitStopsBeforeGeneration(t *testing.T) {
	d := happyDeps()
	p, _ := newTestProcessor(t, d, 3, nil)

	c := pendingCandidate("c1")
	c.Text = "Just Do It Nike Style"

	summary := &domain.RunSummary{}
	if err := p.Advance(context.Background(), testRC(), []*domain.DesignCandidate{c}, 1, summary); err != nil {
		t.Fatal(err)
	}

	if c.Status != domain.StatusIPFlagged {
		t.Fatalf("status = %s, want ip_flagged", c.Status)
	}
	if c.IPResult == nil || c.IPResult.Matched == "" {
		t.Error("ip result should name the matched brand")
	}
	if got := d.images.calls.Load(); got != 0 {
		t.Errorf("image generator called %d times after IP rejection", got)
	}
	if got := d.analyzer.calls.Load(); got != 0 {
		t.Errorf("analyzer called %d times after IP rejection", got)
	}
	if got := d.scorer.calls.Load(); got != 0 {
		t.Errorf("scorer called %d times after IP rejection", got)
	}
	if summary.IPFlagged != 1 || summary.PolicyRejections != 1 {
		t.Errorf("summary = %+v, want 1 ip_flagged policy rejection", summary)
	}
}

func TestAdvance_ImageFailureIsInfraFlagged(t *testing.T) {
	d := happyDeps()
	d.images = &fakeImages{err: errors.New("invalid prompt rejected by provider")}
	p, _ := newTestProcessor(t, d, 3, nil)

	c := pendingCandidate("c1")
	summary := &domain.RunSummary{}
	if err := p.Advance(context.Background(), testRC(), []*domain.DesignCandidate{c}, 1, summary); err != nil {
		t.Fatal(err)
	}

	if c.Status != domain.StatusComplianceFlagged {
		t.Fatalf("status = %s, want compliance_flagged", c.Status)
	}
	if c.ComplianceResult == nil || c.ComplianceResult.Cause != domain.CauseInfrastructure {
		t.Error("image failure should carry an infrastructure cause")
	}
	if got := d.analyzer.calls.Load(); got != 0 {
		t.Errorf("analyzer called %d times without an image", got)
	}
	if summary.InfraFailures != 1 || summary.PolicyRejections != 0 {
		t.Errorf("summary infra=%d policy=%d, want 1/0", summary.InfraFailures, summary.PolicyRejections)
	}
}

func TestAdvance_TransientImageFailureRetries(t *testing.T) {
	d := happyDeps()
	d.images = &fakeImages{failFirst: 1}
	p, _ := newTestProcessor(t, d, 3, nil)

	c := pendingCandidate("c1")
	summary := &domain.RunSummary{}
	if err := p.Advance(context.Background(), testRC(), []*domain.DesignCandidate{c}, 1, summary); err != nil {
		t.Fatal(err)
	}

	if c.Status != domain.StatusApproved {
		t.Fatalf("status = %s, want approved after retry", c.Status)
	}
	if got := d.images.calls.Load(); got != 2 {
		t.Errorf("image generator called %d times, want 2", got)
	}
}

func TestAdvance_QualityRejectionFeedsNegativeKeywords(t *testing.T) {
	d := happyDeps()
	report := goodQuality()
	report.MobileVisibility = 7 // below the 8.5 floor
	d.scorer = &fakeScorer{report: report}
	p, store := newTestProcessor(t, d, 3, nil)

	c := pendingCandidate("c1")
	summary := &domain.RunSummary{}
	if err := p.Advance(context.Background(), testRC(), []*domain.DesignCandidate{c}, 1, summary); err != nil {
		t.Fatal(err)
	}

	if c.Status != domain.StatusQualityRejected {
		t.Fatalf("status = %s, want quality_rejected", c.Status)
	}

	negatives, err := store.DeriveNegativeKeywords()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := negatives["night shift crew"]; !ok {
		t.Errorf("rejected theme missing from negative keywords: %v", negatives)
	}
	if _, ok := negatives["nurse"]; !ok {
		t.Errorf("rejected keyword missing from negative keywords: %v", negatives)
	}
}

func TestAdvance_ApprovedCandidateGetsPackaged(t *testing.T) {
	p, _ := newTestProcessor(t, happyDeps(), 3, nil)

	c := pendingCandidate("c1")
	summary := &domain.RunSummary{}
	if err := p.Advance(context.Background(), testRC(), []*domain.DesignCandidate{c}, 1, summary); err != nil {
		t.Fatal(err)
	}

	if c.Status != domain.StatusApproved {
		t.Fatalf("status = %s, want approved", c.Status)
	}
	if c.Listing == nil {
		t.Fatal("approved candidate has no listing package")
	}
	if len(c.Listing.Prices) != len(domain.DefaultProducts) {
		t.Errorf("got %d prices, want %d", len(c.Listing.Prices), len(domain.DefaultProducts))
	}
	if !strings.HasPrefix(c.Listing.ArtifactRef, "art://") {
		t.Errorf("artifact ref = %q, want uploaded reference", c.Listing.ArtifactRef)
	}
	if summary.Approved != 1 {
		t.Errorf("summary approved = %d, want 1", summary.Approved)
	}
}

func TestAdvance_InfraFailureDoesNotPoisonKeywords(t *testing.T) {
	d := happyDeps()
	d.searcher = fakeSearcher{err: errors.New("provider timeout")}
	p, store := newTestProcessor(t, d, 3, nil)

	c := pendingCandidate("c1")
	summary := &domain.RunSummary{}
	if err := p.Advance(context.Background(), testRC(), []*domain.DesignCandidate{c}, 1, summary); err != nil {
		t.Fatal(err)
	}

	// Fail-closed on the provider error, but counted as infrastructure.
	if c.Status != domain.StatusIPFlagged {
		t.Fatalf("status = %s, want ip_flagged", c.Status)
	}
	if summary.InfraFailures != 1 {
		t.Errorf("infra failures = %d, want 1", summary.InfraFailures)
	}

	negatives, err := store.DeriveNegativeKeywords()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := negatives["night shift crew"]; ok {
		t.Error("infrastructure failure must not feed the negative keyword set")
	}
}
