// Package memory is the pipeline's append-only memory: past agent
// decisions, flagged and rejected candidates, packaged listings, run
// summaries and the derived negative-keyword set. Records are only ever
// appended; nothing mutates or deletes prior events.
package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/merchpilot/merchpilot/internal/domain"
)

// Store provides SQLite-backed pipeline memory
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Record is one append-only memory event
type Record struct {
	ID          int64
	ExecutionID string
	Kind        domain.AgentKind
	CreatedAt   time.Time
	Success     bool
	// Payload is an opaque JSON blob owned by the stage that wrote it.
	Payload string
}

// AppendRecord durably appends a single event. Prior records are never
// touched.
func (s *Store) AppendRecord(rec Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO agent_memory (execution_id, agent_kind, created_at, success, payload)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ExecutionID, string(rec.Kind), rec.CreatedAt, rec.Success, rec.Payload)
	return err
}

// LoadRecent returns the most recent limit records for a stage tag,
// ordered newest-last.
func (s *Store) LoadRecent(kind domain.AgentKind, limit int) ([]Record, error) {
	rows, err := s.db.Query(`
		SELECT id, execution_id, agent_kind, created_at, success, payload
		FROM agent_memory
		WHERE agent_kind = ?
		ORDER BY id DESC
		LIMIT ?
	`, string(kind), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var r Record
		var kind string
		if err := rows.Scan(&r.ID, &r.ExecutionID, &kind, &r.CreatedAt, &r.Success, &r.Payload); err != nil {
			return nil, err
		}
		r.Kind = domain.AgentKind(kind)
		recs = append(recs, r)
	}

	// Query returns newest-first; callers expect newest-last.
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs, rows.Err()
}

// AppendIPFlag records a pre-generation trademark/brand hit
func (s *Store) AppendIPFlag(executionID string, c *domain.DesignCandidate, matchedTerm string, queries []string) error {
	q, err := json.Marshal(queries)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO ip_flagged (execution_id, candidate_id, matched_term, queries, stage_tag)
		VALUES (?, ?, ?, ?, ?)
	`, executionID, c.ID(), matchedTerm, string(q), string(domain.StagePreGeneration))
	return err
}

// AppendRejection records a compliance or quality rejection
func (s *Store) AppendRejection(executionID string, c *domain.DesignCandidate, stage domain.StageTag, result *domain.GateResult) error {
	keywords, err := json.Marshal(c.Keywords)
	if err != nil {
		return err
	}
	var flags []byte
	if result != nil {
		if flags, err = json.Marshal(result.Flags); err != nil {
			return err
		}
	}
	cause := domain.CausePolicy
	if result != nil && result.Cause == domain.CauseInfrastructure {
		cause = domain.CauseInfrastructure
	}
	_, err = s.db.Exec(`
		INSERT INTO rejected (execution_id, candidate_id, stage_tag, theme, keywords, flags, cause)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, executionID, c.ID(), string(stage), c.Theme, string(keywords), string(flags), string(cause))
	return err
}

// AddNegativeKeywords inserts keywords derived from rejections. Existing
// keywords are left untouched.
func (s *Store) AddNegativeKeywords(executionID string, keywords []string) error {
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, err := s.db.Exec(`
			INSERT INTO negative_keywords (keyword, source_execution)
			VALUES (?, ?)
			ON CONFLICT(keyword) DO NOTHING
		`, kw, executionID); err != nil {
			return err
		}
	}
	return nil
}

// DeriveNegativeKeywords scans rejected-candidate records and returns a
// deduplicated, lower-cased keyword set. Recomputed per run rather than
// mutated incrementally, so the feedback loop stays replayable.
func (s *Store) DeriveNegativeKeywords() (map[string]struct{}, error) {
	set := make(map[string]struct{})

	rows, err := s.db.Query(`SELECT theme, keywords FROM rejected WHERE cause = 'policy'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var theme, keywordsJSON sql.NullString
		if err := rows.Scan(&theme, &keywordsJSON); err != nil {
			return nil, err
		}
		if theme.Valid && theme.String != "" {
			set[strings.ToLower(theme.String)] = struct{}{}
		}
		if keywordsJSON.Valid && keywordsJSON.String != "" {
			var kws []string
			if err := json.Unmarshal([]byte(keywordsJSON.String), &kws); err == nil {
				for _, kw := range kws {
					if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
						set[kw] = struct{}{}
					}
				}
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Explicitly stored keywords join the derived set.
	kwRows, err := s.db.Query(`SELECT keyword FROM negative_keywords`)
	if err != nil {
		return nil, err
	}
	defer kwRows.Close()
	for kwRows.Next() {
		var kw string
		if err := kwRows.Scan(&kw); err != nil {
			return nil, err
		}
		set[strings.ToLower(kw)] = struct{}{}
	}
	return set, kwRows.Err()
}

// AppendListing records a packaged, upload-ready listing
func (s *Store) AppendListing(executionID string, c *domain.DesignCandidate) error {
	if c.Listing == nil {
		return fmt.Errorf("candidate %s has no listing package", c.ID())
	}
	payload, err := json.Marshal(c.Listing)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO ready_for_upload (execution_id, candidate_id, niche, payload)
		VALUES (?, ?, ?, ?)
	`, executionID, c.ID(), c.Niche.Name, string(payload))
	return err
}

// AppendSummary persists a finished run's summary
func (s *Store) AppendSummary(sum *domain.RunSummary) error {
	payload, err := json.Marshal(sum)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO execution_summary
		(execution_id, started_at, finished_at, approved, ip_flagged, compliance_flagged,
		 quality_rejected, infra_failures, policy_rejections, approved_per_hour, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sum.ExecutionID, sum.StartedAt, sum.FinishedAt, sum.Approved, sum.IPFlagged,
		sum.ComplianceFlagged, sum.QualityRejected, sum.InfraFailures,
		sum.PolicyRejections, sum.ApprovedPerHour, string(payload))
	return err
}

// RecentSummaries returns the latest run summaries, newest first
func (s *Store) RecentSummaries(limit int) ([]*domain.RunSummary, error) {
	rows, err := s.db.Query(`
		SELECT payload FROM execution_summary ORDER BY finished_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sums []*domain.RunSummary
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var sum domain.RunSummary
		if err := json.Unmarshal([]byte(payload), &sum); err != nil {
			return nil, err
		}
		sums = append(sums, &sum)
	}
	return sums, rows.Err()
}

// LearnedPatterns returns prior successful strategy records, newest first
func (s *Store) LearnedPatterns(limit int) ([]domain.StrategyPattern, error) {
	recs, err := s.LoadRecent(domain.AgentStrategy, limit)
	if err != nil {
		return nil, err
	}
	var patterns []domain.StrategyPattern
	for i := len(recs) - 1; i >= 0; i-- {
		if !recs[i].Success {
			continue
		}
		var p domain.StrategyPattern
		if err := json.Unmarshal([]byte(recs[i].Payload), &p); err != nil {
			continue // malformed payloads are skipped, not fatal
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

// GenerationCountToday returns how many generation runs happened today
func (s *Store) GenerationCountToday(now time.Time) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT count FROM generation_counter WHERE day = ?
	`, now.UTC().Format("2006-01-02")).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return count, err
}

// IncrementGenerationCount bumps today's generation counter
func (s *Store) IncrementGenerationCount(now time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO generation_counter (day, count) VALUES (?, 1)
		ON CONFLICT(day) DO UPDATE SET count = count + 1
	`, now.UTC().Format("2006-01-02"))
	return err
}
