package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/waymark-project/waymark/internal/model"
)

// InsertSnapshot persists an immutable snapshot. Snapshots are never
// updated or deleted; history is the audit trail.
func (s *Store) InsertSnapshot(snap *model.Snapshot) error {
	categories, err := json.Marshal(snap.Categories)
	if err != nil {
		return fmt.Errorf("marshal category scores: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO snapshots (id, created_at, preset, overall, insufficient, band_lower, band_upper, band_width, safety_margin, categories)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.CreatedAt.UTC(), snap.Preset, snap.Overall, boolInt(snap.Insufficient),
		snap.Band.Lower, snap.Band.Upper, snap.Band.Width, snap.SafetyMargin, string(categories))
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// SnapshotsBetween returns snapshots created in [from, to], oldest first.
func (s *Store) SnapshotsBetween(from, to time.Time) ([]model.Snapshot, error) {
	rows, err := s.db.Query(`
		SELECT id, created_at, preset, overall, insufficient, band_lower, band_upper, band_width, safety_margin, categories
		FROM snapshots
		WHERE created_at >= ? AND created_at <= ?
		ORDER BY created_at`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []model.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snaps, nil
}

// LatestSnapshot returns the most recent snapshot, or ErrNotFound when
// none has been computed yet.
func (s *Store) LatestSnapshot() (*model.Snapshot, error) {
	row := s.db.QueryRow(`
		SELECT id, created_at, preset, overall, insufficient, band_lower, band_upper, band_width, safety_margin, categories
		FROM snapshots
		ORDER BY created_at DESC LIMIT 1`)
	return scanSnapshot(row)
}

func scanSnapshot(row rowScanner) (*model.Snapshot, error) {
	var snap model.Snapshot
	var insufficient int
	var categories string
	err := row.Scan(&snap.ID, &snap.CreatedAt, &snap.Preset, &snap.Overall, &insufficient,
		&snap.Band.Lower, &snap.Band.Upper, &snap.Band.Width, &snap.SafetyMargin, &categories)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	snap.Insufficient = insufficient != 0
	if err := json.Unmarshal([]byte(categories), &snap.Categories); err != nil {
		return nil, fmt.Errorf("unmarshal category scores: %w", err)
	}
	return &snap, nil
}

// ScoringData is a consistent point-in-time view of everything the scoring
// engine needs. It is loaded inside one transaction so a snapshot never
// mixes partially-applied corroboration updates.
type ScoringData struct {
	Indicators    []model.Indicator
	FinalEvidence map[model.Category]bool
}

// LoadScoringData reads indicators and per-category evidence in a single
// transaction.
func (s *Store) LoadScoringData() (*ScoringData, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	indicators, err := s.IndicatorsTx(tx)
	if err != nil {
		return nil, err
	}
	evidence, err := s.FinalEvidenceByCategory(tx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit read transaction: %w", err)
	}
	return &ScoringData{Indicators: indicators, FinalEvidence: evidence}, nil
}
