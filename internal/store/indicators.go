package store

import (
	"database/sql"
	"fmt"

	"github.com/waymark-project/waymark/internal/model"
)

// UpsertIndicator creates or refreshes a catalog entry. Baseline, target,
// and flags follow the catalog; the current value is preserved on conflict
// so re-seeding the catalog never discards observed progress.
func (s *Store) UpsertIndicator(ind *model.Indicator) error {
	weight := ind.Weight
	if weight <= 0 {
		weight = 1.0
	}
	_, err := s.db.Exec(`
		INSERT INTO indicators (code, name, category, baseline, target, current, inverse, first_class, weight)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			baseline = excluded.baseline,
			target = excluded.target,
			inverse = excluded.inverse,
			first_class = excluded.first_class,
			weight = excluded.weight
	`, ind.Code, ind.Name, string(ind.Category), ind.Baseline, ind.Target, ind.Current,
		boolInt(ind.Inverse), boolInt(ind.FirstClass), weight)
	if err != nil {
		return fmt.Errorf("upsert indicator: %w", err)
	}
	return nil
}

// IndicatorByCode fetches a single indicator.
func (s *Store) IndicatorByCode(code string) (*model.Indicator, error) {
	row := s.db.QueryRow(`
		SELECT code, name, category, baseline, target, current, inverse, first_class, weight
		FROM indicators WHERE code = ?`, code)
	ind, err := scanIndicator(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return ind, err
}

// Indicators lists the whole catalog, ordered by category then code.
func (s *Store) Indicators() ([]model.Indicator, error) {
	return queryIndicators(s.db.Query, "")
}

// IndicatorsTx lists the catalog inside a transaction, for consistent
// snapshot reads.
func (s *Store) IndicatorsTx(tx *sql.Tx) ([]model.Indicator, error) {
	return queryIndicators(tx.Query, "")
}

// SetIndicatorCurrent updates the best-known current value.
func (s *Store) SetIndicatorCurrent(code string, current float64) error {
	res, err := s.db.Exec("UPDATE indicators SET current = ? WHERE code = ?", current, code)
	if err != nil {
		return fmt.Errorf("set indicator current: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("indicator %s: %w", code, ErrNotFound)
	}
	return nil
}

type queryFunc func(query string, args ...interface{}) (*sql.Rows, error)

func queryIndicators(q queryFunc, cond string, args ...interface{}) ([]model.Indicator, error) {
	query := `
		SELECT code, name, category, baseline, target, current, inverse, first_class, weight
		FROM indicators`
	if cond != "" {
		query += " WHERE " + cond
	}
	query += " ORDER BY category, code"

	rows, err := q(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query indicators: %w", err)
	}
	defer rows.Close()

	var inds []model.Indicator
	for rows.Next() {
		ind, err := scanIndicator(rows)
		if err != nil {
			return nil, err
		}
		inds = append(inds, *ind)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate indicators: %w", err)
	}
	return inds, nil
}

func scanIndicator(row rowScanner) (*model.Indicator, error) {
	var ind model.Indicator
	var category string
	var inverse, firstClass int
	err := row.Scan(&ind.Code, &ind.Name, &category, &ind.Baseline, &ind.Target,
		&ind.Current, &inverse, &firstClass, &ind.Weight)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan indicator: %w", err)
	}
	ind.Category = model.Category(category)
	ind.Inverse = inverse != 0
	ind.FirstClass = firstClass != 0
	return &ind, nil
}
