package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/alloy-data/degradation.fit/internal/gridsearch"
)

// SearchRun is one persisted grid-search run.
type SearchRun struct {
	RunID          string          `json:"run_id"`
	CreatedAt      int64           `json:"created_at"`
	Model          string          `json:"model"`
	Strategy       string          `json:"strategy"`
	CVTests        int             `json:"cv_tests"`
	Seed           int64           `json:"seed"`
	PopulationSize int             `json:"population_size"`
	BestIndex      int             `json:"best_index"`
	BestRMSE       float64         `json:"best_rmse"`
	ParamsJSON     json.RawMessage `json:"params_json,omitempty"`
}

// PointResult is one persisted grid-point score.
type PointResult struct {
	RunID      string          `json:"run_id"`
	PointIndex int             `json:"point_index"`
	RMSE       float64         `json:"rmse"`
	ParamsJSON json.RawMessage `json:"params_json,omitempty"`
}

// RunStore provides persistence for search runs and their results.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a RunStore backed by the given database.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// InsertRun persists a run header. If RunID is empty, a UUID is generated.
func (s *RunStore) InsertRun(run *SearchRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}

	var paramsStr interface{}
	if len(run.ParamsJSON) > 0 {
		paramsStr = string(run.ParamsJSON)
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO search_runs (
				run_id, created_at, model, strategy, cv_tests, seed,
				population_size, best_index, best_rmse, params_json
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.CreatedAt, run.Model, run.Strategy, run.CVTests, run.Seed,
			run.PopulationSize, run.BestIndex, run.BestRMSE, paramsStr,
		)
		return err
	})
}

// InsertResults persists every grid-point score of a run in one
// transaction. NaN scores (skipped failures) are stored as NULL.
func (s *RunStore) InsertResults(runID string, outcome *gridsearch.Outcome) error {
	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback()

		stmt, err := tx.Prepare(`
			INSERT INTO search_results (run_id, point_index, rmse, params_json)
			VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		defer stmt.Close()

		for i, res := range outcome.Results {
			params, err := json.Marshal(outcome.Grid.Points[i].Assignment)
			if err != nil {
				return fmt.Errorf("marshal params for point %d: %w", res.Index, err)
			}

			var rmse interface{}
			if !math.IsNaN(res.RMSE) {
				rmse = res.RMSE
			}
			if _, err := stmt.Exec(runID, res.Index, rmse, string(params)); err != nil {
				return fmt.Errorf("insert point %d: %w", res.Index, err)
			}
		}
		return tx.Commit()
	})
}

// GetRun fetches one run header.
func (s *RunStore) GetRun(runID string) (*SearchRun, error) {
	row := s.db.QueryRow(`
		SELECT run_id, created_at, model, strategy, cv_tests, seed,
		       population_size, best_index, best_rmse, params_json
		FROM search_runs WHERE run_id = ?`, runID)

	var run SearchRun
	var params sql.NullString
	err := row.Scan(&run.RunID, &run.CreatedAt, &run.Model, &run.Strategy,
		&run.CVTests, &run.Seed, &run.PopulationSize, &run.BestIndex,
		&run.BestRMSE, &params)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	if params.Valid {
		run.ParamsJSON = json.RawMessage(params.String)
	}
	return &run, nil
}

// ListResults returns a run's point results ordered by index. NULL scores
// come back as NaN.
func (s *RunStore) ListResults(runID string) ([]*PointResult, error) {
	rows, err := s.db.Query(`
		SELECT run_id, point_index, rmse, params_json
		FROM search_results
		WHERE run_id = ?
		ORDER BY point_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []*PointResult
	for rows.Next() {
		var r PointResult
		var rmse sql.NullFloat64
		var params sql.NullString
		if err := rows.Scan(&r.RunID, &r.PointIndex, &rmse, &params); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if rmse.Valid {
			r.RMSE = rmse.Float64
		} else {
			r.RMSE = math.NaN()
		}
		if params.Valid {
			r.ParamsJSON = json.RawMessage(params.String)
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}

// BestResults returns a run's lowest-error points, up to limit, skipping
// NULL scores.
func (s *RunStore) BestResults(runID string, limit int) ([]*PointResult, error) {
	rows, err := s.db.Query(`
		SELECT run_id, point_index, rmse, params_json
		FROM search_results
		WHERE run_id = ? AND rmse IS NOT NULL
		ORDER BY rmse, point_index
		LIMIT ?`, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("query best results: %w", err)
	}
	defer rows.Close()

	var results []*PointResult
	for rows.Next() {
		var r PointResult
		var params sql.NullString
		if err := rows.Scan(&r.RunID, &r.PointIndex, &r.RMSE, &params); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if params.Valid {
			r.ParamsJSON = json.RawMessage(params.String)
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}
