package repo

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sander-remitly/plandash/internal/models"
	"go.uber.org/zap"
)

// Repository is the local journal of delivery syncs and optimization runs
type Repository struct {
	db  *sql.DB
	log *zap.Logger
}

// New opens (and if needed creates) the journal database at dbPath
func New(dbPath string, log *zap.Logger) (*Repository, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &Repository{db: db, log: log}
	if err := repo.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return repo, nil
}

// initialize creates the database schema
func (r *Repository) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS delivery_syncs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		inserted INTEGER NOT NULL,
		fingerprint TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS delivery_sync_rows (
		sync_id INTEGER NOT NULL REFERENCES delivery_syncs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		date TEXT NOT NULL,
		pulp_type TEXT NOT NULL,
		amount REAL NOT NULL,
		PRIMARY KEY (sync_id, position)
	);

	CREATE TABLE IF NOT EXISTS optimization_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scenario_name TEXT NOT NULL,
		selected_products TEXT NOT NULL,
		success INTEGER NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_delivery_syncs_timestamp ON delivery_syncs(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_optimization_runs_timestamp ON optimization_runs(timestamp DESC);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// RecordSync journals a delivery sync together with the submitted rows
func (r *Repository) RecordSync(start, end, fingerprint string, rows []models.DeliveryRow, inserted int) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"INSERT INTO delivery_syncs (start_date, end_date, row_count, inserted, fingerprint) VALUES (?, ?, ?, ?, ?)",
		start, end, len(rows), inserted, fingerprint,
	)
	if err != nil {
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare("INSERT INTO delivery_sync_rows (sync_id, position, date, pulp_type, amount) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.Exec(id, i, row.Date, row.PulpType, row.Amount); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// SyncRows returns the rows submitted by one journaled sync, in submission order
func (r *Repository) SyncRows(syncID int64) ([]models.DeliveryRow, error) {
	rows, err := r.db.Query(
		"SELECT date, pulp_type, amount FROM delivery_sync_rows WHERE sync_id = ? ORDER BY position",
		syncID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.DeliveryRow{}
	for rows.Next() {
		var row models.DeliveryRow
		if err := rows.Scan(&row.Date, &row.PulpType, &row.Amount); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// Syncs returns the latest journaled syncs, newest first
func (r *Repository) Syncs(limit int) ([]models.SyncEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, start_date, end_date, row_count, inserted, fingerprint, timestamp
		FROM delivery_syncs
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.SyncEntry{}
	for rows.Next() {
		var entry models.SyncEntry
		err := rows.Scan(
			&entry.ID,
			&entry.Start,
			&entry.End,
			&entry.Rows,
			&entry.Inserted,
			&entry.Fingerprint,
			&entry.Timestamp,
		)
		if err != nil {
			r.log.Warn("Error scanning row", zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// RecordRun journals an optimization run
func (r *Repository) RecordRun(scenarioName string, selectedProducts []string, success bool, message string) error {
	if selectedProducts == nil {
		selectedProducts = []string{}
	}
	productsJSON, err := json.Marshal(selectedProducts)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO optimization_runs (scenario_name, selected_products, success, message)
		VALUES (?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, scenarioName, string(productsJSON), success, message)
	return err
}

// Runs returns the latest journaled runs, newest first
func (r *Repository) Runs(limit int) ([]models.RunEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, scenario_name, selected_products, success, message, timestamp
		FROM optimization_runs
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.RunEntry{}
	for rows.Next() {
		var entry models.RunEntry
		var productsJSON string

		err := rows.Scan(
			&entry.ID,
			&entry.ScenarioName,
			&productsJSON,
			&entry.Success,
			&entry.Message,
			&entry.Timestamp,
		)
		if err != nil {
			r.log.Warn("Error scanning row", zap.Error(err))
			continue
		}

		if err := json.Unmarshal([]byte(productsJSON), &entry.SelectedProducts); err != nil {
			r.log.Warn("Error unmarshaling selected products", zap.Error(err))
			continue
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// ClearHistory clears the whole journal
func (r *Repository) ClearHistory() error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM delivery_sync_rows",
		"DELETE FROM delivery_syncs",
		"DELETE FROM optimization_runs",
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetStats returns statistics about the journal
func (r *Repository) GetStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var syncCount int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM delivery_syncs").Scan(&syncCount); err != nil {
		return nil, err
	}
	stats["total_syncs"] = syncCount

	var runCount int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM optimization_runs").Scan(&runCount); err != nil {
		return nil, err
	}
	stats["total_runs"] = runCount

	var latest sql.NullString
	err := r.db.QueryRow("SELECT MAX(timestamp) FROM delivery_syncs").Scan(&latest)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if latest.Valid {
		if t, err := time.Parse("2006-01-02 15:04:05", latest.String); err == nil {
			stats["latest_sync"] = t
		} else {
			stats["latest_sync"] = latest.String
		}
	}

	return stats, nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping() error {
	return r.db.Ping()
}
