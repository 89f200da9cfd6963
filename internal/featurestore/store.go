// Package featurestore persists raw cruise feature vectors for later model
// training. It is the offline-mode sink of the evaluator: append-only, one
// row per evaluation call.
package featurestore

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/roadmetrics/lanecast/internal/predict"
	"github.com/roadmetrics/lanecast/internal/timeutil"
)

// schema.sql defines the cruise_features table and its indexes.
//
//go:embed schema.sql
var schemaSQL string

// Store is a sqlite-backed feature sink. Each Open starts a new recording
// session so rows from separate runs can be told apart.
type Store struct {
	db      *sql.DB
	session string
	clock   timeutil.Clock
}

// Open opens (creating if necessary) the feature database at path.
func Open(path string) (*Store, error) {
	return OpenWithClock(path, timeutil.RealClock{})
}

// OpenWithClock is Open with an injected clock for the created_unix_nanos
// column. Used by tests.
func OpenWithClock(path string, clock timeutil.Clock) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply feature store schema: %w", err)
	}
	return &Store{db: db, session: uuid.NewString(), clock: clock}, nil
}

// Session returns the recording session id for this store handle.
func (s *Store) Session() string { return s.session }

// Insert appends one recording: the snapshot's accumulated per-sequence
// feature vectors for the given obstacle. Never overwrites earlier rows.
func (s *Store) Insert(obstacleID int, snap *predict.Snapshot) error {
	if snap == nil {
		return nil
	}
	featuresJSON, err := json.Marshal(snap.OfflineFeatures)
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}
	stmt := `INSERT INTO cruise_features (session_id, obstacle_id, snapshot_unix_seconds, sequence_count, features_json, created_unix_nanos)
			 VALUES (?, ?, ?, ?, ?, ?)`
	_, err = s.db.Exec(stmt, s.session, obstacleID, snap.Timestamp,
		len(snap.OfflineFeatures), string(featuresJSON), s.clock.Now().UnixNano())
	return err
}

// Record is one persisted recording row.
type Record struct {
	ID            int64
	Session       string
	ObstacleID    int
	Timestamp     float64
	SequenceCount int
	Features      [][]float64
	CreatedNanos  int64
}

// Records returns all recordings in insertion order.
func (s *Store) Records() ([]Record, error) {
	rows, err := s.db.Query(`SELECT id, session_id, obstacle_id, snapshot_unix_seconds, sequence_count, features_json, created_unix_nanos
							 FROM cruise_features ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var featuresJSON string
		if err := rows.Scan(&r.ID, &r.Session, &r.ObstacleID, &r.Timestamp, &r.SequenceCount, &featuresJSON, &r.CreatedNanos); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(featuresJSON), &r.Features); err != nil {
			return nil, fmt.Errorf("decode features for row %d: %w", r.ID, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
