// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package history persists a log of launched sessions in a local
// SQLite database so past jobs can be inspected after the fact.
package history

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Outcomes recorded for a launch.
const (
	OutcomeRunning     = "running"
	OutcomeCompleted   = "completed"
	OutcomeInterrupted = "interrupted"
	OutcomeFailed      = "failed"
)

// Record is one launched session.
type Record struct {
	ID        string
	JobName   string
	Image     string
	Mode      string
	CreatedAt time.Time
	Outcome   string
}

// Store persists launch records.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS launches (
	id TEXT PRIMARY KEY,
	job_name TEXT NOT NULL,
	image TEXT NOT NULL,
	mode TEXT NOT NULL,
	created_at TEXT NOT NULL,
	outcome TEXT NOT NULL DEFAULT 'running'
);
CREATE INDEX IF NOT EXISTS idx_launches_created_at ON launches(created_at);
`

// Open opens the history database at path, creating the file and its
// parent directory if necessary.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create history directory")
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open history database")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize history schema")
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordLaunch inserts a new record with outcome "running" and returns
// its id.
func (s *Store) RecordLaunch(jobName, image, mode string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO launches (id, job_name, image, mode, created_at, outcome) VALUES (?, ?, ?, ?, ?, ?)`,
		id, jobName, image, mode, time.Now().UTC().Format(time.RFC3339), OutcomeRunning)
	if err != nil {
		return "", errors.Wrap(err, "failed to record launch")
	}
	return id, nil
}

// FinishLaunch updates the outcome of a recorded launch.
func (s *Store) FinishLaunch(id, outcome string) error {
	_, err := s.db.Exec(`UPDATE launches SET outcome = ? WHERE id = ?`, outcome, id)
	return errors.Wrap(err, "failed to update launch outcome")
}

// Recent returns up to limit launches, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT id, job_name, image, mode, created_at, outcome FROM launches ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query launches")
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var created string
		if err := rows.Scan(&r.ID, &r.JobName, &r.Image, &r.Mode, &created, &r.Outcome); err != nil {
			return nil, errors.Wrap(err, "failed to scan launch row")
		}
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			r.CreatedAt = t
		}
		records = append(records, r)
	}
	return records, errors.Wrap(rows.Err(), "failed to read launch rows")
}
