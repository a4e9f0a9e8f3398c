// Copyright 2025 Scriptweave Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package storage is the persistence capability: a local SQLite database
// accessed through GORM. The workflow core treats it as a key-value store
// with three verbs, get, save (keyed replace), and add (append), which is
// exactly how the row helpers below behave. Domain objects are stored as
// JSON payloads so the schema never constrains the model structs.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/scriptweave/scriptweave/internal/core/model"
)

// ErrNotFound is returned when a keyed lookup matches no row.
var ErrNotFound = errors.New("storage: record not found")

// ProjectRow is the persisted form of a project, including its video and
// cached analysis.
type ProjectRow struct {
	Id        string `gorm:"primaryKey"`
	Name      string
	Payload   string // JSON-encoded model.Project.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ScriptRow is the persisted form of a generated script. Saves are keyed
// replace by script id, which is how rewrite passes update content without
// breaking id stability.
type ScriptRow struct {
	Id        string `gorm:"primaryKey"`
	ProjectId string `gorm:"index"`
	Payload   string // JSON-encoded model.ScriptData.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CorpusRow is one entry of the historical uniqueness corpus. Append-only.
type CorpusRow struct {
	Id        uint   `gorm:"primaryKey;autoIncrement"`
	ProjectId string `gorm:"index"`
	ScriptId  string
	Content   string
	CreatedAt time.Time
}

// ExportRow is one entry of the append-only export history.
type ExportRow struct {
	Id        string `gorm:"primaryKey"`
	ProjectId string `gorm:"index"`
	Payload   string // JSON-encoded model.ExportRecord.
	CreatedAt time.Time
}

// Store wraps the GORM connection.
type Store struct {
	db *gorm.DB
}

// Open connects to the SQLite database at path, enabling WAL and foreign
// keys, and migrates the schema. Use ":memory:" for an in-memory store in
// tests.
func Open(path string) (*Store, error) {
	gormLogger := logger.New(
		log.New(log.Writer(), "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_busy_timeout=10000&_journal_mode=WAL&_foreign_keys=on", path)
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	return s.db.AutoMigrate(&ProjectRow{}, &ScriptRow{}, &CorpusRow{}, &ExportRow{})
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveProject writes the project under its id (keyed replace).
func (s *Store) SaveProject(project *model.Project) error {
	payload, err := json.Marshal(project)
	if err != nil {
		return err
	}
	row := &ProjectRow{
		Id:        project.Id,
		Name:      project.Name,
		Payload:   string(payload),
		CreatedAt: project.CreatedAt,
		UpdatedAt: time.Now(),
	}
	return s.db.Save(row).Error
}

// GetProject reads the project stored under id.
func (s *Store) GetProject(id string) (*model.Project, error) {
	var row ProjectRow
	if err := s.db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	out := &model.Project{}
	if err := json.Unmarshal([]byte(row.Payload), out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveScript writes the script under its id (keyed replace). The same call
// serves the initial append and every subsequent rewrite.
func (s *Store) SaveScript(script *model.ScriptData) error {
	payload, err := json.Marshal(script)
	if err != nil {
		return err
	}
	row := &ScriptRow{
		Id:        script.Id,
		ProjectId: script.ProjectId,
		Payload:   string(payload),
		CreatedAt: script.CreatedAt,
		UpdatedAt: script.UpdatedAt,
	}
	return s.db.Save(row).Error
}

// ListScripts returns every script of a project, oldest first.
func (s *Store) ListScripts(projectId string) ([]*model.ScriptData, error) {
	var rows []ScriptRow
	if err := s.db.Where("project_id = ?", projectId).Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*model.ScriptData, 0, len(rows))
	for _, row := range rows {
		script := &model.ScriptData{}
		if err := json.Unmarshal([]byte(row.Payload), script); err != nil {
			return nil, err
		}
		out = append(out, script)
	}
	return out, nil
}

// AddCorpusEntry appends one script's content to the historical corpus.
func (s *Store) AddCorpusEntry(projectId, scriptId, content string) error {
	row := &CorpusRow{
		ProjectId: projectId,
		ScriptId:  scriptId,
		Content:   content,
		CreatedAt: time.Now(),
	}
	return s.db.Create(row).Error
}

// ListCorpus returns the stored corpus contents for a project, oldest first.
func (s *Store) ListCorpus(projectId string) ([]string, error) {
	var rows []CorpusRow
	if err := s.db.Where("project_id = ?", projectId).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Content)
	}
	return out, nil
}

// AddExportRecord appends one export record. Records are never updated or
// deleted.
func (s *Store) AddExportRecord(record *model.ExportRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	row := &ExportRow{
		Id:        record.Id,
		ProjectId: record.ProjectId,
		Payload:   string(payload),
		CreatedAt: record.CreatedAt,
	}
	return s.db.Create(row).Error
}

// ListExportRecords returns a project's export history, oldest first.
func (s *Store) ListExportRecords(projectId string) ([]*model.ExportRecord, error) {
	var rows []ExportRow
	if err := s.db.Where("project_id = ?", projectId).Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*model.ExportRecord, 0, len(rows))
	for _, row := range rows {
		record := &model.ExportRecord{}
		if err := json.Unmarshal([]byte(row.Payload), record); err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}
