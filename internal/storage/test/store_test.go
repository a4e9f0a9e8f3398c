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

// Package storage_test contains the test suite for the SQLite-backed store.
// Every test runs against an in-memory database.
package storage_test

import (
	"testing"
	"time"

	"github.com/scriptweave/scriptweave/internal/core/model"
	"github.com/scriptweave/scriptweave/internal/storage"
	"github.com/stretchr/testify/assert"
)

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(":memory:")
	assert.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestProjectRoundTrip(t *testing.T) {
	store := openStore(t)

	project := &model.Project{
		Id:        "project-001",
		Name:      "harbor cut",
		CreatedAt: time.Now(),
		Video: &model.VideoInfo{
			Id:           "video-001",
			ProjectId:    "project-001",
			Path:         "/tmp/harbor.mp4",
			DurationSecs: 120,
			Width:        1920,
			Height:       1080,
			Format:       "mp4",
		},
	}
	assert.NoError(t, store.SaveProject(project))

	loaded, err := store.GetProject("project-001")
	assert.NoError(t, err)
	assert.Equal(t, "harbor cut", loaded.Name)
	assert.NotNil(t, loaded.Video)
	assert.Equal(t, 120.0, loaded.Video.DurationSecs)
}

func TestGetProjectNotFound(t *testing.T) {
	store := openStore(t)
	_, err := store.GetProject("missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSaveProjectKeyedReplace(t *testing.T) {
	store := openStore(t)

	project := &model.Project{Id: "project-001", Name: "before", CreatedAt: time.Now()}
	assert.NoError(t, store.SaveProject(project))
	project.Name = "after"
	assert.NoError(t, store.SaveProject(project))

	loaded, err := store.GetProject("project-001")
	assert.NoError(t, err)
	assert.Equal(t, "after", loaded.Name)
}

func TestSaveScriptReplacesByID(t *testing.T) {
	store := openStore(t)

	script := &model.ScriptData{
		Id:        "script-001",
		ProjectId: "project-001",
		Title:     "v1",
		Content:   "first draft",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	assert.NoError(t, store.SaveScript(script))

	script.Content = "rewritten draft"
	script.UpdatedAt = time.Now()
	assert.NoError(t, store.SaveScript(script))

	scripts, err := store.ListScripts("project-001")
	assert.NoError(t, err)
	assert.Len(t, scripts, 1)
	assert.Equal(t, "rewritten draft", scripts[0].Content)
}

func TestCorpusAppendOnlyOrdering(t *testing.T) {
	store := openStore(t)

	entries := []string{"first script body", "second script body", "third script body"}
	for _, content := range entries {
		assert.NoError(t, store.AddCorpusEntry("project-001", "script-001", content))
	}

	corpus, err := store.ListCorpus("project-001")
	assert.NoError(t, err)
	assert.Equal(t, entries, corpus)

	// Other projects do not see the corpus.
	other, err := store.ListCorpus("project-002")
	assert.NoError(t, err)
	assert.Empty(t, other)
}

func TestExportRecordsAppendOnly(t *testing.T) {
	store := openStore(t)

	base := time.Now()
	for i, id := range []string{"export-a", "export-b"} {
		record := &model.ExportRecord{
			Id:         id,
			ProjectId:  "project-001",
			Format:     "mp4",
			Quality:    "high",
			OutputPath: "/tmp/out_" + id + ".mp4",
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}
		assert.NoError(t, store.AddExportRecord(record))
	}

	records, err := store.ListExportRecords("project-001")
	assert.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "export-a", records[0].Id)
	assert.Equal(t, "export-b", records[1].Id)

	// A duplicate id is rejected rather than silently replacing history.
	dup := &model.ExportRecord{Id: "export-a", ProjectId: "project-001", CreatedAt: base}
	assert.Error(t, store.AddExportRecord(dup))
}
