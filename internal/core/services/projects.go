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

package services

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/scriptweave/scriptweave/internal/core/model"
	"github.com/scriptweave/scriptweave/internal/media"
	"github.com/scriptweave/scriptweave/internal/storage"
)

// ProjectService owns project lifecycle and the persisted artifacts hanging
// off a project: scripts, the uniqueness corpus, and export history.
type ProjectService struct {
	store *storage.Store
}

// NewProjectService builds the service over the given store.
func NewProjectService(store *storage.Store) *ProjectService {
	return &ProjectService{store: store}
}

// Create persists a new empty project and returns it.
func (s *ProjectService) Create(name string) (*model.Project, error) {
	project := &model.Project{
		Id:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := s.store.SaveProject(project); err != nil {
		return nil, fmt.Errorf("failed to persist project: %w", err)
	}
	return project, nil
}

// Get returns the project with the given id.
func (s *ProjectService) Get(id string) (*model.Project, error) {
	return s.store.GetProject(id)
}

// VideoProbe carries the media metadata the UI shell probes before upload.
// The engine trusts it; sniffing only verifies the container type.
type VideoProbe struct {
	DurationSecs float64
	Width        int
	Height       int
}

// AttachVideo sniffs the file at path, records its metadata on the project,
// and persists the update. The video is immutable after this point; a second
// attach replaces it and drops the cached analysis.
func (s *ProjectService) AttachVideo(project *model.Project, path string, probe VideoProbe) (*model.VideoInfo, error) {
	kind, err := media.Sniff(path)
	if err != nil {
		return nil, fmt.Errorf("failed to sniff uploaded video: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat uploaded video: %w", err)
	}

	video := &model.VideoInfo{
		Id:           uuid.NewString(),
		ProjectId:    project.Id,
		Path:         path,
		DurationSecs: probe.DurationSecs,
		Width:        probe.Width,
		Height:       probe.Height,
		Format:       kind.Extension,
		SizeBytes:    info.Size(),
	}
	project.Video = video
	project.Analysis = nil
	if err := s.store.SaveProject(project); err != nil {
		return nil, fmt.Errorf("failed to persist project video: %w", err)
	}
	return video, nil
}

// CacheAnalysis stores the vision analysis on the project so a repeat run
// over the same video skips the analyze call.
func (s *ProjectService) CacheAnalysis(project *model.Project, analysis *model.VideoAnalysis) error {
	project.Analysis = analysis
	return s.store.SaveProject(project)
}

// SaveScript persists a script into the owning project's script list. The
// same call serves the initial append and every keyed replace by id during
// rewrite passes.
func (s *ProjectService) SaveScript(script *model.ScriptData) error {
	return s.store.SaveScript(script)
}

// Scripts lists a project's persisted scripts, oldest first.
func (s *ProjectService) Scripts(projectId string) ([]*model.ScriptData, error) {
	return s.store.ListScripts(projectId)
}

// Corpus returns the historical uniqueness corpus for a project.
func (s *ProjectService) Corpus(projectId string) ([]string, error) {
	return s.store.ListCorpus(projectId)
}

// AppendCorpus adds a completed script's content to the historical corpus.
// Every script that finishes the uniqueness step lands here, unique or not.
func (s *ProjectService) AppendCorpus(script *model.ScriptData) error {
	return s.store.AddCorpusEntry(script.ProjectId, script.Id, script.Content)
}

// RecordExport appends one entry to the project's export history.
func (s *ProjectService) RecordExport(record *model.ExportRecord) error {
	return s.store.AddExportRecord(record)
}

// Exports lists a project's export history, oldest first.
func (s *ProjectService) Exports(projectId string) ([]*model.ExportRecord, error) {
	return s.store.ListExportRecords(projectId)
}
