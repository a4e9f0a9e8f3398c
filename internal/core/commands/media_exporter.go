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

// This file defines the export step: it prepares the inputs for the external
// media-export capability (paths, subtitle file, settings), invokes it, and
// appends the resulting ExportRecord to the project's history. The capability
// owns retries; its errors propagate unchanged and are fatal to the run.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/scriptweave/scriptweave/internal/core/cor"
	"github.com/scriptweave/scriptweave/internal/core/model"
	"github.com/scriptweave/scriptweave/internal/core/services"
	"github.com/scriptweave/scriptweave/internal/media"
)

// MediaExporter renders the timeline into the output directory and records
// the export.
type MediaExporter struct {
	cor.BaseCommand
	exporter  media.Exporter
	projects  *services.ProjectService
	settings  model.ExportSettings
	outputDir string
}

// NewMediaExporter is the constructor for the MediaExporter command.
func NewMediaExporter(name string, exporter media.Exporter, projects *services.ProjectService, settings model.ExportSettings, outputDir string) *MediaExporter {
	out := &MediaExporter{
		BaseCommand: *cor.NewBaseCommand(name),
		exporter:    exporter,
		projects:    projects,
		settings:    settings,
		outputDir:   outputDir,
	}
	out.InputParamName = GetTimelineParameterName()
	out.OutputParamName = GetExportRecordParameterName()
	return out
}

// IsExecutable requires the timeline and the project's video.
func (c *MediaExporter) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.Get(c.GetInputParam()) != nil &&
		context.Get(GetVideoParameterName()) != nil &&
		context.Get(GetProjectParameterName()) != nil
}

func (c *MediaExporter) Execute(context cor.Context) {
	timeline := context.Get(c.GetInputParam()).(*model.TimelineData)
	video := context.Get(GetVideoParameterName()).(*model.VideoInfo)
	project := context.Get(GetProjectParameterName()).(*model.Project)
	progress := cor.GetProgressReporter(context)
	progress.Report(0)

	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to create output directory: %w", err))
		return
	}

	exportId := uuid.NewString()
	outputPath := filepath.Join(c.outputDir, fmt.Sprintf("%s_%s.%s", project.Id, exportId[:8], c.settings.Format))

	if c.settings.IncludeSubtitles {
		if srt, ok := context.Get(GetSubtitleParameterName()).(string); ok && srt != "" {
			srtPath := outputPath[:len(outputPath)-len(filepath.Ext(outputPath))] + ".srt"
			if err := os.WriteFile(srtPath, []byte(srt), 0o644); err != nil {
				c.GetErrorCounter().Add(context.GetContext(), 1)
				context.AddError(c.GetName(), fmt.Errorf("failed to write subtitle file: %w", err))
				return
			}
		}
	}
	progress.Report(0.1)

	if err := c.exporter.Export(context.GetContext(), timeline, video.Path, c.settings, outputPath); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}
	progress.Report(0.9)

	fileSize := int64(0)
	if info, err := os.Stat(outputPath); err == nil {
		fileSize = info.Size()
	}

	clipCount := 0
	for _, track := range timeline.Tracks {
		clipCount += len(track.Clips)
	}
	record := &model.ExportRecord{
		Id:           exportId,
		ProjectId:    project.Id,
		Format:       c.settings.Format,
		Quality:      c.settings.Quality,
		Resolution:   c.settings.Resolution,
		OutputPath:   outputPath,
		FileSize:     fileSize,
		TrackCount:   len(timeline.Tracks),
		ClipCount:    clipCount,
		DurationSecs: timeline.DurationSecs,
		CreatedAt:    time.Now(),
	}
	if err := c.projects.RecordExport(record); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to persist export record: %w", err))
		return
	}
	slog.Info("export complete", "project_id", project.Id, "output", outputPath, "bytes", fileSize)

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), record)
	context.Add(cor.CtxOut, record)
	progress.Report(1)
}
