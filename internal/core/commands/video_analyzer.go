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

// This file defines the command that runs the vision capability over the
// source video. Analysis is produced once per video and cached on the owning
// project, so a repeat run over the same footage skips the expensive call
// entirely.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/scriptweave/scriptweave/internal/core/cor"
	"github.com/scriptweave/scriptweave/internal/core/model"
	"github.com/scriptweave/scriptweave/internal/core/services"
	"github.com/scriptweave/scriptweave/internal/gen"
)

// VideoAnalyzer is the ai-analyze step. It reads the project from the
// context, runs scene/object/emotion detection plus the summary report, and
// publishes the VideoAnalysis for the rest of the pipeline.
type VideoAnalyzer struct {
	cor.BaseCommand
	vision   gen.VisionAnalyzer
	projects *services.ProjectService
}

// NewVideoAnalyzer is the constructor for the VideoAnalyzer command.
func NewVideoAnalyzer(name string, vision gen.VisionAnalyzer, projects *services.ProjectService) *VideoAnalyzer {
	out := &VideoAnalyzer{
		BaseCommand: *cor.NewBaseCommand(name),
		vision:      vision,
		projects:    projects,
	}
	out.OutputParamName = GetAnalysisParameterName()
	return out
}

// IsExecutable requires a project with an attached video.
func (c *VideoAnalyzer) IsExecutable(context cor.Context) bool {
	project, ok := context.Get(GetProjectParameterName()).(*model.Project)
	return ok && project.Video != nil
}

func (c *VideoAnalyzer) Execute(context cor.Context) {
	project := context.Get(GetProjectParameterName()).(*model.Project)
	progress := cor.GetProgressReporter(context)
	progress.Report(0)

	if project.Analysis != nil {
		slog.Info("reusing cached video analysis", "project_id", project.Id, "video_id", project.Video.Id)
		c.publish(context, project.Analysis)
		progress.Report(1)
		return
	}

	detected, err := c.vision.DetectScenesAdvanced(context.GetContext(), project.Video)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("scene detection failed: %w", err))
		return
	}
	progress.Report(0.7)

	// The summary report tolerates partial failure: scenes are mandatory,
	// the free-text summary is an optional field.
	analysis, err := c.vision.GenerateAnalysisReport(context.GetContext(), project.Video, detected)
	if err != nil {
		slog.Warn("analysis report generation failed, continuing with detection only",
			"project_id", project.Id, "error", err)
		analysis = detected
	}
	progress.Report(0.9)

	if err := c.projects.CacheAnalysis(project, analysis); err != nil {
		slog.Warn("failed to cache video analysis", "project_id", project.Id, "error", err)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	c.publish(context, analysis)
	progress.Report(1)
}

func (c *VideoAnalyzer) publish(context cor.Context, analysis *model.VideoAnalysis) {
	context.Add(c.GetOutputParam(), analysis)
	context.Add(cor.CtxOut, analysis)
}
