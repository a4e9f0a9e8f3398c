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

// This file defines the dedup step. Detection never fails the pipeline: the
// engine degrades internal errors to an empty report, and a rewrite that
// fails leaves the script as generated. The only hard failure path here is
// re-persisting a script that auto-fix actually changed.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/scriptweave/scriptweave/internal/core/cor"
	"github.com/scriptweave/scriptweave/internal/core/model"
	"github.com/scriptweave/scriptweave/internal/core/services"
	"github.com/scriptweave/scriptweave/internal/gen"
)

// OriginalityChecker scores the script against the configured duplicate
// strategies and, when auto-fix is on and the score falls below the fix
// threshold, rewrites the flagged segments and re-persists the script.
type OriginalityChecker struct {
	cor.BaseCommand
	engine   *services.OriginalityEngine
	projects *services.ProjectService
	config   gen.DedupConfig
}

// NewOriginalityChecker is the constructor for the OriginalityChecker command.
func NewOriginalityChecker(name string, engine *services.OriginalityEngine, projects *services.ProjectService, config gen.DedupConfig) *OriginalityChecker {
	out := &OriginalityChecker{
		BaseCommand: *cor.NewBaseCommand(name),
		engine:      engine,
		projects:    projects,
		config:      config,
	}
	out.InputParamName = GetScriptParameterName()
	out.OutputParamName = GetScriptParameterName()
	return out
}

func (c *OriginalityChecker) Execute(context cor.Context) {
	script := context.Get(c.GetInputParam()).(*model.ScriptData)
	progress := cor.GetProgressReporter(context)
	progress.Report(0)

	report := c.engine.GenerateReport(script)
	progress.Report(0.5)

	if c.config.AutoFix && report.Score < services.AutoFixBelow {
		slog.Info("originality below fix threshold, rewriting flagged segments",
			"script_id", script.Id, "score", report.Score, "findings", len(report.Findings))
		before := script.UpdatedAt
		script = c.engine.AutoFix(context.GetContext(), script, report)
		if script.UpdatedAt.After(before) {
			if err := c.projects.SaveScript(script); err != nil {
				c.GetErrorCounter().Add(context.GetContext(), 1)
				context.AddError(c.GetName(), fmt.Errorf("failed to persist fixed script %s: %w", script.Id, err))
				return
			}
			// Scores always reflect current content, so re-derive after a fix.
			report = c.engine.GenerateReport(script)
		}
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetReportParameterName(), report)
	context.Add(c.GetOutputParam(), script)
	context.Add(cor.CtxOut, script)
	progress.Report(1)
}
