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

// This file defines the uniqueness step: the bounded check/rewrite loop that
// keeps a script from echoing the project's previously generated output. The
// enforcer only reads the historical corpus; this command is the caller that
// appends every script completing the step, unique or not.
package commands

import (
	"bytes"
	goctx "context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/scriptweave/scriptweave/internal/core/cor"
	"github.com/scriptweave/scriptweave/internal/core/model"
	"github.com/scriptweave/scriptweave/internal/core/services"
	"github.com/scriptweave/scriptweave/internal/gen"
)

// UniquenessCommand runs the uniqueness enforcer over the generated script
// with a model-backed rewrite capability.
type UniquenessCommand struct {
	cor.BaseCommand
	enforcer *services.UniquenessEnforcer
	projects *services.ProjectService
	rewriter gen.TextGenerator
	prompt   *template.Template
}

// NewUniquenessCommand is the constructor for the UniquenessCommand.
// promptSource is the rewrite prompt template from configuration.
func NewUniquenessCommand(
	name string,
	enforcer *services.UniquenessEnforcer,
	projects *services.ProjectService,
	rewriter gen.TextGenerator,
	promptSource string) (*UniquenessCommand, error) {
	prompt, err := template.New("uniqueness_rewrite").Parse(promptSource)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rewrite prompt template: %w", err)
	}
	out := &UniquenessCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		enforcer:    enforcer,
		projects:    projects,
		rewriter:    rewriter,
		prompt:      prompt,
	}
	out.InputParamName = GetScriptParameterName()
	out.OutputParamName = GetScriptParameterName()
	return out, nil
}

func (c *UniquenessCommand) Execute(context cor.Context) {
	script := context.Get(c.GetInputParam()).(*model.ScriptData)
	progress := cor.GetProgressReporter(context)
	progress.Report(0)

	corpus, err := c.projects.Corpus(script.ProjectId)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to load uniqueness corpus: %w", err))
		return
	}
	progress.Report(0.2)

	result, err := c.enforcer.EnsureUniqueness(context.GetContext(), script, corpus, c.rewriteScript)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}
	progress.Report(0.8)

	if !result.Check.IsUnique {
		slog.Warn("script remained too similar to history",
			"script_id", result.Script.Id,
			"similarity", result.Check.Similarity,
			"attempts", result.Check.Attempts)
	}

	// Persist whatever the loop settled on and grow the corpus with it.
	if err := c.projects.SaveScript(result.Script); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to persist script %s: %w", result.Script.Id, err))
		return
	}
	if err := c.projects.AppendCorpus(result.Script); err != nil {
		slog.Warn("failed to append script to uniqueness corpus", "script_id", result.Script.Id, "error", err)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetUniquenessParameterName(), result.Check)
	context.Add(c.GetOutputParam(), result.Script)
	context.Add(cor.CtxOut, result.Script)
	progress.Report(1)
}

// rewriteScript produces a fresh rendition of every segment while preserving
// the script id. It works on a deep copy so the enforcer's earlier versions
// stay intact for its best-seen fallback.
func (c *UniquenessCommand) rewriteScript(ctx goctx.Context, script *model.ScriptData) (*model.ScriptData, error) {
	rewritten := script.Clone()
	for _, seg := range rewritten.Segments {
		var doc bytes.Buffer
		err := c.prompt.Execute(&doc, map[string]interface{}{
			"CONTENT": seg.Content,
			"ISSUES":  "The narration is too close to previously produced scripts.",
			"GOAL":    "Say the same thing with substantially different wording and sentence structure.",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to execute rewrite prompt template: %w", err)
		}
		out, err := c.rewriter.GenerateText(ctx, doc.String())
		if err != nil {
			return nil, err
		}
		if trimmed := strings.TrimSpace(out); trimmed != "" {
			seg.Content = trimmed
		}
	}
	rewritten.Rebuild()
	return rewritten, nil
}
