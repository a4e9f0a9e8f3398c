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

// This file defines the optional clip-planning step. Clip suggestions are an
// enhancement, never a pipeline dependency: every failure path inside this
// command produces a degraded (empty) plan instead of a chain error, so the
// run always advances past it.
package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"text/template"

	"github.com/scriptweave/scriptweave/internal/core/cor"
	"github.com/scriptweave/scriptweave/internal/core/model"
	"github.com/scriptweave/scriptweave/internal/gen"
)

// ClipPlanner builds clip suggestions from the video analysis: heuristic cuts
// from scene bounds first, optionally refined by the generative model when
// AIOptimize is on.
type ClipPlanner struct {
	cor.BaseCommand
	config    gen.ClipConfig
	optimizer gen.TextGenerator
	prompt    *template.Template
}

// NewClipPlanner is the constructor for the ClipPlanner command. optimizer
// may be nil when AIOptimize is off; promptSource is the clip prompt template
// from configuration.
func NewClipPlanner(name string, config gen.ClipConfig, optimizer gen.TextGenerator, promptSource string) (*ClipPlanner, error) {
	prompt, err := template.New("clip").Parse(promptSource)
	if err != nil {
		return nil, fmt.Errorf("failed to parse clip prompt template: %w", err)
	}
	out := &ClipPlanner{
		BaseCommand: *cor.NewBaseCommand(name),
		config:      config,
		optimizer:   optimizer,
		prompt:      prompt,
	}
	out.InputParamName = GetAnalysisParameterName()
	out.OutputParamName = GetClipPlanParameterName()
	return out, nil
}

func (c *ClipPlanner) Execute(context cor.Context) {
	analysis, _ := context.Get(c.GetInputParam()).(*model.VideoAnalysis)
	video, _ := context.Get(GetVideoParameterName()).(*model.VideoInfo)
	progress := cor.GetProgressReporter(context)
	progress.Report(0)

	if analysis == nil || video == nil {
		c.publish(context, degradedPlan("clip planning skipped: no analysis available"))
		progress.Report(1)
		return
	}

	plan := c.heuristicPlan(analysis, video)
	progress.Report(0.5)

	if c.config.AIOptimize && c.optimizer != nil {
		optimized, err := c.optimizePlan(context, plan, analysis, video)
		if err != nil {
			slog.Warn("clip plan optimization failed, keeping heuristic plan", "error", err)
		} else {
			plan = optimized
		}
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	c.publish(context, plan)
	progress.Report(1)
}

func (c *ClipPlanner) publish(context cor.Context, plan *model.ClipPlan) {
	context.Add(c.GetOutputParam(), plan)
	context.Add(cor.CtxOut, plan)
}

func degradedPlan(why string) *model.ClipPlan {
	return &model.ClipPlan{
		Suggestions: []*model.ClipSuggestion{},
		Degraded:    true,
		DegradedWhy: why,
	}
}

// heuristicPlan derives suggestions from the detected scenes: each confident
// scene becomes a candidate clip, dead time between scenes is trimmed when
// configured, and the best-scoring clips are kept until the target duration
// is covered.
func (c *ClipPlanner) heuristicPlan(analysis *model.VideoAnalysis, video *model.VideoInfo) *model.ClipPlan {
	plan := &model.ClipPlan{
		Suggestions:  []*model.ClipSuggestion{},
		TargetLength: c.config.TargetDuration,
		PacingStyle:  c.config.PacingStyle,
	}

	if c.config.DetectSceneChange {
		for _, scene := range analysis.Scenes {
			if scene.Confidence < 0.5 || scene.End <= scene.Start {
				continue
			}
			plan.Suggestions = append(plan.Suggestions, &model.ClipSuggestion{
				Start:  scene.Start,
				End:    scene.End,
				Reason: fmt.Sprintf("scene change: %s", scene.Type),
				Score:  scene.Confidence,
			})
		}
	}
	if len(plan.Suggestions) == 0 {
		// No usable scenes: suggest the whole video as a single clip.
		plan.Suggestions = append(plan.Suggestions, &model.ClipSuggestion{
			Start:  0,
			End:    video.DurationSecs,
			Reason: "full video, no confident scene cuts detected",
			Score:  0.5,
		})
	}

	if c.config.TrimDeadTime || c.config.RemoveSilence {
		plan.Suggestions = trimToTarget(plan.Suggestions, c.config.TargetDuration)
	}
	sort.Slice(plan.Suggestions, func(i, j int) bool {
		return plan.Suggestions[i].Start < plan.Suggestions[j].Start
	})
	return plan
}

// trimToTarget keeps the highest-scoring suggestions until their combined
// length reaches the target duration. A zero target keeps everything.
func trimToTarget(suggestions []*model.ClipSuggestion, target float64) []*model.ClipSuggestion {
	if target <= 0 {
		return suggestions
	}
	ranked := make([]*model.ClipSuggestion, len(suggestions))
	copy(ranked, suggestions)
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	kept := make([]*model.ClipSuggestion, 0, len(ranked))
	total := 0.0
	for _, s := range ranked {
		if total >= target {
			break
		}
		kept = append(kept, s)
		total += s.End - s.Start
	}
	return kept
}

// optimizePlan asks the generative model to refine the heuristic suggestions,
// feeding it the current plan and a few-shot example of the expected JSON.
func (c *ClipPlanner) optimizePlan(context cor.Context, plan *model.ClipPlan, analysis *model.VideoAnalysis, video *model.VideoInfo) (*model.ClipPlan, error) {
	planJson, _ := json.Marshal(plan)
	exampleJson, _ := json.Marshal(model.GetExampleClipPlan())

	var doc bytes.Buffer
	err := c.prompt.Execute(&doc, map[string]string{
		"DURATION":     fmt.Sprintf("%.1f", video.DurationSecs),
		"SUMMARY":      analysis.Summary,
		"CURRENT_PLAN": string(planJson),
		"TARGET":       fmt.Sprintf("%.1f", c.config.TargetDuration),
		"PACING":       c.config.PacingStyle,
		"EXAMPLE_JSON": string(exampleJson),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute clip prompt template: %w", err)
	}

	out, err := c.optimizer.GenerateText(context.GetContext(), doc.String())
	if err != nil {
		return nil, err
	}
	optimized := &model.ClipPlan{}
	if err := json.Unmarshal([]byte(out), optimized); err != nil {
		return nil, fmt.Errorf("failed to decode optimized clip plan: %w", err)
	}
	if len(optimized.Suggestions) == 0 {
		return nil, fmt.Errorf("optimized clip plan is empty")
	}
	return optimized, nil
}
