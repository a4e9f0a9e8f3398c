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

// This file defines the controller's step loop. Each step is one command (or
// a nested chain) bound to a fixed progress band; the loop validates the run
// up front, then advances step by step, checking cancellation between steps,
// degrading failed optional steps into no-op results, and stopping at the
// first mandatory failure with the failing step's identity preserved on the
// run.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"text/template"
	"time"

	"github.com/scriptweave/scriptweave/internal/core/commands"
	"github.com/scriptweave/scriptweave/internal/core/cor"
	"github.com/scriptweave/scriptweave/internal/core/model"
	"github.com/scriptweave/scriptweave/internal/core/services"
	"github.com/scriptweave/scriptweave/internal/gen"
	"github.com/scriptweave/scriptweave/internal/media"
)

// Progress bands per step on the 0-100 scale. The dedup band deliberately
// overlaps the tail of script generation and bridges into uniqueness; the
// run-wide floor keeps the published value monotone anyway.
const (
	bandAnalyzeLo  = 0
	bandAnalyzeHi  = 30
	bandTemplateHi = 45
	bandScriptHi   = 55
	bandDedupLo    = 45
	bandDedupHi    = 58
	bandUniqueLo   = 56
	bandUniqueHi   = 58
	bandClipHi     = 64
	bandTimelineHi = 68
	bandExportHi   = 100
)

// Options are the per-run knobs on top of the application configuration.
type Options struct {
	PreferredTemplateId string
	Params              commands.GenerationParams
}

// Controller builds and executes workflow runs. It is stateless across runs;
// every Execute call owns exactly one run's state.
type Controller struct {
	config    *gen.Config
	projects  *services.ProjectService
	registry  *services.TemplateRegistry
	vision    gen.VisionAnalyzer
	creative  gen.TextGenerator
	rewrite   gen.TextGenerator
	exporter  media.Exporter
}

// NewController wires a controller from its collaborators. creative and
// rewrite may be the same model; the split exists so rewrites can run on a
// cheaper model.
func NewController(
	config *gen.Config,
	projects *services.ProjectService,
	registry *services.TemplateRegistry,
	vision gen.VisionAnalyzer,
	creative gen.TextGenerator,
	rewrite gen.TextGenerator,
	exporter media.Exporter) *Controller {
	return &Controller{
		config:   config,
		projects: projects,
		registry: registry,
		vision:   vision,
		creative: creative,
		rewrite:  rewrite,
		exporter: exporter,
	}
}

// stepDef binds one pipeline step to its progress band and failure policy.
type stepDef struct {
	step     Step
	lo, hi   float64
	optional bool
	command  cor.Command
	// collect pulls the step's artifacts off the chain context into the run.
	collect func(cor.Context, *Run)
}

// Execute runs the full pipeline for one project. The returned error is the
// fatal cause when the run failed; a completed or degraded-but-done run
// returns nil. Cancellation of ctx is honored between steps only.
func (c *Controller) Execute(ctx context.Context, run *Run, project *model.Project, opts Options) error {
	run.setStep(StepProjectCreate)
	if err := c.validate(project); err != nil {
		run.fail(run.Snapshot().Step, err.Error())
		return err
	}
	run.setStep(StepVideoUpload)

	steps, err := c.buildSteps(project, opts)
	if err != nil {
		run.fail(StepProjectCreate, err.Error())
		return err
	}

	chCtx := cor.NewBaseContext()
	defer chCtx.Close()
	chCtx.Add(commands.GetProjectParameterName(), project)
	chCtx.Add(commands.GetVideoParameterName(), project.Video)

	for _, def := range steps {
		// Cancellation is observed between steps: a canceled run performs no
		// further persistence and executes no further commands.
		if ctx.Err() != nil {
			run.cancel(def.step)
			return nil
		}
		run.setStep(def.step)

		// No Floor here: section workers report concurrently, and the run's
		// own setProgress already drops regressions under its lock.
		reporter := &cor.BandReporter{Lo: def.lo, Hi: def.hi, Sink: run.setProgress}
		chCtx.Add(cor.CtxProgress, cor.ProgressReporter(reporter))

		stepCtx, cancel := c.stepContext(ctx)
		chCtx.SetContext(stepCtx)
		if def.command.IsExecutable(chCtx) {
			def.command.Execute(chCtx)
		} else {
			chCtx.AddError(def.command.GetName(), fmt.Errorf("step %s preconditions not met", def.step))
		}
		cancel()

		if chCtx.HasErrors() {
			cause := firstError(chCtx)
			if def.optional {
				slog.Warn("optional step failed, continuing degraded",
					"run_id", run.Id, "step", def.step, "error", cause)
				chCtx.ClearErrors()
				run.addDegraded(def.step)
				reporter.Report(1)
				continue
			}
			run.fail(def.step, cause.Error())
			return fmt.Errorf("run failed at step %s: %w", def.step, cause)
		}

		if def.collect != nil {
			def.collect(chCtx, run)
		}
		reporter.Report(1)
	}

	run.complete()
	return nil
}

// validate rejects a run before any step executes.
func (c *Controller) validate(project *model.Project) error {
	if project == nil {
		return fmt.Errorf("run requires a project")
	}
	if project.Video == nil {
		return fmt.Errorf("run requires an uploaded video")
	}
	wf := c.config.Workflow
	if wf.Uniqueness.Enabled && wf.Uniqueness.MaxRewriteAttempts <= 0 {
		return fmt.Errorf("uniqueness rewrite budget must be positive, got %d", wf.Uniqueness.MaxRewriteAttempts)
	}
	return nil
}

// buildSteps assembles the run's step sequence from configuration. Disabled
// optional steps are simply absent from the sequence.
func (c *Controller) buildSteps(project *model.Project, opts Options) ([]stepDef, error) {
	wf := c.config.Workflow

	sectionPrompt, err := template.New("section").Parse(c.config.PromptTemplates.Section)
	if err != nil {
		return nil, fmt.Errorf("failed to parse section prompt template: %w", err)
	}

	scriptChain := cor.NewBaseChain("script_generate")
	scriptChain.AddCommand(commands.NewSectionGenerator(
		"section_generator", c.creative, sectionPrompt, opts.Params, c.config.Application.ThreadPoolSize))
	scriptChain.AddCommand(commands.NewScriptAssembler("script_assembler"))
	scriptChain.AddCommand(commands.NewScriptPersister("script_persister", c.projects))

	steps := []stepDef{
		{
			step: StepAIAnalyze, lo: bandAnalyzeLo, hi: bandAnalyzeHi,
			command: commands.NewVideoAnalyzer("video_analyzer", c.vision, c.projects),
		},
		{
			step: StepScriptGenerate, lo: bandAnalyzeHi, hi: bandTemplateHi,
			command: commands.NewTemplateSelector("template_selector", c.registry, opts.PreferredTemplateId),
		},
		{
			step: StepScriptGenerate, lo: bandTemplateHi, hi: bandScriptHi,
			command: scriptChain,
			collect: func(chCtx cor.Context, run *Run) {
				if script, ok := chCtx.Get(commands.GetScriptParameterName()).(*model.ScriptData); ok {
					run.updateResults(func(res *Results) { res.ScriptId = script.Id })
				}
			},
		},
	}

	if wf.Dedup.Enabled {
		engine, err := services.NewOriginalityEngine(wf.Dedup, c.rewrite, c.config.PromptTemplates.Rewrite)
		if err != nil {
			return nil, err
		}
		steps = append(steps, stepDef{
			step: StepDedup, lo: bandDedupLo, hi: bandDedupHi, optional: true,
			command: commands.NewOriginalityChecker("originality_checker", engine, c.projects, wf.Dedup),
			collect: func(chCtx cor.Context, run *Run) {
				if report, ok := chCtx.Get(commands.GetReportParameterName()).(*model.OriginalityReport); ok {
					run.updateResults(func(res *Results) { res.Report = report })
				}
			},
		})
	}

	if wf.Uniqueness.Enabled {
		enforcer := services.NewUniquenessEnforcer(wf.Uniqueness, wf.Uniqueness.RandomSeed)
		cmd, err := commands.NewUniquenessCommand(
			"uniqueness_enforcer", enforcer, c.projects, c.rewrite, c.config.PromptTemplates.Rewrite)
		if err != nil {
			return nil, err
		}
		steps = append(steps, stepDef{
			step: StepUniqueness, lo: bandUniqueLo, hi: bandUniqueHi,
			command: cmd,
			collect: func(chCtx cor.Context, run *Run) {
				if check, ok := chCtx.Get(commands.GetUniquenessParameterName()).(*model.UniquenessCheck); ok {
					run.updateResults(func(res *Results) { res.Uniqueness = check })
				}
			},
		})
	}

	if wf.Clip.Enabled {
		cmd, err := commands.NewClipPlanner("clip_planner", wf.Clip, c.creative, c.config.PromptTemplates.Clip)
		if err != nil {
			return nil, err
		}
		steps = append(steps, stepDef{
			step: StepAIClip, lo: bandUniqueHi, hi: bandClipHi, optional: true,
			command: cmd,
			collect: func(chCtx cor.Context, run *Run) {
				if plan, ok := chCtx.Get(commands.GetClipPlanParameterName()).(*model.ClipPlan); ok {
					run.updateResults(func(res *Results) { res.ClipPlan = plan })
				}
			},
		})
	}

	exportChain := cor.NewBaseChain("export")
	exportChain.AddCommand(commands.NewSubtitleGenerator("subtitle_generator"))
	exportChain.AddCommand(commands.NewMediaExporter(
		"media_exporter", c.exporter, c.projects, c.exportSettings(), c.config.Storage.OutputDir))

	steps = append(steps,
		stepDef{
			step: StepTimelineEdit, lo: bandClipHi, hi: bandTimelineHi,
			command: commands.NewTimelineBuilder("timeline_builder", wf.Clip),
		},
		stepDef{
			step: StepExport, lo: bandTimelineHi, hi: bandExportHi,
			command: exportChain,
			collect: func(chCtx cor.Context, run *Run) {
				if record, ok := chCtx.Get(commands.GetExportRecordParameterName()).(*model.ExportRecord); ok {
					run.updateResults(func(res *Results) { res.Export = record })
				}
			},
		},
	)

	// Bands must already be ordered by their lower bound; keep them that way
	// even if a future step is appended out of place.
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].lo < steps[j].lo })
	return steps, nil
}

func (c *Controller) exportSettings() model.ExportSettings {
	e := c.config.Workflow.Export
	return model.ExportSettings{
		Format:           e.Format,
		Quality:          e.Quality,
		Resolution:       e.Resolution,
		IncludeSubtitles: e.IncludeSubtitles,
	}
}

// stepContext wraps the run context with the configured per-step timeout.
func (c *Controller) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(c.config.Workflow.StepTimeoutSeconds) * time.Second
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func firstError(chCtx cor.Context) error {
	for _, err := range chCtx.GetErrors() {
		return err
	}
	return fmt.Errorf("unknown step failure")
}
