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

// This file defines the command that fills a template's sections with
// generated text. It is the one parallel fan-out point of the pipeline:
// sections are independent, so each one becomes a job in a worker pool and
// all workers are joined before the step completes. Progress advances by
// 1/numberOfSections as each section resolves.
package commands

import (
	"bytes"
	goctx "context"
	"fmt"
	"sync"
	"sync/atomic"
	"text/template"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/scriptweave/scriptweave/internal/core/cor"
	"github.com/scriptweave/scriptweave/internal/core/model"
	"github.com/scriptweave/scriptweave/internal/gen"
)

// GenerationParams are the caller-supplied style controls for one script.
type GenerationParams struct {
	Style          string
	Tone           string
	Length         string // One of "short", "medium", "long".
	TargetAudience string
	Language       string
	ModelId        string // Logical id of the generating model, stamped into metadata.
}

// SectionSet is the ordered output of the section generator: one generated
// text per template section, in template order.
type SectionSet struct {
	Sections []string
	Params   GenerationParams
}

// SectionGenerator fans one generation call out per template section through
// a worker pool and joins the results in template order.
type SectionGenerator struct {
	cor.BaseCommand
	generator       gen.TextGenerator
	promptTemplate  *template.Template
	params          GenerationParams
	numberOfWorkers int
}

// NewSectionGenerator is the constructor for the SectionGenerator command.
// numberOfWorkers bounds the fan-out; the effective pool never exceeds the
// section count.
func NewSectionGenerator(
	name string,
	generator gen.TextGenerator,
	prompt *template.Template,
	params GenerationParams,
	numberOfWorkers int) *SectionGenerator {
	out := &SectionGenerator{
		BaseCommand:     *cor.NewBaseCommand(name),
		generator:       generator,
		promptTemplate:  prompt,
		params:          params,
		numberOfWorkers: numberOfWorkers,
	}
	out.InputParamName = GetTemplateParameterName()
	out.OutputParamName = CtxSectionSet
	return out
}

// CtxSectionSet is where the generated section set lands for the assembler.
const CtxSectionSet = "WORKFLOW_SECTION_SET"

// IsExecutable requires the selected template plus the video and its analysis.
func (c *SectionGenerator) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.Get(c.GetInputParam()) != nil &&
		context.Get(GetVideoParameterName()) != nil &&
		context.Get(GetAnalysisParameterName()) != nil
}

func (c *SectionGenerator) Execute(context cor.Context) {
	tmpl := context.Get(c.GetInputParam()).(*model.ScriptTemplate)
	video := context.Get(GetVideoParameterName()).(*model.VideoInfo)
	analysis := context.Get(GetAnalysisParameterName()).(*model.VideoAnalysis)
	progress := cor.GetProgressReporter(context)
	progress.Report(0)

	total := len(tmpl.Sections)
	if total == 0 {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("template %q has no sections", tmpl.Id))
		return
	}

	var wg sync.WaitGroup
	jobs := make(chan *sectionJob, total)
	results := make(chan *sectionResult, total)

	workers := c.numberOfWorkers
	if workers < 1 || workers > total {
		workers = total
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go sectionWorker(c.generator, jobs, results, &wg)
	}

	var completed atomic.Int64
	for i, section := range tmpl.Sections {
		job, err := c.createJob(context.GetContext(), i, video, analysis, tmpl, section, func() {
			progress.Report(float64(completed.Add(1)) / float64(total))
		})
		if err != nil {
			job = &sectionJob{index: i, sectionType: string(section.Type), err: err}
		}
		jobs <- job
	}
	close(jobs)
	wg.Wait()
	close(results)

	sections := make([]string, total)
	for r := range results {
		if r.err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), &GenerationError{Section: r.sectionType, Err: r.err})
			continue
		}
		sections[r.index] = r.value
	}
	if context.HasErrors() {
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	out := &SectionSet{Sections: sections, Params: c.params}
	context.Add(c.GetOutputParam(), out)
	context.Add(cor.CtxOut, out)
	progress.Report(1)
}

// createJob builds the prompt for one section and packages it with its trace
// span. The representative scene is sampled deterministically: section i of n
// gets the scene at offset i*len(scenes)/n, so the narration walks the
// footage front to back.
func (c *SectionGenerator) createJob(
	ctx goctx.Context,
	index int,
	video *model.VideoInfo,
	analysis *model.VideoAnalysis,
	tmpl *model.ScriptTemplate,
	section *model.TemplateSection,
	onDone func()) (*sectionJob, error) {
	jobCtx, span := c.Tracer.Start(ctx, fmt.Sprintf("%s_section_%d", c.GetName(), index))
	span.SetAttributes(
		attribute.Int("section.index", index),
		attribute.String("section.type", string(section.Type)),
	)

	sceneText := ""
	if n := len(analysis.Scenes); n > 0 {
		scene := analysis.Scenes[index*n/len(tmpl.Sections)]
		sceneText = fmt.Sprintf("from %.1fs to %.1fs: %s (%v)", scene.Start, scene.End, scene.Type, scene.Tags)
	}

	vocabulary := map[string]string{
		"VIDEO_ID":         video.Id,
		"VIDEO_DURATION":   fmt.Sprintf("%.1f", video.DurationSecs),
		"SECTION_TYPE":     string(section.Type),
		"SECTION_DURATION": fmt.Sprintf("%.1f", section.DurationFraction*video.DurationSecs),
		"SECTION_WORDS":    fmt.Sprintf("%d", section.TargetWordCount),
		"WRITING_TIPS":     section.WritingTips,
		"SCENE":            sceneText,
		"SUMMARY":          analysis.Summary,
		"STYLE":            c.params.Style,
		"TONE":             c.params.Tone,
		"LENGTH":           c.params.Length,
		"AUDIENCE":         c.params.TargetAudience,
		"LANGUAGE":         c.params.Language,
	}

	var doc bytes.Buffer
	if err := c.promptTemplate.Execute(&doc, vocabulary); err != nil {
		span.SetStatus(codes.Error, "prompt build failed")
		span.End()
		return nil, fmt.Errorf("failed to execute section prompt template: %w", err)
	}

	return &sectionJob{
		index:       index,
		sectionType: string(section.Type),
		ctx:         jobCtx,
		span:        span,
		prompt:      doc.String(),
		onDone:      onDone,
	}, nil
}

// sectionJob carries everything one worker needs to generate one section.
type sectionJob struct {
	index       int
	sectionType string
	ctx         goctx.Context
	span        trace.Span
	prompt      string
	onDone      func()
	err         error
}

// sectionResult is one worker's answer for one section.
type sectionResult struct {
	index       int
	sectionType string
	value       string
	err         error
}

// sectionWorker pulls jobs until the channel closes, generating one section
// per job.
func sectionWorker(generator gen.TextGenerator, jobs <-chan *sectionJob, results chan<- *sectionResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for j := range jobs {
		if j.err != nil {
			results <- &sectionResult{index: j.index, sectionType: j.sectionType, err: j.err}
			continue
		}
		out, err := generator.GenerateText(j.ctx, j.prompt)
		if err != nil {
			j.span.SetStatus(codes.Error, "section generation failed")
			j.span.End()
			results <- &sectionResult{index: j.index, sectionType: j.sectionType, err: err}
			continue
		}
		j.span.SetStatus(codes.Ok, "completed section")
		j.span.End()
		if j.onDone != nil {
			j.onDone()
		}
		results <- &sectionResult{index: j.index, sectionType: j.sectionType, value: out}
	}
}
