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

// Package commands provides the concrete workflow step implementations of the
// Command interface. Each command reads named inputs from the shared chain
// context, performs one step of the narration pipeline, and writes its result
// back under a well-known parameter name for downstream steps.
package commands

import "fmt"

// Well-known context parameter names shared across the pipeline. Functions
// rather than raw constants so the compiler catches a misspelled name at the
// call site.

func GetProjectParameterName() string      { return "WORKFLOW_PROJECT" }
func GetVideoParameterName() string        { return "WORKFLOW_VIDEO" }
func GetAnalysisParameterName() string     { return "WORKFLOW_ANALYSIS" }
func GetTemplateParameterName() string     { return "WORKFLOW_TEMPLATE" }
func GetScriptParameterName() string       { return "WORKFLOW_SCRIPT" }
func GetReportParameterName() string       { return "WORKFLOW_ORIGINALITY_REPORT" }
func GetUniquenessParameterName() string   { return "WORKFLOW_UNIQUENESS_CHECK" }
func GetClipPlanParameterName() string     { return "WORKFLOW_CLIP_PLAN" }
func GetTimelineParameterName() string     { return "WORKFLOW_TIMELINE" }
func GetSubtitleParameterName() string     { return "WORKFLOW_SUBTITLES" }
func GetExportRecordParameterName() string { return "WORKFLOW_EXPORT_RECORD" }

// GenerationError identifies the template section whose generation failed.
// Any single section failure aborts the whole script-generation step: a
// script with holes in it is not a meaningful artifact.
type GenerationError struct {
	Section string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed for section %q: %v", e.Section, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
