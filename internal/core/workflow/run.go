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

// Package workflow implements the Workflow Controller: the state machine
// that sequences the narration pipeline's steps, owns one run's mutable
// state, maps step-local progress into a single monotone 0-100 value, and
// honors cancellation between steps.
package workflow

import (
	"sync"
	"time"

	"github.com/scriptweave/scriptweave/internal/core/model"
)

// Step identifies one state of the run's step machine.
type Step string

const (
	StepProjectCreate  Step = "project-create"
	StepVideoUpload    Step = "video-upload"
	StepAIAnalyze      Step = "ai-analyze"
	StepScriptGenerate Step = "script-generate"
	StepDedup          Step = "dedup"
	StepUniqueness     Step = "uniqueness"
	StepAIClip         Step = "ai-clip"
	StepTimelineEdit   Step = "timeline-edit"
	StepExport         Step = "export"
	StepDone           Step = "done"
)

// Status is the overall condition of a run.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusDone     Status = "done"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Results collects the run's artifacts as steps produce them. Optional steps
// that degraded leave their field nil or carrying a degraded marker.
type Results struct {
	ScriptId   string                   `json:"script_id,omitempty"`
	Report     *model.OriginalityReport `json:"originality_report,omitempty"`
	Uniqueness *model.UniquenessCheck   `json:"uniqueness_check,omitempty"`
	ClipPlan   *model.ClipPlan          `json:"clip_plan,omitempty"`
	Export     *model.ExportRecord      `json:"export_record,omitempty"`
}

// Run is the mutable state of one end-to-end workflow execution. All access
// goes through its methods; the API layer reads concurrent snapshots while
// the controller advances the run.
type Run struct {
	mu         sync.RWMutex
	Id         string
	ProjectId  string
	step       Step
	status     Status
	progress   float64
	failedStep Step
	cause      string
	degraded   []string
	results    Results
	startedAt  time.Time
	finishedAt time.Time
}

// NewRun creates a pending run for a project.
func NewRun(id, projectId string) *Run {
	return &Run{
		Id:        id,
		ProjectId: projectId,
		step:      StepProjectCreate,
		status:    StatusPending,
		startedAt: time.Now(),
	}
}

// Snapshot is a read-only copy of a run's user-visible state. It stays
// available after failure so the UI can show "failed at step X" with the
// progress reached.
type Snapshot struct {
	Id         string   `json:"id"`
	ProjectId  string   `json:"project_id"`
	Step       Step     `json:"step"`
	Status     Status   `json:"status"`
	Progress   float64  `json:"progress"`
	FailedStep Step     `json:"failed_step,omitempty"`
	Cause      string   `json:"cause,omitempty"`
	Degraded   []string `json:"degraded_steps,omitempty"`
	Results    Results  `json:"results"`
}

// Snapshot returns a consistent copy of the run's current state.
func (r *Run) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	degraded := make([]string, len(r.degraded))
	copy(degraded, r.degraded)
	return Snapshot{
		Id:         r.Id,
		ProjectId:  r.ProjectId,
		Step:       r.step,
		Status:     r.status,
		Progress:   r.progress,
		FailedStep: r.failedStep,
		Cause:      r.cause,
		Degraded:   degraded,
		Results:    r.results,
	}
}

func (r *Run) setStep(step Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.step = step
	if r.status == StatusPending {
		r.status = StatusRunning
	}
}

// setProgress publishes a new progress value. Regressions are dropped so the
// published value is non-decreasing for the whole run regardless of band
// overlap between steps.
func (r *Run) setProgress(percent float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if percent > r.progress {
		r.progress = percent
	}
}

func (r *Run) addDegraded(step Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.degraded = append(r.degraded, string(step))
}

func (r *Run) updateResults(fn func(*Results)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.results)
}

func (r *Run) complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.step = StepDone
	r.status = StatusDone
	r.progress = 100
	r.finishedAt = time.Now()
}

func (r *Run) fail(step Step, cause string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusFailed
	r.failedStep = step
	r.cause = cause
	r.finishedAt = time.Now()
}

func (r *Run) cancel(step Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusCanceled
	r.failedStep = step
	r.cause = "run canceled"
	r.finishedAt = time.Now()
}
