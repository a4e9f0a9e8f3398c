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

package workflow_test

import (
	"testing"
	"time"

	"github.com/scriptweave/scriptweave/internal/core/workflow"
	"github.com/stretchr/testify/assert"
)

func waitForRun(t *testing.T, registry *workflow.Registry, id string) workflow.Snapshot {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		run, err := registry.Get(id)
		assert.NoError(t, err)
		snap := run.Snapshot()
		switch snap.Status {
		case workflow.StatusDone, workflow.StatusFailed, workflow.StatusCanceled:
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("run %s did not finish in time", id)
	return workflow.Snapshot{}
}

func TestRegistryStartTracksRun(t *testing.T) {
	h := newHarness(t)
	h.config.Workflow.Dedup.Enabled = false
	h.config.Workflow.Uniqueness.Enabled = false
	h.config.Workflow.Clip.Enabled = false

	registry := workflow.NewRegistry(h.controller())
	run := registry.Start(ctx, h.project, e2eOptions())
	assert.NotEmpty(t, run.Id)

	snap := waitForRun(t, registry, run.Id)
	assert.Equal(t, workflow.StatusDone, snap.Status)
	assert.Equal(t, 100.0, snap.Progress)

	// The run stays queryable after completion.
	again, err := registry.Get(run.Id)
	assert.NoError(t, err)
	assert.Equal(t, run.Id, again.Id)
}

func TestRegistryUnknownRun(t *testing.T) {
	h := newHarness(t)
	registry := workflow.NewRegistry(h.controller())

	_, err := registry.Get("no-such-run")
	assert.Error(t, err)
	assert.Error(t, registry.Cancel("no-such-run"))
}

func TestRegistryCancelFinishedRunIsNoop(t *testing.T) {
	h := newHarness(t)
	h.config.Workflow.Dedup.Enabled = false
	h.config.Workflow.Uniqueness.Enabled = false
	h.config.Workflow.Clip.Enabled = false

	registry := workflow.NewRegistry(h.controller())
	run := registry.Start(ctx, h.project, e2eOptions())
	waitForRun(t, registry, run.Id)

	assert.NoError(t, registry.Cancel(run.Id))
	assert.Equal(t, workflow.StatusDone, run.Snapshot().Status)
}
