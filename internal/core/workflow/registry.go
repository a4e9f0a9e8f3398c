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

package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/scriptweave/scriptweave/internal/core/model"
)

// Registry tracks runs for the API layer: active runs can be canceled, and
// finished runs stay queryable so the UI can show the final step, progress,
// and failure cause.
type Registry struct {
	mu         sync.RWMutex
	controller *Controller
	runs       map[string]*Run
	cancels    map[string]context.CancelFunc
}

// NewRegistry builds a registry executing runs through the given controller.
func NewRegistry(controller *Controller) *Registry {
	return &Registry{
		controller: controller,
		runs:       make(map[string]*Run),
		cancels:    make(map[string]context.CancelFunc),
	}
}

// Start launches a run asynchronously and returns it immediately. The run
// advances in a background goroutine; callers poll Get for progress.
func (g *Registry) Start(ctx context.Context, project *model.Project, opts Options) *Run {
	run := NewRun(uuid.NewString(), project.Id)
	runCtx, cancel := context.WithCancel(ctx)

	g.mu.Lock()
	g.runs[run.Id] = run
	g.cancels[run.Id] = cancel
	g.mu.Unlock()

	go func() {
		defer func() {
			cancel()
			g.mu.Lock()
			delete(g.cancels, run.Id)
			g.mu.Unlock()
		}()
		if err := g.controller.Execute(runCtx, run, project, opts); err != nil {
			slog.Error("workflow run failed", "run_id", run.Id, "project_id", project.Id, "error", err)
		}
	}()
	return run
}

// Get returns the run with the given id.
func (g *Registry) Get(id string) (*Run, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	run, ok := g.runs[id]
	if !ok {
		return nil, fmt.Errorf("unknown run %q", id)
	}
	return run, nil
}

// Cancel signals a running workflow to stop. The signal is observed between
// steps; an already-finished run is a no-op.
func (g *Registry) Cancel(id string) error {
	g.mu.RLock()
	cancel, active := g.cancels[id]
	_, known := g.runs[id]
	g.mu.RUnlock()
	if !known {
		return fmt.Errorf("unknown run %q", id)
	}
	if active {
		cancel()
	}
	return nil
}
