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

// Package cor (Chain of Responsibility) provides the building blocks the
// workflow engine is assembled from. A workflow run is a sequence of Command
// objects that share a Context; each command reads its input from the
// context, does one unit of work, and writes its output back for the next
// command. This file defines the interfaces; the Base* files in this package
// provide the default implementations.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Keys used to manage the primary data flow within a chain.
const (
	// CtxIn is the default key for a command's primary input. A chain
	// populates it with the previous command's output before each step.
	CtxIn = "__IN__"
	// CtxOut is the default key where a command places its primary output.
	CtxOut = "__OUT__"
	// CtxProgress is the key under which the active ProgressReporter is
	// stored. Commands that report fine-grained progress look it up with
	// GetProgressReporter; commands that don't can ignore it.
	CtxProgress = "__PROGRESS__"
)

// Context is the shared state for one workflow execution. It carries data
// between commands, collects errors keyed by the command that produced them,
// tracks temporary files for end-of-run cleanup, and holds the standard Go
// context used for cancellation and trace propagation.
type Context interface {
	// SetContext swaps the standard Go context. Chains use this to scope
	// each command to its own trace span.
	SetContext(context context.Context)

	// GetContext returns the current standard Go context.
	GetContext() context.Context

	// Add stores a key-value pair. Returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records an error under the producing command's name.
	AddError(key string, err error)

	// GetErrors returns all collected errors keyed by command name.
	GetErrors() map[string]error

	// ClearErrors drops all collected errors. The workflow controller uses
	// this to degrade an optional step's failure into a no-op result and
	// keep the run advancing.
	ClearErrors()

	// Get retrieves a stored value, or nil.
	Get(key string) interface{}

	// Remove deletes a key-value pair.
	Remove(key string)

	// HasErrors reports whether any command has recorded an error.
	HasErrors() bool

	// AddTempFile registers a file for removal when the context closes.
	AddTempFile(file string)

	// GetTempFiles returns all registered temporary file paths.
	GetTempFiles() []string

	// Close removes all registered temporary files. Defer it at the start
	// of a workflow execution.
	Close()
}

// Executable is anything with a core unit of work.
type Executable interface {
	// Execute runs the unit of work, reading inputs from and writing
	// outputs to the given Context.
	Execute(context Context)
}

// Command is an atomic, individually traceable unit of work in a workflow.
type Command interface {
	Executable

	// GetName returns the command's unique name, used in logs, telemetry,
	// and error keys.
	GetName() string

	// GetInputParam returns the context key this command reads its primary
	// input from.
	GetInputParam() string

	// GetOutputParam returns the context key this command writes its
	// primary output to.
	GetOutputParam() string

	// IsExecutable reports whether the command's preconditions hold for
	// the given context.
	IsExecutable(context Context) bool

	// GetTracer returns the command's OpenTelemetry tracer.
	GetTracer() trace.Tracer

	// GetMeter returns the command's OpenTelemetry meter.
	GetMeter() metric.Meter

	// GetSuccessCounter returns the counter incremented on success.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter returns the counter incremented on failure.
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered sequence of commands. A Chain is itself a Command, so
// chains nest: a workflow step that needs several sub-steps is just a chain
// added to the outer sequence.
type Chain interface {
	Command

	// ContinueOnFailure configures whether the chain keeps executing after
	// a command records an error. Defaults to false (stop at first error).
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
