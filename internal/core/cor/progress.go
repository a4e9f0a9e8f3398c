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

// This file defines the progress-reporting surface of the engine. The
// workflow controller owns one monotonically increasing 0-100 value per run
// and assigns each step a fixed sub-range (band). Commands never see the
// global value: they report a step-local fraction in [0,1] and the band
// reporter maps it into the assigned range, clamping so progress can never
// regress regardless of how a command misbehaves.
package cor

// ProgressReporter accepts step-local progress updates.
type ProgressReporter interface {
	// Report records progress as a fraction in [0,1] of the current step.
	// Values outside the range are clamped; values lower than one already
	// reported are ignored.
	Report(fraction float64)
}

// ProgressFunc adapts a plain function to the ProgressReporter interface.
type ProgressFunc func(fraction float64)

// Report implements ProgressReporter.
func (f ProgressFunc) Report(fraction float64) {
	if f != nil {
		f(fraction)
	}
}

// GetProgressReporter returns the reporter stored in the context, or a no-op
// reporter so command code never needs a nil check.
func GetProgressReporter(context Context) ProgressReporter {
	if context == nil {
		return ProgressFunc(nil)
	}
	if r, ok := context.Get(CtxProgress).(ProgressReporter); ok && r != nil {
		return r
	}
	return ProgressFunc(nil)
}

// BandReporter maps step-local fractions into a fixed [Lo,Hi] sub-range of
// the run's 0-100 progress value and forwards them to a sink. It enforces
// monotonicity: a mapped value below the highest value already emitted is
// dropped. Bands of consecutive steps may overlap (the dedup and uniqueness
// bands do); the floor keeps the published value non-decreasing anyway.
type BandReporter struct {
	Lo, Hi float64              // Band bounds on the 0-100 scale, Lo <= Hi.
	Floor  *float64             // Shared high-water mark for the whole run.
	Sink   func(percent float64) // Receives the mapped, clamped value.
}

// Report implements ProgressReporter.
func (b *BandReporter) Report(fraction float64) {
	if b.Sink == nil {
		return
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	value := b.Lo + (b.Hi-b.Lo)*fraction
	if b.Floor != nil {
		if value <= *b.Floor {
			return
		}
		*b.Floor = value
	}
	b.Sink(value)
}
