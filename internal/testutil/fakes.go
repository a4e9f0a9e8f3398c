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

package test

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/scriptweave/scriptweave/internal/core/model"
)

// FakeTextGenerator implements gen.TextGenerator. Responses come from the
// Generate hook when set, otherwise every call returns a distinct canned
// sentence. Safe for concurrent use; the section generator fans out one call
// per section.
type FakeTextGenerator struct {
	mu       sync.Mutex
	calls    int
	prompts  []string
	Generate func(call int, prompt string) (string, error)
}

func (f *FakeTextGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	call := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	hook := f.Generate
	f.mu.Unlock()

	if hook != nil {
		return hook(call, prompt)
	}
	return fmt.Sprintf("Generated narration number %d with plenty of fresh wording to keep scores apart.", call), nil
}

// Calls returns how many generation requests have been made.
func (f *FakeTextGenerator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Prompts returns a copy of every prompt received so far.
func (f *FakeTextGenerator) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.prompts))
	copy(out, f.prompts)
	return out
}

// FakeVision implements gen.VisionAnalyzer with a fixed analysis. DetectErr
// forces the detection call to fail, which tests use to drive the analyze
// step into its fatal path.
type FakeVision struct {
	Analysis  *model.VideoAnalysis
	DetectErr error
}

func (f *FakeVision) DetectScenesAdvanced(_ context.Context, video *model.VideoInfo) (*model.VideoAnalysis, error) {
	if f.DetectErr != nil {
		return nil, f.DetectErr
	}
	out := f.Analysis
	if out == nil {
		out = model.GetExampleAnalysis()
	}
	out.VideoId = video.Id
	return out, nil
}

func (f *FakeVision) GenerateAnalysisReport(_ context.Context, _ *model.VideoInfo, detected *model.VideoAnalysis) (*model.VideoAnalysis, error) {
	return detected, nil
}

// FakeExporter implements media.Exporter by writing a small placeholder file
// at the output path so that file-size accounting in the export record has
// something real to stat.
type FakeExporter struct {
	mu        sync.Mutex
	exports   int
	lastPath  string
	ExportErr error
}

func (f *FakeExporter) Export(_ context.Context, _ *model.TimelineData, _ string, _ model.ExportSettings, outputPath string) error {
	if f.ExportErr != nil {
		return f.ExportErr
	}
	if err := os.WriteFile(outputPath, []byte("fake encoded media"), 0o644); err != nil {
		return err
	}
	f.mu.Lock()
	f.exports++
	f.lastPath = outputPath
	f.mu.Unlock()
	return nil
}

// Exports returns how many export calls succeeded.
func (f *FakeExporter) Exports() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exports
}

// LastPath returns the output path of the most recent successful export.
func (f *FakeExporter) LastPath() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPath
}

// NewTestVideo returns a video descriptor for a synthetic upload. The path
// does not need to exist for workflow tests; the fake exporter never reads it.
func NewTestVideo(projectId string, durationSecs float64) *model.VideoInfo {
	return &model.VideoInfo{
		Id:           "video-test-001",
		ProjectId:    projectId,
		Path:         "/tmp/test-source.mp4",
		DurationSecs: durationSecs,
		Width:        1920,
		Height:       1080,
		Format:       "mp4",
		SizeBytes:    1 << 20,
	}
}
