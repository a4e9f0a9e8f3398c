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

package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/scriptweave/scriptweave/internal/core/model"
	"github.com/scriptweave/scriptweave/internal/core/services"
	test "github.com/scriptweave/scriptweave/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func newEngine(t *testing.T, rewriter *test.FakeTextGenerator) *services.OriginalityEngine {
	t.Helper()
	config := test.GetConfig()
	engine, err := services.NewOriginalityEngine(
		config.Workflow.Dedup, rewriter, config.PromptTemplates.Rewrite)
	test.HandleErr(err, t)
	return engine
}

func newScript(contents ...string) *model.ScriptData {
	script := &model.ScriptData{
		Id:        "script-test-001",
		ProjectId: "project-test-001",
		Title:     "test script",
		Metadata:  &model.ScriptMetadata{},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	for i, content := range contents {
		script.Segments = append(script.Segments, &model.ScriptSegment{
			Id:      "seg-" + string(rune('a'+i)),
			Content: content,
			Type:    model.SegmentNarration,
		})
	}
	script.Rebuild()
	return script
}

func TestGenerateReportCleanScript(t *testing.T) {
	engine := newEngine(t, nil)

	report := engine.GenerateReport(newScript(
		"Dawn breaks over the harbor as the first boats head out.",
		"By midday the market is loud with haggling and fresh catch.",
		"Evening settles and the lanterns come on one by one.",
	))
	assert.Equal(t, 100, report.Score)
	assert.Empty(t, report.Findings)
}

func TestGenerateReportNilScript(t *testing.T) {
	engine := newEngine(t, nil)
	report := engine.GenerateReport(nil)
	assert.Equal(t, 100, report.Score)
}

func TestGenerateReportExactRepeat(t *testing.T) {
	engine := newEngine(t, nil)

	repeated := "This exact sentence shows up in two different segments."
	report := engine.GenerateReport(newScript(
		repeated+" The rest of the opening is fine.",
		repeated+" And the closing carries it again.",
	))
	assert.True(t, report.Score < 100)

	found := false
	for _, f := range report.Findings {
		if f.Type == model.FindingExact {
			found = true
			assert.Equal(t, "seg-b", f.SegmentId)
			assert.Equal(t, 1.0, f.Similarity)
		}
	}
	assert.True(t, found)
}

// A sentence repeated inside a single segment is still an exact duplicate.
func TestGenerateReportExactRepeatWithinSegment(t *testing.T) {
	engine := newEngine(t, nil)

	repeated := "This exact sentence shows up twice in the same segment."
	report := engine.GenerateReport(newScript(
		repeated + " A bridging thought sits in the middle. " + repeated,
	))
	assert.True(t, report.Score < 100)

	found := false
	for _, f := range report.Findings {
		if f.Type == model.FindingExact {
			found = true
			assert.Equal(t, "seg-a", f.SegmentId)
			assert.Equal(t, 1.0, f.Similarity)
		}
	}
	assert.True(t, found)
}

func TestGenerateReportBoilerplate(t *testing.T) {
	engine := newEngine(t, nil)

	report := engine.GenerateReport(newScript(
		"In this video we walk the coastal trail from end to end.",
		"The cliffs at the halfway point are the highlight of the route.",
	))
	found := false
	for _, f := range report.Findings {
		if f.Type == model.FindingTemplate {
			found = true
			assert.Equal(t, "seg-a", f.SegmentId)
		}
	}
	assert.True(t, found)
	assert.NotEmpty(t, report.Suggestions)
}

// Adding duplicated content to a script must never raise its score.
func TestScoreMonotoneUnderMoreFindings(t *testing.T) {
	engine := newEngine(t, nil)

	base := newScript(
		"Dawn breaks over the harbor as the first boats head out.",
		"By midday the market is loud with haggling and fresh catch.",
	)
	clean := engine.GenerateReport(base)

	worse := newScript(
		"Dawn breaks over the harbor as the first boats head out.",
		"By midday the market is loud with haggling and fresh catch.",
		"Dawn breaks over the harbor as the first boats head out.",
	)
	dirty := engine.GenerateReport(worse)

	assert.True(t, dirty.Score <= clean.Score)
	assert.True(t, dirty.Score >= 0)
}

func TestAutoFixNoFindingsIsIdempotent(t *testing.T) {
	rewriter := &test.FakeTextGenerator{}
	engine := newEngine(t, rewriter)

	script := newScript("A perfectly original passage about tide pools and patience.")
	before := script.UpdatedAt
	report := engine.GenerateReport(script)

	fixed := engine.AutoFix(context.Background(), script, report)
	assert.Equal(t, script.Id, fixed.Id)
	assert.Equal(t, before, fixed.UpdatedAt)
	assert.Equal(t, 0, rewriter.Calls())
}

func TestAutoFixRewritesOnlyFlaggedSegments(t *testing.T) {
	rewriter := &test.FakeTextGenerator{
		Generate: func(call int, prompt string) (string, error) {
			return "An entirely fresh take on the same beat of the story.", nil
		},
	}
	engine := newEngine(t, rewriter)

	untouched := "The cliffs at the halfway point are the highlight of the route."
	script := newScript(
		"In this video we walk the coastal trail from end to end.",
		untouched,
	)
	report := engine.GenerateReport(script)
	assert.True(t, len(report.Findings) > 0)

	fixed := engine.AutoFix(context.Background(), script, report)
	assert.Equal(t, "script-test-001", fixed.Id)
	assert.Equal(t, untouched, fixed.Segments[1].Content)
	assert.NotContains(t, fixed.Segments[0].Content, "In this video")

	// Content and word count stay in sync with segments after the rewrite.
	assert.Contains(t, fixed.Content, fixed.Segments[0].Content)

	// A second pass over the now-clean script changes nothing.
	second := engine.GenerateReport(fixed)
	assert.Empty(t, second.Findings)
	again := engine.AutoFix(context.Background(), fixed, second)
	assert.Equal(t, fixed.Content, again.Content)
}

func TestAutoFixRewriteFailureKeepsSegment(t *testing.T) {
	rewriter := &test.FakeTextGenerator{
		Generate: func(call int, prompt string) (string, error) {
			return "", context.DeadlineExceeded
		},
	}
	engine := newEngine(t, rewriter)

	original := "In this video we walk the coastal trail from end to end."
	script := newScript(original)
	report := engine.GenerateReport(script)

	fixed := engine.AutoFix(context.Background(), script, report)
	assert.Equal(t, original, fixed.Segments[0].Content)
}
