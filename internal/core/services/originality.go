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

package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/google/uuid"

	"github.com/scriptweave/scriptweave/internal/core/model"
	"github.com/scriptweave/scriptweave/internal/core/similarity"
	"github.com/scriptweave/scriptweave/internal/gen"
)

// Penalty weights per finding type. Exact duplication is worst, boilerplate
// mildest. Weighted subtraction from 100 keeps the score monotonically
// non-increasing as findings accumulate.
const (
	penaltyExact    = 25
	penaltySemantic = 15
	penaltyTemplate = 8
)

// AutoFixBelow is the score under which callers trigger AutoFix.
const AutoFixBelow = 80

// boilerplatePhrases is the known-phrase list for the template strategy.
// Matches are case-insensitive against normalized segment text.
var boilerplatePhrases = []string{
	"in this video",
	"don't forget to like and subscribe",
	"like and subscribe",
	"smash that like button",
	"without further ado",
	"at the end of the day",
	"as you can see",
	"stay tuned",
	"welcome back to my channel",
	"thanks for watching",
	"hit the bell icon",
	"let's dive in",
	"let's get started",
	"in today's video",
}

// OriginalityEngine scores scripts against the configured duplicate-detection
// strategies and rewrites flagged segments on request. Detection never fails
// the pipeline: any internal error degrades to an empty report.
type OriginalityEngine struct {
	mu       sync.RWMutex
	config   gen.DedupConfig
	rewriter gen.TextGenerator
	prompt   *template.Template
}

// NewOriginalityEngine builds the engine. rewriter may be nil when AutoFix is
// disabled; promptSource is the rewrite prompt template from configuration.
func NewOriginalityEngine(config gen.DedupConfig, rewriter gen.TextGenerator, promptSource string) (*OriginalityEngine, error) {
	prompt, err := template.New("rewrite").Parse(promptSource)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rewrite prompt template: %w", err)
	}
	return &OriginalityEngine{config: config, rewriter: rewriter, prompt: prompt}, nil
}

// UpdateConfig replaces the detection configuration for subsequent calls.
func (e *OriginalityEngine) UpdateConfig(config gen.DedupConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.config = config
}

func (e *OriginalityEngine) snapshot() gen.DedupConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config
}

// GenerateReport scores the script's current content. The report is derived
// state: it is recomputed on every call and never cached. It cannot fail;
// a nil or empty script simply yields a clean report.
func (e *OriginalityEngine) GenerateReport(script *model.ScriptData) *model.OriginalityReport {
	report := &model.OriginalityReport{
		Score:       100,
		Findings:    []*model.DuplicateFinding{},
		Suggestions: []string{},
		GeneratedAt: time.Now(),
	}
	if script == nil || len(script.Segments) == 0 {
		return report
	}

	cfg := e.snapshot()
	for _, strategy := range strategiesOf(cfg) {
		switch strategy {
		case string(model.FindingExact):
			report.Findings = append(report.Findings, detectExact(script)...)
		case string(model.FindingSemantic):
			report.Findings = append(report.Findings, detectSemantic(script, cfg.Threshold)...)
		case string(model.FindingTemplate):
			report.Findings = append(report.Findings, detectBoilerplate(script)...)
		}
	}

	penalty := 0
	for _, f := range report.Findings {
		switch f.Type {
		case model.FindingExact:
			penalty += penaltyExact
		case model.FindingSemantic:
			penalty += penaltySemantic
		case model.FindingTemplate:
			penalty += penaltyTemplate
		}
		if f.Suggestion != "" {
			report.Suggestions = append(report.Suggestions, f.Suggestion)
		}
	}
	report.Score = 100 - penalty
	if report.Score < 0 {
		report.Score = 0
	}
	return report
}

// strategiesOf resolves the configured strategy subset; empty means all.
func strategiesOf(cfg gen.DedupConfig) []string {
	if len(cfg.Strategies) == 0 {
		return []string{string(model.FindingExact), string(model.FindingSemantic), string(model.FindingTemplate)}
	}
	return cfg.Strategies
}

// detectExact finds normalized sentences repeated anywhere in the script,
// within a segment or across segments. Every occurrence after the first
// flags the segment it appears in.
func detectExact(script *model.ScriptData) []*model.DuplicateFinding {
	var findings []*model.DuplicateFinding
	seen := make(map[string]bool) // normalized sentences already observed
	for _, seg := range script.Segments {
		for _, sentence := range splitSentences(seg.Content) {
			tokens := similarity.Tokenize(sentence)
			// Very short sentences repeat naturally and carry no signal.
			if len(tokens) < 4 {
				continue
			}
			normalized := strings.Join(tokens, " ")
			if seen[normalized] {
				findings = append(findings, &model.DuplicateFinding{
					Id:         uuid.NewString(),
					Type:       model.FindingExact,
					SegmentId:  seg.Id,
					Content:    sentence,
					Similarity: 1.0,
					Suggestion: fmt.Sprintf("Sentence %q repeats earlier content; rephrase or cut it.", truncate(sentence, 60)),
				})
				continue
			}
			seen[normalized] = true
		}
	}
	return findings
}

// detectSemantic flags segment pairs whose similarity exceeds the threshold.
// The later segment of each pair carries the finding.
func detectSemantic(script *model.ScriptData, threshold float64) []*model.DuplicateFinding {
	if threshold <= 0 {
		threshold = 0.7
	}
	var findings []*model.DuplicateFinding
	segs := script.Segments
	for i := 0; i < len(segs); i++ {
		for j := i + 1; j < len(segs); j++ {
			score := similarity.Score(segs[i].Content, segs[j].Content)
			if score > threshold {
				findings = append(findings, &model.DuplicateFinding{
					Id:         uuid.NewString(),
					Type:       model.FindingSemantic,
					SegmentId:  segs[j].Id,
					Content:    segs[j].Content,
					Similarity: score,
					Suggestion: "Two segments cover near-identical ground; differentiate their angle or merge them.",
				})
				break // one finding per offending segment is enough
			}
		}
	}
	return findings
}

// detectBoilerplate flags segments containing known stock phrases.
func detectBoilerplate(script *model.ScriptData) []*model.DuplicateFinding {
	var findings []*model.DuplicateFinding
	for _, seg := range script.Segments {
		normalized := strings.Join(similarity.Tokenize(seg.Content), " ")
		for _, phrase := range boilerplatePhrases {
			if strings.Contains(normalized, phrase) {
				findings = append(findings, &model.DuplicateFinding{
					Id:         uuid.NewString(),
					Type:       model.FindingTemplate,
					SegmentId:  seg.Id,
					Content:    phrase,
					Similarity: 1.0,
					Suggestion: fmt.Sprintf("Phrase %q is generic boilerplate; say it in your own words.", phrase),
				})
				break // one boilerplate finding per segment
			}
		}
	}
	return findings
}

// AutoFix rewrites only the segments flagged in the report, preserving every
// unflagged segment verbatim and the script id always. Re-running it on a
// script whose report carries no findings returns the script unchanged, which
// makes the operation idempotent. Rewrite failures leave the affected segment
// as-is rather than failing the step.
func (e *OriginalityEngine) AutoFix(ctx context.Context, script *model.ScriptData, report *model.OriginalityReport) *model.ScriptData {
	if script == nil || report == nil || len(report.Findings) == 0 {
		return script
	}
	if e.rewriter == nil {
		slog.Warn("auto-fix requested without a rewrite model, leaving script unchanged", "script_id", script.Id)
		return script
	}

	flagged := make(map[string][]*model.DuplicateFinding)
	for _, f := range report.Findings {
		flagged[f.SegmentId] = append(flagged[f.SegmentId], f)
	}

	changed := false
	for _, seg := range script.Segments {
		findings, ok := flagged[seg.Id]
		if !ok {
			continue
		}
		rewritten, err := e.rewriteSegment(ctx, seg, findings)
		if err != nil {
			slog.Warn("segment rewrite failed during auto-fix", "segment_id", seg.Id, "error", err)
			continue
		}
		if rewritten != "" && rewritten != seg.Content {
			seg.Content = rewritten
			changed = true
		}
	}
	if changed {
		script.Rebuild()
		script.UpdatedAt = time.Now()
	}
	return script
}

// rewriteSegment asks the rewrite model for a minimal-edit replacement of one
// segment's content, guided by the findings against it.
func (e *OriginalityEngine) rewriteSegment(ctx context.Context, seg *model.ScriptSegment, findings []*model.DuplicateFinding) (string, error) {
	issues := make([]string, 0, len(findings))
	for _, f := range findings {
		issues = append(issues, f.Suggestion)
	}
	var buffer bytes.Buffer
	err := e.prompt.Execute(&buffer, map[string]interface{}{
		"CONTENT": seg.Content,
		"ISSUES":  strings.Join(issues, "\n"),
		"GOAL":    "Remove the duplication while changing as little as possible.",
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute rewrite prompt template: %w", err)
	}
	out, err := e.rewriter.GenerateText(ctx, buffer.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// splitSentences splits on sentence-terminating punctuation.
func splitSentences(in string) []string {
	var out []string
	var b strings.Builder
	for _, r := range in {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(b.String()); s != "" {
				out = append(out, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		out = append(out, s)
	}
	return out
}

func truncate(in string, max int) string {
	if len(in) <= max {
		return in
	}
	return in[:max] + "..."
}
