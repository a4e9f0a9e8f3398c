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
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/scriptweave/scriptweave/internal/core/model"
	"github.com/scriptweave/scriptweave/internal/core/similarity"
	"github.com/scriptweave/scriptweave/internal/gen"
)

// RewriteFunc produces a fresh rendition of the script. The enforcer never
// rewrites on its own; the capability is injected so the loop is testable
// with a deterministic stand-in.
type RewriteFunc func(ctx context.Context, script *model.ScriptData) (*model.ScriptData, error)

// UniquenessResult is the outcome of EnsureUniqueness. IsUnique=false is a
// degraded success, not an error: the best script seen is still returned and
// the caller surfaces the flag to the user.
type UniquenessResult struct {
	Script *model.ScriptData
	Check  *model.UniquenessCheck
}

// UniquenessEnforcer runs the bounded check/rewrite loop that keeps a script
// from echoing previously generated output. It only reads the historical
// corpus; appending completed scripts to it is the caller's decision.
type UniquenessEnforcer struct {
	config gen.UniquenessConfig
	rng    *rand.Rand
}

// NewUniquenessEnforcer builds the enforcer. A non-zero seed makes the
// randomness pre-pass reproducible; pass 0 for time-based seeding.
func NewUniquenessEnforcer(config gen.UniquenessConfig, seed int64) *UniquenessEnforcer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &UniquenessEnforcer{
		config: config,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// EnsureUniqueness runs the Check → Rewrite → Check loop against the given
// corpus until the script clears the similarity threshold or the rewrite
// budget runs out. Attempts counts checks performed (always >= 1); rewrites
// are bounded by MaxRewriteAttempts, which guarantees termination. On budget
// exhaustion the lowest-similarity script seen is returned with
// IsUnique=false.
func (u *UniquenessEnforcer) EnsureUniqueness(ctx context.Context, script *model.ScriptData, corpus []string, rewrite RewriteFunc) (*UniquenessResult, error) {
	if script == nil {
		return nil, fmt.Errorf("uniqueness enforcement requires a script")
	}
	maxRewrites := u.config.MaxRewriteAttempts
	if maxRewrites <= 0 {
		return nil, fmt.Errorf("rewrite attempt budget must be positive, got %d", maxRewrites)
	}
	threshold := u.config.SimilarityThreshold
	if threshold <= 0 {
		threshold = 0.3
	}

	if u.config.AddRandomness {
		u.AddRandomness(script)
	}

	current := script
	best := script
	bestSimilarity := 2.0 // above any reachable score
	attempts := 0
	rewrites := 0

	for {
		attempts++
		sim, _ := similarity.MaxAgainst(current.Content, corpus)
		if sim < bestSimilarity {
			bestSimilarity = sim
			// Snapshot, don't alias: a rewrite is free to mutate the
			// script it was handed, which would silently overwrite the
			// best version seen so far.
			best = current.Clone()
		}
		if sim < threshold {
			return &UniquenessResult{
				Script: current,
				Check:  &model.UniquenessCheck{IsUnique: true, Similarity: sim, Attempts: attempts},
			}, nil
		}
		if !u.config.AutoRewrite || rewrites >= maxRewrites {
			slog.Warn("uniqueness budget exhausted, returning best-effort script",
				"script_id", best.Id, "similarity", bestSimilarity, "attempts", attempts)
			return &UniquenessResult{
				Script: best,
				Check:  &model.UniquenessCheck{IsUnique: false, Similarity: bestSimilarity, Attempts: attempts},
			}, nil
		}

		rewritten, err := rewrite(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("rewrite attempt %d failed: %w", rewrites+1, err)
		}
		if rewritten.Id != current.Id {
			return nil, fmt.Errorf("rewrite must preserve script id, got %q want %q", rewritten.Id, current.Id)
		}
		rewritten.UpdatedAt = time.Now()
		current = rewritten
		rewrites++
	}
}

// synonyms drives the substitution half of the randomness pre-pass. Small on
// purpose: the pass nudges phrasing, it does not paraphrase.
var synonyms = map[string][]string{
	"amazing":   {"remarkable", "striking"},
	"beautiful": {"stunning", "gorgeous"},
	"great":     {"excellent", "superb"},
	"very":      {"truly", "especially"},
	"show":      {"reveal", "present"},
	"see":       {"watch", "observe"},
	"big":       {"huge", "vast"},
	"small":     {"tiny", "modest"},
	"start":     {"begin", "kick off"},
	"end":       {"finish", "close"},
	"important": {"essential", "key"},
	"good":      {"solid", "fine"},
}

// AddRandomness perturbs the script's phrasing in place: synonym substitution
// on common words plus sentence reordering within multi-sentence segments.
// Applied once before the first uniqueness check, never inside the retry
// loop. Preserves the script id and bumps UpdatedAt.
func (u *UniquenessEnforcer) AddRandomness(script *model.ScriptData) {
	changed := false
	for _, seg := range script.Segments {
		content := u.substituteSynonyms(seg.Content)
		content = u.reorderSentences(content)
		if content != seg.Content {
			seg.Content = content
			changed = true
		}
	}
	if changed {
		script.Rebuild()
		script.UpdatedAt = time.Now()
	}
}

// substituteSynonyms swaps roughly half of the known common words for a
// random synonym, preserving leading capitalization.
func (u *UniquenessEnforcer) substituteSynonyms(content string) string {
	words := strings.Fields(content)
	for i, word := range words {
		trimmed := strings.ToLower(strings.Trim(word, ".,!?;:"))
		options, ok := synonyms[trimmed]
		if !ok || u.rng.Intn(2) == 0 {
			continue
		}
		replacement := options[u.rng.Intn(len(options))]
		if word != "" && word[0] >= 'A' && word[0] <= 'Z' {
			replacement = strings.ToUpper(replacement[:1]) + replacement[1:]
		}
		// Carry over trailing punctuation from the original word.
		suffix := word[len(strings.TrimRight(word, ".,!?;:")):]
		words[i] = replacement + suffix
	}
	return strings.Join(words, " ")
}

// reorderSentences swaps two adjacent interior sentences of a segment with
// at least four sentences. First and last sentences stay put so hooks and
// closing beats keep their place.
func (u *UniquenessEnforcer) reorderSentences(content string) string {
	sentences := splitSentences(content)
	if len(sentences) < 4 {
		return content
	}
	i := 1 + u.rng.Intn(len(sentences)-3)
	sentences[i], sentences[i+1] = sentences[i+1], sentences[i]
	return strings.Join(sentences, " ")
}
