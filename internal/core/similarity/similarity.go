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

// Package similarity implements the text-similarity measure shared by the
// originality engine (semantic duplicate detection) and the uniqueness
// enforcer (historical corpus comparison). Both components must agree on what
// "similar" means, so the measure lives in one place.
//
// The measure is word-level shingling plus Jaccard overlap:
//
//  1. Normalize: lowercase, strip punctuation, collapse whitespace.
//  2. Shingle: slide a window of ShingleSize words over the token stream.
//  3. Jaccard: |A ∩ B| / |A ∪ B| over the two shingle sets.
//
// The function is deterministic (no hashing with random seeds), symmetric
// (Score(a,b) == Score(b,a)), and scores in [0,1] where 1 means the
// normalized shingle sets are identical.
package similarity

import (
	"strings"
	"unicode"
)

// ShingleSize is the word-window width used when building shingle sets.
// Three words is wide enough that common stock phrases do not dominate the
// score, and narrow enough that paraphrased sentences still overlap.
const ShingleSize = 3

// Tokenize lowercases the input, drops punctuation, and splits it into words.
func Tokenize(in string) []string {
	var b strings.Builder
	b.Grow(len(in))
	for _, r := range in {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}

// Shingles builds the set of overlapping word windows for the given token
// stream. When the stream is shorter than ShingleSize the whole stream forms
// a single shingle, so very short inputs still compare meaningfully.
func Shingles(tokens []string) map[string]struct{} {
	out := make(map[string]struct{})
	if len(tokens) == 0 {
		return out
	}
	if len(tokens) < ShingleSize {
		out[strings.Join(tokens, " ")] = struct{}{}
		return out
	}
	for i := 0; i+ShingleSize <= len(tokens); i++ {
		out[strings.Join(tokens[i:i+ShingleSize], " ")] = struct{}{}
	}
	return out
}

// Jaccard computes |a ∩ b| / |a ∪ b| for two shingle sets. Two empty sets
// score 0, not 1: an empty script is not "similar" to anything.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Score computes the similarity of two texts in [0,1]. It is symmetric and
// deterministic for any pair of inputs.
func Score(a, b string) float64 {
	return Jaccard(Shingles(Tokenize(a)), Shingles(Tokenize(b)))
}

// MaxAgainst returns the highest Score of the given text against each entry
// of the corpus, along with the index of the best match (-1 for an empty
// corpus).
func MaxAgainst(text string, corpus []string) (float64, int) {
	best := 0.0
	bestIdx := -1
	own := Shingles(Tokenize(text))
	for i, doc := range corpus {
		s := Jaccard(own, Shingles(Tokenize(doc)))
		if s > best {
			best = s
			bestIdx = i
		}
	}
	return best, bestIdx
}
