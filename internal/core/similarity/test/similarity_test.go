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

// Package similarity_test verifies the shingling similarity measure shared
// by duplicate detection and uniqueness enforcement.
package similarity_test

import (
	"testing"

	"github.com/scriptweave/scriptweave/internal/core/similarity"
	"github.com/stretchr/testify/assert"
)

func TestTokenizeNormalizes(t *testing.T) {
	tokens := similarity.Tokenize("Hello, WORLD!  This is\ta test.")
	assert.Equal(t, []string{"hello", "world", "this", "is", "a", "test"}, tokens)
}

func TestScoreIdenticalTexts(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"
	assert.Equal(t, 1.0, similarity.Score(text, text))

	// Punctuation and casing do not affect the score.
	assert.Equal(t, 1.0, similarity.Score(text, "The QUICK brown fox, jumps over the lazy dog!"))
}

func TestScoreDisjointTexts(t *testing.T) {
	a := "morning coffee on the balcony watching the sunrise"
	b := "deep sea creatures glow in total darkness below"
	assert.Equal(t, 0.0, similarity.Score(a, b))
}

func TestScoreEmptyInputs(t *testing.T) {
	assert.Equal(t, 0.0, similarity.Score("", ""))
	assert.Equal(t, 0.0, similarity.Score("some actual words here", ""))
}

func TestScoreSymmetric(t *testing.T) {
	a := "we start the day with a walk through the old town"
	b := "a walk through the old town is how we start the day"
	assert.Equal(t, similarity.Score(a, b), similarity.Score(b, a))
}

func TestScoreDeterministic(t *testing.T) {
	a := "three words repeated three words repeated three words repeated"
	b := "three words repeated once more for good measure"
	first := similarity.Score(a, b)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, similarity.Score(a, b))
	}
}

func TestShinglesShortInput(t *testing.T) {
	// Inputs shorter than the window form a single shingle instead of none.
	shingles := similarity.Shingles([]string{"two", "words"})
	assert.Len(t, shingles, 1)
	_, ok := shingles["two words"]
	assert.True(t, ok)
}

func TestMaxAgainst(t *testing.T) {
	corpus := []string{
		"deep sea creatures glow in total darkness below",
		"the quick brown fox jumps over the lazy dog",
		"completely unrelated musings about tax law",
	}
	score, idx := similarity.MaxAgainst("the quick brown fox jumps over a lazy dog", corpus)
	assert.Equal(t, 1, idx)
	assert.Greater(t, score, 0.3)

	score, idx = similarity.MaxAgainst("anything at all", nil)
	assert.Equal(t, -1, idx)
	assert.Equal(t, 0.0, score)
}
