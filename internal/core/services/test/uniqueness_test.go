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
	"fmt"
	"testing"

	"github.com/scriptweave/scriptweave/internal/core/model"
	"github.com/scriptweave/scriptweave/internal/core/services"
	"github.com/scriptweave/scriptweave/internal/core/similarity"
	"github.com/scriptweave/scriptweave/internal/gen"
	"github.com/stretchr/testify/assert"
)

func uniquenessConfig() gen.UniquenessConfig {
	return gen.UniquenessConfig{
		Enabled:             true,
		AutoRewrite:         true,
		SimilarityThreshold: 0.3,
		AddRandomness:       false,
		MaxRewriteAttempts:  3,
	}
}

func TestEnsureUniquenessAlreadyUnique(t *testing.T) {
	enforcer := services.NewUniquenessEnforcer(uniquenessConfig(), 42)

	script := newScript("Dawn breaks over the harbor as the first boats head out to sea.")
	corpus := []string{"deep sea creatures glow in total darkness far below the surface"}

	result, err := enforcer.EnsureUniqueness(context.Background(), script, corpus,
		func(ctx context.Context, s *model.ScriptData) (*model.ScriptData, error) {
			t.Fatal("rewrite must not run for an already unique script")
			return nil, nil
		})
	assert.NoError(t, err)
	assert.True(t, result.Check.IsUnique)
	assert.Equal(t, 1, result.Check.Attempts)
	assert.Equal(t, script.Id, result.Script.Id)
}

// A rewrite that strictly reduces similarity terminates with a unique script
// within the budget.
func TestEnsureUniquenessReducingRewriteConverges(t *testing.T) {
	enforcer := services.NewUniquenessEnforcer(uniquenessConfig(), 42)

	duplicate := "the quick brown fox jumps over the lazy dog near the river bend"
	script := newScript(duplicate)
	corpus := []string{duplicate}

	replacements := []string{
		"the quick brown fox jumps over the lazy dog in the meadow today",
		"a silver heron lifts off the water and circles the quiet valley",
	}
	rewrites := 0
	result, err := enforcer.EnsureUniqueness(context.Background(), script, corpus,
		func(ctx context.Context, s *model.ScriptData) (*model.ScriptData, error) {
			out := newScript(replacements[rewrites])
			out.Id = s.Id
			rewrites++
			return out, nil
		})
	assert.NoError(t, err)
	assert.True(t, result.Check.IsUnique)
	assert.True(t, result.Check.Similarity < 0.3)
	assert.True(t, rewrites <= 3)
	assert.Equal(t, script.Id, result.Script.Id)
}

// A rewrite that never helps exhausts exactly the configured budget and
// returns the best script seen flagged as not unique.
func TestEnsureUniquenessBudgetExhaustion(t *testing.T) {
	enforcer := services.NewUniquenessEnforcer(uniquenessConfig(), 42)

	duplicate := "the quick brown fox jumps over the lazy dog near the river bend"
	script := newScript(duplicate)
	corpus := []string{duplicate}

	rewrites := 0
	result, err := enforcer.EnsureUniqueness(context.Background(), script, corpus,
		func(ctx context.Context, s *model.ScriptData) (*model.ScriptData, error) {
			rewrites++
			out := newScript(duplicate)
			out.Id = s.Id
			return out, nil
		})
	assert.NoError(t, err)
	assert.False(t, result.Check.IsUnique)
	assert.Equal(t, 3, rewrites)
	assert.Equal(t, 4, result.Check.Attempts)
	assert.Equal(t, 1.0, result.Check.Similarity)
	assert.Equal(t, script.Id, result.Script.Id)
}

// A rewrite that mutates the script it was handed in place, and makes it
// worse, must not corrupt the best-seen fallback: on exhaustion the enforcer
// returns the original content, and the reported similarity matches the
// returned content.
func TestEnsureUniquenessBestSeenSurvivesInPlaceRewrite(t *testing.T) {
	enforcer := services.NewUniquenessEnforcer(uniquenessConfig(), 42)

	corpusText := "the quick brown fox jumps over the lazy dog near the river bend"
	original := "a quick brown fox jumps over the lazy dog near the river bend"
	script := newScript(original)
	corpus := []string{corpusText}

	rewrites := 0
	result, err := enforcer.EnsureUniqueness(context.Background(), script, corpus,
		func(ctx context.Context, s *model.ScriptData) (*model.ScriptData, error) {
			rewrites++
			for _, seg := range s.Segments {
				seg.Content = corpusText
			}
			s.Rebuild()
			return s, nil
		})
	assert.NoError(t, err)
	assert.False(t, result.Check.IsUnique)
	assert.Equal(t, 3, rewrites)
	assert.Equal(t, original, result.Script.Content)

	got, _ := similarity.MaxAgainst(result.Script.Content, corpus)
	assert.Equal(t, got, result.Check.Similarity)
	assert.True(t, result.Check.Similarity < 1.0)
}

func TestEnsureUniquenessNoAutoRewrite(t *testing.T) {
	config := uniquenessConfig()
	config.AutoRewrite = false
	enforcer := services.NewUniquenessEnforcer(config, 42)

	duplicate := "the quick brown fox jumps over the lazy dog near the river bend"
	script := newScript(duplicate)

	result, err := enforcer.EnsureUniqueness(context.Background(), script, []string{duplicate},
		func(ctx context.Context, s *model.ScriptData) (*model.ScriptData, error) {
			t.Fatal("rewrite must not run when auto-rewrite is off")
			return nil, nil
		})
	assert.NoError(t, err)
	assert.False(t, result.Check.IsUnique)
	assert.Equal(t, 1, result.Check.Attempts)
}

func TestEnsureUniquenessRewriteErrorPropagates(t *testing.T) {
	enforcer := services.NewUniquenessEnforcer(uniquenessConfig(), 42)

	duplicate := "the quick brown fox jumps over the lazy dog near the river bend"
	script := newScript(duplicate)

	_, err := enforcer.EnsureUniqueness(context.Background(), script, []string{duplicate},
		func(ctx context.Context, s *model.ScriptData) (*model.ScriptData, error) {
			return nil, fmt.Errorf("model unavailable")
		})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestEnsureUniquenessRejectsIdChange(t *testing.T) {
	enforcer := services.NewUniquenessEnforcer(uniquenessConfig(), 42)

	duplicate := "the quick brown fox jumps over the lazy dog near the river bend"
	script := newScript(duplicate)

	_, err := enforcer.EnsureUniqueness(context.Background(), script, []string{duplicate},
		func(ctx context.Context, s *model.ScriptData) (*model.ScriptData, error) {
			out := newScript("something else entirely different from before now")
			out.Id = "a-brand-new-id"
			return out, nil
		})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "preserve script id")
}

func TestEnsureUniquenessValidation(t *testing.T) {
	enforcer := services.NewUniquenessEnforcer(uniquenessConfig(), 42)
	_, err := enforcer.EnsureUniqueness(context.Background(), nil, nil, nil)
	assert.Error(t, err)

	config := uniquenessConfig()
	config.MaxRewriteAttempts = 0
	enforcer = services.NewUniquenessEnforcer(config, 42)
	_, err = enforcer.EnsureUniqueness(context.Background(), newScript("hello there world"), nil, nil)
	assert.Error(t, err)
}

func TestAddRandomnessPreservesIdentity(t *testing.T) {
	config := uniquenessConfig()
	config.AddRandomness = true
	enforcer := services.NewUniquenessEnforcer(config, 42)

	script := newScript(
		"The view is amazing from up here. The trail starts at the beautiful old gate. " +
			"We see the whole valley at once. The climb is very important for the payoff.")
	original := script.Content

	enforcer.AddRandomness(script)
	assert.Equal(t, "script-test-001", script.Id)
	assert.NotEmpty(t, script.Content)

	// Same seed, same input, same perturbation.
	repeat := services.NewUniquenessEnforcer(config, 42)
	script2 := newScript(original)
	repeat.AddRandomness(script2)
	assert.Equal(t, script.Content, script2.Content)
}
