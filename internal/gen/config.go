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

// Package gen holds the application configuration (loaded from TOML files)
// and the generative AI capability layer: client construction, rate-limited
// model decorators, and the vision analyzer. It is the only package that
// talks to the GenAI SDK directly; everything above it consumes the
// capability interfaces defined in capabilities.go.
package gen

import "google.golang.org/genai"

// DefaultSafetySettings disables content blocking for all harm categories.
// The engine only ever processes the user's own uploaded footage, so input is
// trusted and blocked responses would only surface as confusing generation
// failures.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// LLMModel configures one generative model, keyed by a logical name in the
// AgentModels map (e.g. "creative", "rewrite", "vision").
type LLMModel struct {
	Model              string  `toml:"model"`               // SDK model identifier, e.g. "gemini-2.0-flash".
	SystemInstructions string  `toml:"system_instructions"` // System prompt applied to every request.
	Temperature        float32 `toml:"temperature"`
	TopP               float32 `toml:"top_p"`
	TopK               float32 `toml:"top_k"`
	MaxTokens          int32   `toml:"max_tokens"`
	OutputFormat       string  `toml:"output_format"` // Response MIME type, e.g. "application/json" or "text/plain".
	RateLimit          int     `toml:"rate_limit"`    // Requests per second allowed through the quota decorator.
}

// PromptTemplates holds the Go text/template sources for every prompt the
// engine builds. Each template receives a vocabulary map; see the command
// that uses it for the recognized keys.
type PromptTemplates struct {
	Analysis string `toml:"analysis"` // Vision analysis: scenes, objects, emotions, summary.
	Section  string `toml:"section"`  // One script section.
	Rewrite  string `toml:"rewrite"`  // Segment rewrite used by auto-fix and uniqueness enforcement.
	Clip     string `toml:"clip"`     // Clip plan suggestions.
}

// DedupConfig controls the originality/duplicate-detection step.
type DedupConfig struct {
	Enabled    bool     `toml:"enabled"`
	AutoFix    bool     `toml:"auto_fix"`   // Rewrite flagged segments when the score drops below AutoFixBelow.
	Threshold  float64  `toml:"threshold"`  // Semantic similarity threshold in [0,1]; findings start above it.
	Strategies []string `toml:"strategies"` // Subset of "exact", "semantic", "template". Empty means all three.
}

// UniquenessConfig controls the uniqueness-enforcement step.
type UniquenessConfig struct {
	Enabled             bool    `toml:"enabled"`
	AutoRewrite         bool    `toml:"auto_rewrite"`         // Rewrite and re-check when the script is too similar to history.
	SimilarityThreshold float64 `toml:"similarity_threshold"` // Scripts below this similarity against history count as unique.
	AddRandomness       bool    `toml:"add_randomness"`       // Apply the perturbation pre-pass before the first check.
	MaxRewriteAttempts  int     `toml:"max_rewrite_attempts"` // Rewrite budget; bounds the check/rewrite loop.
	RandomSeed          int64   `toml:"random_seed"`          // Non-zero makes the perturbation pre-pass reproducible; 0 seeds from time.
}

// ClipConfig controls the optional AI clip-planning step. The whole step is
// non-fatal: any failure degrades to an empty plan.
type ClipConfig struct {
	Enabled           bool    `toml:"enabled"`
	AutoClip          bool    `toml:"auto_clip"` // Apply suggestions to the timeline instead of only recording them.
	DetectSceneChange bool    `toml:"detect_scene_change"`
	DetectSilence     bool    `toml:"detect_silence"`
	DetectKeyframes   bool    `toml:"detect_keyframes"`
	DetectEmotion     bool    `toml:"detect_emotion"`
	RemoveSilence     bool    `toml:"remove_silence"`
	TrimDeadTime      bool    `toml:"trim_dead_time"`
	AutoTransition    bool    `toml:"auto_transition"`
	TransitionType    string  `toml:"transition_type"`
	AIOptimize        bool    `toml:"ai_optimize"` // Ask the generative model to refine heuristic suggestions.
	TargetDuration    float64 `toml:"target_duration"`
	PacingStyle       string  `toml:"pacing_style"` // One of "fast", "normal", "slow".
}

// ExportConfig is the default export settings applied when a run does not
// override them.
type ExportConfig struct {
	Format           string `toml:"format"`
	Quality          string `toml:"quality"`
	Resolution       string `toml:"resolution"`
	IncludeSubtitles bool   `toml:"include_subtitles"`
}

// WorkflowConfig aggregates the per-step toggles of a run.
type WorkflowConfig struct {
	Dedup              DedupConfig      `toml:"dedup"`
	Uniqueness         UniquenessConfig `toml:"uniqueness"`
	Clip               ClipConfig       `toml:"clip"`
	Export             ExportConfig     `toml:"export"`
	StepTimeoutSeconds int              `toml:"step_timeout_seconds"` // Wraps every external-capability call; 0 disables.
}

// Config is the root configuration object, loaded from configs/.env.toml
// with environment-specific overrides.
type Config struct {
	Application struct {
		Name           string `toml:"name"`
		DataDir        string `toml:"data_dir"`
		ThreadPoolSize int    `toml:"thread_pool_size"` // Upper bound for section-generation fan-out workers.
	} `toml:"application"`
	Server struct {
		Port         int      `toml:"port"`
		AllowOrigins []string `toml:"allow_origins"`
	} `toml:"server"`
	Storage struct {
		DatabasePath string `toml:"database_path"`
		OutputDir    string `toml:"output_dir"`
		FFmpegPath   string `toml:"ffmpeg_path"`
	} `toml:"storage"`
	GenAI struct {
		APIKey string `toml:"api_key"`
	} `toml:"genai"`
	PromptTemplates PromptTemplates     `toml:"prompt_templates"`
	AgentModels     map[string]LLMModel `toml:"agent_models"`
	Workflow        WorkflowConfig      `toml:"workflow"`
}

// NewConfig returns a Config with initialized maps and the documented
// defaults for every workflow threshold. Loading TOML on top of it only
// overrides what the files mention.
func NewConfig() *Config {
	out := &Config{
		AgentModels: make(map[string]LLMModel),
	}
	out.Application.Name = "scriptweave"
	out.Application.ThreadPoolSize = 6
	out.Server.Port = 8080
	out.Workflow.Dedup = DedupConfig{
		Enabled:    true,
		AutoFix:    true,
		Threshold:  0.7,
		Strategies: []string{"exact", "semantic", "template"},
	}
	out.Workflow.Uniqueness = UniquenessConfig{
		Enabled:             true,
		AutoRewrite:         true,
		SimilarityThreshold: 0.3,
		AddRandomness:       true,
		MaxRewriteAttempts:  3,
	}
	out.Workflow.Clip = ClipConfig{
		Enabled:           true,
		DetectSceneChange: true,
		DetectSilence:     true,
		TrimDeadTime:      true,
		PacingStyle:       "normal",
	}
	out.Workflow.Export = ExportConfig{
		Format:           "mp4",
		Quality:          "high",
		Resolution:       "1920x1080",
		IncludeSubtitles: true,
	}
	out.Workflow.StepTimeoutSeconds = 300
	return out
}
