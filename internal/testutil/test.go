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

// Package test provides shared fixtures for the test suite: a cached test
// configuration, sample domain objects, and in-memory fakes for the external
// capabilities (text generation, vision, media export) so workflow tests run
// without network access or an ffmpeg binary.
package test

import (
	"testing"

	"github.com/scriptweave/scriptweave/internal/gen"
)

// StateManager caches the test configuration so it is built once per test
// binary rather than once per test.
type StateManager struct {
	config *gen.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is non-nil. Convenience to cut down on
// error-checking boilerplate in table-driven tests.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// GetConfig is a singleton accessor for the test configuration. The config is
// built in memory instead of being read from configs/.env.toml so that tests
// do not depend on the working directory they run from; the prompt templates
// carry the same vocabulary keys as the shipped ones.
func GetConfig() *gen.Config {
	if state.config == nil {
		config := gen.NewConfig()
		config.Application.DataDir = ""
		config.Storage.DatabasePath = ":memory:"
		config.PromptTemplates = gen.PromptTemplates{
			Analysis: "Analyze a {{.DURATION}}s video at {{.WIDTH}}x{{.HEIGHT}}. Reply as JSON: {{.EXAMPLE_JSON}}",
			Section: "Write the {{.SECTION_TYPE}} section for video {{.VIDEO_ID}} " +
				"({{.SECTION_DURATION}}s, about {{.SECTION_WORDS}} words). " +
				"Tips: {{.WRITING_TIPS}}. Scene: {{.SCENE}}. Summary: {{.SUMMARY}}. " +
				"Style {{.STYLE}}, tone {{.TONE}}, length {{.LENGTH}}, " +
				"audience {{.AUDIENCE}}, language {{.LANGUAGE}}.",
			Rewrite: "Rewrite: {{.CONTENT}} Issues: {{.ISSUES}} Goal: {{.GOAL}}",
			Clip: "Plan clips for a {{.DURATION}}s video. Summary: {{.SUMMARY}}. " +
				"Current: {{.CURRENT_PLAN}}. Target {{.TARGET}}s, pacing {{.PACING}}. " +
				"Reply as JSON: {{.EXAMPLE_JSON}}",
		}
		config.AgentModels["creative"] = gen.LLMModel{Model: "test-creative", RateLimit: 100}
		config.AgentModels["rewrite"] = gen.LLMModel{Model: "test-rewrite", RateLimit: 100}
		config.AgentModels["vision"] = gen.LLMModel{Model: "test-vision", RateLimit: 100}
		config.Workflow.StepTimeoutSeconds = 30
		state.config = config
	}
	return state.config
}
