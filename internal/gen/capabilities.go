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

// External capability interfaces consumed by the workflow core. The core
// never imports the GenAI SDK directly; it depends on these interfaces and
// receives concrete implementations (or test fakes) by injection.
package gen

import (
	"context"

	"github.com/scriptweave/scriptweave/internal/core/model"
)

// TextGenerator is the text-generation capability. Implementations must be
// safe for concurrent use: the script generator fans out one call per
// template section. The engine does not retry calls through this interface;
// retrying is the implementation's concern.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// VisionAnalyzer is the vision capability that turns a source video into a
// structured analysis.
type VisionAnalyzer interface {
	// DetectScenesAdvanced extracts scenes, objects, and emotion samples
	// from the video. Objects and emotions are optional fields: an
	// implementation may return an analysis with only scenes populated.
	DetectScenesAdvanced(ctx context.Context, video *model.VideoInfo) (*model.VideoAnalysis, error)

	// GenerateAnalysisReport completes a detection result into the full
	// analysis, filling in the free-text summary.
	GenerateAnalysisReport(ctx context.Context, video *model.VideoInfo, detected *model.VideoAnalysis) (*model.VideoAnalysis, error)
}
