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

// GeminiVision implements the VisionAnalyzer capability with a multi-modal
// generation call: the video file plus a prompt that embeds a few-shot JSON
// example of the expected analysis shape. The model's JSON reply is decoded
// straight into the VideoAnalysis struct.
package gen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/scriptweave/scriptweave/internal/core/model"
	"google.golang.org/genai"
)

// GeminiVision analyzes videos with a multi-modal generative model. The
// source file is staged through the FileStore first; the generation request
// references the uploaded URI, never the local path.
type GeminiVision struct {
	model          GenerativeModel
	files          FileStore
	promptTemplate *template.Template
}

// NewGeminiVision compiles the analysis prompt template and returns the
// analyzer. The template receives DURATION, WIDTH, HEIGHT, and EXAMPLE_JSON.
func NewGeminiVision(visionModel GenerativeModel, files FileStore, promptSource string) (*GeminiVision, error) {
	tmpl, err := template.New("analysis-prompt").Parse(promptSource)
	if err != nil {
		return nil, fmt.Errorf("failed to parse analysis prompt template: %w", err)
	}
	return &GeminiVision{model: visionModel, files: files, promptTemplate: tmpl}, nil
}

// DetectScenesAdvanced sends the video and the analysis prompt to the model
// and decodes the JSON reply. Objects and emotions are optional in the
// reply; a missing field leaves the corresponding slice empty rather than
// failing the analysis.
func (g *GeminiVision) DetectScenesAdvanced(ctx context.Context, video *model.VideoInfo) (*model.VideoAnalysis, error) {
	exampleJson, _ := json.Marshal(model.GetExampleAnalysis())

	vocabulary := map[string]interface{}{
		"DURATION":     video.DurationSecs,
		"WIDTH":        video.Width,
		"HEIGHT":       video.Height,
		"EXAMPLE_JSON": string(exampleJson),
	}
	var prompt bytes.Buffer
	if err := g.promptTemplate.Execute(&prompt, vocabulary); err != nil {
		return nil, fmt.Errorf("failed to execute analysis prompt template: %w", err)
	}

	mimeType := videoMIMEType(video.Format)
	fileUri, err := g.files.EnsureUploaded(ctx, video.Path, mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to stage video for analysis: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt.String()},
				{FileData: &genai.FileData{
					FileURI:  fileUri,
					MIMEType: mimeType,
				}},
			},
		},
	}

	resp, err := g.model.GenerateContent(ctx, contents)
	if err != nil {
		return nil, fmt.Errorf("vision analysis request failed: %w", err)
	}

	out := &model.VideoAnalysis{}
	if err := json.Unmarshal([]byte(FlattenResponse(resp)), out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis JSON: %w", err)
	}
	out.VideoId = video.Id
	return out, nil
}

// GenerateAnalysisReport fills in the free-text summary when detection left
// it empty. A summary generation failure is tolerated: the detection result
// is still a usable analysis, so the partial value is returned as-is.
func (g *GeminiVision) GenerateAnalysisReport(ctx context.Context, video *model.VideoInfo, detected *model.VideoAnalysis) (*model.VideoAnalysis, error) {
	if detected == nil {
		return nil, fmt.Errorf("no detection result to report on")
	}
	if detected.Summary != "" {
		return detected, nil
	}

	var sceneList strings.Builder
	for _, s := range detected.Scenes {
		fmt.Fprintf(&sceneList, "- %.1fs to %.1fs: %s (%s)\n", s.Start, s.End, strings.Join(s.Tags, ", "), s.Type)
	}
	prompt := fmt.Sprintf(
		"Write a two-sentence summary of a %.0f second video with these scenes:\n%s",
		video.DurationSecs, sceneList.String())

	summary, err := g.model.GenerateText(ctx, prompt)
	if err != nil {
		return detected, nil
	}
	detected.Summary = summary
	return detected, nil
}

// videoMIMEType maps a container format to its MIME type, defaulting to mp4.
func videoMIMEType(format string) string {
	switch strings.ToLower(format) {
	case "webm":
		return "video/webm"
	case "mov", "quicktime":
		return "video/quicktime"
	case "mkv":
		return "video/x-matroska"
	default:
		return "video/mp4"
	}
}
