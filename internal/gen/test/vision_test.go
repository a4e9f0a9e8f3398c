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

package gen_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"

	"github.com/scriptweave/scriptweave/internal/core/model"
	"github.com/scriptweave/scriptweave/internal/gen"
)

type fakeFileStore struct {
	uri   string
	err   error
	paths []string
	mimes []string
}

func (f *fakeFileStore) EnsureUploaded(ctx context.Context, path, mimeType string) (string, error) {
	f.paths = append(f.paths, path)
	f.mimes = append(f.mimes, mimeType)
	if f.err != nil {
		return "", f.err
	}
	return f.uri, nil
}

type fakeGenerativeModel struct {
	reply        string
	lastContents []*genai.Content
}

func (f *fakeGenerativeModel) GenerateContent(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	f.lastContents = contents
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: f.reply}}}},
		},
	}, nil
}

func (f *fakeGenerativeModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	return f.reply, nil
}

func testVideo() *model.VideoInfo {
	return &model.VideoInfo{
		Id:           "video-vision-001",
		Path:         "/tmp/source-footage.mp4",
		DurationSecs: 90,
		Width:        1920,
		Height:       1080,
		Format:       "mp4",
	}
}

// The generation request must reference the uploaded file URI, not the
// local filesystem path the model API cannot read.
func TestDetectScenesSendsUploadedURI(t *testing.T) {
	reply, err := json.Marshal(model.GetExampleAnalysis())
	assert.NoError(t, err)

	files := &fakeFileStore{uri: "https://generativelanguage.googleapis.com/v1beta/files/abc123"}
	generator := &fakeGenerativeModel{reply: string(reply)}
	vision, err := gen.NewGeminiVision(generator, files, "Analyze a {{.DURATION}} second video. {{.EXAMPLE_JSON}}")
	assert.NoError(t, err)

	video := testVideo()
	analysis, err := vision.DetectScenesAdvanced(context.Background(), video)
	assert.NoError(t, err)
	assert.NotNil(t, analysis)
	assert.Equal(t, video.Id, analysis.VideoId)

	assert.Equal(t, []string{video.Path}, files.paths)
	assert.Equal(t, []string{"video/mp4"}, files.mimes)

	assert.Len(t, generator.lastContents, 1)
	parts := generator.lastContents[0].Parts
	assert.Len(t, parts, 2)
	assert.NotNil(t, parts[1].FileData)
	assert.Equal(t, files.uri, parts[1].FileData.FileURI)
	assert.Equal(t, "video/mp4", parts[1].FileData.MIMEType)
}

func TestDetectScenesUploadFailure(t *testing.T) {
	files := &fakeFileStore{err: fmt.Errorf("quota exceeded")}
	generator := &fakeGenerativeModel{reply: "{}"}
	vision, err := gen.NewGeminiVision(generator, files, "Analyze. {{.EXAMPLE_JSON}}")
	assert.NoError(t, err)

	analysis, err := vision.DetectScenesAdvanced(context.Background(), testVideo())
	assert.Nil(t, analysis)
	assert.ErrorContains(t, err, "quota exceeded")
	assert.Nil(t, generator.lastContents)
}
