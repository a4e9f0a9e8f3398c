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

package gen

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// FileStore stages a local media file somewhere the model API can read it
// and returns the URI to reference in generation requests. The model API
// cannot dereference local filesystem paths.
type FileStore interface {
	EnsureUploaded(ctx context.Context, path, mimeType string) (string, error)
}

// filePollInterval is the pause between status polls while an upload is
// processed server-side.
const filePollInterval = 2 * time.Second

// GenAIFileStore implements FileStore on the GenAI Files API.
type GenAIFileStore struct {
	client *genai.Client
}

// NewGenAIFileStore wraps the given client's Files service.
func NewGenAIFileStore(client *genai.Client) *GenAIFileStore {
	return &GenAIFileStore{client: client}
}

// EnsureUploaded uploads the file at path and blocks until server-side
// processing finishes. Video uploads sit in the processing state for a
// while, and referencing a file before it turns active fails the
// generation request.
func (s *GenAIFileStore) EnsureUploaded(ctx context.Context, path, mimeType string) (string, error) {
	file, err := s.client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{MIMEType: mimeType})
	if err != nil {
		return "", fmt.Errorf("file upload failed for %q: %w", path, err)
	}
	for file.State == genai.FileStateProcessing {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(filePollInterval):
		}
		file, err = s.client.Files.Get(ctx, file.Name, nil)
		if err != nil {
			return "", fmt.Errorf("file status poll failed for %q: %w", file.Name, err)
		}
	}
	if file.State != genai.FileStateActive {
		return "", fmt.Errorf("uploaded file %q is not usable, state %s", file.Name, file.State)
	}
	return file.URI, nil
}
