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

// A decorator around the GenAI model handle that adds rate limiting and
// bounded retries. Hosted model APIs enforce per-minute quotas; pushing the
// limiter into the capability layer means no caller ever has to think about
// it, and transient request failures are absorbed here instead of failing a
// whole workflow step.
package gen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// MaxRetries bounds how many times a failed generation request is retried
// before the error is surfaced to the caller.
const MaxRetries = 3

// retryBackoff is the pause between generation retries.
const retryBackoff = 5 * time.Second

// GenerativeModel is the model surface the vision analyzer consumes:
// multi-modal generation plus plain text generation. QuotaAwareModel
// satisfies it.
type GenerativeModel interface {
	GenerateContent(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error)
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// QuotaAwareModel decorates a genai model handle with a token-bucket rate
// limiter and retry logic. It implements TextGenerator.
type QuotaAwareModel struct {
	GenerateConfig *genai.GenerateContentConfig // Generation parameters applied to every request.
	ModelName      string
	ModelHandle    *genai.Models
	limiter        *rate.Limiter
}

// NewQuotaAwareModel wraps the given model handle. requestsPerSecond sets
// both the sustained rate and the burst size of the limiter.
func NewQuotaAwareModel(config *genai.GenerateContentConfig, name string, handle *genai.Models, requestsPerSecond int) *QuotaAwareModel {
	if requestsPerSecond < 1 {
		requestsPerSecond = 1
	}
	return &QuotaAwareModel{
		GenerateConfig: config,
		ModelName:      name,
		ModelHandle:    handle,
		limiter:        rate.NewLimiter(rate.Every(time.Second), requestsPerSecond),
	}
}

// GenerateContent sends one multi-modal request through the rate limiter and
// retries transient failures up to MaxRetries times. The limiter Wait blocks
// until a token is available or the context is canceled, so a canceled run
// never queues further requests.
func (q *QuotaAwareModel) GenerateContent(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if err := q.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := q.ModelHandle.GenerateContent(ctx, q.ModelName, contents, q.GenerateConfig)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if attempt < MaxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryBackoff):
			}
		}
	}
	return nil, fmt.Errorf("generation failed after %d retries: %w", MaxRetries, lastErr)
}

// GenerateText implements TextGenerator: it wraps the prompt as a single
// user turn, runs GenerateContent, and flattens the candidate parts into one
// string with any markdown code fences stripped.
func (q *QuotaAwareModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}
	resp, err := q.GenerateContent(ctx, contents)
	if err != nil {
		return "", err
	}
	return FlattenResponse(resp), nil
}

// FlattenResponse concatenates the text parts of every candidate and strips
// the ```json fences models wrap structured output in.
func FlattenResponse(resp *genai.GenerateContentResponse) string {
	value := ""
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			value += part.Text
		}
	}
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "```json")
	value = strings.TrimPrefix(value, "```")
	value = strings.TrimSuffix(value, "```")
	return strings.TrimSpace(value)
}
