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

// Client construction. ServiceClients is the dependency container built once
// at startup: the GenAI client plus one configured, quota-aware model per
// entry in the agent_models configuration map. Workflow code receives the
// container and picks models by logical name ("creative", "rewrite",
// "vision"), never by SDK identifier.
package gen

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Logical model names the workflow expects to find in the AgentModels map.
const (
	ModelCreative = "creative" // Script section generation.
	ModelRewrite  = "rewrite"  // Segment rewrites for auto-fix and uniqueness.
	ModelVision   = "vision"   // Multi-modal video analysis and clip planning.
)

// ServiceClients holds every external AI client the application uses.
type ServiceClients struct {
	GenAIClient *genai.Client
	AgentModels map[string]*QuotaAwareModel
}

// NewServiceClients builds the GenAI client from configuration and wraps one
// quota-aware model per configured agent model.
func NewServiceClients(ctx context.Context, config *Config) (*ServiceClients, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.GenAI.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	agentModels := make(map[string]*QuotaAwareModel)
	for key, values := range config.AgentModels {
		generateConfig := &genai.GenerateContentConfig{
			Temperature:      genai.Ptr[float32](values.Temperature),
			TopP:             genai.Ptr[float32](values.TopP),
			TopK:             genai.Ptr[float32](values.TopK),
			MaxOutputTokens:  values.MaxTokens,
			SafetySettings:   DefaultSafetySettings,
			ResponseMIMEType: values.OutputFormat,
		}
		if values.SystemInstructions != "" {
			generateConfig.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: values.SystemInstructions}},
			}
		}
		agentModels[key] = NewQuotaAwareModel(generateConfig, values.Model, client.Models, values.RateLimit)
	}

	return &ServiceClients{
		GenAIClient: client,
		AgentModels: agentModels,
	}, nil
}

// Model returns the quota-aware model registered under the given logical
// name, or an error naming the missing entry. Configuration mistakes surface
// at startup rather than mid-run.
func (c *ServiceClients) Model(name string) (*QuotaAwareModel, error) {
	m, ok := c.AgentModels[name]
	if !ok {
		return nil, fmt.Errorf("no agent model configured under %q", name)
	}
	return m, nil
}
