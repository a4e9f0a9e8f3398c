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

// Package services_test contains the test suite for the core services:
// template selection, originality scoring, and uniqueness enforcement.
package services_test

import (
	"errors"
	"testing"

	"github.com/scriptweave/scriptweave/internal/core/model"
	"github.com/scriptweave/scriptweave/internal/core/services"
	"github.com/zeebo/assert"
)

func sampleAnalysis() *model.VideoAnalysis {
	a := model.GetExampleAnalysis()
	a.VideoId = "video-test-001"
	return a
}

func TestSelectTemplatePreferredIdWins(t *testing.T) {
	registry := services.NewTemplateRegistry(nil)

	tmpl, err := registry.SelectTemplate(sampleAnalysis(), "template-promo")
	assert.Nil(t, err)
	assert.Equal(t, "template-promo", tmpl.Id)
}

func TestSelectTemplateUnknownPreferredFallsBack(t *testing.T) {
	registry := services.NewTemplateRegistry(nil)

	tmpl, err := registry.SelectTemplate(sampleAnalysis(), "template-does-not-exist")
	assert.Nil(t, err)
	assert.NotNil(t, tmpl)
}

func TestSelectTemplateEmptyRegistry(t *testing.T) {
	registry := services.NewTemplateRegistry([]*model.ScriptTemplate{})

	_, err := registry.SelectTemplate(sampleAnalysis(), "")
	assert.True(t, errors.Is(err, services.ErrNoTemplates))
}

func TestSelectTemplateDeterministic(t *testing.T) {
	registry := services.NewTemplateRegistry(nil)
	analysis := sampleAnalysis()

	first, err := registry.SelectTemplate(analysis, "")
	assert.Nil(t, err)
	for i := 0; i < 5; i++ {
		again, err := registry.SelectTemplate(analysis, "")
		assert.Nil(t, err)
		assert.Equal(t, first.Id, again.Id)
	}
}

func TestSelectTemplateTagMatch(t *testing.T) {
	registry := services.NewTemplateRegistry(nil)

	// A tutorial-tagged analysis should pull the tutorial template ahead of
	// the other seeds.
	analysis := sampleAnalysis()
	analysis.Scenes = []*model.Scene{
		{Start: 0, End: 60, Tags: []string{"tutorial", "screen"}, Type: "screen", Confidence: 0.9},
	}
	analysis.Summary = "A screen recording tutorial walking through an editor workflow."

	tmpl, err := registry.SelectTemplate(analysis, "")
	assert.Nil(t, err)
	assert.Equal(t, "template-tutorial", tmpl.Id)
}

func TestRegistrySeedTemplatesWellFormed(t *testing.T) {
	for _, tmpl := range services.SeedTemplates() {
		assert.True(t, tmpl.Id != "")
		assert.True(t, len(tmpl.Sections) > 0)

		total := 0.0
		for _, section := range tmpl.Sections {
			assert.True(t, section.DurationFraction > 0)
			total += section.DurationFraction
		}
		assert.True(t, total > 0.999 && total < 1.001)
	}
}

func TestRegistryGet(t *testing.T) {
	registry := services.NewTemplateRegistry(nil)
	assert.NotNil(t, registry.Get("template-vlog"))
	assert.Nil(t, registry.Get("nope"))
	assert.True(t, len(registry.List()) > 0)
}
