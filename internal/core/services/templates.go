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

// Package services contains the business logic of the narration engine: the
// template registry and selector, the originality/dedup engine, and the
// uniqueness enforcer. Services are plain structs constructed once at startup
// and injected into the workflow commands that use them.
package services

import (
	"errors"
	"sort"
	"strings"

	"github.com/scriptweave/scriptweave/internal/core/model"
)

// ErrNoTemplates is returned by SelectTemplate when the registry is empty.
// It is the only way template selection can fail.
var ErrNoTemplates = errors.New("template registry is empty")

// TemplateRegistry holds the read-only set of script templates. Templates are
// seeded at construction and never mutated afterwards, so the registry is safe
// for concurrent use without locking.
type TemplateRegistry struct {
	templates []*model.ScriptTemplate
	byId      map[string]*model.ScriptTemplate
}

// NewTemplateRegistry builds a registry over the given templates. Passing nil
// seeds it with the built-in set.
func NewTemplateRegistry(templates []*model.ScriptTemplate) *TemplateRegistry {
	if templates == nil {
		templates = SeedTemplates()
	}
	byId := make(map[string]*model.ScriptTemplate, len(templates))
	for _, t := range templates {
		byId[t.Id] = t
	}
	return &TemplateRegistry{templates: templates, byId: byId}
}

// List returns every registered template in registration order.
func (r *TemplateRegistry) List() []*model.ScriptTemplate {
	return r.templates
}

// Get returns the template with the given id, or nil.
func (r *TemplateRegistry) Get(id string) *model.ScriptTemplate {
	return r.byId[id]
}

// SelectTemplate picks the template for a run. A preferred id that resolves
// wins outright; otherwise every template is ranked against the analysis and
// the best match returned. Selection never blocks the pipeline on a poor
// match: the only error is an empty registry.
func (r *TemplateRegistry) SelectTemplate(analysis *model.VideoAnalysis, preferredId string) (*model.ScriptTemplate, error) {
	if len(r.templates) == 0 {
		return nil, ErrNoTemplates
	}
	if preferredId != "" {
		if t := r.byId[preferredId]; t != nil {
			return t, nil
		}
	}

	type ranked struct {
		template *model.ScriptTemplate
		score    float64
	}
	candidates := make([]ranked, 0, len(r.templates))
	for _, t := range r.templates {
		candidates = append(candidates, ranked{template: t, score: rankTemplate(t, analysis)})
	}
	// Stable sort keeps registration order as the tiebreak, so ranking is
	// deterministic for a fixed registry.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	return candidates[0].template, nil
}

// rankTemplate scores how well a template fits an analysis: one point per
// template tag found among the analysis scene tags or summary, plus a small
// bonus when the template's section count suits the scene count.
func rankTemplate(t *model.ScriptTemplate, analysis *model.VideoAnalysis) float64 {
	if analysis == nil {
		return 0
	}
	sceneTags := make(map[string]struct{})
	for _, scene := range analysis.Scenes {
		for _, tag := range scene.Tags {
			sceneTags[strings.ToLower(tag)] = struct{}{}
		}
		if scene.Type != "" {
			sceneTags[strings.ToLower(scene.Type)] = struct{}{}
		}
	}
	summary := strings.ToLower(analysis.Summary)

	score := 0.0
	for _, tag := range t.Tags {
		lower := strings.ToLower(tag)
		if _, ok := sceneTags[lower]; ok {
			score += 1.0
		} else if strings.Contains(summary, lower) {
			score += 0.5
		}
	}
	// Duration fit: templates with roughly one section per detected scene
	// cover the footage without padding or cramming.
	if n := len(analysis.Scenes); n > 0 {
		diff := len(t.Sections) - n
		if diff < 0 {
			diff = -diff
		}
		score += 1.0 / float64(1+diff)
	}
	return score
}

// SeedTemplates returns the built-in template set loaded at startup.
func SeedTemplates() []*model.ScriptTemplate {
	return []*model.ScriptTemplate{
		{
			Id:          "template-narrative",
			Name:        "Narrative",
			Description: "Story-driven arc for footage with a clear progression.",
			Tags:        []string{"story", "travel", "documentary", "landscape"},
			Sections: []*model.TemplateSection{
				{Type: model.SectionHook, DurationFraction: 0.10, TargetWordCount: 30, WritingTips: "Open on the most striking moment."},
				{Type: model.SectionIntro, DurationFraction: 0.15, TargetWordCount: 45, WritingTips: "Set the scene and the stakes."},
				{Type: model.SectionBody, DurationFraction: 0.50, TargetWordCount: 150, WritingTips: "Follow the footage chronologically."},
				{Type: model.SectionConclusion, DurationFraction: 0.15, TargetWordCount: 45, WritingTips: "Resolve the arc."},
				{Type: model.SectionCTA, DurationFraction: 0.10, TargetWordCount: 25, WritingTips: "Invite the viewer to follow along."},
			},
		},
		{
			Id:          "template-tutorial",
			Name:        "Tutorial",
			Description: "Step-by-step structure for instructional footage.",
			Tags:        []string{"tutorial", "howto", "education", "screen"},
			Sections: []*model.TemplateSection{
				{Type: model.SectionHook, DurationFraction: 0.08, TargetWordCount: 25, WritingTips: "State the outcome the viewer gets."},
				{Type: model.SectionIntro, DurationFraction: 0.12, TargetWordCount: 40, WritingTips: "List prerequisites briefly."},
				{Type: model.SectionBody, DurationFraction: 0.60, TargetWordCount: 180, WritingTips: "One numbered step per beat of footage."},
				{Type: model.SectionTransition, DurationFraction: 0.05, TargetWordCount: 15},
				{Type: model.SectionConclusion, DurationFraction: 0.15, TargetWordCount: 40, WritingTips: "Recap the steps."},
			},
		},
		{
			Id:          "template-promo",
			Name:        "Promo",
			Description: "Short high-energy structure for product or event promotion.",
			Tags:        []string{"promo", "product", "commercial", "action"},
			Sections: []*model.TemplateSection{
				{Type: model.SectionHook, DurationFraction: 0.20, TargetWordCount: 20, WritingTips: "Lead with the benefit, not the feature."},
				{Type: model.SectionBody, DurationFraction: 0.60, TargetWordCount: 80, WritingTips: "Three quick proof points."},
				{Type: model.SectionCTA, DurationFraction: 0.20, TargetWordCount: 20, WritingTips: "One clear action."},
			},
		},
		{
			Id:          "template-vlog",
			Name:        "Vlog",
			Description: "Casual first-person structure for day-in-the-life footage.",
			Tags:        []string{"vlog", "lifestyle", "personal", "dialogue"},
			Sections: []*model.TemplateSection{
				{Type: model.SectionHook, DurationFraction: 0.10, TargetWordCount: 25, WritingTips: "A candid teaser of the day's highlight."},
				{Type: model.SectionIntro, DurationFraction: 0.15, TargetWordCount: 40},
				{Type: model.SectionBody, DurationFraction: 0.55, TargetWordCount: 140, WritingTips: "Keep the tone conversational."},
				{Type: model.SectionConclusion, DurationFraction: 0.10, TargetWordCount: 30},
				{Type: model.SectionCTA, DurationFraction: 0.10, TargetWordCount: 20},
			},
		},
	}
}
