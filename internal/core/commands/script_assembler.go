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

package commands

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/scriptweave/scriptweave/internal/core/cor"
	"github.com/scriptweave/scriptweave/internal/core/model"
)

// narrationWordsPerSecond is the pace used to estimate spoken duration from
// word count.
const narrationWordsPerSecond = 2.5

// ScriptAssembler turns the generated section set into a complete ScriptData:
// one segment per section, concatenated content, metadata stamped with the
// generating model and timestamp. Segment times stay zero until timeline
// placement assigns real bounds.
type ScriptAssembler struct {
	cor.BaseCommand
}

// NewScriptAssembler is the constructor for the ScriptAssembler command.
func NewScriptAssembler(name string) *ScriptAssembler {
	out := &ScriptAssembler{BaseCommand: *cor.NewBaseCommand(name)}
	out.InputParamName = CtxSectionSet
	out.OutputParamName = GetScriptParameterName()
	return out
}

// IsExecutable requires the section set plus the project and template.
func (c *ScriptAssembler) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.Get(c.GetInputParam()) != nil &&
		context.Get(GetProjectParameterName()) != nil &&
		context.Get(GetTemplateParameterName()) != nil
}

func (c *ScriptAssembler) Execute(context cor.Context) {
	set := context.Get(c.GetInputParam()).(*SectionSet)
	project := context.Get(GetProjectParameterName()).(*model.Project)
	tmpl := context.Get(GetTemplateParameterName()).(*model.ScriptTemplate)

	if len(set.Sections) != len(tmpl.Sections) {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf(
			"section count mismatch: generated %d, template has %d", len(set.Sections), len(tmpl.Sections)))
		return
	}

	now := time.Now()
	segments := make([]*model.ScriptSegment, 0, len(set.Sections))
	for i, content := range set.Sections {
		segments = append(segments, &model.ScriptSegment{
			Id:      uuid.NewString(),
			Content: content,
			Type:    model.SegmentNarration,
			Notes:   string(tmpl.Sections[i].Type),
		})
	}

	script := &model.ScriptData{
		Id:        fmt.Sprintf("script_%d", now.UnixMilli()),
		ProjectId: project.Id,
		Title:     fmt.Sprintf("%s - %s", project.Name, tmpl.Name),
		Segments:  segments,
		Metadata: &model.ScriptMetadata{
			Style:          set.Params.Style,
			Tone:           set.Params.Tone,
			Length:         set.Params.Length,
			TargetAudience: set.Params.TargetAudience,
			Language:       set.Params.Language,
			Model:          set.Params.ModelId,
			GeneratedAt:    now,
			TemplateId:     tmpl.Id,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	script.Rebuild()
	script.Metadata.EstimatedDuration = float64(script.Metadata.WordCount) / narrationWordsPerSecond

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), script)
	context.Add(cor.CtxOut, script)
}
