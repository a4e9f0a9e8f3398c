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
	"github.com/scriptweave/scriptweave/internal/core/cor"
	"github.com/scriptweave/scriptweave/internal/core/model"
	"github.com/scriptweave/scriptweave/internal/core/services"
)

// TemplateSelector picks the script template for a run: the caller's
// preferred template when it resolves, otherwise the registry's best match
// against the video analysis. Selection is best-effort and only fails on an
// empty registry.
type TemplateSelector struct {
	cor.BaseCommand
	registry    *services.TemplateRegistry
	preferredId string
}

// NewTemplateSelector is the constructor for the TemplateSelector command.
// preferredId may be empty.
func NewTemplateSelector(name string, registry *services.TemplateRegistry, preferredId string) *TemplateSelector {
	out := &TemplateSelector{
		BaseCommand: *cor.NewBaseCommand(name),
		registry:    registry,
		preferredId: preferredId,
	}
	out.InputParamName = GetAnalysisParameterName()
	out.OutputParamName = GetTemplateParameterName()
	return out
}

func (c *TemplateSelector) Execute(context cor.Context) {
	analysis, _ := context.Get(c.GetInputParam()).(*model.VideoAnalysis)
	progress := cor.GetProgressReporter(context)
	progress.Report(0)

	template, err := c.registry.SelectTemplate(analysis, c.preferredId)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), template)
	context.Add(cor.CtxOut, template)
	progress.Report(1)
}
