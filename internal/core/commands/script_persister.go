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

	"github.com/scriptweave/scriptweave/internal/core/cor"
	"github.com/scriptweave/scriptweave/internal/core/model"
	"github.com/scriptweave/scriptweave/internal/core/services"
)

// ScriptPersister appends the generated script to the owning project's script
// list. This is the mandatory save of the pipeline: a persistence failure
// here is fatal to the run.
type ScriptPersister struct {
	cor.BaseCommand
	projects *services.ProjectService
}

// NewScriptPersister is the constructor for the ScriptPersister command.
func NewScriptPersister(name string, projects *services.ProjectService) *ScriptPersister {
	out := &ScriptPersister{
		BaseCommand: *cor.NewBaseCommand(name),
		projects:    projects,
	}
	out.InputParamName = GetScriptParameterName()
	out.OutputParamName = GetScriptParameterName()
	return out
}

func (c *ScriptPersister) Execute(context cor.Context) {
	script := context.Get(c.GetInputParam()).(*model.ScriptData)

	if err := c.projects.SaveScript(script); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to persist script %s: %w", script.Id, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), script)
	context.Add(cor.CtxOut, script)
}
