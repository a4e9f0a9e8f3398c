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

// This file holds the application state container and its initialization:
// configuration loading, the SQLite store, GenAI clients, the template
// registry, the workflow controller, and the run registry.
package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/scriptweave/scriptweave/internal/core/services"
	"github.com/scriptweave/scriptweave/internal/core/workflow"
	"github.com/scriptweave/scriptweave/internal/gen"
	"github.com/scriptweave/scriptweave/internal/media"
	"github.com/scriptweave/scriptweave/internal/storage"
)

// StateManager holds the shared dependencies of the server process.
type StateManager struct {
	config    *gen.Config
	clients   *gen.ServiceClients
	store     *storage.Store
	projects  *services.ProjectService
	templates *services.TemplateRegistry
	runs      *workflow.Registry
}

// state is the single instance of StateManager for the process.
var state = &StateManager{}

// SetupOS points the configuration loader at the configs directory and the
// default runtime. Already-set environment variables win.
func SetupOS() error {
	if os.Getenv(gen.EnvConfigFilePrefix) == "" {
		if err := os.Setenv(gen.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if os.Getenv(gen.EnvConfigRuntime) == "" {
		return os.Setenv(gen.EnvConfigRuntime, "local")
	}
	return nil
}

// GetConfig loads the application configuration once and caches it.
func GetConfig() *gen.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to set up environment: %v\n", err)
		}
		config := gen.NewConfig()
		gen.LoadConfig(config)
		state.config = config
	}
	return state.config
}

// InitState builds every service the server depends on and wires the
// workflow controller. It panics on unrecoverable setup failures; there is
// no useful degraded mode for a server without its store or models.
func InitState(ctx context.Context) {
	config := GetConfig()

	if config.Application.DataDir != "" {
		if err := os.MkdirAll(config.Application.DataDir, 0o755); err != nil {
			panic(err)
		}
	}

	dbPath := config.Storage.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(config.Application.DataDir, "scriptweave.db")
	}
	store, err := storage.Open(dbPath)
	if err != nil {
		panic(err)
	}
	state.store = store
	state.projects = services.NewProjectService(store)
	state.templates = services.NewTemplateRegistry(nil)

	clients, err := gen.NewServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}
	state.clients = clients

	creative, err := clients.Model(gen.ModelCreative)
	if err != nil {
		panic(err)
	}
	rewrite, err := clients.Model(gen.ModelRewrite)
	if err != nil {
		panic(err)
	}
	visionModel, err := clients.Model(gen.ModelVision)
	if err != nil {
		panic(err)
	}
	vision, err := gen.NewGeminiVision(visionModel, gen.NewGenAIFileStore(clients.GenAIClient), config.PromptTemplates.Analysis)
	if err != nil {
		panic(err)
	}

	exporter := media.NewFFmpegExporter(config.Storage.FFmpegPath)

	controller := workflow.NewController(
		config,
		state.projects,
		state.templates,
		vision,
		creative,
		rewrite,
		exporter,
	)
	state.runs = workflow.NewRegistry(controller)
}
