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

// Package api exposes the narration engine to the UI layer over REST. The
// handlers are a thin translation layer: they parse requests, call the
// services and the workflow registry, and shape JSON responses. All pipeline
// semantics live below this package.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scriptweave/scriptweave/internal/core/commands"
	"github.com/scriptweave/scriptweave/internal/core/services"
	"github.com/scriptweave/scriptweave/internal/core/workflow"
	"github.com/scriptweave/scriptweave/internal/storage"
)

// Handlers bundles the dependencies the route handlers need.
type Handlers struct {
	Projects  *services.ProjectService
	Templates *services.TemplateRegistry
	Runs      *workflow.Registry
	// BaseCtx is the application root context. Runs launch under it, not
	// under the HTTP request context, so they outlive the starting request
	// and stop on server shutdown.
	BaseCtx context.Context
}

// Register wires every route under the given group.
func (h *Handlers) Register(r *gin.RouterGroup) {
	h.projectRouter(r)
	h.runRouter(r)
	h.templateRouter(r)
}

// createProjectRequest is the body of POST /projects.
type createProjectRequest struct {
	Name string `json:"name" binding:"required"`
}

// attachVideoRequest is the body of POST /projects/:id/videos. The file is
// expected to already exist on local disk (the UI shell owns file dialogs);
// the engine sniffs and registers it.
type attachVideoRequest struct {
	Path         string  `json:"path" binding:"required"`
	DurationSecs float64 `json:"duration_seconds"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
}

// startRunRequest is the body of POST /runs.
type startRunRequest struct {
	ProjectId           string `json:"project_id" binding:"required"`
	PreferredTemplateId string `json:"preferred_template_id"`
	Style               string `json:"style"`
	Tone                string `json:"tone"`
	Length              string `json:"length"`
	TargetAudience      string `json:"target_audience"`
	Language            string `json:"language"`
}

func (h *Handlers) projectRouter(r *gin.RouterGroup) {
	projects := r.Group("/projects")
	{
		projects.POST("", func(c *gin.Context) {
			var req createProjectRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			project, err := h.Projects.Create(req.Name)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusCreated, project)
		})

		projects.GET("/:id", func(c *gin.Context) {
			project, err := h.Projects.Get(c.Param("id"))
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					c.Status(http.StatusNotFound)
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, project)
		})

		projects.POST("/:id/videos", func(c *gin.Context) {
			var req attachVideoRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			project, err := h.Projects.Get(c.Param("id"))
			if err != nil {
				c.Status(http.StatusNotFound)
				return
			}
			video, err := h.Projects.AttachVideo(project, req.Path, services.VideoProbe{
				DurationSecs: req.DurationSecs,
				Width:        req.Width,
				Height:       req.Height,
			})
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusCreated, video)
		})

		projects.GET("/:id/exports", func(c *gin.Context) {
			records, err := h.Projects.Exports(c.Param("id"))
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, records)
		})
	}
}

func (h *Handlers) runRouter(r *gin.RouterGroup) {
	runs := r.Group("/runs")
	{
		runs.POST("", func(c *gin.Context) {
			var req startRunRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			project, err := h.Projects.Get(req.ProjectId)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
				return
			}
			if project.Video == nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "project has no uploaded video"})
				return
			}
			run := h.Runs.Start(h.BaseCtx, project, workflow.Options{
				PreferredTemplateId: req.PreferredTemplateId,
				Params: commands.GenerationParams{
					Style:          req.Style,
					Tone:           req.Tone,
					Length:         req.Length,
					TargetAudience: req.TargetAudience,
					Language:       req.Language,
				},
			})
			c.JSON(http.StatusAccepted, run.Snapshot())
		})

		runs.GET("/:id", func(c *gin.Context) {
			run, err := h.Runs.Get(c.Param("id"))
			if err != nil {
				c.Status(http.StatusNotFound)
				return
			}
			c.JSON(http.StatusOK, run.Snapshot())
		})

		runs.POST("/:id/cancel", func(c *gin.Context) {
			if err := h.Runs.Cancel(c.Param("id")); err != nil {
				c.Status(http.StatusNotFound)
				return
			}
			c.Status(http.StatusAccepted)
		})
	}
}

func (h *Handlers) templateRouter(r *gin.RouterGroup) {
	templates := r.Group("/templates")
	{
		templates.GET("", func(c *gin.Context) {
			c.JSON(http.StatusOK, h.Templates.List())
		})

		templates.GET("/:id", func(c *gin.Context) {
			t := h.Templates.Get(c.Param("id"))
			if t == nil {
				c.Status(http.StatusNotFound)
				return
			}
			c.JSON(http.StatusOK, t)
		})
	}
}
