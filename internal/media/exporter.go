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

// Package media wraps the local ffmpeg binary behind the media-export
// capability and provides upload-time format sniffing. FFmpeg is particular
// about file extensions, so the exporter stages its input through a temp
// file whose extension matches the sniffed container format before invoking
// the binary.
package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/scriptweave/scriptweave/internal/core/model"
)

// Exporter renders a timeline into a media file on disk. Implementations
// must honor context cancellation between and during invocations.
type Exporter interface {
	Export(ctx context.Context, timeline *model.TimelineData, sourcePath string, settings model.ExportSettings, outputPath string) error
}

const tempFilePrefix = "scriptweave-export-"

// qualityPresets maps the quality tiers to x264 CRF values. Lower is better.
var qualityPresets = map[string]string{
	"high":   "18",
	"medium": "23",
	"low":    "28",
}

// FFmpegExporter shells out to ffmpeg for rendering.
type FFmpegExporter struct {
	commandPath string
}

// NewFFmpegExporter builds an exporter around the ffmpeg binary at
// commandPath ("ffmpeg" resolves via PATH).
func NewFFmpegExporter(commandPath string) *FFmpegExporter {
	if commandPath == "" {
		commandPath = "ffmpeg"
	}
	return &FFmpegExporter{commandPath: commandPath}
}

// Export re-encodes the source video at the requested resolution and frame
// rate, concatenating the timeline's video-track clips in order. The output
// is written to a temp file first and moved into place only on success, so
// a failed render never leaves a partial file at outputPath.
func (e *FFmpegExporter) Export(ctx context.Context, timeline *model.TimelineData, sourcePath string, settings model.ExportSettings, outputPath string) error {
	staged, cleanup, err := stageInput(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to stage export input: %w", err)
	}
	defer cleanup()

	tempOut, err := os.CreateTemp(filepath.Dir(outputPath), tempFilePrefix+"*."+settings.Format)
	if err != nil {
		return fmt.Errorf("failed to create output temp file: %w", err)
	}
	tempOut.Close()
	defer os.Remove(tempOut.Name())

	args := buildArgs(staged, timeline, settings, tempOut.Name())
	cmd := exec.CommandContext(ctx, e.commandPath, args...)
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("error running ffmpeg: %w", err)
	}
	if err := moveFile(tempOut.Name(), outputPath); err != nil {
		return fmt.Errorf("failed to place export output: %w", err)
	}
	return nil
}

// buildArgs assembles the ffmpeg invocation. When the timeline carries video
// clips a trim/concat filter graph is produced, otherwise the source is
// re-encoded whole.
func buildArgs(inputPath string, timeline *model.TimelineData, settings model.ExportSettings, outputPath string) []string {
	args := []string{
		"-analyzeduration", "0",
		"-probesize", "5000000",
		"-y",
		"-hide_banner",
		"-i", inputPath,
	}

	scale := scaleFilter(settings.Resolution)

	clips := videoClips(timeline)
	if len(clips) > 0 {
		var graph strings.Builder
		for i, clip := range clips {
			fmt.Fprintf(&graph, "[0:v]trim=start=%s:end=%s,setpts=PTS-STARTPTS[v%d];",
				formatSeconds(clip.Start), formatSeconds(clip.End), i)
		}
		for i := range clips {
			fmt.Fprintf(&graph, "[v%d]", i)
		}
		fmt.Fprintf(&graph, "concat=n=%d:v=1:a=0,%s[out]", len(clips), scale)
		args = append(args, "-filter_complex", graph.String(), "-map", "[out]")
	} else {
		args = append(args, "-filter:v", scale)
	}

	if crf, ok := qualityPresets[strings.ToLower(settings.Quality)]; ok {
		args = append(args, "-crf", crf)
	}
	format := settings.Format
	if format == "" {
		format = "mp4"
	}
	args = append(args, "-f", format, outputPath)
	return args
}

// scaleFilter turns a "WIDTHxHEIGHT" resolution into a scale filter keeping
// the aspect ratio and an even height. Malformed values fall back to 1080p.
func scaleFilter(resolution string) string {
	width := "1920"
	if w, _, ok := strings.Cut(strings.ToLower(resolution), "x"); ok {
		if _, err := strconv.Atoi(w); err == nil {
			width = w
		}
	}
	return fmt.Sprintf("scale=w=%s:h=trunc(ow/a/2)*2", width)
}

func videoClips(timeline *model.TimelineData) []*model.Clip {
	if timeline == nil {
		return nil
	}
	track := timeline.Track(model.TrackVideo)
	if track == nil {
		return nil
	}
	return track.Clips
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// stageInput copies the source into a temp file carrying the sniffed
// container extension and returns the staged path plus a cleanup func.
func stageInput(sourcePath string) (string, func(), error) {
	ext, err := SniffExtension(sourcePath)
	if err != nil {
		return "", nil, err
	}
	in, err := os.Open(sourcePath)
	if err != nil {
		return "", nil, err
	}
	defer in.Close()

	staged, err := os.CreateTemp("", tempFilePrefix+"in-*."+ext)
	if err != nil {
		return "", nil, err
	}
	if _, err := io.Copy(staged, in); err != nil {
		staged.Close()
		os.Remove(staged.Name())
		return "", nil, err
	}
	if err := staged.Close(); err != nil {
		os.Remove(staged.Name())
		return "", nil, err
	}
	return staged.Name(), func() { os.Remove(staged.Name()) }, nil
}

func moveFile(sourcePath, destPath string) error {
	if err := os.Rename(sourcePath, destPath); err == nil {
		return nil
	}
	// Rename fails across filesystems, fall back to copy+remove.
	in, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("could not open source file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("could not open dest file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("could not copy to dest from source: %w", err)
	}
	in.Close()
	return os.Remove(sourcePath)
}
