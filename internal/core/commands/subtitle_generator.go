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

// This file defines subtitle generation for export. The output is SubRip
// (SRT), the engine's one bit-exact external artifact: 1-based sequence
// numbers, `HH:MM:SS,mmm --> HH:MM:SS,mmm` time lines, blank line between
// cues, UTF-8.
package commands

import (
	"fmt"
	"strings"

	"github.com/scriptweave/scriptweave/internal/core/cor"
	"github.com/scriptweave/scriptweave/internal/core/model"
)

// SubtitleGenerator renders the script into SRT cue text. Cue timing prefers
// the timeline's explicit subtitle track; without one, the full timeline
// duration is split evenly across the script's segments in order.
type SubtitleGenerator struct {
	cor.BaseCommand
}

// NewSubtitleGenerator is the constructor for the SubtitleGenerator command.
func NewSubtitleGenerator(name string) *SubtitleGenerator {
	out := &SubtitleGenerator{BaseCommand: *cor.NewBaseCommand(name)}
	out.InputParamName = GetTimelineParameterName()
	out.OutputParamName = GetSubtitleParameterName()
	return out
}

// IsExecutable requires the timeline and a script to draw text from.
func (c *SubtitleGenerator) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.Get(c.GetInputParam()) != nil &&
		context.Get(GetScriptParameterName()) != nil
}

func (c *SubtitleGenerator) Execute(context cor.Context) {
	timeline := context.Get(c.GetInputParam()).(*model.TimelineData)
	script := context.Get(GetScriptParameterName()).(*model.ScriptData)

	srt := GenerateSRT(script, timeline)

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), srt)
	context.Add(cor.CtxOut, srt)
}

// GenerateSRT builds the full SRT document for a script against a timeline.
func GenerateSRT(script *model.ScriptData, timeline *model.TimelineData) string {
	if script == nil || len(script.Segments) == 0 {
		return ""
	}

	type cue struct {
		start, end float64
		text       string
	}
	var cues []cue

	track := timeline.Track(model.TrackSubtitle)
	if track != nil && len(track.Clips) > 0 {
		for _, clip := range track.Clips {
			text := ""
			if seg := script.SegmentById(clip.SegmentId); seg != nil {
				text = seg.Content
			}
			cues = append(cues, cue{start: clip.Start, end: clip.End, text: text})
		}
	} else {
		// Even time split of the whole duration across segments in order.
		share := timeline.DurationSecs / float64(len(script.Segments))
		for i, seg := range script.Segments {
			cues = append(cues, cue{
				start: float64(i) * share,
				end:   float64(i+1) * share,
				text:  seg.Content,
			})
		}
	}

	var b strings.Builder
	for i, cu := range cues {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", FormatSRTTime(cu.start), FormatSRTTime(cu.end))
		b.WriteString(sanitizeCueText(cu.text))
		b.WriteString("\n")
	}
	return b.String()
}

// sanitizeCueText keeps multi-line cue text legal SRT. A blank interior line
// would terminate the cue early and desynchronize every cue after it, so
// runs of newlines collapse to a single line break.
func sanitizeCueText(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n")
}

// FormatSRTTime renders seconds as HH:MM:SS,mmm.
func FormatSRTTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	millis := int(seconds*1000 + 0.5)
	h := millis / 3600000
	m := (millis % 3600000) / 60000
	s := (millis % 60000) / 1000
	ms := millis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
