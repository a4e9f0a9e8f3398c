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

// Package commands_test contains the test suite for the individual workflow
// commands. The end-to-end chain behavior is covered by the workflow tests;
// these tests pin down the commands with externally visible output formats.
package commands_test

import (
	"strings"
	"testing"

	"github.com/scriptweave/scriptweave/internal/core/commands"
	"github.com/scriptweave/scriptweave/internal/core/model"
	"github.com/stretchr/testify/assert"
)

func subtitleScript(contents ...string) *model.ScriptData {
	script := &model.ScriptData{Id: "script-subs", Metadata: &model.ScriptMetadata{}}
	for i, content := range contents {
		script.Segments = append(script.Segments, &model.ScriptSegment{
			Id:      "seg-" + string(rune('1'+i)),
			Content: content,
			Type:    model.SegmentNarration,
		})
	}
	script.Rebuild()
	return script
}

func TestFormatSRTTime(t *testing.T) {
	cases := map[float64]string{
		0:        "00:00:00,000",
		1.5:      "00:00:01,500",
		30:       "00:00:30,000",
		61.042:   "00:01:01,042",
		3661.999: "01:01:01,999",
		-4:       "00:00:00,000",
	}
	for in, want := range cases {
		assert.Equal(t, want, commands.FormatSRTTime(in))
	}
}

// Three segments over a 90 second timeline split into three 30 second cues.
func TestGenerateSRTEvenSplit(t *testing.T) {
	script := subtitleScript("First cue text.", "Second cue text.", "Third cue text.")
	timeline := &model.TimelineData{
		DurationSecs: 90,
		Tracks: []*model.Track{
			{Type: model.TrackVideo, Clips: []*model.Clip{{Start: 0, End: 90}}},
		},
	}

	srt := commands.GenerateSRT(script, timeline)
	want := "1\n" +
		"00:00:00,000 --> 00:00:30,000\n" +
		"First cue text.\n" +
		"\n" +
		"2\n" +
		"00:00:30,000 --> 00:01:00,000\n" +
		"Second cue text.\n" +
		"\n" +
		"3\n" +
		"00:01:00,000 --> 00:01:30,000\n" +
		"Third cue text.\n"
	assert.Equal(t, want, srt)
}

func TestGenerateSRTSubtitleTrackPreferred(t *testing.T) {
	script := subtitleScript("Opening line.", "Closing line.")
	timeline := &model.TimelineData{
		DurationSecs: 40,
		Tracks: []*model.Track{
			{Type: model.TrackVideo, Clips: []*model.Clip{{Start: 0, End: 40}}},
			{Type: model.TrackSubtitle, Clips: []*model.Clip{
				{Start: 2, End: 12, SegmentId: "seg-1"},
				{Start: 15, End: 38, SegmentId: "seg-2"},
			}},
		},
	}

	srt := commands.GenerateSRT(script, timeline)
	assert.Contains(t, srt, "00:00:02,000 --> 00:00:12,000")
	assert.Contains(t, srt, "00:00:15,000 --> 00:00:38,000")
	assert.Contains(t, srt, "Opening line.")
	assert.Contains(t, srt, "Closing line.")
}

func TestGenerateSRTEmptyScript(t *testing.T) {
	timeline := &model.TimelineData{DurationSecs: 10}
	assert.Equal(t, "", commands.GenerateSRT(nil, timeline))
	assert.Equal(t, "", commands.GenerateSRT(&model.ScriptData{}, timeline))
}

// Blank lines inside segment content would end a cue early; they collapse
// to single line breaks so the cue count stays in sync with the segments.
func TestGenerateSRTCollapsesBlankLinesInCueText(t *testing.T) {
	script := subtitleScript("Line one.\n\nLine two.", "Final cue.")
	timeline := &model.TimelineData{DurationSecs: 60}

	srt := commands.GenerateSRT(script, timeline)
	blocks := strings.Split(strings.TrimRight(srt, "\n"), "\n\n")
	assert.Len(t, blocks, 2)
	assert.Contains(t, blocks[0], "Line one.\nLine two.")
	assert.Contains(t, blocks[1], "Final cue.")
}

func TestGenerateSRTCueNumbering(t *testing.T) {
	script := subtitleScript("a", "b", "c", "d")
	timeline := &model.TimelineData{DurationSecs: 120}

	srt := commands.GenerateSRT(script, timeline)
	blocks := strings.Split(strings.TrimRight(srt, "\n"), "\n\n")
	assert.Len(t, blocks, 4)
	for i, block := range blocks {
		lines := strings.Split(block, "\n")
		assert.Equal(t, string(rune('1'+i)), lines[0])
		assert.Contains(t, lines[1], " --> ")
	}
}
