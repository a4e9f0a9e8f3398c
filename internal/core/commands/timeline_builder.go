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
	"github.com/scriptweave/scriptweave/internal/gen"
)

// TimelineBuilder assembles the final cut. With auto-clip on and a usable
// plan, the plan's suggestions become the video track; otherwise the whole
// source video is a single clip. Clips on a track come out ordered and
// non-overlapping. A subtitle track is only added when script segments carry
// assigned time bounds; without one, subtitle generation falls back to an
// even time split at export.
type TimelineBuilder struct {
	cor.BaseCommand
	config gen.ClipConfig
}

// NewTimelineBuilder is the constructor for the TimelineBuilder command.
func NewTimelineBuilder(name string, config gen.ClipConfig) *TimelineBuilder {
	out := &TimelineBuilder{
		BaseCommand: *cor.NewBaseCommand(name),
		config:      config,
	}
	out.InputParamName = GetVideoParameterName()
	out.OutputParamName = GetTimelineParameterName()
	return out
}

func (c *TimelineBuilder) Execute(context cor.Context) {
	video := context.Get(c.GetInputParam()).(*model.VideoInfo)
	plan, _ := context.Get(GetClipPlanParameterName()).(*model.ClipPlan)
	script, _ := context.Get(GetScriptParameterName()).(*model.ScriptData)

	videoTrack := &model.Track{Type: model.TrackVideo, Clips: c.videoClips(video, plan)}
	duration := 0.0
	for _, clip := range videoTrack.Clips {
		duration += clip.End - clip.Start
	}

	timeline := &model.TimelineData{
		DurationSecs: duration,
		Tracks: []*model.Track{
			videoTrack,
			{Type: model.TrackAudio, Clips: cloneClips(videoTrack.Clips)},
		},
	}

	if subs := subtitleClips(script); len(subs) > 0 {
		timeline.Tracks = append(timeline.Tracks, &model.Track{Type: model.TrackSubtitle, Clips: subs})
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), timeline)
	context.Add(cor.CtxOut, timeline)
}

// videoClips applies the clip plan when auto-clip is on and the plan is
// usable. Suggestions are already ordered by start time; overlaps are closed
// by clamping each clip's start to the previous end.
func (c *TimelineBuilder) videoClips(video *model.VideoInfo, plan *model.ClipPlan) []*model.Clip {
	if !c.config.AutoClip || plan == nil || plan.Degraded || len(plan.Suggestions) == 0 {
		return []*model.Clip{{Start: 0, End: video.DurationSecs}}
	}
	clips := make([]*model.Clip, 0, len(plan.Suggestions))
	prevEnd := 0.0
	for _, s := range plan.Suggestions {
		start := s.Start
		if start < prevEnd {
			start = prevEnd
		}
		if s.End <= start {
			continue
		}
		clips = append(clips, &model.Clip{Start: start, End: s.End})
		prevEnd = s.End
	}
	if len(clips) == 0 {
		return []*model.Clip{{Start: 0, End: video.DurationSecs}}
	}
	return clips
}

// subtitleClips maps time-placed script segments onto a subtitle track.
// Segments without assigned bounds produce no track at all.
func subtitleClips(script *model.ScriptData) []*model.Clip {
	if script == nil {
		return nil
	}
	var out []*model.Clip
	for _, seg := range script.Segments {
		if seg.EndTime <= seg.StartTime {
			return nil
		}
		out = append(out, &model.Clip{Start: seg.StartTime, End: seg.EndTime, SegmentId: seg.Id})
	}
	return out
}

func cloneClips(in []*model.Clip) []*model.Clip {
	out := make([]*model.Clip, len(in))
	for i, c := range in {
		clone := *c
		out[i] = &clone
	}
	return out
}
