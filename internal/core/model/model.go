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

// Package model defines the core data structures for the narration engine.
// These objects flow through the workflow chain: a video is analyzed, a
// template is selected, a script is generated section by section, the script
// is checked for originality and uniqueness, a timeline is assembled, and the
// result is exported together with an append-only export record.
//
// A few structural rules are load-bearing:
//   - ScriptData.Id is stable for the lifetime of a run. Rewrite passes
//     (originality auto-fix, uniqueness enforcement) may replace segment
//     content and bump UpdatedAt, but never the id.
//   - OriginalityReport and UniquenessCheck are derived values. They are
//     recomputed from current script content on demand and are never treated
//     as authoritative persisted state.
//   - ExportRecord history is append-only.
package model

import "time"

// SectionType identifies the structural role of a template section.
type SectionType string

const (
	SectionHook       SectionType = "hook"
	SectionIntro      SectionType = "intro"
	SectionBody       SectionType = "body"
	SectionTransition SectionType = "transition"
	SectionConclusion SectionType = "conclusion"
	SectionCTA        SectionType = "cta"
)

// SegmentType identifies the delivery style of a generated script segment.
type SegmentType string

const (
	SegmentNarration SegmentType = "narration"
	SegmentAction    SegmentType = "action"
	SegmentDialogue  SegmentType = "dialogue"
)

// FindingType identifies which duplicate-detection strategy produced a finding.
type FindingType string

const (
	FindingExact    FindingType = "exact"
	FindingSemantic FindingType = "semantic"
	FindingTemplate FindingType = "template"
)

// VideoInfo describes an uploaded source video. It is immutable once the
// upload completes; the owning run only reads from it.
type VideoInfo struct {
	Id            string  `json:"id"`
	ProjectId     string  `json:"project_id"`
	Path          string  `json:"path"`
	DurationSecs  float64 `json:"duration_seconds"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	Format        string  `json:"format"`
	SizeBytes     int64   `json:"size_bytes"`
	ThumbnailPath string  `json:"thumbnail_path,omitempty"`
}

// Scene is one detected scene within the source video.
type Scene struct {
	Start      float64  `json:"start"`      // Offset from the beginning of the video, in seconds.
	End        float64  `json:"end"`        // End offset in seconds. Always >= Start.
	Tags       []string `json:"tags,omitempty"`
	Type       string   `json:"type,omitempty"` // e.g. "action", "dialogue", "landscape".
	Confidence float64  `json:"confidence"`     // Detector confidence in [0,1].
}

// DetectedObject is a single object recognized somewhere in the video.
type DetectedObject struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	FirstSeen  float64 `json:"first_seen"` // Seconds offset of the first appearance.
}

// EmotionSample is a point-in-time emotion reading from the vision analyzer.
type EmotionSample struct {
	Timestamp float64 `json:"timestamp"`
	Emotion   string  `json:"emotion"`
	Intensity float64 `json:"intensity"`
}

// VideoAnalysis is the full output of the vision capability for one video.
// It is produced once per video and cached on the owning project.
type VideoAnalysis struct {
	VideoId  string            `json:"video_id"`
	Scenes   []*Scene          `json:"scenes"`
	Objects  []*DetectedObject `json:"objects,omitempty"`
	Emotions []*EmotionSample  `json:"emotions,omitempty"`
	Summary  string            `json:"summary"`
}

// TemplateSection is one structural slot of a script template. Duration and
// word-count shares describe targets for the generator, not hard limits.
type TemplateSection struct {
	Type             SectionType `json:"type"`
	DurationFraction float64     `json:"duration_fraction"` // Share of total video duration this section should cover; fractions of a template sum to 1.
	TargetWordCount  int         `json:"target_word_count"`
	WritingTips      string      `json:"writing_tips,omitempty"`
}

// ScriptTemplate is read-only reference data describing the structure of a
// script. Templates live in the template registry and are never mutated by
// workflow runs.
type ScriptTemplate struct {
	Id          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Tags        []string           `json:"tags,omitempty"`
	Sections    []*TemplateSection `json:"sections"`
}

// ScriptSegment is one generated block of a script. StartTime/EndTime are
// placeholders until timeline placement assigns real bounds; a zero EndTime
// means the segment has not been time-placed yet.
type ScriptSegment struct {
	Id        string      `json:"id"`
	StartTime float64     `json:"start_time"`
	EndTime   float64     `json:"end_time"`
	Content   string      `json:"content"`
	Type      SegmentType `json:"type"`
	Notes     string      `json:"notes,omitempty"`
}

// ScriptMetadata carries the generation parameters and bookkeeping for a
// script. WordCount is recomputed whenever segment content changes.
type ScriptMetadata struct {
	Style             string    `json:"style"`
	Tone              string    `json:"tone"`
	Length            string    `json:"length"` // One of "short", "medium", "long".
	TargetAudience    string    `json:"target_audience"`
	Language          string    `json:"language"`
	WordCount         int       `json:"word_count"`
	EstimatedDuration float64   `json:"estimated_duration"` // Seconds of narration, estimated from word count.
	Model             string    `json:"model"`              // Id of the generating model.
	GeneratedAt       time.Time `json:"generated_at"`
	TemplateId        string    `json:"template_id,omitempty"`
}

// ScriptData is a complete generated script. Content is always the
// concatenation of the segment contents in order. Rewrite operations replace
// segment content in place, preserve Id, and bump UpdatedAt.
type ScriptData struct {
	Id        string           `json:"id"`
	ProjectId string           `json:"project_id"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	Segments  []*ScriptSegment `json:"segments"`
	Metadata  *ScriptMetadata  `json:"metadata"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Rebuild recomputes the derived fields of the script (full content and word
// count) from the current segment contents. Call it after any segment-level
// rewrite so that Content never drifts out of sync with Segments.
func (s *ScriptData) Rebuild() {
	content := ""
	words := 0
	for i, seg := range s.Segments {
		if i > 0 {
			content += "\n\n"
		}
		content += seg.Content
		words += countWords(seg.Content)
	}
	s.Content = content
	if s.Metadata != nil {
		s.Metadata.WordCount = words
	}
}

// Clone returns a deep copy of the script. Segments and metadata are copied
// too, so mutating the clone never reaches the original.
func (s *ScriptData) Clone() *ScriptData {
	out := *s
	out.Segments = make([]*ScriptSegment, len(s.Segments))
	for i, seg := range s.Segments {
		clone := *seg
		out.Segments[i] = &clone
	}
	if s.Metadata != nil {
		meta := *s.Metadata
		out.Metadata = &meta
	}
	return &out
}

// SegmentById returns the segment carrying the given id, or nil.
func (s *ScriptData) SegmentById(id string) *ScriptSegment {
	for _, seg := range s.Segments {
		if seg.Id == id {
			return seg
		}
	}
	return nil
}

// countWords counts whitespace-delimited words.
func countWords(in string) int {
	count := 0
	inWord := false
	for _, r := range in {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			inWord = false
			continue
		}
		if !inWord {
			count++
			inWord = true
		}
	}
	return count
}

// DuplicateFinding is one detected duplication issue inside a script.
type DuplicateFinding struct {
	Id         string      `json:"id"`
	Type       FindingType `json:"type"`
	SegmentId  string      `json:"segment_id"` // The offending segment.
	Content    string      `json:"content"`    // The duplicated text fragment.
	Similarity float64     `json:"similarity"` // [0,1]; 1.0 for exact matches.
	Suggestion string      `json:"suggestion"`
}

// OriginalityReport is the derived output of the originality engine. Score is
// in [0,100] and is monotonically non-increasing under additional findings.
type OriginalityReport struct {
	Score       int                 `json:"score"`
	Findings    []*DuplicateFinding `json:"findings"`
	Suggestions []string            `json:"suggestions"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// UniquenessCheck is the outcome of comparing a script against the historical
// corpus of previously generated scripts.
type UniquenessCheck struct {
	IsUnique   bool    `json:"is_unique"`
	Similarity float64 `json:"similarity"` // Highest similarity seen against the corpus, in [0,1].
	Attempts   int     `json:"attempts"`   // Number of checks performed, >= 1.
}

// TrackType identifies the kind of content a timeline track holds.
type TrackType string

const (
	TrackVideo    TrackType = "video"
	TrackAudio    TrackType = "audio"
	TrackSubtitle TrackType = "subtitle"
)

// Clip is one time-bounded placement on a timeline track. Clips on a track
// are ordered and non-overlapping.
type Clip struct {
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	SegmentId string  `json:"segment_id,omitempty"` // Optional reference into the script.
}

// Track is one ordered lane of clips on the timeline.
type Track struct {
	Type  TrackType `json:"type"`
	Clips []*Clip   `json:"clips"`
}

// TimelineData describes the final cut to be exported.
type TimelineData struct {
	DurationSecs float64  `json:"duration_seconds"`
	Tracks       []*Track `json:"tracks"`
}

// Track returns the first track of the given type, or nil.
func (t *TimelineData) Track(kind TrackType) *Track {
	for _, track := range t.Tracks {
		if track.Type == kind {
			return track
		}
	}
	return nil
}

// ClipSuggestion is one recommended cut produced by the AI clip planner.
type ClipSuggestion struct {
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Reason string  `json:"reason,omitempty"`
	Score  float64 `json:"score"` // Planner confidence in [0,1].
}

// ClipPlan is the full output of the clip planning step. Degraded is set when
// planning failed and the run continued without suggestions; callers branch
// on that marker instead of on an error.
type ClipPlan struct {
	Suggestions  []*ClipSuggestion `json:"suggestions"`
	TargetLength float64           `json:"target_length,omitempty"` // Desired output duration in seconds, 0 when unconstrained.
	PacingStyle  string            `json:"pacing_style,omitempty"`  // One of "fast", "normal", "slow".
	Degraded     bool              `json:"degraded"`
	DegradedWhy  string            `json:"degraded_why,omitempty"`
}

// ExportSettings selects the output container, quality tier, and resolution
// for an export, plus whether a subtitle track should be produced.
type ExportSettings struct {
	Format           string `json:"format"`     // e.g. "mp4", "webm".
	Quality          string `json:"quality"`    // e.g. "high", "medium", "low".
	Resolution       string `json:"resolution"` // e.g. "1920x1080".
	IncludeSubtitles bool   `json:"include_subtitles"`
}

// ExportRecord is one entry in the append-only export history.
type ExportRecord struct {
	Id           string    `json:"id"`
	ProjectId    string    `json:"project_id"`
	Format       string    `json:"format"`
	Quality      string    `json:"quality"`
	Resolution   string    `json:"resolution"`
	OutputPath   string    `json:"output_path"`
	FileSize     int64     `json:"file_size"`
	TrackCount   int       `json:"track_count"`
	ClipCount    int       `json:"clip_count"`
	DurationSecs float64   `json:"duration_seconds"`
	CreatedAt    time.Time `json:"created_at"`
}

// Project groups a video, its cached analysis, and the scripts generated for
// it. The persisted script list is append-only or keyed-replace (by script
// id); it is the only cross-run shared resource.
type Project struct {
	Id        string         `json:"id"`
	Name      string         `json:"name"`
	Video     *VideoInfo     `json:"video,omitempty"`
	Analysis  *VideoAnalysis `json:"analysis,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
