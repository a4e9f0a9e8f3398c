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

// Package model defines the data structures for the narration engine. This
// file provides factory functions for hardcoded example instances of the
// models that are sent to the generative AI as part of "few-shot" prompts.
// Embedding a concrete example of the expected JSON shape in the prompt makes
// the model's output far more likely to parse on the first attempt.
package model

// GetExampleAnalysis returns a sample VideoAnalysis used as the few-shot JSON
// example in the vision analysis prompt.
func GetExampleAnalysis() *VideoAnalysis {
	return &VideoAnalysis{
		VideoId: "video_0001",
		Scenes: []*Scene{
			{
				Start:      0,
				End:        12.5,
				Tags:       []string{"city", "sunrise", "timelapse"},
				Type:       "landscape",
				Confidence: 0.94,
			},
			{
				Start:      12.5,
				End:        47.0,
				Tags:       []string{"kitchen", "cooking", "close-up"},
				Type:       "action",
				Confidence: 0.88,
			},
		},
		Objects: []*DetectedObject{
			{Label: "frying pan", Confidence: 0.91, FirstSeen: 14.2},
			{Label: "coffee cup", Confidence: 0.83, FirstSeen: 3.1},
		},
		Emotions: []*EmotionSample{
			{Timestamp: 20.0, Emotion: "joy", Intensity: 0.7},
		},
		Summary: "An early-morning cooking routine, opening on a city sunrise timelapse before moving into an energetic kitchen sequence.",
	}
}

// GetExampleClipPlan returns a sample ClipPlan used as the few-shot JSON
// example in the clip planning prompt.
func GetExampleClipPlan() *ClipPlan {
	return &ClipPlan{
		Suggestions: []*ClipSuggestion{
			{Start: 0, End: 8.0, Reason: "strong visual hook, keep the opening timelapse", Score: 0.92},
			{Start: 14.0, End: 32.5, Reason: "core cooking action, trims dead time before the pan shot", Score: 0.85},
		},
		TargetLength: 45,
		PacingStyle:  "normal",
	}
}
