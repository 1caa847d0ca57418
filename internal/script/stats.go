/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"math"
	"strings"
)

// LinesPerPage is the page estimate constant shared with pagination.
const LinesPerPage = 56

// Stats are the live counters shown next to the editor.
type Stats struct {
	Words           int `json:"words"`
	Pages           int `json:"pages"`
	DialoguePercent int `json:"dialoguePercent"`
}

// ComputeStats works on the raw text only, independent of any Document.
// DialoguePercent is the share of non-empty lines that are not scene
// headings, character cues or transitions.
func ComputeStats(text string) Stats {
	var st Stats
	if strings.TrimSpace(text) == "" {
		return st
	}
	st.Words = len(strings.Fields(text))
	lines := SplitLines(text)
	st.Pages = int(math.Ceil(float64(len(lines)) / LinesPerPage))

	next := nextNonEmpty(lines)
	nonEmpty, spoken := 0, 0
	for i, l := range lines {
		t := strings.TrimSpace(l)
		if t == "" {
			continue
		}
		nonEmpty++
		switch Classify(t, next[i]) {
		case SceneHeading, Character, Transition:
		default:
			spoken++
		}
	}
	if nonEmpty > 0 {
		st.DialoguePercent = int(math.Round(float64(spoken) * 100 / float64(nonEmpty)))
	}
	return st
}
