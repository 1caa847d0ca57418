/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import "strings"

// CharacterStat aggregates the dialogue of one character name.
type CharacterStat struct {
	Name                string `json:"name"`
	DialogueBlockCount  int    `json:"dialogueBlockCount"`
	WordCount           int    `json:"wordCount"`
	FirstAppearanceLine int    `json:"firstAppearanceLine"` // zero-based, -1 when only seeded
}

// extractCharacters walks each cue's dialogue block: dialogue and
// parenthetical lines only. Any other kind ends the block before it; a blank
// line ends it too and is consumed with it.
// Words are counted by splitting on single spaces, so the consumed blank line
// adds one.
func extractCharacters(els []Element) []CharacterStat {
	var stats []CharacterStat
	index := map[string]int{}
	for i, el := range els {
		if el.Kind != Character {
			continue
		}
		name := strings.ToUpper(el.Text)
		words := 0
	scan:
		for j := i + 1; j < len(els); j++ {
			switch els[j].Kind {
			case Empty:
				words += tokenCount(els[j].Text)
				break scan
			case Parenthetical:
			case Dialogue:
				words += tokenCount(els[j].Text)
			default:
				break scan
			}
		}
		idx, ok := index[name]
		if !ok {
			idx = len(stats)
			index[name] = idx
			stats = append(stats, CharacterStat{Name: name, FirstAppearanceLine: i})
		}
		stats[idx].DialogueBlockCount++
		stats[idx].WordCount += words
	}
	return stats
}

func tokenCount(s string) int {
	return len(strings.Split(strings.TrimSpace(s), " "))
}

// SeedCharacters appends externally known names (for example from a story
// bible) that the text does not mention yet. Matching is by upper-case form.
func SeedCharacters(stats []CharacterStat, names []string) []CharacterStat {
	seen := make(map[string]struct{}, len(stats))
	for _, s := range stats {
		seen[s.Name] = struct{}{}
	}
	out := append([]CharacterStat(nil), stats...)
	for _, n := range names {
		n = strings.ToUpper(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, CharacterStat{Name: n, FirstAppearanceLine: -1})
	}
	return out
}
