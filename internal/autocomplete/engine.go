/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package autocomplete offers completions for the line under the caret:
// character names, scene heading prefixes and transition phrases.
package autocomplete

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"goscreenwriter/internal/script"
)

// ScenePrefixes are the canonical scene heading prefixes offered for completion.
var ScenePrefixes = []string{"INT.", "EXT.", "INT./EXT.", "I/E."}

// Source tells which check produced a suggestion list.
type Source int

const (
	SourceNone Source = iota
	SourceCharacter
	SourceSceneHeading
	SourceTransition
)

func (s Source) String() string {
	switch s {
	case SourceCharacter:
		return "character"
	case SourceSceneHeading:
		return "sceneHeading"
	case SourceTransition:
		return "transition"
	default:
		return "none"
	}
}

// Suggestions is the result of one completion pass.
type Suggestions struct {
	Source Source
	Items  []string
}

// Empty reports whether nothing should be shown.
func (s Suggestions) Empty() bool { return len(s.Items) == 0 }

// Engine combines names found in the document with externally known names.
type Engine struct {
	known []string
}

// NewEngine returns an engine seeded with known character names (for example
// titles from a story bible). The list is not validated.
func NewEngine(known []string) *Engine {
	return &Engine{known: append([]string(nil), known...)}
}

// SetKnown replaces the externally supplied names.
func (e *Engine) SetKnown(known []string) { e.known = append([]string(nil), known...) }

// Suggest runs the checks against line using the characters of doc.
func (e *Engine) Suggest(line string, doc *script.Document) Suggestions {
	var names []string
	if doc != nil {
		names = doc.CharacterNames()
	}
	return Suggest(line, mergeNames(names, e.known))
}

// Suggest runs the mutually exclusive checks in order: character names,
// scene heading prefixes, transitions. A check that applies but finds no
// candidate falls through to the next one.
func Suggest(line string, names []string) Suggestions {
	line = strings.TrimLeftFunc(line, unicode.IsSpace)
	if items := characterCandidates(line, names); len(items) > 0 {
		return Suggestions{Source: SourceCharacter, Items: items}
	}
	if items := sceneCandidates(line); len(items) > 0 {
		return Suggestions{Source: SourceSceneHeading, Items: items}
	}
	if items := transitionCandidates(line); len(items) > 0 {
		return Suggestions{Source: SourceTransition, Items: items}
	}
	return Suggestions{}
}

func characterCandidates(line string, names []string) []string {
	if line == "" || utf8.RuneCountInString(line) < 2 || !script.IsUpper(line) {
		return nil
	}
	last, _ := utf8.DecodeLastRuneInString(line)
	if unicode.IsSpace(last) {
		return nil
	}
	var out []string
	for _, n := range names {
		u := strings.ToUpper(n)
		if u != line && strings.HasPrefix(u, line) {
			out = append(out, u)
		}
	}
	return out
}

func sceneCandidates(line string) []string {
	upper := strings.ToUpper(strings.TrimSpace(line))
	if !strings.HasPrefix(upper, "INT") && !strings.HasPrefix(upper, "EXT") && !strings.HasPrefix(upper, "I/E") {
		return nil
	}
	for _, p := range ScenePrefixes {
		if upper == p {
			return nil
		}
	}
	var out []string
	for _, p := range ScenePrefixes {
		if strings.HasPrefix(p, upper) {
			out = append(out, p)
		}
	}
	return out
}

func transitionCandidates(line string) []string {
	upper := strings.ToUpper(strings.TrimSpace(line))
	if upper == "" {
		return nil
	}
	if !strings.HasSuffix(upper, ":") && !strings.Contains(upper, "CUT") &&
		!strings.Contains(upper, "FADE") && !strings.Contains(upper, "DISSOLVE") {
		return nil
	}
	first := firstToken(upper)
	var out []string
	for _, v := range script.TransitionVocabulary {
		if strings.HasPrefix(v, upper) || firstToken(v) == first {
			out = append(out, v)
		}
	}
	return out
}

func firstToken(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}

func mergeNames(lists ...[]string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, l := range lists {
		for _, n := range l {
			u := strings.ToUpper(strings.TrimSpace(n))
			if u == "" {
				continue
			}
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			out = append(out, u)
		}
	}
	return out
}
