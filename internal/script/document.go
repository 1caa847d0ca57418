/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"sort"
	"strconv"
	"strings"
)

// Scene is derived from a scene heading element.
type Scene struct {
	ElementIndex int          `json:"elementIndex"`
	Line         int          `json:"line"`   // zero-based
	Offset       int          `json:"offset"` // byte offset of the heading line in the raw text
	Heading      string       `json:"heading"`
	Number       string       `json:"number"`
	Parts        HeadingParts `json:"parts"`
	Locked       bool         `json:"locked"`
	Omitted      bool         `json:"omitted"`
}

// Document is the classified projection of a raw text buffer. It is rebuilt
// whenever the text changes and is never a second source of truth.
type Document struct {
	Text       string
	Lines      []string
	Elements   []Element
	Scenes     []Scene
	Characters []CharacterStat
}

// Options tunes Parse.
type Options struct {
	Classifier Classifier
	// SceneFlags supplies locked/omitted flags keyed by heading line.
	SceneFlags *Layer[SceneFlags]
}

// Parse builds a Document with the default classifier.
func Parse(text string) *Document { return ParseWith(text, Options{}) }

// ParseWith builds a Document. Element i always corresponds to line i.
func ParseWith(text string, opts Options) *Document {
	lines := SplitLines(text)
	d := &Document{Text: text, Lines: lines, Elements: make([]Element, len(lines))}

	next := nextNonEmpty(lines)
	for i, raw := range lines {
		t := strings.TrimSpace(raw)
		d.Elements[i] = Element{Kind: opts.Classifier.Classify(t, next[i]), Text: t}
	}
	promoteDialogue(d.Elements)
	d.Scenes = extractScenes(lines, d.Elements, opts.SceneFlags)
	d.Characters = extractCharacters(d.Elements)
	return d
}

// SplitLines splits raw text into lines, dropping a trailing carriage return
// from each. Empty text has no lines.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func nextNonEmpty(lines []string) []string {
	out := make([]string, len(lines))
	following := ""
	for i := len(lines) - 1; i >= 0; i-- {
		out[i] = following
		if t := strings.TrimSpace(lines[i]); t != "" {
			following = t
		}
	}
	return out
}

// promoteDialogue turns action-shaped lines inside a dialogue block into dialogue.
func promoteDialogue(els []Element) {
	inBlock := false
	for i := range els {
		switch els[i].Kind {
		case Character:
			inBlock = true
		case Action, General:
			if inBlock {
				els[i].Kind = Dialogue
			}
		case Parenthetical, Dialogue:
		default:
			inBlock = false
		}
	}
}

func extractScenes(lines []string, els []Element, flags *Layer[SceneFlags]) []Scene {
	var scenes []Scene
	offset := 0
	counter := 0
	for i, el := range els {
		if el.Kind == SceneHeading {
			counter++
			parts, _ := ParseSceneHeading(el.Text)
			s := Scene{
				ElementIndex: i,
				Line:         i,
				Offset:       offset,
				Heading:      el.Text,
				Number:       strconv.Itoa(counter),
				Parts:        parts,
			}
			if parts.Number != "" {
				s.Number = parts.Number
			}
			if flags != nil {
				if f, ok := flags.Get(i); ok {
					s.Locked, s.Omitted = f.Locked, f.Omitted
				}
			}
			scenes = append(scenes, s)
		}
		offset += len(lines[i]) + 1
	}
	return scenes
}

// Element returns the element on a zero-based line.
func (d *Document) Element(line int) (Element, bool) {
	if line < 0 || line >= len(d.Elements) {
		return Element{}, false
	}
	return d.Elements[line], true
}

// SceneAt returns the index of the scene containing line, or -1 before the
// first heading.
func (d *Document) SceneAt(line int) int {
	i := sort.Search(len(d.Scenes), func(i int) bool { return d.Scenes[i].Line > line })
	return i - 1
}

// CharacterNames lists character names in order of first appearance.
func (d *Document) CharacterNames() []string {
	out := make([]string, 0, len(d.Characters))
	for _, c := range d.Characters {
		out = append(out, c.Name)
	}
	return out
}
