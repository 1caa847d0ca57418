/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// HeadingParts is a scene heading split into its conventional parts.
// Example: "12A. INT. HOUSE - KITCHEN - NIGHT" yields Number "12A",
// Prefix "INT", Location "HOUSE - KITCHEN", Time "NIGHT".
type HeadingParts struct {
	Number   string `json:"number,omitempty"`
	Prefix   string `json:"prefix"`
	Location string `json:"location,omitempty"`
	Time     string `json:"time,omitempty"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type headingGrammar struct {
	Number   string            `@Number?`
	Prefix   string            `@Prefix`
	Location []string          `@(Word | Number | Prefix)*`
	Segments []*headingSegment `( Dash @@ )*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type headingSegment struct {
	Words []string `@(Word | Number | Prefix)+`
}

// Number tokens carry their trailing blank so that "ROOM 7" keeps 7 a word.
// Dash only matches a standalone dash, "SMITH-JONES" stays one word.
var headingLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Prefix", Pattern: `(?i)(?:INT\.?/EXT|I/E|INT|EXT)(?:\.|\b)`},
	{Name: "Number", Pattern: `\d+[A-Za-z]?\.?\s`},
	{Name: "Dash", Pattern: `-+(?:\s|$)`},
	{Name: "Word", Pattern: `\S+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var headingParser = participle.MustBuild[headingGrammar](
	participle.Lexer(headingLexer),
	participle.Elide("Whitespace"),
)

// ParseSceneHeading splits a heading line. ok is false when line is not a
// scene heading. Headings the grammar rejects (for example a trailing dash)
// fall back to a plain split on " - ".
func ParseSceneHeading(line string) (HeadingParts, bool) {
	line = strings.TrimSpace(line)
	if !IsSceneHeading(line) {
		return HeadingParts{}, false
	}
	parsed, err := headingParser.ParseString("", line)
	if err != nil {
		return splitHeading(line), true
	}
	h := HeadingParts{
		Number: normalizeSceneNumber(parsed.Number),
		Prefix: normalizePrefix(parsed.Prefix),
	}
	parts := []string{joinWords(parsed.Location)}
	for _, seg := range parsed.Segments {
		parts = append(parts, joinWords(seg.Words))
	}
	if len(parts) > 1 {
		h.Time = parts[len(parts)-1]
		parts = parts[:len(parts)-1]
	}
	h.Location = strings.TrimSpace(strings.Join(parts, " - "))
	return h, true
}

// SceneNumber returns the explicit leading scene number of a heading, or "".
func SceneNumber(line string) string {
	h, ok := ParseSceneHeading(line)
	if !ok {
		return ""
	}
	return h.Number
}

func splitHeading(line string) HeadingParts {
	var h HeadingParts
	loc := sceneHeadingRe.FindStringIndex(line)
	head, rest := line[:loc[1]], strings.TrimSpace(line[loc[1]:])
	fields := strings.Fields(head)
	if len(fields) > 1 {
		h.Number = normalizeSceneNumber(fields[0])
		h.Prefix = normalizePrefix(fields[len(fields)-1])
	} else {
		h.Prefix = normalizePrefix(head)
	}
	rest = strings.TrimSpace(strings.TrimSuffix(rest, "-"))
	if i := strings.LastIndex(rest, " - "); i >= 0 {
		h.Location = strings.TrimSpace(rest[:i])
		h.Time = strings.TrimSpace(rest[i+3:])
	} else {
		h.Location = rest
	}
	return h
}

func normalizeSceneNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".")
	return strings.ToUpper(s)
}

func normalizePrefix(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.ReplaceAll(s, ".", "")
}

func joinWords(words []string) string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, w)
		}
	}
	return strings.Join(out, " ")
}
