/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TransitionVocabulary is the fixed list of recognized transition phrases.
var TransitionVocabulary = []string{
	"CUT TO:",
	"DISSOLVE TO:",
	"FADE IN:",
	"FADE OUT.",
	"FADE TO BLACK.",
	"SMASH CUT TO:",
	"MATCH CUT TO:",
	"JUMP CUT TO:",
	"TIME CUT:",
	"IRIS IN:",
	"IRIS OUT:",
}

// ShotVocabulary holds the tokens a shot line starts with.
var ShotVocabulary = []string{"ANGLE ON", "CLOSE ON", "POV", "INSERT"}

var (
	// optional scene number token, then a prefix ending in a period or word boundary
	sceneHeadingRe = regexp.MustCompile(`(?i)^(?:\d+[A-Z]?\.?\s+)?(?:INT\.?/EXT|I/E|INT|EXT)(?:\.|\b)`)
	characterRe    = regexp.MustCompile(`^\p{Lu}[\p{Lu} .'’]*(?:\s*\([\p{Lu}\d .'’-]+\))?$`)
)

const (
	maxTransitionLen = 20
	maxCharacterLen  = 30
)

// Rule is one row of the classification table. Rules are evaluated in
// ascending Priority and the first match wins.
type Rule struct {
	Kind     Kind
	Priority int
	Match    func(line, next string) bool
}

var rules = []Rule{
	{Kind: SceneHeading, Priority: 1, Match: func(line, _ string) bool { return IsSceneHeading(line) }},
	{Kind: Transition, Priority: 2, Match: func(line, _ string) bool { return IsTransition(line) }},
	{Kind: Shot, Priority: 3, Match: func(line, _ string) bool { return IsShot(line) }},
	{Kind: Character, Priority: 4, Match: isCharacterCue},
	{Kind: Parenthetical, Priority: 5, Match: func(line, _ string) bool { return IsParenthetical(line) }},
}

// sortedRules is rules in evaluation order, built once.
var sortedRules = func() []Rule {
	out := append([]Rule(nil), rules...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}()

// Rules returns a copy of the classification table sorted by priority.
func Rules() []Rule {
	return append([]Rule(nil), sortedRules...)
}

// Classifier maps a line plus its lookahead to a Kind. Fallback is the kind
// returned when no rule matches; it must be Action or General.
type Classifier struct {
	Fallback Kind
}

var defaultClassifier = Classifier{Fallback: Action}

// Classify classifies line using the default classifier. next is the
// immediately following non-empty line, or "" when there is none.
func Classify(line, next string) Kind { return defaultClassifier.Classify(line, next) }

// Classify is total: every input yields a kind.
func (c Classifier) Classify(line, next string) Kind {
	line = strings.TrimSpace(line)
	if line == "" {
		return Empty
	}
	next = strings.TrimSpace(next)
	for _, r := range sortedRules {
		if r.Match(line, next) {
			return r.Kind
		}
	}
	if c.Fallback == General {
		return General
	}
	return Action
}

// IsSceneHeading reports whether line starts with a scene heading prefix.
func IsSceneHeading(line string) bool {
	return sceneHeadingRe.MatchString(strings.TrimSpace(line))
}

// IsTransition reports whether line is a transition phrase or a short
// upper-case line ending in a colon.
func IsTransition(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	upper := strings.ToUpper(line)
	for _, t := range TransitionVocabulary {
		if strings.Contains(upper, t) {
			return true
		}
	}
	return IsUpper(line) && strings.HasSuffix(line, ":") && utf8.RuneCountInString(line) < maxTransitionLen
}

// IsShot reports whether line begins with a shot token as a whole word.
func IsShot(line string) bool {
	line = strings.TrimSpace(line)
	for _, tok := range ShotVocabulary {
		if !strings.HasPrefix(line, tok) {
			continue
		}
		rest := line[len(tok):]
		if rest == "" {
			return true
		}
		r, _ := utf8.DecodeRuneInString(rest)
		if !unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// IsCharacterName reports whether line has the shape of a character cue,
// ignoring context.
func IsCharacterName(line string) bool {
	line = strings.TrimSpace(line)
	n := utf8.RuneCountInString(line)
	if n <= 1 || n >= maxCharacterLen {
		return false
	}
	return IsUpper(line) && characterRe.MatchString(line)
}

func isCharacterCue(line, next string) bool {
	if !IsCharacterName(line) || IsTransition(line) {
		return false
	}
	return next == "" || !IsSceneHeading(next)
}

// IsParenthetical reports whether line is wrapped in a single pair of parentheses.
func IsParenthetical(line string) bool {
	line = strings.TrimSpace(line)
	return strings.HasPrefix(line, "(") && strings.HasSuffix(line, ")") &&
		strings.Count(line, "(") == 1 && strings.Count(line, ")") == 1
}

// IsUpper reports whether s contains at least one letter and no lower-case letters.
func IsUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}
