/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

// Kind is the classified role of one line of screenplay text.
// The zero value is Action, the fallback for anything unrecognized.
type Kind int

const (
	Action Kind = iota
	SceneHeading
	Character
	Dialogue
	Parenthetical
	Transition
	Shot
	General
	Empty
)

var kindNames = [...]string{
	Action:        "action",
	SceneHeading:  "sceneHeading",
	Character:     "character",
	Dialogue:      "dialogue",
	Parenthetical: "parenthetical",
	Transition:    "transition",
	Shot:          "shot",
	General:       "general",
	Empty:         "empty",
}

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	return []Kind{Action, SceneHeading, Character, Dialogue, Parenthetical, Transition, Shot, General, Empty}
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "action"
	}
	return kindNames[k]
}

// ParseKind maps a kind name back to its Kind. Unknown names yield Action, false.
func ParseKind(s string) (Kind, bool) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), true
		}
	}
	return Action, false
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	*k, _ = ParseKind(string(b))
	return nil
}

// Element is one classified line.
type Element struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// Align is the horizontal alignment of an element inside its content box.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
	AlignCenter
)

// StyleRule is the static per-kind configuration shared by the editor and the
// layout engine. Left and Width are in inches measured from the left page edge.
type StyleRule struct {
	Left   float64
	Width  float64
	Align  Align
	Upper  bool
	Bold   bool
	Prefix string // literal text inserted on manual insertion
	Next   Kind   // natural next kind for Tab and Enter
}

var styleRules = map[Kind]StyleRule{
	SceneHeading:  {Left: 1.5, Width: 6.0, Upper: true, Bold: true, Prefix: "INT. ", Next: Action},
	Action:        {Left: 1.5, Width: 6.0, Next: Character},
	Character:     {Left: 3.7, Width: 2.8, Upper: true, Next: Dialogue},
	Dialogue:      {Left: 2.5, Width: 3.5, Next: Character},
	Parenthetical: {Left: 3.1, Width: 2.4, Prefix: "(", Next: Dialogue},
	Transition:    {Left: 5.5, Width: 2.0, Align: AlignRight, Upper: true, Prefix: "CUT TO:", Next: SceneHeading},
	Shot:          {Left: 1.5, Width: 6.0, Upper: true, Prefix: "ANGLE ON ", Next: Action},
	General:       {Left: 1.5, Width: 6.0, Next: General},
	Empty:         {Left: 1.5, Width: 6.0, Next: Action},
}

// Style returns the style rule for k.
func Style(k Kind) StyleRule {
	if r, ok := styleRules[k]; ok {
		return r
	}
	return styleRules[Action]
}
