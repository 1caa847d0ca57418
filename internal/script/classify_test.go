/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import "testing"

func TestClassify_Table(t *testing.T) {
	cases := []struct {
		line, next string
		want       Kind
	}{
		{"INT. KITCHEN - DAY", "", SceneHeading},
		{"ext. beach - night", "", SceneHeading},
		{"INT/EXT CAR - MOVING", "", SceneHeading},
		{"INT./EXT. CAR - MOVING", "", SceneHeading},
		{"I/E. CAR", "", SceneHeading},
		{"EXT", "", SceneHeading},
		{"12A. INT. HOUSE - DAY", "", SceneHeading},
		{"7 EXT. FIELD", "", SceneHeading},
		{"CUT TO:", "", Transition},
		{"SMASH CUT TO:", "", Transition},
		{"FADE OUT.", "", Transition},
		{"BACK TO:", "", Transition},
		{"ANGLE ON JOHN", "", Shot},
		{"POV", "", Shot},
		{"INSERT - THE LETTER", "", Shot},
		{"JOHN", "Hello there.", Character},
		{"JOHN (V.O.)", "Hello there.", Character},
		{"MR. O'BRIEN", "Hello there.", Character},
		{"JOHN", "INT. KITCHEN - DAY", Action},
		{"JOHN", "", Character},
		{"(smiling)", "", Parenthetical},
		{"(smiling)", "INT. KITCHEN - DAY", Parenthetical},
		{"(a) (b)", "", Action},
		{"He walks in.", "", Action},
		{"A", "Hello.", Action},
		{"", "", Empty},
		{"   ", "JOHN", Empty},
	}
	for _, c := range cases {
		if got := Classify(c.line, c.next); got != c.want {
			t.Fatalf("Classify(%q, %q) = %v, want %v", c.line, c.next, got, c.want)
		}
	}
}

func TestClassify_EveryTransitionInVocabulary(t *testing.T) {
	for _, v := range TransitionVocabulary {
		if got := Classify(v, "Some action."); got != Transition {
			t.Fatalf("Classify(%q) = %v, want transition", v, got)
		}
	}
}

func TestClassify_OrderingBeatsCharacterShape(t *testing.T) {
	// These lines are upper-case and short enough to look like cues.
	if !IsCharacterName("INT. HOUSE") || Classify("INT. HOUSE", "Dialogue?") != SceneHeading {
		t.Fatalf("scene heading must win over the character shape")
	}
	if !IsCharacterName("FADE OUT.") || Classify("FADE OUT.", "More.") != Transition {
		t.Fatalf("transition must win over the character shape")
	}
	if Classify("POVERTY", "Hello.") == Shot {
		t.Fatalf("shot tokens must match whole words")
	}
	if Classify("INTERVIEW ROOM", "") == SceneHeading {
		t.Fatalf("INT prefix must end at a word boundary")
	}
}

func TestRules_PriorityOrder(t *testing.T) {
	want := []Kind{SceneHeading, Transition, Shot, Character, Parenthetical}
	got := Rules()
	if len(got) != len(want) {
		t.Fatalf("expected %d rules, got %d", len(want), len(got))
	}
	for i, r := range got {
		if r.Kind != want[i] {
			t.Fatalf("rule %d: got %v want %v", i, r.Kind, want[i])
		}
		if i > 0 && got[i-1].Priority >= r.Priority {
			t.Fatalf("priorities not strictly ascending at %d", i)
		}
	}
}

func TestClassifier_GeneralFallback(t *testing.T) {
	c := Classifier{Fallback: General}
	if got := c.Classify("A note to self.", ""); got != General {
		t.Fatalf("expected general, got %v", got)
	}
	if got := c.Classify("INT. HOUSE", ""); got != SceneHeading {
		t.Fatalf("rules still apply before fallback, got %v", got)
	}
}

func TestKindNamesRoundTrip(t *testing.T) {
	for _, k := range Kinds() {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Fatalf("ParseKind(%q) = %v, %v", k.String(), got, ok)
		}
	}
	if _, ok := ParseKind("nonsense"); ok {
		t.Fatalf("unknown kind name accepted")
	}
}

func TestStyle_PrefixesAndNext(t *testing.T) {
	for _, k := range []Kind{Character, Action, Dialogue, General} {
		if p := Style(k).Prefix; p != "" {
			t.Fatalf("%v must not carry a prefix, got %q", k, p)
		}
	}
	if Style(SceneHeading).Next != Action || Style(Transition).Next != SceneHeading {
		t.Fatalf("unexpected next kinds")
	}
	if Style(Transition).Align != AlignRight {
		t.Fatalf("transitions are right-aligned")
	}
}

func TestRules_ReturnsIndependentCopy(t *testing.T) {
	r := Rules()
	r[0] = Rule{Kind: Shot, Priority: 0, Match: func(string, string) bool { return true }}
	if got := Classify("John pours coffee.", ""); got != Action {
		t.Fatalf("classification changed through Rules() copy: %v", got)
	}
	if Rules()[0].Kind != SceneHeading {
		t.Fatalf("table mutated through Rules() copy")
	}
}
