/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"testing"

	"goscreenwriter/internal/script"
)

func TestTransition_TabCyclesOnEmptyLine(t *testing.T) {
	s := Initial()
	want := []script.Kind{script.Character, script.SceneHeading, script.Transition, script.Action}
	for i, k := range want {
		s = Transition(s, Event{Type: EventTab}).State
		if s.Kind != k {
			t.Fatalf("step %d: expected %s, got %s", i, k, s.Kind)
		}
	}
}

func TestTransition_TabOnTextFollowsStyleNext(t *testing.T) {
	cases := map[script.Kind]script.Kind{
		script.Character:    script.Dialogue,
		script.SceneHeading: script.Action,
		script.Transition:   script.SceneHeading,
		script.Dialogue:     script.Character,
	}
	for from, want := range cases {
		got := Transition(State{Kind: from}, Event{Type: EventTab, Line: "text"}).State.Kind
		if got != want {
			t.Fatalf("tab from %s: expected %s, got %s", from, want, got)
		}
	}
}

func TestTransition_Enter(t *testing.T) {
	cases := []struct {
		from script.Kind
		line string
		want script.Kind
	}{
		{script.Character, "JOHN", script.Dialogue},
		{script.Character, "john", script.Action},
		{script.Dialogue, "Hello.", script.Character},
		{script.Dialogue, "", script.Action},
		{script.Parenthetical, "(beat)", script.Dialogue},
		{script.SceneHeading, "INT. HOUSE - DAY", script.Action},
		{script.Transition, "CUT TO:", script.SceneHeading},
		{script.Action, "He sits.", script.Action},
	}
	for _, c := range cases {
		got := Transition(State{Kind: c.from}, Event{Type: EventEnter, Line: c.line}).State.Kind
		if got != c.want {
			t.Fatalf("enter from %s on %q: expected %s, got %s", c.from, c.line, c.want, got)
		}
	}
}

func TestTransition_EnterReclassifiesMovedText(t *testing.T) {
	got := Transition(State{Kind: script.Action}, Event{Type: EventEnter, Line: "He sits.", Rest: "EXT. YARD - DAY"}).State.Kind
	if got != script.SceneHeading {
		t.Fatalf("expected sceneHeading, got %s", got)
	}
}

func TestTransition_OpenParen(t *testing.T) {
	res := Transition(State{Kind: script.Dialogue}, Event{Type: EventOpenParen, Col: 3})
	if res.State.Kind != script.Parenthetical {
		t.Fatalf("expected parenthetical, got %s", res.State.Kind)
	}
	if res.Edit == nil || res.Edit.Text != "()" || res.Edit.Caret != 4 {
		t.Fatalf("unexpected edit %+v", res.Edit)
	}
	res = Transition(State{Kind: script.Action}, Event{Type: EventOpenParen, Col: 0})
	if res.State.Kind != script.Action || res.Edit.Text != "(" || res.Edit.Caret != 1 {
		t.Fatalf("unexpected result outside dialogue %+v", res)
	}
}

func TestTransition_InsertElementUsesPrefix(t *testing.T) {
	res := Transition(Initial(), Event{Type: EventInsertElement, Kind: script.Transition})
	if res.State.Kind != script.Transition {
		t.Fatalf("expected transition, got %s", res.State.Kind)
	}
	if res.Edit.Op != OpReplaceLine || res.Edit.Text != "CUT TO:" || res.Edit.Caret != 7 {
		t.Fatalf("unexpected edit %+v", res.Edit)
	}
}

func TestTransition_CaretMovedDerivesKind(t *testing.T) {
	got := Transition(Initial(), Event{Type: EventCaretMoved, Line: "MARY", Next: "Hi."}).State.Kind
	if got != script.Character {
		t.Fatalf("expected character, got %s", got)
	}
	got = Transition(State{Kind: script.Dialogue}, Event{Type: EventCaretMoved}).State.Kind
	if got != script.Action {
		t.Fatalf("empty line should derive action, got %s", got)
	}
}
