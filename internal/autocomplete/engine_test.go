/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package autocomplete

import (
	"reflect"
	"testing"

	"goscreenwriter/internal/script"
)

func TestSuggest_CharacterNames(t *testing.T) {
	got := Suggest("JO", []string{"JOHN", "Joanna", "MARY"})
	if got.Source != SourceCharacter || !reflect.DeepEqual(got.Items, []string{"JOHN", "JOANNA"}) {
		t.Fatalf("unexpected suggestions %+v", got)
	}
	if s := Suggest("JOHN", []string{"JOHN"}); !s.Empty() {
		t.Fatalf("exact match must not be offered: %+v", s)
	}
	if s := Suggest("JO ", []string{"JOHN"}); s.Source == SourceCharacter {
		t.Fatalf("trailing whitespace disables character completion")
	}
	if s := Suggest("J", []string{"JOHN"}); !s.Empty() {
		t.Fatalf("single letter must not complete: %+v", s)
	}
	if s := Suggest("Jo", []string{"JOHN"}); s.Source == SourceCharacter {
		t.Fatalf("mixed case must not complete names")
	}
}

func TestSuggest_ScenePrefixes(t *testing.T) {
	got := Suggest("int", nil)
	if got.Source != SourceSceneHeading || !reflect.DeepEqual(got.Items, []string{"INT.", "INT./EXT."}) {
		t.Fatalf("unexpected suggestions %+v", got)
	}
	if s := Suggest("INT.", nil); !s.Empty() {
		t.Fatalf("canonical prefix typed exactly must not complete: %+v", s)
	}
	if s := Suggest("I/E", nil); !reflect.DeepEqual(s.Items, []string{"I/E."}) {
		t.Fatalf("unexpected suggestions %+v", s)
	}
}

func TestSuggest_CharacterFallsThroughToScene(t *testing.T) {
	got := Suggest("EXT", []string{"JOHN"})
	if got.Source != SourceSceneHeading || !reflect.DeepEqual(got.Items, []string{"EXT."}) {
		t.Fatalf("expected scene prefix completion, got %+v", got)
	}
}

func TestSuggest_Transitions(t *testing.T) {
	got := Suggest("FADE", nil)
	want := []string{"FADE IN:", "FADE OUT.", "FADE TO BLACK."}
	if got.Source != SourceTransition || !reflect.DeepEqual(got.Items, want) {
		t.Fatalf("unexpected suggestions %+v", got)
	}
	if s := Suggest("smash cut", nil); !reflect.DeepEqual(s.Items, []string{"SMASH CUT TO:"}) {
		t.Fatalf("unexpected suggestions %+v", s)
	}
	if s := Suggest("He walks in.", nil); !s.Empty() {
		t.Fatalf("plain action must not complete: %+v", s)
	}
}

func TestEngine_MergesDocumentAndKnownNames(t *testing.T) {
	e := NewEngine([]string{"marcus", "JOHN"})
	doc := script.Parse("MARY\nHello.\n\nJOHN\nHi.")
	got := e.Suggest("M", doc)
	if !got.Empty() {
		t.Fatalf("one letter must not complete")
	}
	got = e.Suggest("MA", doc)
	if !reflect.DeepEqual(got.Items, []string{"MARY", "MARCUS"}) {
		t.Fatalf("unexpected suggestions %+v", got)
	}
}

func TestPopup_KeyboardContract(t *testing.T) {
	var p Popup
	if _, _, handled := p.Key(KeyDown); handled {
		t.Fatalf("closed popup must not handle keys")
	}
	p.Show(Suggestions{Source: SourceTransition, Items: []string{"A", "B", "C"}})
	p.Key(KeyUp)
	if p.Index != 0 {
		t.Fatalf("up at top must clamp")
	}
	p.Key(KeyDown)
	p.Key(KeyDown)
	p.Key(KeyDown)
	if p.Index != 2 {
		t.Fatalf("down at bottom must clamp, got %d", p.Index)
	}
	text, commit, handled := p.Key(KeyTab)
	if !handled || !commit || text != "C" || p.Visible {
		t.Fatalf("tab must commit highlighted item: %q %v %v", text, commit, handled)
	}
	p.Show(Suggestions{Items: []string{"X"}})
	if _, commit, _ := p.Key(KeyEscape); commit || p.Visible {
		t.Fatalf("escape must dismiss without commit")
	}
}
