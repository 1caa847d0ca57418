/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor implements the element-kind state machine that drives typing
// in a screenplay and a Session that applies it to a text buffer.
package editor

import (
	"strings"
	"unicode/utf8"

	"goscreenwriter/internal/script"
)

// State is the editor's current element kind.
type State struct {
	Kind script.Kind
}

// Initial returns the state of a fresh editor.
func Initial() State { return State{Kind: script.Action} }

// EventType enumerates the inputs of the state machine.
type EventType int

const (
	EventTab EventType = iota
	EventEnter
	EventOpenParen
	EventInsertElement
	EventCaretMoved
)

func (e EventType) String() string {
	switch e {
	case EventTab:
		return "tab"
	case EventEnter:
		return "enter"
	case EventOpenParen:
		return "openParen"
	case EventInsertElement:
		return "insertElement"
	case EventCaretMoved:
		return "caretMoved"
	default:
		return "unknown"
	}
}

// Event carries the text context needed to resolve a transition.
type Event struct {
	Type EventType
	// Line is the current line (for Enter: the part left before the caret).
	Line string
	// Rest is the text moved to the new line by Enter.
	Rest string
	// Next is the next non-empty line after the caret line.
	Next string
	// Kind is the requested kind for EventInsertElement.
	Kind script.Kind
	// Col is the caret column in runes for EventOpenParen.
	Col int
}

// EditOp describes how an Edit changes the current line.
type EditOp int

const (
	// OpInsert inserts Text at the caret.
	OpInsert EditOp = iota
	// OpReplaceLine replaces the whole current line with Text.
	OpReplaceLine
)

// Edit is a text change requested by a transition. Caret is the resulting
// caret column in runes.
type Edit struct {
	Op    EditOp
	Text  string
	Caret int
}

// Result is the outcome of one transition.
type Result struct {
	State State
	Edit  *Edit
}

// TabRing is the cycle Tab walks on an empty line.
var TabRing = []script.Kind{script.Action, script.Character, script.SceneHeading, script.Transition}

// Transition computes the next state for ev. It does not touch any buffer;
// callers apply the returned Edit themselves.
func Transition(s State, ev Event) Result {
	switch ev.Type {
	case EventTab:
		if strings.TrimSpace(ev.Line) == "" {
			return Result{State: State{Kind: nextInRing(s.Kind)}}
		}
		return Result{State: State{Kind: script.Style(s.Kind).Next}}

	case EventEnter:
		return Result{State: State{Kind: afterEnter(s.Kind, ev)}}

	case EventOpenParen:
		if s.Kind == script.Dialogue {
			return Result{
				State: State{Kind: script.Parenthetical},
				Edit:  &Edit{Op: OpInsert, Text: "()", Caret: ev.Col + 1},
			}
		}
		return Result{State: s, Edit: &Edit{Op: OpInsert, Text: "(", Caret: ev.Col + 1}}

	case EventInsertElement:
		prefix := script.Style(ev.Kind).Prefix
		return Result{
			State: State{Kind: ev.Kind},
			Edit:  &Edit{Op: OpReplaceLine, Text: prefix, Caret: utf8.RuneCountInString(prefix)},
		}

	case EventCaretMoved:
		return Result{State: State{Kind: derive(ev.Line, ev.Next)}}
	}
	return Result{State: s}
}

func afterEnter(k script.Kind, ev Event) script.Kind {
	line := strings.TrimSpace(ev.Line)
	switch {
	case k == script.Character && script.IsCharacterName(line):
		return script.Dialogue
	case k == script.Dialogue && line != "":
		return script.Character
	case k == script.Parenthetical:
		return script.Dialogue
	case k == script.SceneHeading:
		return script.Action
	case k == script.Transition:
		return script.SceneHeading
	}
	return derive(ev.Rest, ev.Next)
}

func derive(line, next string) script.Kind {
	k := script.Classify(line, next)
	if k == script.Empty {
		return script.Action
	}
	return k
}

func nextInRing(k script.Kind) script.Kind {
	for i, r := range TabRing {
		if r == k {
			return TabRing[(i+1)%len(TabRing)]
		}
	}
	return TabRing[1]
}
