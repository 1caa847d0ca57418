/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"goscreenwriter/internal/autocomplete"
	"goscreenwriter/internal/script"
	"goscreenwriter/internal/undo"
)

// Options configures a Session.
type Options struct {
	// Buffer names the session in the undo manager.
	Buffer string
	// History is shared between sessions if set; otherwise each session owns one.
	History *undo.Manager
	// KnownCharacters are offered for completion besides the document's own names.
	KnownCharacters []string
	// RevisionColor is used when revision mode is switched on without a color.
	RevisionColor string
	// Now is the clock used for undo timestamps.
	Now func() time.Time
}

// Session is one open screenplay: its lines, caret, current element kind,
// annotation layers, undo history and the suggestion popup.
// A Session is not safe for concurrent use.
type Session struct {
	buffer   string
	lines    []string
	line     int
	col      int
	state    State
	ann      *script.Annotations
	history  *undo.Manager
	engine   *autocomplete.Engine
	popup    autocomplete.Popup
	revision bool
	color    string
	defColor string
	now      func() time.Time
	doc      *script.Document
}

// NewSession opens text with the caret at the start of the first line.
func NewSession(text string, opts Options) *Session {
	s := &Session{
		buffer:   opts.Buffer,
		history:  opts.History,
		engine:   autocomplete.NewEngine(opts.KnownCharacters),
		ann:      script.NewAnnotations(),
		defColor: opts.RevisionColor,
		now:      opts.Now,
	}
	if s.history == nil {
		s.history = undo.NewManager(undo.Config{MaxDepth: 500, MinInterval: 300 * time.Millisecond})
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.defColor == "" {
		s.defColor = "blue"
	}
	s.lines = splitBuffer(text)
	s.rederive()
	return s
}

func splitBuffer(text string) []string {
	lines := script.SplitLines(text)
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

// Text returns the buffer joined with "\n".
func (s *Session) Text() string { return strings.Join(s.lines, "\n") }

// Lines returns a copy of the buffer lines.
func (s *Session) Lines() []string { return slices.Clone(s.lines) }

// Caret returns the caret line and rune column.
func (s *Session) Caret() (line, col int) { return s.line, s.col }

func (s *Session) State() State { return s.state }

func (s *Session) Kind() script.Kind { return s.state.Kind }

// Annotations returns the live annotation layers. They are rebased as lines
// are inserted and removed.
func (s *Session) Annotations() *script.Annotations { return s.ann }

// Popup returns a copy of the suggestion popup.
func (s *Session) Popup() autocomplete.Popup { return s.popup }

// Document returns the parsed buffer. It is rebuilt lazily after edits.
func (s *Session) Document() *script.Document {
	if s.doc == nil {
		s.doc = script.ParseWith(s.Text(), script.Options{SceneFlags: s.ann.SceneFlags})
	}
	return s.doc
}

// SetKnownCharacters replaces the external names used for completion.
func (s *Session) SetKnownCharacters(names []string) { s.engine.SetKnown(names) }

// SetRevisionMode toggles stamping of new lines with a revision color.
func (s *Session) SetRevisionMode(on bool, color string) {
	s.revision = on
	if color == "" {
		color = s.defColor
	}
	s.color = color
}

// RevisionMode reports whether new lines are stamped and with which color.
func (s *Session) RevisionMode() (bool, string) { return s.revision, s.color }

// SetText replaces the whole buffer, keeping the caret where possible.
// Annotations on unchanged leading and trailing lines follow their lines.
func (s *Session) SetText(text string) {
	if text == s.Text() {
		return
	}
	s.record()
	next := splitBuffer(text)
	s.ann.Remap(s.lines, next)
	s.lines = next
	s.clampCaret()
	s.touch()
	s.popup.Dismiss()
	s.rederive()
}

// MoveCaret places the caret and re-derives the element kind from the text.
func (s *Session) MoveCaret(line, col int) {
	s.line, s.col = line, col
	s.clampCaret()
	s.popup.Dismiss()
	s.rederive()
}

// Type inserts text at the caret. Newlines act as Enter and "(" goes through
// the state machine.
func (s *Session) Type(text string) {
	if text == "" {
		return
	}
	s.record()
	for _, r := range text {
		switch r {
		case '\r':
		case '\n':
			s.enter()
		case '(':
			s.apply(Transition(s.state, Event{Type: EventOpenParen, Line: s.lines[s.line], Col: s.col}))
		default:
			s.apply(Result{State: s.state, Edit: &Edit{Op: OpInsert, Text: string(r), Caret: s.col + 1}})
		}
	}
	s.suggest()
}

// Tab commits the highlighted suggestion when the popup is open; otherwise it
// advances the element kind.
func (s *Session) Tab() {
	if s.Key(autocomplete.KeyTab) {
		return
	}
	s.state = Transition(s.state, Event{Type: EventTab, Line: s.lines[s.line]}).State
}

// Enter commits the highlighted suggestion when the popup is open; otherwise
// it splits the line at the caret.
func (s *Session) Enter() {
	if s.Key(autocomplete.KeyEnter) {
		return
	}
	s.record()
	s.enter()
	s.suggest()
}

// Backspace deletes the rune before the caret, joining lines at column 0.
func (s *Session) Backspace() {
	switch {
	case s.col > 0:
		s.record()
		r := []rune(s.lines[s.line])
		s.lines[s.line] = string(append(r[:s.col-1:s.col-1], r[s.col:]...))
		s.col--
	case s.line > 0:
		s.record()
		prev := s.lines[s.line-1]
		s.col = utf8.RuneCountInString(prev)
		s.lines[s.line-1] = prev + s.lines[s.line]
		s.lines = slices.Delete(s.lines, s.line, s.line+1)
		s.ann.RemoveLines(s.line, 1)
		s.line--
	default:
		return
	}
	s.touch()
	s.suggest()
}

// InsertElement replaces the current line with the default prefix of kind.
func (s *Session) InsertElement(kind script.Kind) {
	s.record()
	s.popup.Dismiss()
	s.apply(Transition(s.state, Event{Type: EventInsertElement, Kind: kind}))
}

// Key routes a keystroke to the suggestion popup and reports whether the
// popup consumed it.
func (s *Session) Key(k autocomplete.Key) bool {
	text, commit, handled := s.popup.Key(k)
	if commit {
		s.record()
		s.lines[s.line] = text
		s.col = utf8.RuneCountInString(text)
		s.touch()
		s.rederive()
	}
	return handled
}

// Undo restores the previous buffer state.
func (s *Session) Undo() bool {
	prev, ok := s.history.Undo(s.snapshot())
	if ok {
		s.restore(prev)
	}
	return ok
}

// Redo re-applies an undone change.
func (s *Session) Redo() bool {
	next, ok := s.history.Redo(s.snapshot())
	if ok {
		s.restore(next)
	}
	return ok
}

func (s *Session) enter() {
	r := []rune(s.lines[s.line])
	before, after := string(r[:s.col]), string(r[s.col:])
	res := Transition(s.state, Event{
		Type: EventEnter,
		Line: before,
		Rest: after,
		Next: s.nextNonEmpty(s.line),
	})
	s.lines[s.line] = before
	s.lines = slices.Insert(s.lines, s.line+1, after)
	s.ann.InsertLines(s.line+1, 1)
	s.line++
	s.col = 0
	s.state = res.State
	if s.revision {
		s.ann.Revisions.Set(s.line, script.RevisionMark{Color: s.color})
	}
	s.touch()
}

func (s *Session) apply(res Result) {
	s.state = res.State
	if res.Edit == nil {
		return
	}
	switch res.Edit.Op {
	case OpInsert:
		r := []rune(s.lines[s.line])
		out := make([]rune, 0, len(r)+len(res.Edit.Text))
		out = append(out, r[:s.col]...)
		out = append(out, []rune(res.Edit.Text)...)
		out = append(out, r[s.col:]...)
		s.lines[s.line] = string(out)
	case OpReplaceLine:
		s.lines[s.line] = res.Edit.Text
	}
	s.col = res.Edit.Caret
	s.touch()
}

func (s *Session) suggest() {
	s.popup.Show(s.engine.Suggest(s.lines[s.line], s.Document()))
}

func (s *Session) rederive() {
	s.state = Transition(s.state, Event{
		Type: EventCaretMoved,
		Line: s.lines[s.line],
		Next: s.nextNonEmpty(s.line),
	}).State
}

func (s *Session) nextNonEmpty(line int) string {
	for i := line + 1; i < len(s.lines); i++ {
		if t := strings.TrimSpace(s.lines[i]); t != "" {
			return t
		}
	}
	return ""
}

func (s *Session) clampCaret() {
	s.line = max(0, min(s.line, len(s.lines)-1))
	s.col = max(0, min(s.col, utf8.RuneCountInString(s.lines[s.line])))
}

func (s *Session) touch() { s.doc = nil }

func (s *Session) snapshot() undo.Snapshot {
	return undo.Snapshot{Buffer: s.buffer, Text: s.Text(), Line: s.line, Col: s.col, Aux: s.ann.Clone(), TS: s.now()}
}

func (s *Session) record() { s.history.Record(s.snapshot()) }

func (s *Session) restore(snap undo.Snapshot) {
	s.lines = splitBuffer(snap.Text)
	if ann, ok := snap.Aux.(*script.Annotations); ok {
		s.ann.Restore(ann)
	}
	s.line, s.col = snap.Line, snap.Col
	s.clampCaret()
	s.touch()
	s.popup.Dismiss()
	s.rederive()
}
