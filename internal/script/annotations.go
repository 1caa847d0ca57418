/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import "sort"

// Layer is a sparse line-indexed annotation map. Keys are zero-based line
// indices. Entries follow their line when lines are inserted or removed above
// them; entries on removed lines are dropped.
type Layer[T any] struct {
	m map[int]T
}

// NewLayer returns an empty layer.
func NewLayer[T any]() *Layer[T] { return &Layer[T]{m: make(map[int]T)} }

func (l *Layer[T]) Set(line int, v T) {
	if line < 0 {
		return
	}
	if l.m == nil {
		l.m = make(map[int]T)
	}
	l.m[line] = v
}

func (l *Layer[T]) Get(line int) (T, bool) {
	v, ok := l.m[line]
	return v, ok
}

func (l *Layer[T]) Delete(line int) { delete(l.m, line) }

func (l *Layer[T]) Len() int { return len(l.m) }

// Lines returns the annotated line indices in ascending order.
func (l *Layer[T]) Lines() []int {
	out := make([]int, 0, len(l.m))
	for k := range l.m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// Clone returns an independent copy of the layer.
func (l *Layer[T]) Clone() *Layer[T] {
	c := &Layer[T]{m: make(map[int]T, len(l.m))}
	for k, v := range l.m {
		c.m[k] = v
	}
	return c
}

// InsertLines shifts every entry at or after line at down by n.
func (l *Layer[T]) InsertLines(at, n int) {
	if n <= 0 || len(l.m) == 0 {
		return
	}
	next := make(map[int]T, len(l.m))
	for k, v := range l.m {
		if k >= at {
			k += n
		}
		next[k] = v
	}
	l.m = next
}

// RemoveLines removes lines [at, at+n): entries inside the range are dropped,
// later entries move up by n.
func (l *Layer[T]) RemoveLines(at, n int) {
	if n <= 0 || len(l.m) == 0 {
		return
	}
	next := make(map[int]T, len(l.m))
	for k, v := range l.m {
		switch {
		case k < at:
			next[k] = v
		case k >= at+n:
			next[k-n] = v
		}
	}
	l.m = next
}

// Note is a free-form author note attached to a line.
type Note struct {
	Text string `json:"text"`
}

// Bookmark marks a line for quick navigation.
type Bookmark struct {
	Label string `json:"label"`
}

// RevisionMark records that a line was touched while revision mode was on.
type RevisionMark struct {
	Color string `json:"color"`
}

// SceneFlags are the user-toggled flags of the scene whose heading sits on the line.
type SceneFlags struct {
	Locked  bool `json:"locked,omitempty"`
	Omitted bool `json:"omitted,omitempty"`
}

// Annotations bundles all layers of an editing session. They never affect
// classification.
type Annotations struct {
	Notes      *Layer[Note]
	Bookmarks  *Layer[Bookmark]
	Revisions  *Layer[RevisionMark]
	SceneFlags *Layer[SceneFlags]
}

func NewAnnotations() *Annotations {
	return &Annotations{
		Notes:      NewLayer[Note](),
		Bookmarks:  NewLayer[Bookmark](),
		Revisions:  NewLayer[RevisionMark](),
		SceneFlags: NewLayer[SceneFlags](),
	}
}

// InsertLines rebases every layer.
func (a *Annotations) InsertLines(at, n int) {
	a.Notes.InsertLines(at, n)
	a.Bookmarks.InsertLines(at, n)
	a.Revisions.InsertLines(at, n)
	a.SceneFlags.InsertLines(at, n)
}

// RemoveLines rebases every layer.
func (a *Annotations) RemoveLines(at, n int) {
	a.Notes.RemoveLines(at, n)
	a.Bookmarks.RemoveLines(at, n)
	a.Revisions.RemoveLines(at, n)
	a.SceneFlags.RemoveLines(at, n)
}

// Clone deep-copies every layer.
func (a *Annotations) Clone() *Annotations {
	return &Annotations{
		Notes:      a.Notes.Clone(),
		Bookmarks:  a.Bookmarks.Clone(),
		Revisions:  a.Revisions.Clone(),
		SceneFlags: a.SceneFlags.Clone(),
	}
}

// Restore replaces the content of every layer with a copy of from's, keeping
// a's layer pointers valid for holders of them.
func (a *Annotations) Restore(from *Annotations) {
	a.Notes.m = from.Notes.Clone().m
	a.Bookmarks.m = from.Bookmarks.Clone().m
	a.Revisions.m = from.Revisions.Clone().m
	a.SceneFlags.m = from.SceneFlags.Clone().m
}

// Remap rebases every layer from the old buffer lines to the new ones.
// Unchanged leading and trailing lines keep their entries; inside the changed
// region entries stay on the same offset, and those past the end of a shrunk
// region are dropped.
func (a *Annotations) Remap(oldLines, newLines []string) {
	prefix := 0
	for prefix < len(oldLines) && prefix < len(newLines) && oldLines[prefix] == newLines[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(oldLines)-prefix && suffix < len(newLines)-prefix &&
		oldLines[len(oldLines)-1-suffix] == newLines[len(newLines)-1-suffix] {
		suffix++
	}
	oldMid := len(oldLines) - prefix - suffix
	newMid := len(newLines) - prefix - suffix
	switch {
	case newMid > oldMid:
		a.InsertLines(prefix+oldMid, newMid-oldMid)
	case newMid < oldMid:
		a.RemoveLines(prefix+newMid, oldMid-newMid)
	}
}
