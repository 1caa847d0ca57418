/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package autocomplete

// Key is a keystroke routed to an open popup.
type Key int

const (
	KeyUp Key = iota
	KeyDown
	KeyEnter
	KeyTab
	KeyEscape
)

// Popup is the visible suggestion list with a highlighted entry.
// Up/Down clamp at the ends, Enter/Tab commit, Escape dismisses.
type Popup struct {
	Source  Source
	Items   []string
	Index   int
	Visible bool
}

// Show opens the popup for s, or closes it when s is empty.
func (p *Popup) Show(s Suggestions) {
	if s.Empty() {
		p.Dismiss()
		return
	}
	p.Source = s.Source
	p.Items = append([]string(nil), s.Items...)
	p.Index = 0
	p.Visible = true
}

func (p *Popup) Dismiss() {
	p.Visible = false
	p.Items = nil
	p.Index = 0
	p.Source = SourceNone
}

// Selected returns the highlighted item.
func (p *Popup) Selected() (string, bool) {
	if !p.Visible || p.Index < 0 || p.Index >= len(p.Items) {
		return "", false
	}
	return p.Items[p.Index], true
}

// Key handles one keystroke. handled is false when the popup is closed and
// the key should go to the editor. When commit is true, text is the chosen item.
func (p *Popup) Key(k Key) (text string, commit, handled bool) {
	if !p.Visible {
		return "", false, false
	}
	switch k {
	case KeyUp:
		if p.Index > 0 {
			p.Index--
		}
	case KeyDown:
		if p.Index < len(p.Items)-1 {
			p.Index++
		}
	case KeyEnter, KeyTab:
		text, ok := p.Selected()
		p.Dismiss()
		return text, ok, true
	case KeyEscape:
		p.Dismiss()
	default:
		return "", false, false
	}
	return "", false, true
}
