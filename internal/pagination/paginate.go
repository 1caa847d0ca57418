/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package pagination lays classified screenplay elements out on fixed US Letter
// pages. Positions are in inches from the top-left corner of the page.
package pagination

import (
	"fmt"
	"strings"

	"goscreenwriter/internal/script"
	"goscreenwriter/internal/textlayout"
)

// Page geometry.
const (
	PageWidth    = 8.5
	PageHeight   = 11.0
	MarginTop    = 1.0
	MarginBottom = 1.0
	MarginLeft   = 1.5
	MarginRight  = 1.0
	LineHeight   = 0.167
	FontSizePt   = 12

	// PageNumberTop is the distance of the page number line from the top edge.
	PageNumberTop = 0.5
	// PageNumberRight is where right-aligned page numbers end.
	PageNumberRight = PageWidth - MarginRight
)

// LinesPerPage is the number of body line slots on one page.
const LinesPerPage = script.LinesPerPage

// capacity in half-line units.
const capacity = LinesPerPage * 2

// Line is one rendered line of text. X and Width describe the element's box;
// Align places the text within it.
type Line struct {
	Element int
	Kind    script.Kind
	Text    string
	X       float64
	Y       float64
	Width   float64
	Align   script.Align
	Bold    bool
}

// Origin returns the x position where the text starts, given a measurer.
func (l Line) Origin(m textlayout.Measurer) float64 {
	if m == nil {
		m = textlayout.Courier()
	}
	switch l.Align {
	case script.AlignRight:
		return l.X + l.Width - m.Advance(l.Text)
	case script.AlignCenter:
		return l.X + (l.Width-m.Advance(l.Text))/2
	}
	return l.X
}

// Page is one printed page. Label is the page number text, empty on page 1
// and on the title page.
type Page struct {
	Number int
	Label  string
	Lines  []Line
}

// Layout is the paginated document.
type Layout struct {
	TitlePage *Page
	Pages     []Page
}

// PageCount returns the number of body pages.
func (l Layout) PageCount() int { return len(l.Pages) }

// Options configures Paginate.
type Options struct {
	// Measurer defaults to Courier 12.
	Measurer textlayout.Measurer
	// TitlePage emits a title page before page 1.
	TitlePage bool
	Title     string
	Author    string
}

// CharsPerLine is the fixed-pitch line capacity for kind.
func CharsPerLine(kind script.Kind) int {
	return textlayout.MaxChars(script.Style(kind).Width, textlayout.CourierCharWidth)
}

// Paginate lays out doc. It always produces at least one body page.
func Paginate(doc *script.Document, opts Options) Layout {
	m := opts.Measurer
	if m == nil {
		m = textlayout.Courier()
	}
	var out Layout
	if opts.TitlePage {
		tp := titlePage(opts.Title, opts.Author, m)
		out.TitlePage = &tp
	}

	p := &paginator{}
	p.newPage()
	var els []script.Element
	if doc != nil {
		els = doc.Elements
	}
	for i, el := range els {
		style := script.Style(el.Kind)
		if el.Kind == script.Empty {
			if p.used+2 <= capacity {
				p.used += 2
			}
			continue
		}
		text := el.Text
		if style.Upper {
			text = strings.ToUpper(text)
		}
		for _, wl := range textlayout.Wrap(text, style.Width, m) {
			p.place(Line{
				Element: i,
				Kind:    el.Kind,
				Text:    wl,
				X:       style.Left,
				Width:   style.Width,
				Align:   style.Align,
				Bold:    style.Bold,
			})
		}
		if gapAfter(els, i) {
			p.used++
		}
	}
	out.Pages = p.pages
	return out
}

// gapAfter reports whether a half-line gap follows element i: after every
// scene heading and after the last line of an action block.
func gapAfter(els []script.Element, i int) bool {
	switch els[i].Kind {
	case script.SceneHeading:
		return true
	case script.Action:
		return i+1 >= len(els) || els[i+1].Kind != script.Action
	}
	return false
}

type paginator struct {
	pages []Page
	used  int // half-line units on the current page
}

func (p *paginator) newPage() {
	n := len(p.pages) + 1
	pg := Page{Number: n}
	if n > 1 {
		pg.Label = fmt.Sprintf("%d.", n)
	}
	p.pages = append(p.pages, pg)
	p.used = 0
}

func (p *paginator) place(l Line) {
	if p.used+2 > capacity {
		p.newPage()
	}
	l.Y = MarginTop + float64(p.used)/2*LineHeight
	cur := &p.pages[len(p.pages)-1]
	cur.Lines = append(cur.Lines, l)
	p.used += 2
}

func titlePage(title, author string, m textlayout.Measurer) Page {
	pg := Page{}
	y := 3.5
	add := func(text string, bold bool) {
		for _, wl := range textlayout.Wrap(text, PageWidth-MarginLeft-MarginRight, m) {
			pg.Lines = append(pg.Lines, Line{
				Element: -1,
				Kind:    script.General,
				Text:    wl,
				X:       0,
				Y:       y,
				Width:   PageWidth,
				Align:   script.AlignCenter,
				Bold:    bold,
			})
			y += LineHeight
		}
	}
	add(strings.ToUpper(title), true)
	y += 2 * LineHeight
	add("written by", false)
	y += LineHeight
	if strings.TrimSpace(author) != "" {
		add(author, false)
	}
	return pg
}
