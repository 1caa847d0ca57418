/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Text measurement and line breaking for screenplay elements. All lengths are
// in inches so page geometry and measurement share one unit.

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// CourierCharWidth is the advance of one Courier 12pt character in inches.
const CourierCharWidth = 0.1

// Measurer reports the advance width of a string in inches.
type Measurer interface {
	Advance(s string) float64
}

// Monospace measures every rune with the same width.
type Monospace struct{ CharWidth float64 }

// Courier returns the standard 12pt Courier measurer.
func Courier() Monospace { return Monospace{CharWidth: CourierCharWidth} }

func (m Monospace) Advance(s string) float64 {
	return float64(utf8.RuneCountInString(s)) * m.CharWidth
}

// FaceMeasurer measures with a rasterizer face. DPI converts pixels to inches
// and defaults to 72.
type FaceMeasurer struct {
	Face font.Face
	DPI  float64
}

// Basic returns a FaceMeasurer over x/image's fixed 7x13 face, used where a
// deterministic bitmap font is good enough.
func Basic() FaceMeasurer { return FaceMeasurer{Face: basicfont.Face7x13} }

func (m FaceMeasurer) Advance(s string) float64 {
	dpi := m.DPI
	if dpi <= 0 {
		dpi = 72
	}
	px := float64(font.MeasureString(m.Face, s)) / 64 // fixed.Int26_6 to px
	return px / dpi
}

// MaxChars returns how many characters of width cw fit into width.
func MaxChars(width, cw float64) int {
	if cw <= 0 {
		return 0
	}
	return int(width/cw + 1e-9)
}

// Wrap breaks text into lines no wider than width. Breaks happen at spaces; a
// word wider than width gets a line of its own. Empty text yields one empty
// line so every element occupies at least one line.
func Wrap(text string, width float64, m Measurer) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}
	if m == nil {
		m = Courier()
	}
	const eps = 1e-9
	var lines []string
	cur := ""
	for _, w := range words {
		if cur == "" {
			cur = w
			continue
		}
		candidate := cur + " " + w
		if m.Advance(candidate) <= width+eps {
			cur = candidate
			continue
		}
		lines = append(lines, cur)
		cur = w
	}
	return append(lines, cur)
}

// Measure returns the widest line of text split on newlines.
func Measure(m Measurer, text string) float64 {
	if m == nil {
		m = Courier()
	}
	widest := 0.0
	for _, l := range strings.Split(text, "\n") {
		widest = max(widest, m.Advance(l))
	}
	return widest
}
