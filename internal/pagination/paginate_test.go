/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package pagination

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"goscreenwriter/internal/script"
	"goscreenwriter/internal/textlayout"
)

func actionLines(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("Line %d moves on.", i)
	}
	return strings.Join(lines, "\n")
}

func TestPaginate_ActionLinesPerPage(t *testing.T) {
	for _, n := range []int{1, 55, 56, 57, 112, 113, 300} {
		l := Paginate(script.Parse(actionLines(n)), Options{})
		want := int(math.Ceil(float64(n) / LinesPerPage))
		if l.PageCount() != want {
			t.Fatalf("n=%d: expected %d pages, got %d", n, want, l.PageCount())
		}
	}
}

func TestPaginate_Monotonic(t *testing.T) {
	text := "INT. HOUSE - DAY\n\nJohn enters.\n\nJOHN\n(quietly)\nWe should talk about this before it gets any worse than it already is.\n\n"
	prev := 0
	acc := ""
	for i := 0; i < 40; i++ {
		acc += text
		pages := Paginate(script.Parse(acc), Options{}).PageCount()
		if pages < prev {
			t.Fatalf("page count decreased at step %d: %d < %d", i, pages, prev)
		}
		prev = pages
	}
	if prev < 2 {
		t.Fatalf("expected multiple pages, got %d", prev)
	}
}

func TestPaginate_EmptyDocumentHasOnePage(t *testing.T) {
	l := Paginate(script.Parse(""), Options{})
	if l.PageCount() != 1 || len(l.Pages[0].Lines) != 0 {
		t.Fatalf("expected one blank page, got %+v", l.Pages)
	}
	if l.TitlePage != nil {
		t.Fatalf("title page not requested")
	}
}

func TestPaginate_PlacementAndGaps(t *testing.T) {
	doc := script.Parse("int. kitchen - day\nShe waits.\nJOHN\nHello.\nCUT TO:")
	l := Paginate(doc, Options{})
	lines := l.Pages[0].Lines
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}
	h := lines[0]
	if h.Text != "INT. KITCHEN - DAY" || !h.Bold || h.X != 1.5 || h.Y != MarginTop {
		t.Fatalf("unexpected heading line %+v", h)
	}
	if got := lines[1].Y - h.Y; math.Abs(got-1.5*LineHeight) > 1e-9 {
		t.Fatalf("expected half-line gap after heading, got %.4f", got)
	}
	if got := lines[2].Y - lines[1].Y; math.Abs(got-1.5*LineHeight) > 1e-9 {
		t.Fatalf("expected half-line gap after action block, got %.4f", got)
	}
	if lines[2].X != 3.7 || lines[3].X != 2.5 {
		t.Fatalf("unexpected indents: character %.1f dialogue %.1f", lines[2].X, lines[3].X)
	}
	tr := lines[4]
	if tr.Align != script.AlignRight || math.Abs(tr.Origin(textlayout.Courier())-(7.5-0.7)) > 1e-9 {
		t.Fatalf("transition should be right-aligned, got origin %.3f", tr.Origin(textlayout.Courier()))
	}
}

func TestPaginate_WrapsDialogueAtWidth(t *testing.T) {
	long := strings.Repeat("word ", 20)
	l := Paginate(script.Parse("MARY\n"+long), Options{})
	var dialogue []Line
	for _, ln := range l.Pages[0].Lines {
		if ln.Kind == script.Dialogue {
			dialogue = append(dialogue, ln)
		}
	}
	if len(dialogue) != 3 {
		t.Fatalf("expected 3 wrapped dialogue lines, got %d", len(dialogue))
	}
	for _, d := range dialogue {
		if len([]rune(d.Text)) > CharsPerLine(script.Dialogue) {
			t.Fatalf("line too long: %q", d.Text)
		}
	}
}

func TestPaginate_PageLabelsAndTitlePage(t *testing.T) {
	l := Paginate(script.Parse(actionLines(120)), Options{TitlePage: true, Title: "Night Train", Author: "A. Writer"})
	if l.PageCount() != 3 {
		t.Fatalf("expected 3 pages, got %d", l.PageCount())
	}
	if l.Pages[0].Label != "" || l.Pages[1].Label != "2." || l.Pages[2].Label != "3." {
		t.Fatalf("unexpected labels %q %q %q", l.Pages[0].Label, l.Pages[1].Label, l.Pages[2].Label)
	}
	if l.TitlePage == nil || len(l.TitlePage.Lines) != 3 || l.TitlePage.Lines[0].Text != "NIGHT TRAIN" {
		t.Fatalf("unexpected title page %+v", l.TitlePage)
	}
	last := l.Pages[0].Lines[len(l.Pages[0].Lines)-1]
	if len(l.Pages[0].Lines) != LinesPerPage || last.Y+LineHeight > PageHeight-PageNumberTop {
		t.Fatalf("last line off the page: y=%.3f", last.Y)
	}
}
