/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"goscreenwriter/internal/pagination"
	"goscreenwriter/internal/script"
	"goscreenwriter/internal/textlayout"
)

// FontFamily is the family name under which an embedded TTF is looked up in
// Params.Fonts. Without it the built-in Courier is used.
const FontFamily = "Screenplay"

// PDF paginates doc and renders it to a US Letter PDF. Units are inches and
// the page origin is top-left, matching the pagination geometry.
func PDF(doc *script.Document, p Params) ([]byte, error) {
	p = p.withDefaults()

	family := "Courier"
	var measurer textlayout.Measurer = textlayout.Courier()
	embedded := p.Fonts.Has(FontFamily)
	if embedded {
		family = FontFamily
		measurer = p.Fonts.Measurer(FontFamily, false, pagination.FontSizePt)
	}
	layout := pagination.Paginate(doc, pagination.Options{
		Measurer:  measurer,
		TitlePage: p.TitlePage,
		Title:     p.Title,
		Author:    p.Author,
	})

	pdf := gofpdf.New("P", "in", "Letter", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCellMargin(0)
	pdf.SetTitle(p.Title, true)
	pdf.SetAuthor(p.Author, true)
	pdf.SetCreator("goscreenwriter", false)
	pdf.SetCreationDate(p.DraftDate)
	pdf.SetModificationDate(p.DraftDate)

	tr := func(s string) string { return s }
	if embedded {
		regular, _ := p.Fonts.Bytes(FontFamily, false)
		bold, _ := p.Fonts.Bytes(FontFamily, true)
		pdf.AddUTF8FontFromBytes(FontFamily, "", regular)
		pdf.AddUTF8FontFromBytes(FontFamily, "B", bold)
	} else {
		tr = pdf.UnicodeTranslatorFromDescriptor("")
	}

	if layout.TitlePage != nil {
		pdf.AddPage()
		drawLines(pdf, family, tr, layout.TitlePage.Lines)
	}
	for _, pg := range layout.Pages {
		pdf.AddPage()
		if pg.Label != "" {
			pdf.SetFont(family, "", pagination.FontSizePt)
			pdf.SetXY(pagination.MarginLeft, pagination.PageNumberTop)
			pdf.CellFormat(pagination.PageNumberRight-pagination.MarginLeft, pagination.LineHeight, tr(pg.Label), "", 0, "R", false, 0, "")
		}
		drawLines(pdf, family, tr, pg.Lines)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func drawLines(pdf *gofpdf.Fpdf, family string, tr func(string) string, lines []pagination.Line) {
	for _, l := range lines {
		style := ""
		if l.Bold {
			style = "B"
		}
		pdf.SetFont(family, style, pagination.FontSizePt)
		pdf.SetXY(l.X, l.Y)
		pdf.CellFormat(l.Width, pagination.LineHeight, tr(l.Text), "", 0, cellAlign(l.Align), false, 0, "")
	}
}

func cellAlign(a script.Align) string {
	switch a {
	case script.AlignRight:
		return "RM"
	case script.AlignCenter:
		return "CM"
	}
	return "LM"
}
