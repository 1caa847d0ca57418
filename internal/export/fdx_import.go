/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"goscreenwriter/internal/script"
)

var (
	fdxRootExpr      = xpath.MustCompile("/FinalDraft")
	fdxParagraphExpr = xpath.MustCompile("/FinalDraft/Content/Paragraph")
	fdxTitleExpr     = xpath.MustCompile("/FinalDraft/TitlePage/Content/Paragraph[@Type='Title']")
	fdxTextExpr      = xpath.MustCompile("Text")
)

// ErrNotFDX is returned when the input has no FinalDraft root element.
var ErrNotFDX = errors.New("not a Final Draft document")

// FDXScript is the content read back from a Final Draft file.
type FDXScript struct {
	Title    string
	Elements []script.Element
	// SceneNumbers maps element indexes of scene headings to their Number attribute.
	SceneNumbers map[int]string
}

// ImportFDX reads a Final Draft XML document. Paragraph text is the
// concatenation of its Text runs; General paragraphs without text become
// empty lines.
func ImportFDX(r io.Reader) (FDXScript, error) {
	root, err := xmlquery.Parse(r)
	if err != nil {
		return FDXScript{}, fmt.Errorf("parse fdx: %w", err)
	}
	if xmlquery.QuerySelector(root, fdxRootExpr) == nil {
		return FDXScript{}, ErrNotFDX
	}
	out := FDXScript{SceneNumbers: map[int]string{}}
	if t := xmlquery.QuerySelector(root, fdxTitleExpr); t != nil {
		out.Title = strings.TrimSpace(paragraphText(t))
	}
	for _, p := range xmlquery.QuerySelectorAll(root, fdxParagraphExpr) {
		text := paragraphText(p)
		kind := KindForLabel(p.SelectAttr("Type"))
		if strings.TrimSpace(text) == "" {
			kind = script.Empty
			text = ""
		}
		if n := p.SelectAttr("Number"); n != "" && kind == script.SceneHeading {
			out.SceneNumbers[len(out.Elements)] = sceneNumberAttr(n)
		}
		out.Elements = append(out.Elements, script.Element{Kind: kind, Text: text})
	}
	return out, nil
}

func paragraphText(p *xmlquery.Node) string {
	var b strings.Builder
	for _, t := range xmlquery.QuerySelectorAll(p, fdxTextExpr) {
		b.WriteString(t.InnerText())
	}
	return b.String()
}

// Text joins the element texts into raw screenplay text.
func (s FDXScript) Text() string {
	lines := make([]string, len(s.Elements))
	for i, el := range s.Elements {
		lines[i] = el.Text
	}
	return strings.Join(lines, "\n")
}

// TextWithSceneNumbers is Text with each numbered scene heading prefixed by
// its number, unless the heading already carries one.
func (s FDXScript) TextWithSceneNumbers() string {
	lines := make([]string, len(s.Elements))
	for i, el := range s.Elements {
		lines[i] = el.Text
		n, ok := s.SceneNumbers[i]
		if !ok {
			continue
		}
		if script.SceneNumber(el.Text) == "" {
			lines[i] = n + " " + el.Text
		}
	}
	return strings.Join(lines, "\n")
}
