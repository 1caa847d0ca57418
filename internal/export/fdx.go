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
	"encoding/xml"
	"strconv"

	"goscreenwriter/internal/script"
)

// FDX paragraph labels.
const (
	LabelSceneHeading  = "Scene Heading"
	LabelAction        = "Action"
	LabelCharacter     = "Character"
	LabelDialogue      = "Dialogue"
	LabelParenthetical = "Parenthetical"
	LabelTransition    = "Transition"
	LabelShot          = "Shot"
	LabelGeneral       = "General"
	LabelTitle         = "Title"
)

// FDXLabel maps a kind to its Final Draft paragraph type. Empty lines become
// General paragraphs.
func FDXLabel(k script.Kind) string {
	switch k {
	case script.SceneHeading:
		return LabelSceneHeading
	case script.Action:
		return LabelAction
	case script.Character:
		return LabelCharacter
	case script.Dialogue:
		return LabelDialogue
	case script.Parenthetical:
		return LabelParenthetical
	case script.Transition:
		return LabelTransition
	case script.Shot:
		return LabelShot
	}
	return LabelGeneral
}

// KindForLabel is the inverse of FDXLabel; unknown labels map to Action.
func KindForLabel(label string) script.Kind {
	switch label {
	case LabelSceneHeading:
		return script.SceneHeading
	case LabelAction:
		return script.Action
	case LabelCharacter:
		return script.Character
	case LabelDialogue:
		return script.Dialogue
	case LabelParenthetical:
		return script.Parenthetical
	case LabelTransition:
		return script.Transition
	case LabelShot:
		return script.Shot
	case LabelGeneral:
		return script.General
	}
	return script.Action
}

type fdxDocument struct {
	XMLName      xml.Name     `xml:"FinalDraft"`
	DocumentType string       `xml:"DocumentType,attr"`
	Template     string       `xml:"Template,attr"`
	Version      string       `xml:"Version,attr"`
	Content      fdxContent   `xml:"Content"`
	TitlePage    fdxTitlePage `xml:"TitlePage"`
}

type fdxContent struct {
	Paragraphs []fdxParagraph `xml:"Paragraph"`
}

type fdxParagraph struct {
	Type   string `xml:"Type,attr"`
	Number string `xml:"Number,attr,omitempty"`
	Text   string `xml:"Text"`
}

type fdxTitlePage struct {
	Content fdxContent `xml:"Content"`
}

// FDX renders doc as a Final Draft XML document. Every element, including
// empty lines, becomes one paragraph.
func FDX(doc *script.Document, p Params) ([]byte, error) {
	p = p.withDefaults()
	out := fdxDocument{
		DocumentType: "Script",
		Template:     "No",
		Version:      "1",
		TitlePage: fdxTitlePage{Content: fdxContent{
			Paragraphs: []fdxParagraph{{Type: LabelTitle, Text: p.Title}},
		}},
	}
	numbers := map[int]string{}
	if doc != nil {
		for _, sc := range doc.Scenes {
			numbers[sc.ElementIndex] = sc.Number
		}
		out.Content.Paragraphs = make([]fdxParagraph, 0, len(doc.Elements))
		for i, el := range doc.Elements {
			out.Content.Paragraphs = append(out.Content.Paragraphs, fdxParagraph{
				Type:   FDXLabel(el.Kind),
				Number: numbers[i],
				Text:   el.Text,
			})
		}
	}
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="no" ?>` + "\n")
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// sceneNumberAttr keeps numeric scene numbers canonical on import.
func sceneNumberAttr(s string) string {
	if n, err := strconv.Atoi(s); err == nil {
		return strconv.Itoa(n)
	}
	return s
}
