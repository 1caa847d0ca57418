/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package report builds the JSON outline of a script (scenes, characters and
// counters) and checks it against the bundled JSON schema.
package report

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"goscreenwriter/internal/script"
)

//go:embed report.schema.json
var schemaJSON []byte

// Schema returns the JSON schema reports conform to.
func Schema() []byte { return append([]byte(nil), schemaJSON...) }

// Report is the outline of one script snapshot.
type Report struct {
	Title       string                 `json:"title"`
	Author      string                 `json:"author,omitempty"`
	Digest      string                 `json:"digest,omitempty"`
	GeneratedAt *time.Time             `json:"generatedAt,omitempty"`
	Stats       Stats                  `json:"stats"`
	Scenes      []Scene                `json:"scenes"`
	Characters  []script.CharacterStat `json:"characters"`
}

// Stats extends the live counters with scene and character totals.
type Stats struct {
	script.Stats
	Scenes     int `json:"scenes"`
	Characters int `json:"characters"`
}

// Scene is one scene of the outline. Elements counts the lines from the
// heading up to the next heading; Characters lists the cues spoken in it in
// order of first appearance.
type Scene struct {
	Number     string   `json:"number"`
	Heading    string   `json:"heading"`
	Line       int      `json:"line"`
	Prefix     string   `json:"prefix"`
	Location   string   `json:"location,omitempty"`
	Time       string   `json:"time,omitempty"`
	Locked     bool     `json:"locked,omitempty"`
	Omitted    bool     `json:"omitted,omitempty"`
	Elements   int      `json:"elements"`
	Characters []string `json:"characters,omitempty"`
}

// Options carries metadata that is not part of the text.
type Options struct {
	Title  string
	Author string
	Digest string
	// GeneratedAt is omitted from the output when zero, which keeps reports
	// of the same snapshot byte-identical.
	GeneratedAt time.Time
	// KnownCharacters are appended as zero-count entries.
	KnownCharacters []string
}

// Build derives the outline from doc.
func Build(doc *script.Document, opts Options) Report {
	r := Report{
		Title:      strings.TrimSpace(opts.Title),
		Author:     strings.TrimSpace(opts.Author),
		Digest:     opts.Digest,
		Scenes:     make([]Scene, 0, len(doc.Scenes)),
		Characters: script.SeedCharacters(doc.Characters, opts.KnownCharacters),
	}
	if r.Title == "" {
		r.Title = "Untitled Screenplay"
	}
	if r.Characters == nil {
		r.Characters = []script.CharacterStat{}
	}
	if !opts.GeneratedAt.IsZero() {
		ts := opts.GeneratedAt.UTC()
		r.GeneratedAt = &ts
	}
	for i, sc := range doc.Scenes {
		end := len(doc.Elements)
		if i+1 < len(doc.Scenes) {
			end = doc.Scenes[i+1].Line
		}
		r.Scenes = append(r.Scenes, Scene{
			Number:     sc.Number,
			Heading:    sc.Heading,
			Line:       sc.Line,
			Prefix:     sc.Parts.Prefix,
			Location:   sc.Parts.Location,
			Time:       sc.Parts.Time,
			Locked:     sc.Locked,
			Omitted:    sc.Omitted,
			Elements:   end - sc.Line,
			Characters: speakers(doc.Elements[sc.Line:end]),
		})
	}
	r.Stats = Stats{
		Stats:      script.ComputeStats(doc.Text),
		Scenes:     len(doc.Scenes),
		Characters: len(doc.Characters),
	}
	return r
}

func speakers(els []script.Element) []string {
	var out []string
	seen := map[string]bool{}
	for _, el := range els {
		if el.Kind != script.Character {
			continue
		}
		name := strings.ToUpper(el.Text)
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// Marshal encodes r as indented JSON and validates it against the schema.
func Marshal(r Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// ValidationError lists every schema violation of a report document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "report does not conform to schema: " + strings.Join(e.Problems, "; ")
}

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// Validate checks a JSON document against the report schema. Violations are
// returned as *ValidationError.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validate: %w", err)
	}
	if result.Valid() {
		return nil
	}
	ve := &ValidationError{}
	for _, e := range result.Errors() {
		ve.Problems = append(ve.Problems, e.String())
	}
	return ve
}

// IsValidationError reports whether err carries schema violations.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
