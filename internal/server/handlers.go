/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"goscreenwriter/internal/export"
	"goscreenwriter/internal/report"
	"goscreenwriter/internal/script"
)

// maxTextRunes bounds the script text accepted in one request.
const maxTextRunes = 2_000_000

// scriptRequest is the JSON body shared by every POST route.
type scriptRequest struct {
	Text            string   `json:"text"`
	Title           string   `json:"title,omitempty"`
	Author          string   `json:"author,omitempty"`
	KnownCharacters []string `json:"knownCharacters,omitempty"`
}

// Validate validates the request body.
func (r scriptRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.Length(0, maxTextRunes)),
		validation.Field(&r.Title, validation.Length(0, 200)),
		validation.Field(&r.Author, validation.Length(0, 200)),
		validation.Field(&r.KnownCharacters, validation.Length(0, 1000), validation.Each(validation.Required, validation.Length(1, 60))),
	)
}

func decodeScript(w http.ResponseWriter, r *http.Request) (scriptRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	var req scriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return req, false
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
		return req, false
	}
	return req, true
}

type classifiedLine struct {
	Line int         `json:"line"`
	Kind script.Kind `json:"kind"`
	Text string      `json:"text"`
}

type classifyResponse struct {
	Elements   []classifiedLine       `json:"elements"`
	Scenes     []script.Scene         `json:"scenes"`
	Characters []script.CharacterStat `json:"characters"`
	Stats      script.Stats           `json:"stats"`
}

// Classify handles POST /v1/classify: one element per line plus the derived
// scenes, character stats and counters.
func (s *Server) Classify(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeScript(w, r)
	if !ok {
		return
	}
	doc := script.Parse(req.Text)
	resp := classifyResponse{
		Elements:   make([]classifiedLine, len(doc.Elements)),
		Scenes:     doc.Scenes,
		Characters: script.SeedCharacters(doc.Characters, req.KnownCharacters),
		Stats:      script.ComputeStats(req.Text),
	}
	for i, el := range doc.Elements {
		resp.Elements[i] = classifiedLine{Line: i, Kind: el.Kind, Text: el.Text}
	}
	if resp.Scenes == nil {
		resp.Scenes = []script.Scene{}
	}
	if resp.Characters == nil {
		resp.Characters = []script.CharacterStat{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Report handles POST /v1/report.
func (s *Server) Report(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeScript(w, r)
	if !ok {
		return
	}
	snap := export.TakeSnapshot(req.Text)
	rep := report.Build(snap.Document(), report.Options{
		Title:           firstNonEmpty(req.Title, s.opts.Defaults.Title),
		Author:          firstNonEmpty(req.Author, s.opts.Defaults.Author),
		Digest:          snap.Digest,
		KnownCharacters: req.KnownCharacters,
	})
	data, err := report.Marshal(rep)
	if err != nil {
		s.log.Error("report failed", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeBytes(w, "application/json; charset=utf-8", "", data)
}

// Export handles POST /v1/export/{format}. The query parameters title,
// author and titlePage override the body and the server defaults.
func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
		return
	}
	req, ok := decodeScript(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	p := s.opts.Defaults
	p.Title = firstNonEmpty(q.Get("title"), req.Title, p.Title)
	p.Author = firstNonEmpty(q.Get("author"), req.Author, p.Author)
	p.Fonts = s.opts.Fonts
	if p.DraftDate.IsZero() {
		p.DraftDate = s.opts.Now()
	}
	if v := q.Get("titlePage"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("titlePage must be a boolean"))
			return
		}
		p.TitlePage = b
	}
	if err := validation.Validate(p.Title, validation.Length(0, 200)); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody("title: "+err.Error()))
		return
	}

	ctx := r.Context()
	arts, err := export.Batch(ctx, export.TakeSnapshot(req.Text), export.BatchOptions{
		Formats:   []export.Format{f},
		TitlePage: &p.TitlePage,
		Cache:     s.opts.Cache,
	}, p)
	if err != nil {
		if errors.Is(err, ctx.Err()) {
			return
		}
		s.log.Error("export failed", slog.String("format", string(f)), slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorBody("export failed"))
		return
	}
	a := arts[0]
	w.Header().Set("Last-Modified", p.DraftDate.UTC().Format(http.TimeFormat))
	writeBytes(w, a.MIMEType, a.Filename, a.Data)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
