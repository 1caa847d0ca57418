/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"goscreenwriter/internal/export"
	"goscreenwriter/internal/report"
)

const sample = "INT. HOUSE - DAY\n\nJOHN\nHello there.\n\nCUT TO:\n"

type memCache struct {
	mu   sync.Mutex
	m    map[string][]byte
	hits int
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.m[key]; ok {
		c.hits++
		return b, nil
	}
	return nil, export.ErrUnknownFormat
}

func (c *memCache) Put(_ context.Context, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = data
	return nil
}

func testServer(t *testing.T) (http.Handler, *memCache) {
	t.Helper()
	cache := &memCache{m: map[string][]byte{}}
	s := New(Options{
		Defaults: export.Params{Title: "Server Default", Author: "Staff"},
		Cache:    cache,
		Now:      func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) },
	})
	return s.Handler(), cache
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	h, _ := testServer(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var m map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil || m["status"] != "ok" {
		t.Fatalf("body = %s (%v)", w.Body.String(), err)
	}
}

func TestClassify(t *testing.T) {
	h, _ := testServer(t)
	w := post(t, h, "/v1/classify", map[string]any{"text": sample, "knownCharacters": []string{"Mary"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Elements []struct {
			Line int    `json:"line"`
			Kind string `json:"kind"`
			Text string `json:"text"`
		} `json:"elements"`
		Scenes     []map[string]any `json:"scenes"`
		Characters []struct {
			Name string `json:"name"`
		} `json:"characters"`
		Stats map[string]int `json:"stats"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// The trailing newline yields a final empty element.
	want := []string{"sceneHeading", "empty", "character", "dialogue", "empty", "transition", "empty"}
	if len(resp.Elements) != len(want) {
		t.Fatalf("elements = %+v", resp.Elements)
	}
	for i, k := range want {
		if resp.Elements[i].Kind != k || resp.Elements[i].Line != i {
			t.Fatalf("element %d = %+v, want kind %s", i, resp.Elements[i], k)
		}
	}
	if len(resp.Scenes) != 1 {
		t.Fatalf("scenes = %v", resp.Scenes)
	}
	if len(resp.Characters) != 2 || resp.Characters[0].Name != "JOHN" || resp.Characters[1].Name != "MARY" {
		t.Fatalf("characters = %+v", resp.Characters)
	}
	if resp.Stats["pages"] != 1 {
		t.Fatalf("stats = %v", resp.Stats)
	}
}

func TestClassifyRejectsBadInput(t *testing.T) {
	h, _ := testServer(t)
	if w := post(t, h, "/v1/classify", "{not json"); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid JSON status = %d", w.Code)
	}
	w := post(t, h, "/v1/classify", map[string]any{"text": "x", "knownCharacters": []string{""}})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid names status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestReport(t *testing.T) {
	h, _ := testServer(t)
	w := post(t, h, "/v1/report", map[string]any{"text": sample})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if err := report.Validate(w.Body.Bytes()); err != nil {
		t.Fatalf("response does not conform: %v", err)
	}
	var rep report.Report
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.Title != "Server Default" || rep.Author != "Staff" || len(rep.Digest) != 64 {
		t.Fatalf("report metadata = %q %q %q", rep.Title, rep.Author, rep.Digest)
	}
}

func TestExportFountain(t *testing.T) {
	h, cache := testServer(t)
	w := post(t, h, "/v1/export/fountain?title=My+Script&author=Jane", map[string]any{"text": sample})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/plain" {
		t.Fatalf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="my_script.fountain"`) {
		t.Fatalf("content disposition = %q", cd)
	}
	hdr := export.FountainHeader(w.Body.Bytes())
	if hdr["Title"] != "My Script" || hdr["Author"] != "Jane" || hdr["Draft date"] != "2025-06-01" {
		t.Fatalf("header = %v", hdr)
	}
	body, ok := export.FountainBody(w.Body.Bytes())
	if !ok || body != sample {
		t.Fatalf("body = %q", body)
	}

	post(t, h, "/v1/export/fountain?title=My+Script&author=Jane", map[string]any{"text": sample})
	if cache.hits != 1 {
		t.Fatalf("expected a cache hit on the second export, hits = %d", cache.hits)
	}
}

func TestExportPDFAndFDX(t *testing.T) {
	h, _ := testServer(t)
	w := post(t, h, "/v1/export/pdf?titlePage=true", map[string]any{"text": sample})
	if w.Code != http.StatusOK || !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")) {
		t.Fatalf("pdf status = %d, prefix = %q", w.Code, w.Body.Bytes()[:min(8, w.Body.Len())])
	}
	w = post(t, h, "/v1/export/FDX", map[string]any{"text": sample})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `<Paragraph Type="Scene Heading"`) {
		t.Fatalf("fdx status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestExportErrors(t *testing.T) {
	h, _ := testServer(t)
	if w := post(t, h, "/v1/export/docx", map[string]any{"text": sample}); w.Code != http.StatusNotFound {
		t.Fatalf("unknown format status = %d", w.Code)
	}
	if w := post(t, h, "/v1/export/pdf?titlePage=maybe", map[string]any{"text": sample}); w.Code != http.StatusBadRequest {
		t.Fatalf("bad titlePage status = %d", w.Code)
	}
	long := strings.Repeat("x", 201)
	if w := post(t, h, "/v1/export/pdf?title="+long, map[string]any{"text": sample}); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("long title status = %d", w.Code)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := New(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
