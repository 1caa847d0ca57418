/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"errors"
	"testing"
	"time"
)

const sampleScript = `FADE IN:

INT. KITCHEN - DAY

Steam rises from a kettle.

JOHN
(tired)
Hello there.

MARY
Hi John!

CUT TO:`

func TestSlugAndFilename(t *testing.T) {
	cases := map[string]string{
		"My Script":      "my_script",
		"Night-Train 2!": "night_train_2_",
		"ÜBER":           "_ber",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Fatalf("slug(%q): expected %q, got %q", in, want, got)
		}
	}
	if got := Filename("", FormatPDF); got != "untitled_screenplay.pdf" {
		t.Fatalf("unexpected default filename %q", got)
	}
	if got := Filename("Act One", FormatFDX); got != "act_one.fdx" {
		t.Fatalf("unexpected filename %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"PDF": FormatPDF, ".fdx": FormatFDX, "fountain": FormatFountain} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("parse %q: got %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("docx"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	if FormatFountain.MIMEType() != "text/plain" || FormatFDX.MIMEType() != "application/xml" || FormatPDF.MIMEType() != "application/pdf" {
		t.Fatalf("unexpected MIME types")
	}
}

func TestSnapshot_IsImmutableCopy(t *testing.T) {
	buf := []byte("JOHN\nHi.")
	snap := TakeSnapshot(string(buf))
	buf[0] = 'X'
	if snap.Text != "JOHN\nHi." {
		t.Fatalf("snapshot changed with source buffer: %q", snap.Text)
	}
	if len(snap.Digest) != 64 || TakeSnapshot("JOHN\nHi.").Digest != snap.Digest {
		t.Fatalf("digest should be stable hex blake3, got %q", snap.Digest)
	}
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	k1 := snap.CacheKey(FormatPDF, Params{Title: "A", DraftDate: day})
	k2 := snap.CacheKey(FormatPDF, Params{Title: "B", DraftDate: day})
	if k1 == k2 || k1 != snap.CacheKey(FormatPDF, Params{Title: "A", DraftDate: day}) {
		t.Fatalf("cache key must depend on params and be stable")
	}
}

func TestRender_AllFormats(t *testing.T) {
	snap := TakeSnapshot(sampleScript)
	for _, f := range Formats() {
		a, err := Render(context.Background(), snap, f, Params{Title: "Kettle"})
		if err != nil {
			t.Fatalf("render %s: %v", f, err)
		}
		if len(a.Data) == 0 || a.Filename != "kettle"+f.Extension() || a.MIMEType != f.MIMEType() {
			t.Fatalf("unexpected artifact %+v", a)
		}
	}
	if _, err := Render(context.Background(), snap, Format("rtf"), Params{}); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestRender_EmptyDocument(t *testing.T) {
	snap := TakeSnapshot("")
	for _, f := range Formats() {
		if _, err := Render(context.Background(), snap, f, Params{}); err != nil {
			t.Fatalf("empty document must export as %s: %v", f, err)
		}
	}
}
