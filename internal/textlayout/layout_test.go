/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/image/font/gofont/gobold"
)

func TestWrap_Greedy(t *testing.T) {
	got := Wrap("Hello world from Go", 1.2, Courier())
	want := []string{"Hello world", "from Go"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestWrap_ExactFit(t *testing.T) {
	line := strings.Repeat("a", 30) + " " + strings.Repeat("b", 29)
	got := Wrap(line, 6.0, Courier())
	if len(got) != 1 {
		t.Fatalf("60 characters must fit 6 inches, got %q", got)
	}
}

func TestWrap_LongWordOwnLine(t *testing.T) {
	got := Wrap("a "+strings.Repeat("x", 40)+" b", 2.0, Courier())
	if len(got) != 3 || got[1] != strings.Repeat("x", 40) {
		t.Fatalf("long word should stand alone, got %q", got)
	}
}

func TestWrap_EmptyIsOneLine(t *testing.T) {
	if got := Wrap("   ", 3, nil); len(got) != 1 || got[0] != "" {
		t.Fatalf("expected one empty line, got %q", got)
	}
}

func TestMaxChars(t *testing.T) {
	cases := map[float64]int{6.0: 60, 3.5: 35, 2.8: 28, 2.4: 24, 2.0: 20}
	for w, want := range cases {
		if got := MaxChars(w, CourierCharWidth); got != want {
			t.Fatalf("width %.1f: expected %d, got %d", w, want, got)
		}
	}
}

func TestBasicFaceMeasure_Deterministic(t *testing.T) {
	m := Basic()
	if got := m.Advance("ABC"); math.Abs(got-m.Advance("A")-m.Advance("BC")) > 1e-9 {
		t.Fatalf("advance must be additive for a fixed face")
	}
	if got := m.Advance("A"); math.Abs(got-7.0/72) > 1e-9 {
		t.Fatalf("expected 7px at 72dpi, got %v", got)
	}
	if w := Measure(m, "AB\nABCD"); math.Abs(w-m.Advance("ABCD")) > 1e-9 {
		t.Fatalf("measure should report the widest line")
	}
}

func TestFontLibrary_FallbackToCourier(t *testing.T) {
	lib := NewFontLibrary()
	if _, ok := lib.Measurer("Missing", false, 12).(Monospace); !ok {
		t.Fatalf("expected Courier fallback")
	}
	if lib.Has("Missing") {
		t.Fatalf("unexpected family")
	}
	if err := lib.Add("Broken", false, []byte("not a font")); err == nil {
		t.Fatalf("expected parse error")
	}
	if err := lib.LoadTTF("Nope", false, "does-not-exist.ttf"); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestFontLibrary_HasNeedsRegularWeight(t *testing.T) {
	lib := NewFontLibrary()
	if err := lib.Add("Mono", true, gobold.TTF); err != nil {
		t.Fatalf("add bold: %v", err)
	}
	if lib.Has("Mono") {
		t.Fatalf("bold-only family must not count as loaded")
	}
	if _, ok := lib.Bytes("Mono", true); !ok {
		t.Fatalf("bold bytes should still be available")
	}
	var nilLib *FontLibrary
	if nilLib.Has("Mono") {
		t.Fatalf("nil library has no fonts")
	}
}
