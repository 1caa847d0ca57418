/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// FontLibrary stores loaded OpenType fonts mapped by family and weight.
// It is an in-memory library; variations beyond bold are not supported.
type FontLibrary struct {
	fonts map[fontKey]*opentype.Font
	raw   map[fontKey][]byte
}

type fontKey struct {
	family string
	bold   bool
}

func NewFontLibrary() *FontLibrary {
	return &FontLibrary{fonts: make(map[fontKey]*opentype.Font), raw: make(map[fontKey][]byte)}
}

// LoadTTF loads a font file into the library under the given family.
func (fl *FontLibrary) LoadTTF(family string, bold bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	if err := fl.Add(family, bold, data); err != nil {
		return fmt.Errorf("parse font %s: %w", path, err)
	}
	return nil
}

// Add parses font bytes and registers them.
func (fl *FontLibrary) Add(family string, bold bool, data []byte) error {
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*opentype.Font)
		fl.raw = make(map[fontKey][]byte)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return err
	}
	k := fontKey{family: family, bold: bold}
	fl.fonts[k] = f
	fl.raw[k] = data
	return nil
}

// Bytes returns the raw font file for embedding, falling back to the regular
// weight when no bold variant was loaded.
func (fl *FontLibrary) Bytes(family string, bold bool) ([]byte, bool) {
	if fl == nil {
		return nil, false
	}
	if b, ok := fl.raw[fontKey{family, bold}]; ok {
		return b, true
	}
	b, ok := fl.raw[fontKey{family, false}]
	return b, ok
}

// Has reports whether the regular weight of family is loaded. A bold-only
// family cannot be embedded on its own.
func (fl *FontLibrary) Has(family string) bool {
	if fl == nil {
		return false
	}
	_, ok := fl.raw[fontKey{family, false}]
	return ok
}

func (fl *FontLibrary) find(family string, bold bool) *opentype.Font {
	if fl == nil || fl.fonts == nil {
		return nil
	}
	if f, ok := fl.fonts[fontKey{family, bold}]; ok {
		return f
	}
	for k, f := range fl.fonts {
		if k.family == family {
			return f
		}
	}
	return nil
}

// Measurer returns a FaceMeasurer for family at sizePt, or Courier when the
// family is not loaded or the face cannot be built.
func (fl *FontLibrary) Measurer(family string, bold bool, sizePt float64) Measurer {
	if sizePt <= 0 {
		sizePt = 12
	}
	if f := fl.find(family, bold); f != nil {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: sizePt, DPI: 72, Hinting: font.HintingNone})
		if err == nil {
			return FaceMeasurer{Face: face, DPI: 72}
		}
	}
	return Courier()
}
