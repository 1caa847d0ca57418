/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders a screenplay snapshot to Fountain, Final Draft XML
// and PDF, and reads Final Draft files back.
package export

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"goscreenwriter/internal/script"
	"goscreenwriter/internal/textlayout"
)

// Format names an export target.
type Format string

const (
	FormatFountain Format = "fountain"
	FormatFDX      Format = "fdx"
	FormatPDF      Format = "pdf"
)

// DefaultTitle is used when Params.Title is blank.
const DefaultTitle = "Untitled Screenplay"

var (
	// ErrUnknownFormat is returned for format names other than fountain, fdx and pdf.
	ErrUnknownFormat = errors.New("unknown export format")
	// ErrSuperseded is delivered to a job replaced by a newer submission.
	ErrSuperseded = errors.New("export superseded by a newer request")
)

// Formats lists every supported format.
func Formats() []Format { return []Format{FormatFountain, FormatFDX, FormatPDF} }

// ParseFormat accepts a format name or extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "fountain", "txt", "plain":
		return FormatFountain, nil
	case "fdx", "xml", "finaldraft":
		return FormatFDX, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatFountain:
		return ".fountain"
	case FormatFDX:
		return ".fdx"
	case FormatPDF:
		return ".pdf"
	}
	return ""
}

// MIMEType returns the content type of the rendered artifact.
func (f Format) MIMEType() string {
	switch f {
	case FormatFountain:
		return "text/plain"
	case FormatFDX:
		return "application/xml"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Slug lower-cases title and replaces every rune outside [a-z0-9] with "_".
func Slug(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Filename returns slug(title) plus the format's extension.
func Filename(title string, f Format) string {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	return Slug(title) + f.Extension()
}

// Params are the caller-supplied export parameters.
type Params struct {
	Title     string
	Author    string
	DraftDate time.Time
	// TitlePage adds a title page to PDF output.
	TitlePage bool
	// Fonts optionally supplies an embedded TTF family for PDF output.
	Fonts *textlayout.FontLibrary
}

func (p Params) withDefaults() Params {
	if strings.TrimSpace(p.Title) == "" {
		p.Title = DefaultTitle
	}
	if p.DraftDate.IsZero() {
		p.DraftDate = time.Now()
	}
	return p
}

// Snapshot is an immutable copy of the raw text taken when an export starts.
type Snapshot struct {
	Text   string
	Digest string
	Taken  time.Time
}

// TakeSnapshot copies text and records its blake3 digest.
func TakeSnapshot(text string) Snapshot {
	sum := blake3.Sum256([]byte(text))
	return Snapshot{Text: strings.Clone(text), Digest: hex.EncodeToString(sum[:]), Taken: time.Now()}
}

// Document parses the snapshot.
func (s Snapshot) Document() *script.Document { return script.Parse(s.Text) }

// CacheKey identifies the artifact of format f for this snapshot and params.
func (s Snapshot) CacheKey(f Format, p Params) string {
	p = p.withDefaults()
	h := blake3.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%s\x00%t", s.Digest, f, p.Title, p.Author, p.DraftDate.Format(time.DateOnly), p.TitlePage)
	if p.Fonts != nil && p.Fonts.Has(FontFamily) {
		b, _ := p.Fonts.Bytes(FontFamily, false)
		_, _ = h.Write(b)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Artifact is one rendered export.
type Artifact struct {
	Format   Format
	Filename string
	MIMEType string
	Data     []byte
}

// Render produces the artifact of format f for snap.
func Render(ctx context.Context, snap Snapshot, f Format, p Params) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	p = p.withDefaults()
	var (
		data []byte
		err  error
	)
	switch f {
	case FormatFountain:
		data = Fountain(snap.Text, p)
	case FormatFDX:
		data, err = FDX(snap.Document(), p)
	case FormatPDF:
		data, err = PDF(snap.Document(), p)
	default:
		return Artifact{}, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return Artifact{}, fmt.Errorf("render %s: %w", f, err)
	}
	return Artifact{Format: f, Filename: Filename(p.Title, f), MIMEType: f.MIMEType(), Data: data}, nil
}
