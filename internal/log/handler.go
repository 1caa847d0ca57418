/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// contextHandler copies the script and job carried by ctx onto the record.
type contextHandler struct{ next slog.Handler }

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if v, ok := ctx.Value(scriptKey).(string); ok && v != "" {
			r.AddAttrs(slog.String("script", v))
		}
		if v, ok := ctx.Value(jobKey).(string); ok && v != "" {
			r.AddAttrs(slog.String("job", v))
		}
	}
	return h.next.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name)}
}

// fanout sends every record to all handlers; the first error wins.
func fanout(hs ...slog.Handler) slog.Handler {
	if len(hs) == 1 {
		return hs[0]
	}
	return multiHandler(hs)
}

type multiHandler []slog.Handler

func (m multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range m {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (m multiHandler) WithGroup(name string) slog.Handler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = h.WithGroup(name)
	}
	return out
}

// consoleHandler writes one line per record:
//
//	15:04:05.000 INF [export/batch] export finished script=pilot.fountain job=1a2b3c4d artifacts=3
//
// component and op form the bracketed tag, the script is shown by file name
// and job ids are shortened. app and ver are left to the JSON outputs.
type consoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     slog.Leveler
	addSource bool
	component string
	op        string
	fields    []slog.Attr // keys qualified by their groups
	groups    []string
}

func newConsoleHandler(w io.Writer, level slog.Leveler, addSource bool) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: level, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	floor := slog.LevelInfo
	if h.level != nil {
		floor = h.level.Level()
	}
	return level >= floor
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	component, op := h.component, h.op
	var scriptName, job string
	var rest []slog.Attr
	r.Attrs(func(a slog.Attr) bool {
		switch {
		case len(h.groups) > 0:
			rest = append(rest, a)
		case a.Key == "component":
			component = a.Value.String()
		case a.Key == "op":
			op = a.Value.String()
		case a.Key == "script":
			scriptName = filepath.Base(a.Value.String())
		case a.Key == "job":
			job = shortJob(a.Value.String())
		default:
			rest = append(rest, a)
		}
		return true
	})

	var b strings.Builder
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	b.WriteString(ts.Format("15:04:05.000"))
	b.WriteByte(' ')
	b.WriteString(levelTag(r.Level))
	if component != "" {
		b.WriteString(" [")
		b.WriteString(component)
		if op != "" {
			b.WriteByte('/')
			b.WriteString(op)
		}
		b.WriteByte(']')
	}
	if r.Message != "" {
		b.WriteByte(' ')
		b.WriteString(r.Message)
	}
	if scriptName != "" {
		writeField(&b, "script", slog.StringValue(scriptName))
	}
	if job != "" {
		writeField(&b, "job", slog.StringValue(job))
	}
	for _, a := range h.fields {
		writeField(&b, a.Key, a.Value)
	}
	prefix := groupPrefix(h.groups)
	for _, a := range rest {
		flatten(prefix, a, func(key string, v slog.Value) { writeField(&b, key, v) })
	}
	if h.addSource && r.PC != 0 {
		fr, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		writeField(&b, "src", slog.StringValue(filepath.Base(fr.File)+":"+strconv.Itoa(fr.Line)))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.clone()
	prefix := groupPrefix(h.groups)
	for _, a := range attrs {
		switch {
		case prefix != "":
		case a.Key == "component":
			c.component = a.Value.String()
			continue
		case a.Key == "op":
			c.op = a.Value.String()
			continue
		case a.Key == "app" || a.Key == "ver":
			continue
		}
		flatten(prefix, a, func(key string, v slog.Value) {
			c.fields = append(c.fields, slog.Attr{Key: key, Value: v})
		})
	}
	return c
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.groups = append(c.groups, name)
	return c
}

func (h *consoleHandler) clone() *consoleHandler {
	c := *h
	c.fields = append([]slog.Attr(nil), h.fields...)
	c.groups = append([]string(nil), h.groups...)
	return &c
}

func groupPrefix(groups []string) string {
	if len(groups) == 0 {
		return ""
	}
	return strings.Join(groups, ".") + "."
}

// flatten resolves a and calls fn for every leaf, qualifying keys of nested
// groups with dots. Empty attrs are skipped.
func flatten(prefix string, a slog.Attr, fn func(key string, v slog.Value)) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range v.Group() {
			flatten(p, ga, fn)
		}
		return
	}
	if a.Key == "" {
		return
	}
	fn(prefix+a.Key, v)
}

func writeField(b *strings.Builder, key string, v slog.Value) {
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(quoteIfNeeded(valueString(v)))
}

func valueString(v slog.Value) string {
	switch v.Kind() {
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
	}
	return v.String()
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\r\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

// shortJob keeps the first block of a uuid job id.
func shortJob(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func levelTag(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "DBG"
	case l < slog.LevelWarn:
		return "INF"
	case l < slog.LevelError:
		return "WRN"
	}
	return "ERR"
}
