/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"strings"
	"time"
)

// FountainSeparator is the line between the metadata header and the body.
const FountainSeparator = "==="

// Fountain writes the metadata header, the separator and then text unchanged.
func Fountain(text string, p Params) []byte {
	p = p.withDefaults()
	var b strings.Builder
	b.WriteString("Title: " + oneLine(p.Title) + "\n")
	b.WriteString("Credit: Written by\n")
	b.WriteString("Author: " + oneLine(p.Author) + "\n")
	b.WriteString("Draft date: " + p.DraftDate.Format(time.DateOnly) + "\n")
	b.WriteString("\n" + FountainSeparator + "\n")
	b.WriteString(text)
	return []byte(b.String())
}

// FountainBody returns everything after the first separator line. ok is false
// when data has no separator.
func FountainBody(data []byte) (body string, ok bool) {
	s := string(data)
	_, body, ok = strings.Cut(s, "\n"+FountainSeparator+"\n")
	return body, ok
}

// FountainHeader returns the key/value pairs of the metadata header.
func FountainHeader(data []byte) map[string]string {
	s := string(data)
	if head, _, ok := strings.Cut(s, "\n"+FountainSeparator+"\n"); ok {
		s = head
	} else {
		return nil
	}
	out := map[string]string{}
	for _, line := range strings.Split(s, "\n") {
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}

func oneLine(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
