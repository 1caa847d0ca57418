/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"strings"
	"testing"
)

func TestComputeStats_Empty(t *testing.T) {
	if st := ComputeStats("  \n "); st != (Stats{}) {
		t.Fatalf("expected zero stats, got %+v", st)
	}
}

func TestComputeStats_Pages(t *testing.T) {
	lines := make([]string, 56)
	for i := range lines {
		lines[i] = "Action line."
	}
	if st := ComputeStats(strings.Join(lines, "\n")); st.Pages != 1 || st.Words != 112 {
		t.Fatalf("56 lines: %+v", st)
	}
	lines = append(lines, "One more.")
	if st := ComputeStats(strings.Join(lines, "\n")); st.Pages != 2 {
		t.Fatalf("57 lines: %+v", st)
	}
}

func TestComputeStats_DialoguePercent(t *testing.T) {
	st := ComputeStats("INT. HOUSE - DAY\nJOHN\nHello.\n\nCUT TO:")
	if st.DialoguePercent != 25 {
		t.Fatalf("expected 25%%, got %+v", st)
	}
}
