/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"sync"
	"time"
)

// Snapshot is the text of one buffer plus the caret position at capture time.
// Aux carries caller state restored together with the text, such as line
// annotations; the manager never inspects it. Size is estimated as len(Text).
type Snapshot struct {
	Buffer string
	Text   string
	Line   int
	Col    int
	Aux    any
	TS     time.Time
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; older entries are pruned when exceeded.
	MaxBytes int
	// MaxDepth limits number of snapshots per buffer (0 means unlimited).
	MaxDepth int
	// MinInterval coalesces snapshots recorded within the interval for the same
	// buffer: the earlier state is kept and only its timestamp advances.
	MinInterval time.Duration
}

// Manager keeps undo/redo stacks per buffer. Callers record the state before a
// change; Undo and Redo exchange the current state for a stored one.
// It is safe for concurrent use.
type Manager struct {
	cfg Config
	mu  sync.Mutex
	// per-buffer stacks
	undo map[string][]Snapshot
	redo map[string][]Snapshot
	// accounting
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 8 * 1024 * 1024 // 8 MiB
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	return &Manager{cfg: cfg, undo: make(map[string][]Snapshot), redo: make(map[string][]Snapshot)}
}

// Record stores the state preceding a change. Within MinInterval of the last
// record for the same buffer the older state wins. Clears redo for the buffer.
func (m *Manager) Record(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropRedoLocked(s.Buffer)
	stack := m.undo[s.Buffer]
	if n := len(stack); n > 0 && m.cfg.MinInterval > 0 {
		if s.TS.Sub(stack[n-1].TS) < m.cfg.MinInterval {
			stack[n-1].TS = s.TS
			return
		}
	}
	m.undo[s.Buffer] = append(stack, s)
	m.totalBytes += len(s.Text)
	m.enforceCapsLocked(s.Buffer)
}

// Undo returns the most recent recorded state and parks current on the redo stack.
func (m *Manager) Undo(current Snapshot) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[current.Buffer]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	m.undo[current.Buffer] = stack[:len(stack)-1]
	m.totalBytes -= len(s.Text)
	m.redo[current.Buffer] = append(m.redo[current.Buffer], current)
	m.totalBytes += len(current.Text)
	return s, true
}

// Redo reverses the last Undo, parking current on the undo stack.
func (m *Manager) Redo(current Snapshot) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[current.Buffer]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	m.redo[current.Buffer] = r[:len(r)-1]
	m.totalBytes -= len(s.Text)
	m.undo[current.Buffer] = append(m.undo[current.Buffer], current)
	m.totalBytes += len(current.Text)
	m.enforceCapsLocked(current.Buffer)
	return s, true
}

// CanUndo reports whether buffer has recorded states.
func (m *Manager) CanUndo(buffer string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo[buffer]) > 0
}

// CanRedo reports whether buffer has undone states.
func (m *Manager) CanRedo(buffer string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo[buffer]) > 0
}

// Clear drops both stacks for a buffer.
func (m *Manager) Clear(buffer string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.undo[buffer] {
		m.totalBytes -= len(s.Text)
	}
	m.dropRedoLocked(buffer)
	delete(m.undo, buffer)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, buffers int, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	buffers = len(m.undo)
	for _, v := range m.undo {
		totalSnapshots += len(v)
	}
	return m.totalBytes, buffers, totalSnapshots
}

func (m *Manager) dropRedoLocked(buffer string) {
	for _, s := range m.redo[buffer] {
		m.totalBytes -= len(s.Text)
	}
	delete(m.redo, buffer)
}

func (m *Manager) enforceCapsLocked(buffer string) {
	if m.cfg.MaxDepth > 0 {
		stack := m.undo[buffer]
		if len(stack) > m.cfg.MaxDepth {
			toDrop := len(stack) - m.cfg.MaxDepth
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= len(stack[i].Text)
			}
			m.undo[buffer] = append([]Snapshot{}, stack[toDrop:]...)
		}
	}
	// Global memory cap: prune oldest across all buffers
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes {
		oldest := ""
		found := false
		var oldestTS time.Time
		for b, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if !found || stack[0].TS.Before(oldestTS) {
				oldest, oldestTS, found = b, stack[0].TS, true
			}
		}
		if !found {
			break
		}
		stack := m.undo[oldest]
		m.totalBytes -= len(stack[0].Text)
		m.undo[oldest] = stack[1:]
		if len(m.undo[oldest]) == 0 {
			delete(m.undo, oldest)
		}
	}
}
