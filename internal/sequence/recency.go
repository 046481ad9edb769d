/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sequence

// recencyWindow is the FIFO set of the last N selected track ids. It is
// run-local state, reset for every generation run — not persisted playback
// history.
type recencyWindow struct {
	size    int
	order   []string
	members map[string]struct{}
}

func newRecencyWindow(size int) *recencyWindow {
	return &recencyWindow{
		size:    size,
		members: make(map[string]struct{}, size),
	}
}

// isEligible is false iff the id is currently inside the window.
func (w *recencyWindow) isEligible(trackID string) bool {
	if w.size == 0 {
		return true
	}
	_, recent := w.members[trackID]
	return !recent
}

// record pushes the id, evicting the oldest entry once the window is full.
func (w *recencyWindow) record(trackID string) {
	if w.size == 0 {
		return
	}
	if _, ok := w.members[trackID]; ok {
		return
	}
	w.order = append(w.order, trackID)
	w.members[trackID] = struct{}{}
	if len(w.order) > w.size {
		oldest := w.order[0]
		w.order = w.order[1:]
		delete(w.members, oldest)
	}
}
