// Package render draws the record grid in the terminal: a live area that follows a
// running fetch and a final table once it completes.
package render

import (
	"strings"
	"sync"
	"unicode/utf8"

	"firefly/cli/internal/browser"
)

// ProgressState tracks enrichment progress of the current fetch session.
type ProgressState struct {
	// Total is the number of rows installed by the last full reset
	Total int
	// Updated contains the rows that received attribute values
	Updated map[int]struct{}
	// Recent holds the most recently updated rows, newest last
	Recent []int
	// Resets counts full resets seen
	Resets int
	// mu protects concurrent access to all fields
	mu sync.Mutex
}

// maxRecent bounds Recent.
const maxRecent = 8

// NewProgressState creates an empty ProgressState.
func NewProgressState() *ProgressState {
	return &ProgressState{Updated: make(map[int]struct{})}
}

// Reset starts over with total rows.
func (ps *ProgressState) Reset(total int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.Total = total
	ps.Updated = make(map[int]struct{})
	ps.Recent = nil
	ps.Resets++
}

// MarkRow records that row i changed.
func (ps *ProgressState) MarkRow(i int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.Updated[i] = struct{}{}
	ps.Recent = append(ps.Recent, i)
	if len(ps.Recent) > maxRecent {
		ps.Recent = ps.Recent[len(ps.Recent)-maxRecent:]
	}
}

// Apply feeds one DataChanged notification into the state; total is the
// model's row count at the time of a reset.
func (ps *ProgressState) Apply(row, total int) {
	if row < 0 {
		ps.Reset(total)
		return
	}
	ps.MarkRow(row)
}

// Counts returns updated and total rows.
func (ps *ProgressState) Counts() (updated, total int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.Updated), ps.Total
}

// RecentRows returns a copy of the recently updated row indexes.
func (ps *ProgressState) RecentRows() []int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return append([]int(nil), ps.Recent...)
}

// RenderState holds the live area's animation and padding state.
type RenderState struct {
	// FrameIdx is the current animation frame index for spinners
	FrameIdx int
	// MaxLineLen tracks the maximum line length to prevent flickering
	MaxLineLen int
	// LastRendered caches the last rendered content to avoid unnecessary updates
	LastRendered string
	mu           sync.Mutex
}

// IncrementFrame advances the animation frame index and returns it.
func (rs *RenderState) IncrementFrame() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.FrameIdx++
	return rs.FrameIdx
}

// Changed stores content and reports whether it differs from the last call.
func (rs *RenderState) Changed(content string) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if content == rs.LastRendered {
		return false
	}
	rs.LastRendered = content
	return true
}

// FormatLines pads every line to the widest line seen so far.
func (rs *RenderState) FormatLines(lines []string) string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	for _, l := range lines {
		if n := utf8.RuneCountInString(l); n > rs.MaxLineLen {
			rs.MaxLineLen = n
		}
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		if pad := rs.MaxLineLen - utf8.RuneCountInString(l); pad > 0 {
			l += strings.Repeat(" ", pad)
		}
		out[i] = l
	}
	return strings.Join(out, "\n")
}

// statusLine describes the model state for the live area header.
func statusLine(frame string, state browser.State, folder string, updated, total int) string {
	switch state {
	case browser.StateListing:
		return frame + " Listing domains in " + folder
	case browser.StateEnriching:
		return frame + " Fetching attributes " + progress(updated, total)
	default:
		return "✓ " + progress(updated, total) + " domains enriched"
	}
}

func progress(updated, total int) string {
	return itoa(updated) + "/" + itoa(total)
}
