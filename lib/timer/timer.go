// Package timer records named marks along one operation, e.g. the phases of a
// balance refresh (handle lookup, contract call, apply).
package timer

import (
	"fmt"
	"strings"
	"time"
)

// MarkPoint is a named mark with the time elapsed since the previous mark.
type MarkPoint struct {
	Tag   string
	Delta time.Duration
}

// XTimer keeps the start time of an operation and its marks.
type XTimer struct {
	born   time.Time
	latest time.Time
	points []MarkPoint
}

// NewXTimer creates a timer started now.
func NewXTimer() *XTimer {
	now := time.Now()
	return &XTimer{
		born:   now,
		latest: now,
	}
}

// Mark records tag with the delta since the previous mark.
func (t *XTimer) Mark(tag string) {
	now := time.Now()
	t.points = append(t.points, MarkPoint{Tag: tag, Delta: now.Sub(t.latest)})
	t.latest = now
}

// Points returns a copy of the recorded marks.
func (t *XTimer) Points() []MarkPoint {
	out := make([]MarkPoint, len(t.points))
	copy(out, t.points)
	return out
}

// Elapsed returns the time since the timer was created.
func (t *XTimer) Elapsed() time.Duration {
	return time.Since(t.born)
}

// Print renders marks as "tag:1.00ms,...,total:3.00ms".
func (t *XTimer) Print() string {
	msg := make([]string, 0, len(t.points)+1)
	for _, p := range t.points {
		msg = append(msg, fmt.Sprintf("%s:%.2fms", p.Tag, ms(p.Delta)))
	}
	msg = append(msg, fmt.Sprintf("total:%.2fms", ms(t.Elapsed())))
	return strings.Join(msg, ",")
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
