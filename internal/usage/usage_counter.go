// Package usage aggregates the event stream into per-dimension counters.
package usage

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap/zapcore"

	"pageanalytics/internal/logging"
	"pageanalytics/internal/sink"
)

// Counter is a sink that counts every event line it sees before passing it on.
// It is safe for concurrent use, so one Counter can front many sessions.
type Counter struct {
	mu    sync.Mutex
	stats AggregatedStats
	next  sink.Sink
}

// NewCounter creates a Counter forwarding to next. next may be nil.
func NewCounter(next sink.Sink) *Counter {
	return &Counter{
		stats: newAggregatedStats(),
		next:  next,
	}
}

// Log records line and forwards it unchanged.
func (c *Counter) Log(level zapcore.Level, line string) {
	c.record(line)
	if c.next != nil {
		c.next.Log(level, line)
	}
}

func (c *Counter) record(line string) {
	var ev eventLine
	err := json.Unmarshal([]byte(line), &ev)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.stats.Malformed++
		logging.Get(logging.CategorySink).Debug("uncountable event line: %v", err)
		return
	}

	c.stats.Total++
	addToMap(c.stats.ByAction, ev.Action)
	elementType := ""
	if ev.Widget != nil {
		elementType = ev.Widget.Type
	}
	addToMap(c.stats.ByElementType, elementType)
	addToMap(c.stats.ByPage, ev.PageName)
	addToMap(c.stats.BySession, ev.SessionID)
}

// Stats returns a copy of the aggregated stats.
func (c *Counter) Stats() AggregatedStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := c.stats
	stats.ByAction = copyCountsMap(stats.ByAction)
	stats.ByElementType = copyCountsMap(stats.ByElementType)
	stats.ByPage = copyCountsMap(stats.ByPage)
	stats.BySession = copyCountsMap(stats.BySession)
	return stats
}

func copyCountsMap(src map[string]int64) map[string]int64 {
	if src == nil {
		return nil
	}
	dst := make(map[string]int64, len(src))
	for key, n := range src {
		dst[key] = n
	}
	return dst
}

func addToMap(m map[string]int64, key string) {
	m[key]++
}
