package usage

// AggregatedStats holds event counters broken down by various dimensions.
type AggregatedStats struct {
	Total         int64            `json:"total"`
	ByAction      map[string]int64 `json:"by_action"`
	ByElementType map[string]int64 `json:"by_element_type"` // empty key for page events
	ByPage        map[string]int64 `json:"by_page"`
	BySession     map[string]int64 `json:"by_session"`
	Malformed     int64            `json:"malformed,omitempty"`
}

func newAggregatedStats() AggregatedStats {
	return AggregatedStats{
		ByAction:      make(map[string]int64),
		ByElementType: make(map[string]int64),
		ByPage:        make(map[string]int64),
		BySession:     make(map[string]int64),
	}
}

// eventLine is the subset of an event record the counter reads.
type eventLine struct {
	SessionID string `json:"session_id"`
	PageName  string `json:"page_name"`
	Action    string `json:"action"`
	Widget    *struct {
		Type string `json:"type"`
	} `json:"widget"`
}
