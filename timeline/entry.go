package timeline

// Entry is one recorded transition. Entries are immutable once recorded.
type Entry struct {
	// Timestamp is the transition time in Unix milliseconds.
	Timestamp       int64    `yaml:"timestamp" json:"timestamp"`
	Sequence        uint64   `yaml:"sequence" json:"sequence"`
	EventType       string   `yaml:"event_type" json:"event_type"`
	FromState       string   `yaml:"from_state" json:"from_state"`
	ToState         string   `yaml:"to_state" json:"to_state"`
	ActionsProduced []string `yaml:"actions_produced" json:"actions_produced"`
	Data            string   `yaml:"data,omitempty" json:"data,omitempty"`
}

// clone returns a copy that shares no backing arrays with e.
func (e Entry) clone() Entry {
	if e.ActionsProduced != nil {
		actions := make([]string, len(e.ActionsProduced))
		copy(actions, e.ActionsProduced)
		e.ActionsProduced = actions
	}
	return e
}
