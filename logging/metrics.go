package logging

import "sync"

// Metrics collects named telemetry counters and gauges. It backs the
// telemetry.Metrics adapter and is safe for concurrent use.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]uint64
	gauges   map[string]uint64
}

// TelemetryAdd increments the named counter by delta.
func (m *Metrics) TelemetryAdd(key string, delta uint64) {
	if m == nil || key == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]uint64)
	}
	m.counters[key] += delta
}

// TelemetryStore records the current value of the named gauge.
func (m *Metrics) TelemetryStore(key string, value uint64) {
	if m == nil || key == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gauges == nil {
		m.gauges = make(map[string]uint64)
	}
	m.gauges[key] = value
}

// TelemetrySnapshot copies the current counters and gauges.
func (m *Metrics) TelemetrySnapshot() (map[string]uint64, map[string]uint64) {
	if m == nil {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	counters := make(map[string]uint64, len(m.counters))
	for k, v := range m.counters {
		counters[k] = v
	}
	gauges := make(map[string]uint64, len(m.gauges))
	for k, v := range m.gauges {
		gauges[k] = v
	}
	return counters, gauges
}
