package trace

import "time"

// Session is a reconstructed BIP channel session: the set of trace records
// that belong to one open/close lifetime of a data channel, together with
// the peers it talked to. An empty IP set means the channel never carried a
// remote destination — the device-local (DNS by device) case.
type Session struct {
	Indices   []int    // ordered member indices into the record list
	IPs       []string // distinct peer addresses, possibly empty
	OpenedAt  *time.Time
	ClosedAt  *time.Time
	Transport string // "TCP" / "UDP"
	Port      int
}

// Span returns the first and last trace index of the session. For an empty
// session both values are -1.
func (s *Session) Span() (start, end int) {
	if len(s.Indices) == 0 {
		return -1, -1
	}

	start, end = s.Indices[0], s.Indices[0]
	for _, idx := range s.Indices[1:] {
		if idx < start {
			start = idx
		}
		if idx > end {
			end = idx
		}
	}
	return start, end
}

// Bytes sums the payload byte length of the session's member records.
// Indices outside the record list are ignored.
func (s *Session) Bytes(records []Record) int {
	total := 0
	for _, idx := range s.Indices {
		if idx >= 0 && idx < len(records) {
			total += records[idx].ByteLen()
		}
	}
	return total
}
