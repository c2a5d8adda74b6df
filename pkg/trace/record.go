/*
Package trace defines the read-only input contracts of the analyzer: the
ordered list of protocol trace records produced by a trace parser, the
decoded detail tree attached to records, and the reconstructed BIP channel
sessions.

Records are treated as immutable snapshots for the duration of an analysis
run. All accessors tolerate missing or malformed data (odd-length payloads,
absent timestamps, empty detail trees) by returning zero values — a record
the parser could not fully decode still participates in every detection
that does not need the missing field.
*/
package trace

import (
	"encoding/hex"
	"strings"
)

// Kind tags the protocol direction/nature of a record.
type Kind string

// Record kinds emitted by the trace parser.
const (
	KindCommand  Kind = "command"
	KindResponse Kind = "response"
	KindEvent    Kind = "event"
)

// Record is one protocol event of the trace: an APDU command or response, a
// proactive command FETCH / TERMINAL RESPONSE, an ENVELOPE, or a bearer
// event. The Summary is free text produced by the parser and is matched by
// keyword; the Payload is the raw bytes as a hex string.
type Record struct {
	Summary   string
	Payload   string // hex encoded, possibly empty
	Timestamp string
	SortKey   string // lexicographically comparable ordering key
	Kind      Kind
	Details   *DetailNode // optional decoded tree
}

// PayloadBytes decodes the hex payload. It returns nil for an empty,
// odd-length or otherwise malformed payload.
func (r *Record) PayloadBytes() []byte {
	if r.Payload == "" {
		return nil
	}
	data, err := hex.DecodeString(strings.ReplaceAll(r.Payload, " ", ""))
	if err != nil {
		return nil
	}
	return data
}

// ByteLen returns the payload length in bytes, 0 when malformed.
func (r *Record) ByteLen() int {
	return len(r.PayloadBytes())
}

// SummaryContains performs a case-insensitive keyword match on the summary.
func (r *Record) SummaryContains(keyword string) bool {
	return strings.Contains(strings.ToUpper(r.Summary), strings.ToUpper(keyword))
}

// PayloadContains checks the hex payload for a hex byte pattern,
// case-insensitively and ignoring spaces.
func (r *Record) PayloadContains(hexPattern string) bool {
	payload := strings.ToUpper(strings.ReplaceAll(r.Payload, " ", ""))
	return strings.Contains(payload, strings.ToUpper(hexPattern))
}
