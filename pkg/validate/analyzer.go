/*
Package validate implements the protocol validation engine: a single
forward pass over an ordered SIM/modem trace that maintains protocol state
(open BIP channels, pending multi-step reads) and emits typed findings.

# Contract

Feed every record once, in ascending index order, through Validate; call
Finalize exactly once after the last record to flush end-of-trace findings
(channels never closed). Run bundles both for the common case.

All detections are causal: a record is judged on itself and on state
accumulated from prior records only, and no emitted finding is ever
retracted. Multi-record correlations (SELECT → READ BINARY → response for
the ICCID) are carried as explicit pending state, one machine per engine
instance. One Analyzer analyzes one trace; instances share nothing, so
independent traces can be analyzed in parallel with one Analyzer each.
*/
package validate

import (
	"sort"

	"github.com/gregLibert/sim-trace/pkg/issue"
	"github.com/gregLibert/sim-trace/pkg/trace"
)

// Analyzer is the validation engine for one trace.
type Analyzer struct {
	issues    []issue.Issue
	channels  map[int]channelState
	iccid     iccidState
	finalized bool
}

// channelState tracks one open BIP channel.
type channelState struct {
	ID        int
	OpenIndex int
	OpenedAt  string
}

// New creates an Analyzer with empty state.
func New() *Analyzer {
	return &Analyzer{channels: make(map[int]channelState)}
}

// rule is one independent per-record detection.
type rule func(a *Analyzer, rec *trace.Record, index int)

// Every rule runs on every record; the order only fixes the relative order
// of findings anchored at the same index.
var rules = []rule{
	(*Analyzer).checkChannelStateMachine,
	(*Analyzer).checkOpenChannelAddress,
	(*Analyzer).checkLocationStatus,
	(*Analyzer).checkCardEvents,
	(*Analyzer).checkICCID,
	(*Analyzer).checkDroppedLink,
	(*Analyzer).checkStatusWord5023,
	(*Analyzer).checkBIPResult,
	(*Analyzer).checkTerminalResponse,
}

// Validate runs all detections against one record. Each rule is isolated:
// a rule panicking on an unexpected record shape is contained so the
// remaining rules and records still get their chance.
func (a *Analyzer) Validate(rec *trace.Record, index int) {
	for _, r := range rules {
		runIsolated(func() { r(a, rec, index) })
	}
}

// Finalize flushes end-of-trace findings: every channel still open is a
// leaked resource. Calling Finalize again is a no-op.
func (a *Analyzer) Finalize() {
	if a.finalized {
		return
	}
	a.finalized = true

	for _, ch := range sortedChannels(a.channels) {
		a.emit(issue.Issue{
			Severity:  issue.Critical,
			Category:  issue.CategoryResourceLeak,
			Message:   "Channel never closed before end of trace",
			Index:     ch.OpenIndex,
			Timestamp: ch.OpenedAt,
			Channel:   ch.ID,
		})
	}
}

// Issues returns the findings collected so far, in emission order.
func (a *Analyzer) Issues() []issue.Issue {
	return a.issues
}

// Run performs a complete analysis of an ordered record list.
func Run(records []trace.Record) []issue.Issue {
	a := New()
	for i := range records {
		a.Validate(&records[i], i)
	}
	a.Finalize()
	return a.Issues()
}

func (a *Analyzer) emit(is issue.Issue) {
	a.issues = append(a.issues, is)
}

// emitFor fills the record-derived correlators before emitting.
func (a *Analyzer) emitFor(rec *trace.Record, is issue.Issue) {
	if is.Timestamp == "" {
		is.Timestamp = rec.Timestamp
	}
	if is.Payload == "" {
		is.Payload = rec.Payload
	}
	a.emit(is)
}

func runIsolated(f func()) {
	defer func() {
		_ = recover() // a malformed record must not abort the scan
	}()
	f()
}

// sortedChannels returns the channel states ordered by open index, keeping
// Finalize deterministic across map iterations.
func sortedChannels(m map[int]channelState) []channelState {
	out := make([]channelState, 0, len(m))
	for _, ch := range m {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenIndex < out[j].OpenIndex })
	return out
}
