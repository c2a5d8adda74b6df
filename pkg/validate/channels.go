package validate

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/gregLibert/sim-trace/pkg/apdu"
	"github.com/gregLibert/sim-trace/pkg/cat"
	"github.com/gregLibert/sim-trace/pkg/issue"
	"github.com/gregLibert/sim-trace/pkg/trace"
)

// CHANNEL LIFECYCLE:
// A BIP data channel lives between a successful OPEN CHANNEL and the
// matching CLOSE CHANNEL. Per channel identifier the state machine is
// {absent, open}:
//
//   - OPEN on an already-open channel is a protocol violation AND marks the
//     earlier open as leaked; the new open replaces the tracked state.
//   - CLOSE on an absent channel is a protocol violation.
//   - A channel still open when the trace ends is a leaked resource
//     (reported by Finalize).
//
// Channel identifiers are read out of the free-text summary; summaries
// without a recognizable "channel <n>" are not tracked.

var channelIDPattern = regexp.MustCompile(`(?i)channel\s*(?:id\s*)?[:#=]?\s*(\d+)`)

// channelID extracts the channel identifier from a record summary.
func channelID(summary string) (int, bool) {
	m := channelIDPattern.FindStringSubmatch(summary)
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return id, true
}

// hasSuccessStatus decides whether a record represents a successful
// operation: a trailing status word classified as success, or a Result
// node in the detail tree reporting successful execution.
func hasSuccessStatus(rec *trace.Record) bool {
	if sw, ok := apdu.ParseStatusWord(rec.PayloadBytes()); ok && sw.IsSuccess() {
		return true
	}

	if rec.Details != nil {
		if node := rec.Details.Find(func(n *trace.DetailNode) bool {
			return n.ContainsText("Result")
		}); node != nil {
			if node.ContainsText("successfully") || node.ChildContaining("successfully") != nil {
				return true
			}
		}
	}
	return false
}

func (a *Analyzer) checkChannelStateMachine(rec *trace.Record, index int) {
	switch {
	case rec.SummaryContains("OPEN CHANNEL"):
		if !hasSuccessStatus(rec) {
			return
		}
		id, ok := channelID(rec.Summary)
		if !ok {
			return
		}

		if prev, open := a.channels[id]; open {
			a.emitFor(rec, issue.Issue{
				Severity: issue.Critical,
				Category: issue.CategoryStateMachine,
				Message:  fmt.Sprintf("OPEN CHANNEL on channel %d which is already open", id),
				Index:    index,
				Channel:  id,
			})
			a.emit(issue.Issue{
				Severity:  issue.Critical,
				Category:  issue.CategoryResourceLeak,
				Message:   fmt.Sprintf("Channel %d re-opened before being closed", id),
				Index:     prev.OpenIndex,
				Timestamp: prev.OpenedAt,
				Channel:   id,
			})
		}

		a.channels[id] = channelState{ID: id, OpenIndex: index, OpenedAt: rec.Timestamp}

	case rec.SummaryContains("CLOSE CHANNEL"):
		id, ok := channelID(rec.Summary)
		if !ok {
			return
		}

		if _, open := a.channels[id]; !open {
			a.emitFor(rec, issue.Issue{
				Severity: issue.Critical,
				Category: issue.CategoryStateMachine,
				Message:  fmt.Sprintf("CLOSE CHANNEL on channel %d which is not open", id),
				Index:    index,
				Channel:  id,
			})
			return
		}
		delete(a.channels, id)
	}
}

// checkOpenChannelAddress flags OPEN CHANNEL commands that carry no usable
// destination address. This is not an error: the SIM is requesting a
// device-local bearer, typically so the device performs DNS resolution
// itself.
func (a *Analyzer) checkOpenChannelAddress(rec *trace.Record, index int) {
	if !rec.SummaryContains("OPEN CHANNEL") {
		return
	}

	if cat.HasUsableDestination(rec.PayloadBytes()) {
		return
	}

	a.emitFor(rec, issue.Issue{
		Severity: issue.Info,
		Category: issue.CategoryChannelAnalysis,
		Message:  "OPEN CHANNEL without destination address (DNS by device expected)",
		Index:    index,
	})
}
