package validate

import (
	"bytes"

	"github.com/gregLibert/sim-trace/pkg/issue"
	"github.com/gregLibert/sim-trace/pkg/trace"
)

// CARD AND LINK EVENTS:
// Detections in this file are keyword heuristics over the parser's free
// text and detail tree. The keyword sets encode how real trace tools label
// these conditions; they are matched verbatim rather than re-derived.

// cardOffSentinel is the two-byte payload of a power-down notification.
var cardOffSentinel = []byte{0x00, 0x00}

func (a *Analyzer) checkCardEvents(rec *trace.Record, index int) {
	if rec.SummaryContains("CARD POWERED OFF") && bytes.Equal(rec.PayloadBytes(), cardOffSentinel) {
		a.emitFor(rec, issue.Issue{
			Severity: issue.Info,
			Category: issue.CategoryCardEvent,
			Message:  "Card powered off",
			Index:    index,
		})
	}

	if rec.SummaryContains("COLD RESET") {
		a.emitFor(rec, issue.Issue{
			Severity: issue.Info,
			Category: issue.CategoryCardEvent,
			Message:  "Cold reset",
			Index:    index,
		})
	}
}

// checkDroppedLink flags a bearer link loss reported through a Channel
// status event. The summary check and the detail-tree check are
// independent; a record that trips both yields two findings.
func (a *Analyzer) checkDroppedLink(rec *trace.Record, index int) {
	droppedPhrases := []string{"LINK DROPPED", "LINK OFF"}

	if rec.SummaryContains("ENVELOPE") && rec.SummaryContains("CHANNEL STATUS") {
		for _, phrase := range droppedPhrases {
			if rec.SummaryContains(phrase) {
				a.emitFor(rec, issue.Issue{
					Severity: issue.Critical,
					Category: issue.CategoryChannelStatus,
					Message:  "Channel status: link dropped",
					Index:    index,
				})
				break
			}
		}
	}

	if rec.Details != nil {
		node := rec.Details.Find(func(n *trace.DetailNode) bool {
			for _, phrase := range droppedPhrases {
				if n.ContainsText(phrase) {
					return true
				}
			}
			return false
		})
		if node != nil {
			a.emitFor(rec, issue.Issue{
				Severity: issue.Critical,
				Category: issue.CategoryChannelStatus,
				Message:  "Channel status details report a dropped link",
				Index:    index,
			})
		}
	}
}

// checkStatusWord5023 flags the proprietary status word 5023 when the
// summary mentions it AND the payload actually carries the pattern.
func (a *Analyzer) checkStatusWord5023(rec *trace.Record, index int) {
	if !rec.SummaryContains("5023") || !rec.PayloadContains("5023") {
		return
	}

	a.emitFor(rec, issue.Issue{
		Severity: issue.Critical,
		Category: issue.CategoryStatusWord,
		Message:  "Status word 5023 returned by the card",
		Index:    index,
	})
}
