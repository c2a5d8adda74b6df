package validate

import (
	"fmt"
	"strings"

	"github.com/gregLibert/sim-trace/pkg/cat"
	"github.com/gregLibert/sim-trace/pkg/issue"
	"github.com/gregLibert/sim-trace/pkg/trace"
)

// TERMINAL RESPONSE ANALYSIS:
// The terminal answers every proactive command with a TERMINAL RESPONSE
// whose Result object states how the command went. Two independent checks
// inspect these records:
//
//   - checkBIPResult scans the raw payload for the narrow BIP error Result
//     encoding (General Result 0x3A) and decodes its cause byte.
//   - checkTerminalResponse reads the decoded detail tree for a General
//     Result that the parser rendered as an error.

func isTerminalResponse(rec *trace.Record) bool {
	return rec.SummaryContains("TERMINAL RESPONSE")
}

func (a *Analyzer) checkBIPResult(rec *trace.Record, index int) {
	if !isTerminalResponse(rec) {
		return
	}

	cause, ok := cat.ScanBIPResult(rec.PayloadBytes())
	if !ok {
		return
	}

	message := fmt.Sprintf("BIP Error - Cause: 0x%02X", cause)
	if cause == 0x00 || rec.SummaryContains("NO SPECIFIC CAUSE") {
		message = "BIP Error - No specific cause"
	}

	a.emitFor(rec, issue.Issue{
		Severity: issue.Critical,
		Category: issue.CategoryBIPError,
		Message:  message,
		Index:    index,
		Command:  commandContext(rec.Summary),
	})
}

func (a *Analyzer) checkTerminalResponse(rec *trace.Record, index int) {
	if !isTerminalResponse(rec) || rec.Details == nil {
		return
	}

	resultNode := rec.Details.Find(func(n *trace.DetailNode) bool {
		return n.ContainsText("Result")
	})
	if resultNode == nil {
		return
	}

	general := resultNode.ChildContaining("General Result")
	if general == nil {
		return
	}

	value := general.ValueAfterLabel()
	upper := strings.ToUpper(value)
	if !strings.Contains(upper, "ERROR") && !strings.Contains(upper, "ME UNABLE TO PROCESS COMMAND") {
		return
	}

	a.emitFor(rec, issue.Issue{
		Severity: issue.Warning,
		Category: issue.CategoryTerminalResponse,
		Message:  fmt.Sprintf("Terminal response error: %s", value),
		Index:    index,
		Command:  commandContext(rec.Summary),
	})
}

// commandContext extracts the command name from a "KIND - COMMAND" summary:
// the text after the first "-", trimmed. Empty when the summary has no
// separator.
func commandContext(summary string) string {
	if idx := strings.Index(summary, "-"); idx >= 0 {
		return strings.TrimSpace(summary[idx+1:])
	}
	return ""
}
