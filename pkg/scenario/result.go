package scenario

import (
	"fmt"
	"strings"

	"github.com/gregLibert/sim-trace/pkg/issue"
)

// EvidenceItem aggregates the matched occurrences of one step.
type EvidenceItem struct {
	Count   int
	Bytes   int
	Servers []string // distinct labels, sorted
	IPs     []string // union of peer IPs, sorted
	Start   int      // first trace index of the matched span
	End     int      // last trace index of the matched span
}

// StepResult is the graded outcome of one declared step.
type StepResult struct {
	Step     Step
	Verdict  Verdict
	Message  string
	Evidence *EvidenceItem // nil when nothing matched
	Issues   []issue.Issue // validation findings inside the matched span
}

// Result is the outcome of a full scenario run.
type Result struct {
	Verdict Verdict
	Summary string // compact sequence summary, e.g. "DNS(1) -> DP(0)! -> TAC(1)"
	Steps   []StepResult
}

// Describe generates an ASCII report of the scenario run.
func (r *Result) Describe() string {
	var sb strings.Builder

	sb.WriteString("=== SCENARIO REPORT ===\n")
	sb.WriteString(fmt.Sprintf("Overall: %s\n", r.Verdict))
	sb.WriteString(fmt.Sprintf("Sequence: %s\n", r.Summary))

	for i, sr := range r.Steps {
		sb.WriteString(fmt.Sprintf("[%d] %-4s %s (%s, %s)\n", i+1, sr.Verdict, sr.Step.DisplayLabel(), sr.Step.Presence, sr.Step.Scope))
		sb.WriteString(fmt.Sprintf("    + %s\n", sr.Message))

		if ev := sr.Evidence; ev != nil {
			sb.WriteString(fmt.Sprintf("    + Evidence: %d match(es), %d bytes, span %d..%d\n", ev.Count, ev.Bytes, ev.Start, ev.End))
			if len(ev.Servers) > 0 {
				sb.WriteString(fmt.Sprintf("    + Servers:  %s\n", strings.Join(ev.Servers, ", ")))
			}
			if len(ev.IPs) > 0 {
				sb.WriteString(fmt.Sprintf("    + Peers:    %s\n", strings.Join(ev.IPs, ", ")))
			}
		}
		for _, is := range sr.Issues {
			sb.WriteString(fmt.Sprintf("    ! %s\n", is))
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// sequenceSummary renders the compact arrow-joined summary string.
func sequenceSummary(steps []StepResult) string {
	parts := make([]string, len(steps))
	for i, sr := range steps {
		count := 0
		if sr.Evidence != nil {
			count = sr.Evidence.Count
		}
		parts[i] = fmt.Sprintf("%s(%d)%s", sr.Step.DisplayLabel(), count, sr.Verdict.Suffix())
	}
	return strings.Join(parts, " -> ")
}
