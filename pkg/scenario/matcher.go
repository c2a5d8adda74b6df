package scenario

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/gregLibert/sim-trace/pkg/issue"
	"github.com/gregLibert/sim-trace/pkg/trace"
)

// MATCHING ALGORITHM:
// Steps are processed in declared order against the collected occurrences.
// The matcher keeps a cursor (last consumed trace index, initially before
// the trace) and the timestamp of the last consumed occurrence:
//
//   - SEGMENT-scoped steps see only occurrences starting strictly after the
//     cursor and strictly before the segment boundary: the start of the
//     nearest upcoming REQUIRED step's first qualifying occurrence. The
//     boundary keeps an optional or forbidden step from swallowing trace
//     regions that belong to a later required step.
//   - GLOBAL-scoped steps see every occurrence and never move the cursor.
//   - Only non-FORBIDDEN SEGMENT steps with at least one match advance the
//     cursor, to the end of their last matched occurrence.
//
// Verdict grading per step: cardinality first (too few / too many), then
// upgrades — CRITICAL findings inside the matched span, the intrinsic
// Limited-service degradation, and the maximum-gap constraint. Upgrades
// never downgrade an already worse verdict. Too-few/too-many and gap
// violations are verdicts, not errors: the run itself always succeeds.

// Run matches a scenario against the analyzed trace. The labeler names
// servers from peer IP sets; issues are the validation engine's findings
// for the same trace. The result is deterministic for identical inputs.
func Run(records []trace.Record, sessions []trace.Session, issues []issue.Issue, scn *Scenario, label Labeler) *Result {
	occurrences := Collect(records, sessions, issues, label)

	m := &matcher{
		occurrences: occurrences,
		issues:      issues,
		scenario:    scn,
		cursor:      -1,
	}

	result := &Result{}
	for i := range scn.Steps {
		result.Steps = append(result.Steps, m.matchStep(i))
	}

	result.Verdict = VerdictOK
	for _, sr := range result.Steps {
		result.Verdict = result.Verdict.AtLeast(sr.Verdict)
	}
	result.Summary = sequenceSummary(result.Steps)
	return result
}

type matcher struct {
	occurrences map[StepType][]Occurrence
	issues      []issue.Issue
	scenario    *Scenario

	cursor      int // last consumed trace index
	lastTime    *time.Time
	hasConsumed bool
}

func (m *matcher) matchStep(index int) StepResult {
	step := &m.scenario.Steps[index]

	matched := m.qualifying(step, m.cursor)
	if step.Scope == Segment {
		boundary := m.segmentBoundary(index)
		matched = truncateAt(matched, boundary)
	}

	count := len(matched)
	min, max := step.bounds()

	verdict := VerdictOK
	var message string

	switch {
	case count < min:
		verdict = step.tooFewVerdict()
		if count == 0 {
			message = fmt.Sprintf("Required step not found: %s", step.DisplayLabel())
		} else {
			message = fmt.Sprintf("Too few occurrences of %s: %d < %d", step.DisplayLabel(), count, min)
		}
	case count > max:
		verdict = step.tooManyVerdict()
		if step.Presence == Forbidden {
			message = fmt.Sprintf("Forbidden step present: %s", step.DisplayLabel())
		} else {
			message = fmt.Sprintf("Too many occurrences of %s: %d > %d", step.DisplayLabel(), count, max)
		}
	case count == 0:
		if step.Presence == Forbidden {
			message = fmt.Sprintf("Forbidden step absent: %s", step.DisplayLabel())
		} else {
			message = fmt.Sprintf("Optional step not found: %s", step.DisplayLabel())
		}
	default:
		message = fmt.Sprintf("Matched %d occurrence(s) of %s", count, step.DisplayLabel())
	}

	sr := StepResult{Step: *step, Verdict: verdict, Message: message}

	if count > 0 {
		sr.Evidence = buildEvidence(matched)
		sr.Issues = issuesInSpan(m.issues, sr.Evidence.Start, sr.Evidence.End)

		// A CRITICAL finding inside the matched span taints the step.
		for _, is := range sr.Issues {
			if is.Severity == issue.Critical {
				sr.Verdict = sr.Verdict.AtLeast(VerdictWarn)
				break
			}
		}

		// Limited service is intrinsically a degraded-service signal.
		if sr.Verdict != VerdictFail && step.matchesType(StepLimitedService) && containsType(matched, StepLimitedService) {
			sr.Verdict = sr.Verdict.AtLeast(VerdictWarn)
		}
	}

	m.applyGapRule(step, matched, &sr)

	// Advance the cursor past the consumed region.
	if step.Presence != Forbidden && step.Scope == Segment && count > 0 {
		last := matched[count-1]
		m.cursor = last.End
		m.lastTime = last.Timestamp
		m.hasConsumed = true
	}

	return sr
}

// qualifying merges the step's candidate occurrence lists, filtered by
// scope, keeping (Start, End) order.
func (m *matcher) qualifying(step *Step, cursor int) []Occurrence {
	var out []Occurrence
	for _, t := range step.Types {
		for _, occ := range m.occurrences[t] {
			if step.Scope == Segment && occ.Start <= cursor {
				continue
			}
			out = append(out, occ)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})
	return out
}

// segmentBoundary finds the start of the nearest upcoming REQUIRED step's
// first qualifying occurrence after the cursor. Unbounded when no later
// required step exists or it has no qualifying occurrence.
func (m *matcher) segmentBoundary(index int) int {
	for i := index + 1; i < len(m.scenario.Steps); i++ {
		next := &m.scenario.Steps[i]
		if next.Presence != Required {
			continue
		}
		if candidates := m.qualifying(next, m.cursor); len(candidates) > 0 {
			return candidates[0].Start
		}
		return math.MaxInt
	}
	return math.MaxInt
}

func truncateAt(occs []Occurrence, boundary int) []Occurrence {
	out := occs[:0:0]
	for _, occ := range occs {
		if occ.Start < boundary {
			out = append(out, occ)
		}
	}
	return out
}

// applyGapRule upgrades the step verdict when the time between the
// previously consumed step and this one is unknown or exceeds the
// configured maximum. Forbidden and global steps are exempt, as is the
// first consuming step of the scenario.
func (m *matcher) applyGapRule(step *Step, matched []Occurrence, sr *StepResult) {
	gap := &m.scenario.Gap
	if !gap.Enabled || step.Presence == Forbidden || step.Scope != Segment || len(matched) == 0 {
		return
	}
	if !m.hasConsumed {
		return
	}

	occTime := matched[0].Timestamp
	if m.lastTime == nil || occTime == nil {
		sr.Verdict = sr.Verdict.AtLeast(gap.unknownVerdict())
		sr.Message += "; gap to previous step unknown"
		return
	}

	if occTime.Sub(*m.lastTime) > gap.MaxGap {
		sr.Verdict = sr.Verdict.AtLeast(gap.violationVerdict())
		sr.Message += fmt.Sprintf("; gap to previous step exceeds %s", gap.MaxGap)
	}
}

func buildEvidence(matched []Occurrence) *EvidenceItem {
	ev := &EvidenceItem{
		Count: len(matched),
		Start: matched[0].Start,
		End:   matched[0].End,
	}

	servers := map[string]bool{}
	ips := map[string]bool{}
	for _, occ := range matched {
		if occ.Start < ev.Start {
			ev.Start = occ.Start
		}
		if occ.End > ev.End {
			ev.End = occ.End
		}
		ev.Bytes += occ.Bytes
		for _, s := range occ.Servers {
			servers[s] = true
		}
		for _, ip := range occ.IPs {
			ips[ip] = true
		}
	}

	ev.Servers = sortedKeys(servers)
	ev.IPs = sortedKeys(ips)
	return ev
}

func issuesInSpan(issues []issue.Issue, start, end int) []issue.Issue {
	var out []issue.Issue
	for _, is := range issues {
		if is.Index >= start && is.Index <= end {
			out = append(out, is)
		}
	}
	return out
}

func containsType(occs []Occurrence, t StepType) bool {
	for _, occ := range occs {
		if occ.Type == t {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
