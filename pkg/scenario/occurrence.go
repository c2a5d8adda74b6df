package scenario

import (
	"sort"
	"strings"
	"time"

	"github.com/gregLibert/sim-trace/pkg/issue"
	"github.com/gregLibert/sim-trace/pkg/trace"
)

// OCCURRENCE COLLECTION:
// Before matching, every reconstructed session, trace record and validation
// finding is turned into zero or more "occurrences" — timestamped,
// byte-accounted instances of a step type the matcher can count. Three
// sources feed the collection:
//
//   - sessions yield the network step types, classified by the label an
//     injected server labeler assigns to their peer IP set;
//   - records yield event step types (Refresh) by summary keyword;
//   - findings yield the issue-derived step types (ICCID, Limited service).

// Labeler names the server a peer IP set belongs to (e.g. "device", "DNS",
// "data-plane", "target-server", "unknown"). It is an external collaborator
// of the matcher, injected by the caller and stubbed in tests.
type Labeler func(ips []string) string

// Occurrence is one matched instance of a step type within the trace.
type Occurrence struct {
	Type      StepType
	Start     int // first trace index covered
	End       int // last trace index covered (== Start for point events)
	Bytes     int
	Servers   []string // labels involved
	IPs       []string
	Timestamp *time.Time // session open time; nil for point events
}

// Collect builds the per-step-type occurrence lists, each sorted by
// (Start, End) ascending.
func Collect(records []trace.Record, sessions []trace.Session, issues []issue.Issue, label Labeler) map[StepType][]Occurrence {
	out := make(map[StepType][]Occurrence)

	for i := range sessions {
		collectSession(out, &sessions[i], records, label)
	}

	for i := range records {
		if records[i].SummaryContains("REFRESH") {
			out[StepRefresh] = append(out[StepRefresh], Occurrence{
				Type:  StepRefresh,
				Start: i,
				End:   i,
				Bytes: records[i].ByteLen(),
			})
		}
	}

	for _, is := range issues {
		if t, ok := issueStepType(is); ok {
			occ := Occurrence{Type: t, Start: is.Index, End: is.Index}
			if is.Index >= 0 && is.Index < len(records) {
				occ.Bytes = records[is.Index].ByteLen()
			}
			out[t] = append(out[t], occ)
		}
	}

	for t := range out {
		occs := out[t]
		sort.Slice(occs, func(i, j int) bool {
			if occs[i].Start != occs[j].Start {
				return occs[i].Start < occs[j].Start
			}
			return occs[i].End < occs[j].End
		})
	}

	return out
}

// collectSession classifies one session. An ambiguous label may satisfy
// several step types, but a session never produces more than one occurrence
// per type.
func collectSession(out map[StepType][]Occurrence, s *trace.Session, records []trace.Record, label Labeler) {
	start, end := s.Span()
	if start < 0 {
		return
	}

	serverLabel := ""
	if label != nil {
		serverLabel = label(s.IPs)
	}

	occ := Occurrence{
		Start:     start,
		End:       end,
		Bytes:     s.Bytes(records),
		IPs:       append([]string(nil), s.IPs...),
		Timestamp: s.OpenedAt,
	}
	if serverLabel != "" {
		occ.Servers = []string{serverLabel}
	}

	for _, t := range sessionStepTypes(s, serverLabel) {
		typed := occ
		typed.Type = t
		out[t] = append(out[t], typed)
	}
}

// sessionStepTypes maps a session to the step types its label satisfies.
func sessionStepTypes(s *trace.Session, label string) []StepType {
	normalized := strings.ToUpper(label)
	normalized = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(normalized)

	var types []StepType
	if len(s.IPs) == 0 || strings.Contains(normalized, "DEVICE") {
		types = append(types, StepDNSByDevice)
	}
	if strings.Contains(normalized, "DNS") {
		types = append(types, StepDNS)
	}
	if strings.Contains(normalized, "DATAPLANE") {
		types = append(types, StepDataPlane)
	}
	if strings.Contains(normalized, "TARGET") {
		types = append(types, StepTargetServer)
	}
	return types
}

// issueStepType maps a validation finding to an issue-derived step type.
func issueStepType(is issue.Issue) (StepType, bool) {
	switch {
	case is.Category == issue.CategoryICCID:
		return StepICCID, true
	case is.Category == issue.CategoryLocationStatus:
		msg := strings.ToLower(is.Message)
		if strings.Contains(msg, "limited") && strings.Contains(msg, "service") {
			return StepLimitedService, true
		}
	}
	return 0, false
}
