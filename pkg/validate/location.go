package validate

import (
	"fmt"

	"github.com/gregLibert/sim-trace/pkg/issue"
	"github.com/gregLibert/sim-trace/pkg/trace"
)

// LOCATION STATUS (TS 102 223 §8.27):
// The Location status COMPREHENSION-TLV (tag 0x1B, CR variant 0x9B) carries
// one status byte: 0x00 normal service, 0x01 limited service, 0x02 no
// service. The full 3-byte TLV encodings are matched directly against the
// hex payload; checks run in priority order and the first match wins, so a
// record yields at most one location finding.

type locationPattern struct {
	patterns []string
	label    string
	severity issue.Severity
}

var locationPatterns = []locationPattern{
	{[]string{"1B0102", "9B0102"}, "No Service", issue.Warning},
	{[]string{"1B0101", "9B0101"}, "Limited Service", issue.Warning},
	{[]string{"1B0100", "9B0100"}, "Normal Service", issue.Info},
}

func (a *Analyzer) checkLocationStatus(rec *trace.Record, index int) {
	for _, lp := range locationPatterns {
		for _, pattern := range lp.patterns {
			if !rec.PayloadContains(pattern) {
				continue
			}
			a.emitFor(rec, issue.Issue{
				Severity: lp.severity,
				Category: issue.CategoryLocationStatus,
				Message:  fmt.Sprintf("Location status: %s", lp.label),
				Index:    index,
			})
			return // first match wins
		}
	}
}
