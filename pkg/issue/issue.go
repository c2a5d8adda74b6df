// Package issue defines the typed finding record emitted by trace
// validation. Issues are immutable once created and collected append-only;
// the report layer consumes them ordered by trace index.
package issue

import "fmt"

// Severity grades a finding.
type Severity int

// Severity levels, ordered.
const (
	Info Severity = iota
	Warning
	Critical
)

// String returns the canonical label of the severity.
func (s Severity) String() string {
	switch s {
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Critical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Category is the fixed vocabulary of finding categories.
type Category string

// Finding categories.
const (
	CategoryStateMachine     Category = "State Machine Violation"
	CategoryResourceLeak     Category = "Resource Leak"
	CategoryLocationStatus   Category = "Location Status"
	CategoryICCID            Category = "ICCID Detection"
	CategoryBIPError         Category = "BIP Error"
	CategoryTerminalResponse Category = "Terminal Response Error"
	CategoryChannelStatus    Category = "Channel Status"
	CategoryStatusWord       Category = "Status Word Error"
	CategoryChannelAnalysis  Category = "Channel Analysis"
	CategoryCardEvent        Category = "Card Event"
)

// Issue is one validation finding anchored at a trace record.
type Issue struct {
	Severity Severity
	Category Category
	Message  string
	Index    int // trace index the finding refers to

	// Optional correlators.
	Timestamp string
	Payload   string // raw hex payload of the triggering record
	Channel   int    // channel identifier, 0 when not applicable
	Command   string // free-text command context
}

// String renders the one-line form used by the CLI issue list.
func (i Issue) String() string {
	s := fmt.Sprintf("[%s] #%d %s: %s", i.Severity, i.Index, i.Category, i.Message)
	if i.Channel != 0 {
		s += fmt.Sprintf(" (channel %d)", i.Channel)
	}
	return s
}
