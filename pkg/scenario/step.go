/*
Package scenario implements the expected-session matcher: given a
declarative sequence of steps (DNS by device, DNS, data plane, target
server, Refresh, ICCID, Limited service) it verifies against the
reconstructed sessions and the validation findings whether the expected
network scenario actually took place, grading every step and the whole run
OK / WARN / FAIL.

The matcher advances a cursor through the trace; SEGMENT-scoped steps must
match after the cursor and before the region belonging to the next required
step, while GLOBAL-scoped steps match anywhere. Presence and cardinality
rules per step decide the verdict; an optional maximum-gap constraint
checks the elapsed time between consecutive consumed steps.
*/
package scenario

import (
	"fmt"
	"strings"
	"time"
)

// StepType is the closed enumeration of matchable semantic categories.
type StepType int

// Step types.
const (
	StepDNSByDevice StepType = iota
	StepDNS
	StepDataPlane
	StepTargetServer
	StepRefresh
	StepICCID
	StepLimitedService
)

// String returns the canonical definition-format name of the type.
func (t StepType) String() string {
	switch t {
	case StepDNSByDevice:
		return "dns_by_device"
	case StepDNS:
		return "dns"
	case StepDataPlane:
		return "data_plane"
	case StepTargetServer:
		return "target_server"
	case StepRefresh:
		return "refresh"
	case StepICCID:
		return "iccid"
	case StepLimitedService:
		return "limited_service"
	default:
		return fmt.Sprintf("StepType(%d)", int(t))
	}
}

// ParseStepType maps a definition-format name to its type. Matching is
// case-insensitive and tolerant of "-" for "_". Unknown names are rejected,
// never coerced.
func ParseStepType(name string) (StepType, error) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))
	switch normalized {
	case "dns_by_device":
		return StepDNSByDevice, nil
	case "dns":
		return StepDNS, nil
	case "data_plane":
		return StepDataPlane, nil
	case "target_server":
		return StepTargetServer, nil
	case "refresh":
		return StepRefresh, nil
	case "iccid":
		return StepICCID, nil
	case "limited_service":
		return StepLimitedService, nil
	default:
		return 0, fmt.Errorf("unknown scenario step type %q", name)
	}
}

// Presence states how a step's occurrence count is judged.
type Presence int

// Presence values.
const (
	Required Presence = iota
	Optional
	Forbidden
)

func (p Presence) String() string {
	switch p {
	case Required:
		return "required"
	case Optional:
		return "optional"
	case Forbidden:
		return "forbidden"
	default:
		return fmt.Sprintf("Presence(%d)", int(p))
	}
}

// ParsePresence rejects unknown presence names.
func ParsePresence(name string) (Presence, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "required":
		return Required, nil
	case "optional":
		return Optional, nil
	case "forbidden":
		return Forbidden, nil
	default:
		return 0, fmt.Errorf("unknown step presence %q", name)
	}
}

// Scope restricts where a step may match.
type Scope int

// Scope values.
const (
	// Segment: matches only between the cursor and the region of the next
	// required step.
	Segment Scope = iota
	// Global: matches anywhere in the trace; never advances the cursor.
	Global
)

func (s Scope) String() string {
	if s == Global {
		return "global"
	}
	return "segment"
}

// ParseScope rejects unknown scope names.
func ParseScope(name string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "segment":
		return Segment, nil
	case "global":
		return Global, nil
	default:
		return 0, fmt.Errorf("unknown step scope %q", name)
	}
}

// Step is one declared expectation of a scenario. Types holds a single
// entry for a plain step or several for an any-of step. Min/Max and the
// verdict overrides are optional; nil selects the presence defaults.
type Step struct {
	Types    []StepType
	Presence Presence
	Scope    Scope
	Label    string
	Min      *int
	Max      *int
	TooFew   *Verdict
	TooMany  *Verdict
}

// DisplayLabel returns the configured label, falling back to the type
// names joined by "|".
func (s *Step) DisplayLabel() string {
	if s.Label != "" {
		return s.Label
	}
	names := make([]string, len(s.Types))
	for i, t := range s.Types {
		names[i] = t.String()
	}
	return strings.Join(names, "|")
}

// bounds resolves the effective cardinality: REQUIRED 1..1, OPTIONAL 0..1,
// FORBIDDEN 0..0 unless explicitly overridden.
func (s *Step) bounds() (min, max int) {
	switch s.Presence {
	case Required:
		min, max = 1, 1
	case Optional:
		min, max = 0, 1
	case Forbidden:
		min, max = 0, 0
	}
	if s.Min != nil {
		min = *s.Min
	}
	if s.Max != nil {
		max = *s.Max
	}
	return min, max
}

// tooFewVerdict is FAIL for required steps and OK otherwise, unless
// overridden.
func (s *Step) tooFewVerdict() Verdict {
	if s.TooFew != nil {
		return *s.TooFew
	}
	if s.Presence == Required {
		return VerdictFail
	}
	return VerdictOK
}

// tooManyVerdict defaults to WARN — deliberately also for FORBIDDEN steps:
// a forbidden step showing up is a warning, not an automatic scenario
// failure.
func (s *Step) tooManyVerdict() Verdict {
	if s.TooMany != nil {
		return *s.TooMany
	}
	return VerdictWarn
}

// matchesType reports whether the step accepts the given occurrence type.
func (s *Step) matchesType(t StepType) bool {
	for _, st := range s.Types {
		if st == t {
			return true
		}
	}
	return false
}

// GapConfig is the scenario-wide maximum-gap constraint between
// consecutively consumed steps.
type GapConfig struct {
	Enabled     bool
	MaxGap      time.Duration
	OnUnknown   *Verdict // verdict when a timestamp is missing; default WARN
	OnViolation *Verdict // verdict when the gap exceeds MaxGap; default FAIL
}

func (g *GapConfig) unknownVerdict() Verdict {
	if g.OnUnknown != nil {
		return *g.OnUnknown
	}
	return VerdictWarn
}

func (g *GapConfig) violationVerdict() Verdict {
	if g.OnViolation != nil {
		return *g.OnViolation
	}
	return VerdictFail
}

// Scenario is a full declared expectation: ordered steps plus global
// constraints.
type Scenario struct {
	Steps []Step
	Gap   GapConfig
}
