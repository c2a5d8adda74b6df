package scenario

import "fmt"

// Verdict grades a step or a whole scenario. Ordering matters: FAIL
// outranks WARN outranks OK, and "upgrading" never moves downwards.
type Verdict int

// Verdicts, ordered by badness.
const (
	VerdictOK Verdict = iota
	VerdictWarn
	VerdictFail
)

// String returns the report label of the verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictOK:
		return "OK"
	case VerdictWarn:
		return "WARN"
	case VerdictFail:
		return "FAIL"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// Suffix returns the compact sequence-summary marker: "" / "!" / "x".
func (v Verdict) Suffix() string {
	switch v {
	case VerdictWarn:
		return "!"
	case VerdictFail:
		return "x"
	default:
		return ""
	}
}

// AtLeast upgrades v to min when it is better than min; an existing worse
// verdict is kept.
func (v Verdict) AtLeast(min Verdict) Verdict {
	if v < min {
		return min
	}
	return v
}

// ParseVerdict maps a definition-format name ("ok", "warn", "fail") to a
// verdict, rejecting anything else.
func ParseVerdict(name string) (Verdict, error) {
	switch name {
	case "ok", "OK":
		return VerdictOK, nil
	case "warn", "WARN", "warning", "WARNING":
		return VerdictWarn, nil
	case "fail", "FAIL":
		return VerdictFail, nil
	default:
		return 0, fmt.Errorf("unknown verdict %q", name)
	}
}
