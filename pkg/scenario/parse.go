package scenario

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// SCENARIO DEFINITION FORMAT:
// A scenario is a JSON object with an ordered "steps" array plus optional
// global gap constraints:
//
//	{
//	  "steps": [
//	    "dns_by_device",
//	    {"any_of": ["dns_by_device", "dns"], "presence": "optional",
//	     "label": "ANY DNS"},
//	    {"type": "dns", "presence": "forbidden", "scope": "global"},
//	    {"type": "target_server", "label": "TAC", "min": 1, "max": 3,
//	     "too_many": "warn"}
//	  ],
//	  "max_gap_enabled": true,
//	  "max_gap_seconds": 30,
//	  "max_gap_on_unknown": "warn",
//	  "max_gap_on_violation": "fail"
//	}
//
// A bare string is shorthand for a required, segment-scoped step of that
// type. Unknown step types, presences, scopes and verdicts are parse
// errors identifying the offending entry — never silently dropped or
// coerced. The heterogeneous steps array (strings mixed with objects) is
// what makes gjson the right tool here.

// Parse reads a scenario definition document.
func Parse(data []byte) (*Scenario, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("scenario definition is not valid JSON")
	}

	root := gjson.ParseBytes(data)
	stepsVal := root.Get("steps")
	if !stepsVal.IsArray() {
		return nil, fmt.Errorf("scenario definition needs a \"steps\" array")
	}

	scn := &Scenario{}

	var parseErr error
	stepsVal.ForEach(func(key, entry gjson.Result) bool {
		step, err := parseStep(entry)
		if err != nil {
			parseErr = fmt.Errorf("step %d: %w", int(key.Int()), err)
			return false
		}
		scn.Steps = append(scn.Steps, step)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	if err := parseGap(root, &scn.Gap); err != nil {
		return nil, err
	}

	return scn, nil
}

func parseStep(entry gjson.Result) (Step, error) {
	// Bare type name: a required segment step.
	if entry.Type == gjson.String {
		t, err := ParseStepType(entry.String())
		if err != nil {
			return Step{}, err
		}
		return Step{Types: []StepType{t}}, nil
	}

	if !entry.IsObject() {
		return Step{}, fmt.Errorf("step must be a type name or an object")
	}

	var step Step

	typeVal := entry.Get("type")
	anyOf := entry.Get("any_of")
	switch {
	case typeVal.Exists() && anyOf.Exists():
		return Step{}, fmt.Errorf("step cannot carry both \"type\" and \"any_of\"")
	case typeVal.Exists():
		t, err := ParseStepType(typeVal.String())
		if err != nil {
			return Step{}, err
		}
		step.Types = []StepType{t}
	case anyOf.IsArray():
		var err error
		anyOf.ForEach(func(_, name gjson.Result) bool {
			var t StepType
			if t, err = ParseStepType(name.String()); err != nil {
				return false
			}
			step.Types = append(step.Types, t)
			return true
		})
		if err != nil {
			return Step{}, err
		}
		if len(step.Types) == 0 {
			return Step{}, fmt.Errorf("\"any_of\" must name at least one type")
		}
	default:
		return Step{}, fmt.Errorf("step needs \"type\" or \"any_of\"")
	}

	if v := entry.Get("presence"); v.Exists() {
		p, err := ParsePresence(v.String())
		if err != nil {
			return Step{}, err
		}
		step.Presence = p
	}

	if v := entry.Get("scope"); v.Exists() {
		s, err := ParseScope(v.String())
		if err != nil {
			return Step{}, err
		}
		step.Scope = s
	}

	step.Label = entry.Get("label").String()

	if v := entry.Get("min"); v.Exists() {
		min := int(v.Int())
		step.Min = &min
	}
	if v := entry.Get("max"); v.Exists() {
		max := int(v.Int())
		step.Max = &max
	}

	var err error
	if step.TooFew, err = parseVerdictField(entry, "too_few"); err != nil {
		return Step{}, err
	}
	if step.TooMany, err = parseVerdictField(entry, "too_many"); err != nil {
		return Step{}, err
	}

	return step, nil
}

func parseGap(root gjson.Result, gap *GapConfig) error {
	gap.Enabled = root.Get("max_gap_enabled").Bool()
	gap.MaxGap = time.Duration(root.Get("max_gap_seconds").Int()) * time.Second

	var err error
	if gap.OnUnknown, err = parseVerdictField(root, "max_gap_on_unknown"); err != nil {
		return err
	}
	if gap.OnViolation, err = parseVerdictField(root, "max_gap_on_violation"); err != nil {
		return err
	}
	return nil
}

func parseVerdictField(entry gjson.Result, field string) (*Verdict, error) {
	v := entry.Get(field)
	if !v.Exists() {
		return nil, nil
	}
	verdict, err := ParseVerdict(v.String())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return &verdict, nil
}
