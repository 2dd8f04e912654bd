package usecase

import (
	"strings"

	"studyroom-backend/internal/model"
)

// UnmatchedGatePolicy decides what a gate matching no keyword produces.
type UnmatchedGatePolicy string

const (
	// UnmatchedAsCheckIn treats ambiguous gates as entry points.
	UnmatchedAsCheckIn UnmatchedGatePolicy = "check_in"
	UnmatchedSkip      UnmatchedGatePolicy = "skip"
)

func ParseUnmatchedGatePolicy(s string) UnmatchedGatePolicy {
	if UnmatchedGatePolicy(strings.ToLower(strings.TrimSpace(s))) == UnmatchedSkip {
		return UnmatchedSkip
	}
	return UnmatchedAsCheckIn
}

// GateClassifier maps a gate name to check_in or check_out by keyword substring.
type GateClassifier struct {
	in     []string
	out    []string
	policy UnmatchedGatePolicy
}

func NewGateClassifier(in, out []string, policy UnmatchedGatePolicy) GateClassifier {
	return GateClassifier{in: lower(in), out: lower(out), policy: policy}
}

// Classify returns the event type of a gate, whether a keyword matched, and whether records
// through that gate should be kept at all. In-keywords are checked first.
func (c GateClassifier) Classify(gateName string) (typ model.EventType, matched, keep bool) {
	name := strings.ToLower(gateName)
	for _, k := range c.in {
		if strings.Contains(name, k) {
			return model.EventCheckIn, true, true
		}
	}
	for _, k := range c.out {
		if strings.Contains(name, k) {
			return model.EventCheckOut, true, true
		}
	}
	if c.policy == UnmatchedSkip {
		return "", false, false
	}
	return model.EventCheckIn, false, true
}

func lower(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			out = append(out, k)
		}
	}
	return out
}
