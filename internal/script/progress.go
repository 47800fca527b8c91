package script

import (
	"regexp"
	"strings"
)

// ProgressCommand prints every step transition recorded on a node. It
// succeeds with no output before the first step has run.
const ProgressCommand = "cat " + LogDir + "/*.log 2>/dev/null | grep -E 'step [a-z0-9-]+ (started|finished|failed)' || true"

// StepState is a step's last recorded transition on a node.
type StepState string

const (
	StatePending StepState = "pending"
	StateRunning StepState = "running"
	StateDone    StepState = "done"
	StateFailed  StepState = "failed"
)

// StepProgress pairs a step with its state.
type StepProgress struct {
	ID    StepID
	State StepState
}

var transitionRe = regexp.MustCompile(`step ([a-z0-9-]+) (started|finished|failed)`)

// ParseProgress maps the output of ProgressCommand onto steps, in their
// order. The last transition of a step wins; lines for other steps are
// ignored.
func ParseProgress(output string, steps []StepID) []StepProgress {
	seen := make(map[StepID]StepState, len(steps))
	for _, line := range strings.Split(output, "\n") {
		m := transitionRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		var state StepState
		switch m[2] {
		case "started":
			state = StateRunning
		case "finished":
			state = StateDone
		default:
			state = StateFailed
		}
		seen[StepID(m[1])] = state
	}

	out := make([]StepProgress, len(steps))
	for i, id := range steps {
		state, ok := seen[id]
		if !ok {
			state = StatePending
		}
		out[i] = StepProgress{ID: id, State: state}
	}
	return out
}
