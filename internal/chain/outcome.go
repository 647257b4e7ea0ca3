package chain

import "time"

// Decision is returned by an outcome hook.
type Decision int

const (
	// Continue lets the chain dispatch the next item.
	Continue Decision = iota
	// Stop ends the chain after the current item.
	Stop
)

// DecisionOf converts a continuable flag.
func DecisionOf(continuable bool) Decision {
	if continuable {
		return Continue
	}
	return Stop
}

// Continuable reports whether d lets the chain proceed.
func (d Decision) Continuable() bool {
	return d == Continue
}

func (d Decision) String() string {
	switch d {
	case Continue:
		return "continue"
	case Stop:
		return "stop"
	default:
		return "unknown"
	}
}

// OutcomeKind tells which outcome hook handled a step.
type OutcomeKind int

const (
	Success OutcomeKind = iota
	Failure
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of a step. Value is the output after the
// outcome hook had a chance to rewrite it.
type Outcome struct {
	Kind  OutcomeKind
	Value string
}

// StepReport describes one executed item.
type StepReport struct {
	ChainID  string
	Index    int
	Name     string
	Command  string // as executed, after the Before hook
	Outcome  Outcome
	Decision Decision
	Stdout   string // raw runner output
	Stderr   string
	Started  time.Time
	Duration time.Duration
	// Err is set when the runner itself failed or a hook panicked.
	Err error
}
