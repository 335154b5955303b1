package stage

import "fmt"

// Classifies how a stage ended.
type Outcome int

const (
	Success      Outcome = iota // The stage produced its outputs.
	SoftFailure                 // The stage failed, the pipeline may continue without it.
	FatalFailure                // The stage failed and may abort the pipeline.
)

// Returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case SoftFailure:
		return "soft failure"
	case FatalFailure:
		return "fatal failure"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Outcome of one stage.
type Result struct {
	Outcome Outcome
	Outputs []string // Raw output paths, set on success.
	Err     error    // Failure reason, set on soft and fatal failures.
}

// Returns a successful result carrying outputs.
func Succeeded(outputs []string) Result {
	return Result{Outcome: Success, Outputs: outputs}
}

// Returns a failed result. soft selects the failure tier.
func Failed(err error, soft bool) Result {
	if soft {
		return Result{Outcome: SoftFailure, Err: err}
	}
	return Result{Outcome: FatalFailure, Err: err}
}

// Reports whether the stage succeeded.
func (r Result) OK() bool {
	return r.Outcome == Success
}
