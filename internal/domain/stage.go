package domain

// Stage is one named step of the order progress pipeline.
type Stage int

const (
	StageEncrypt Stage = iota
	StageConfirm
	StageDecrypt
	StageExecute
	StageSettle
)

// Stages lists the pipeline in order.
var Stages = [...]Stage{StageEncrypt, StageConfirm, StageDecrypt, StageExecute, StageSettle}

// String returns the step title.
func (s Stage) String() string {
	switch s {
	case StageEncrypt:
		return "Encrypt"
	case StageConfirm:
		return "Confirm"
	case StageDecrypt:
		return "Decrypt"
	case StageExecute:
		return "Execute"
	case StageSettle:
		return "Settle"
	default:
		return "Unknown"
	}
}

// StageState is the state of a single stage.
type StageState int

const (
	StateReady StageState = iota
	StateLoading
	StateSuccess
	StateError
)

func (s StageState) String() string {
	switch s {
	case StateReady:
		return "READY"
	case StateLoading:
		return "LOADING"
	case StateSuccess:
		return "SUCCESS"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// rank orders states for the monotonicity check. Success and Error share a rank.
func (s StageState) rank() int {
	switch s {
	case StateReady:
		return 0
	case StateLoading:
		return 1
	default:
		return 2
	}
}

// IsFinal reports whether the state is Success or Error.
func (s StageState) IsFinal() bool {
	return s.rank() == 2
}

// CanAdvance reports whether a stage may move from one state to another within
// the same order. States never decrease and a final state is never left.
func CanAdvance(from, to StageState) bool {
	if from == to {
		return false
	}
	if from.IsFinal() {
		return false
	}
	return to.rank() > from.rank()
}

// Progress holds the state of every stage for the active order.
type Progress struct {
	States [len(Stages)]StageState
}

// Get returns the state of a stage.
func (p Progress) Get(s Stage) StageState {
	return p.States[s]
}

// Advance moves a stage forward, returning false when the move would regress
// or repeat. Callers treat false as a suppressed duplicate.
func (p *Progress) Advance(s Stage, to StageState) bool {
	if !CanAdvance(p.States[s], to) {
		return false
	}
	p.States[s] = to
	return true
}

// ActiveStage returns the first stage that is not Success, or the last stage
// when every stage succeeded.
func (p Progress) ActiveStage() Stage {
	for _, s := range Stages {
		if p.States[s] != StateSuccess {
			return s
		}
	}
	return StageSettle
}

// HasError reports whether any stage is in Error.
func (p Progress) HasError() bool {
	for _, st := range p.States {
		if st == StateError {
			return true
		}
	}
	return false
}

// Step is a displayable view of one stage.
type Step struct {
	Stage Stage
	Title string
	Hint  string
	State StageState
}

// Steps returns the visible progress steps. Execute and Settle are shown as a
// single "Queue" step.
func (p Progress) Steps() []Step {
	queueHint := "Adding to execution queue..."
	if p.States[StageSettle] == StateSuccess {
		queueHint = "Order queued! Execution is tracked in the background."
	}
	return []Step{
		{Stage: StageConfirm, Title: "Confirm", Hint: "Transaction submitted to blockchain", State: p.States[StageConfirm]},
		{Stage: StageDecrypt, Title: "Decrypt", Hint: "Coprocessor decrypting order", State: p.States[StageDecrypt]},
		{Stage: StageSettle, Title: "Queue", Hint: queueHint, State: p.States[StageSettle]},
	}
}
