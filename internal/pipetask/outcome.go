package pipetask

// OutcomeKind tags an Outcome.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeFailure
)

// Outcome is what the guarded executor hands back instead of letting a
// variant failure escape: either the outputs the variant produced or the
// message describing why it failed.
type Outcome struct {
	kind    OutcomeKind
	outputs []Output
	message string
}

func Success(outputs []Output) Outcome {
	return Outcome{kind: OutcomeSuccess, outputs: outputs}
}

func Failure(message string) Outcome {
	return Outcome{kind: OutcomeFailure, message: message}
}

func (o Outcome) Kind() OutcomeKind { return o.kind }

func (o Outcome) IsFailure() bool { return o.kind == OutcomeFailure }

// Outputs is nil for a failure.
func (o Outcome) Outputs() []Output { return o.outputs }

// Message is empty for a success.
func (o Outcome) Message() string { return o.message }

// Status is true only for a success that produced at least one output.
func (o Outcome) Status() bool {
	return o.kind == OutcomeSuccess && len(o.outputs) > 0
}
