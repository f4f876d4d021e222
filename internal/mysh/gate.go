package mysh

const (
	keywordThen = "then"
	keywordElse = "else"
)

// State is the only information mysh carries from one line to the next.
// Execute takes it by value and returns the updated copy.
type State struct {
	Succeeded bool // outcome of the most recent command that ran
	Running   bool // cleared by exit; the caller stops reading lines
}

// InitialState is the state of a freshly started interpreter.
func InitialState() State {
	return State{Succeeded: true, Running: true}
}

// gate strips a leading then/else and decides whether the rest of the line
// runs: then needs the previous command to have succeeded, else needs it to
// have failed. Lines without a keyword always run.
func gate(tokens []string, state State) ([]string, bool) {

	if len(tokens) == 0 {
		return tokens, true
	}

	switch tokens[0] {
	case keywordThen:
		return tokens[1:], state.Succeeded
	case keywordElse:
		return tokens[1:], !state.Succeeded
	}

	return tokens, true

}
