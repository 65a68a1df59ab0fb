package session

// State is a position in the turn loop
type State int

const (
	AwaitingUserInput State = iota
	AwaitingModelResponse
	AwaitingToolApproval
	AwaitingToolExecution
	Terminated
)

func (s State) String() string {
	switch s {
	case AwaitingUserInput:
		return "awaiting_user_input"
	case AwaitingModelResponse:
		return "awaiting_model_response"
	case AwaitingToolApproval:
		return "awaiting_tool_approval"
	case AwaitingToolExecution:
		return "awaiting_tool_execution"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

// MarshalText renders the state by name in logs and JSON
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// validTransitions lists the edges of the turn loop
var validTransitions = map[State][]State{
	AwaitingUserInput:     {AwaitingModelResponse, Terminated},
	AwaitingModelResponse: {AwaitingUserInput, AwaitingToolApproval, AwaitingToolExecution, AwaitingModelResponse, Terminated},
	AwaitingToolApproval:  {AwaitingToolExecution, AwaitingModelResponse, AwaitingUserInput, Terminated},
	AwaitingToolExecution: {AwaitingModelResponse, AwaitingUserInput, Terminated},
	Terminated:            {},
}

// CanTransition reports whether the loop may move from s to next
func (s State) CanTransition(next State) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
