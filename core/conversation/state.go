package conversation

// Terminal is the transition target that ends the conversation.
const Terminal = "__end__"

// State is an immutable conversation step template. Prompts and tool
// descriptors may contain {placeholders} bound from the collected parameters
// at render time.
type State struct {
	Name    string
	Prompts map[Language]string
	Tools   []Tool

	// Transitions maps a response token to the next state name. Mutually
	// exclusive with Verification.
	Transitions  map[string]string
	Verification *Verification

	Previous string
	Fallback string
}

// Verification delegates the transition decision to an external predicate.
// The predicate result token selects the next state from Outcomes.
type Verification struct {
	Predicate string
	Outcomes  map[string]string
}

func (s *State) IsDynamic() bool { return s.Verification != nil }

func (s *State) targets() []string {
	var targets []string
	for _, next := range s.Transitions {
		targets = append(targets, next)
	}
	if s.Verification != nil {
		for _, next := range s.Verification.Outcomes {
			targets = append(targets, next)
		}
	}
	return targets
}
