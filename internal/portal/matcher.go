package portal

// Trigger decides whether a token event should fire a buy. A token matches
// when its creator equals the configured creator, or when its name and
// symbol both equal the configured pair.
type Trigger struct {
	Creator string
	Name    string
	Symbol  string

	// Strict disables any criterion whose configured value is empty.
	// Without it comparisons are literal, so an empty configured creator
	// matches an event with an empty creator field.
	Strict bool
}

// Matches reports whether the event satisfies the trigger
func (t Trigger) Matches(event *TokenEvent) bool {
	if event == nil {
		return false
	}

	if t.Strict {
		if t.Creator != "" && event.Creator == t.Creator {
			return true
		}
		if t.Name != "" && t.Symbol != "" && event.Name == t.Name && event.Symbol == t.Symbol {
			return true
		}
		return false
	}

	if event.Creator == t.Creator {
		return true
	}
	return event.Name == t.Name && event.Symbol == t.Symbol
}

// Armed reports whether the trigger has any usable criterion under its
// current mode. A strict trigger with only blank criteria can never fire.
func (t Trigger) Armed() bool {
	if !t.Strict {
		return true
	}
	return t.Creator != "" || (t.Name != "" && t.Symbol != "")
}
