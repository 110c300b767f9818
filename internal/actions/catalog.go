package actions

import "github.com/avvvet/voicebuddy-actions/internal/availability"

// Deps are the data sources the built-in actions read from.
type Deps struct {
	Slots availability.Source
}

// Catalog returns the actions exposed to the voice agent.
func Catalog(deps Deps) []Action {
	return []Action{
		bookMeeting(),
		advisorAvailableSlot(deps.Slots),
		endCall(),
		sendSMS(),
		speechSpeed(),
		speechLang(),
	}
}

// NewDefaultRegistry builds the registry of the built-in actions.
func NewDefaultRegistry(deps Deps) (*Registry, error) {
	return NewRegistry(Catalog(deps)...)
}
