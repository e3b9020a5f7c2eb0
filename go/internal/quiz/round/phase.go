package round

// Phase is a step of the round lifecycle as seen by one client
type Phase string

const (
	PhaseIdle       Phase = "IDLE"
	PhasePlaying    Phase = "PLAYING"
	PhaseReveal     Phase = "REVEAL"
	PhaseTransition Phase = "TRANSITION" // host only
	PhaseFinished   Phase = "FINISHED"
)

// transitions lists the phases reachable from each phase.
// Playing -> Playing is a new ROUND_START replacing the current round.
var transitions = map[Phase][]Phase{
	PhaseIdle:       {PhasePlaying, PhaseTransition, PhaseFinished},
	PhasePlaying:    {PhasePlaying, PhaseReveal, PhaseFinished},
	PhaseReveal:     {PhasePlaying, PhaseTransition, PhaseFinished},
	PhaseTransition: {PhasePlaying, PhaseFinished},
	PhaseFinished:   {},
}

// CanTransition reports whether from -> to is a legal move
func CanTransition(from, to Phase) bool {
	for _, p := range transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// AcceptsAnswers reports whether answers may be submitted or aggregated
func (p Phase) AcceptsAnswers() bool {
	return p == PhasePlaying
}

// Terminal reports whether no further transition is possible
func (p Phase) Terminal() bool {
	return p == PhaseFinished
}
