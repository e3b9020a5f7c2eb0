package round

import "github.com/mcdev12/tunequiz/go/internal/models"

// NavigationSignal tells the host application the session is over.
// PlayerEggs is always the local player's total.
type NavigationSignal struct {
	RoomCode   string `json:"roomCode"`
	PlayerEggs int    `json:"playerEggs"`
	SessionID  string `json:"sessionId"`
}

// Observer receives the session's outbound signals.
// Calls are made synchronously from the session loop and must not block.
type Observer interface {
	OnPhase(phase Phase, round *models.Round)
	OnTick(remaining int)
	OnAnswers(groups map[int][]models.Player)
	OnNotice(err error)
	OnNavigate(signal NavigationSignal)
}

// NopObserver ignores every signal; embed it to implement a subset
type NopObserver struct{}

func (NopObserver) OnPhase(Phase, *models.Round)      {}
func (NopObserver) OnTick(int)                        {}
func (NopObserver) OnAnswers(map[int][]models.Player) {}
func (NopObserver) OnNotice(error)                    {}
func (NopObserver) OnNavigate(NavigationSignal)       {}
