package port

import (
	"github.com/nickwest/sunchaser/internal/core/domain"
)

type AlignmentLogic interface {
	Tick(state domain.AlignmentState, sample domain.AlignmentSample) domain.AlignmentTickResult
}

type ChargeRouterLogic interface {
	Route(budget domain.PowerBudget, local, docked []domain.CellState,
		currentPowerWatt, targetPowerWatt float64) domain.ChargeRouteResult
	SetDockedCharging(enabled bool)
	SetKeepOnDischarge(enabled bool)
}

// AlignmentStateStore persists the encoded alignment record between
// ticks: read once at tick start, written at most once near tick end.
type AlignmentStateStore interface {
	Load() (string, error)
	Save(encoded string) error
	Close() error
}
