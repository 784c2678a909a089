// Package transfer implements the inter-account transfer engine: the
// eligibility rules, the two-click source/target selection state machine,
// and the executor driving a submission through the 10-step progress
// protocol.
package transfer

import (
	"github.com/bmaret/boursomate/internal/models"
)

// IsAllowed decides whether funds may move from source to target.
//
// Rule table:
//   - Trading accounts never source a transfer.
//   - Savings accounts may only feed Banking accounts.
//   - Banking accounts may feed any kind.
//   - Loans are not a source.
func IsAllowed(source, target models.Account) bool {
	if source.ID == target.ID {
		return false
	}
	switch source.Kind {
	case models.KindBanking:
		return true
	case models.KindSavings:
		return target.Kind == models.KindBanking
	default:
		return false
	}
}

// HasEligibleTarget reports whether source can reach at least one account in
// the list, i.e. whether arming it makes sense at all.
func HasEligibleTarget(source models.Account, all []models.Account) bool {
	for _, target := range all {
		if IsAllowed(source, target) {
			return true
		}
	}
	return false
}

// Requested is emitted when a legal (source, target) pair has been picked.
type Requested struct {
	Source models.Account
	Target models.Account
}

// Selector is the two-click selection state machine. It is either idle or
// holds a single armed source awaiting its target.
type Selector struct {
	armed *models.Account
}

// Armed returns the currently armed source, if any.
func (s *Selector) Armed() (models.Account, bool) {
	if s.armed == nil {
		return models.Account{}, false
	}
	return *s.armed, true
}

// IsClickable reports whether clicking a does anything in the current state.
// Idle: any account with a legal target. Armed: the armed account itself
// (disarm) and every legal target of it.
func (s *Selector) IsClickable(a models.Account, all []models.Account) bool {
	if s.armed == nil {
		return HasEligibleTarget(a, all)
	}
	return a.ID == s.armed.ID || IsAllowed(*s.armed, a)
}

// Click advances the state machine. It returns a non-nil Requested exactly
// when a legal target was clicked while armed; in that case the selector is
// back to idle.
//
// A click on the armed account disarms it. A click on an account the armed
// source may not feed also disarms, without emitting: the selector never
// stays armed after a rejected pick.
func (s *Selector) Click(a models.Account, all []models.Account) *Requested {
	if s.armed == nil {
		if HasEligibleTarget(a, all) {
			armed := a
			s.armed = &armed
		}
		return nil
	}

	source := *s.armed
	if a.ID == source.ID {
		s.armed = nil
		return nil
	}

	s.armed = nil
	if !IsAllowed(source, a) {
		return nil
	}
	return &Requested{Source: source, Target: a}
}
