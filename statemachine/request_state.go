package statemachine

import (
	"errors"

	"food-rescue-api/models"
)

// RequestTransition defines a valid request state change and who can perform it
type RequestTransition struct {
	From  models.RequestStatus
	To    models.RequestStatus
	Actor models.UserRole
}

// requestTransitions is the authoritative request state machine definition.
// Terminal states are rejected, cancelled and fulfilled; decided_at is set by
// the handler on any edge leaving pending.
var requestTransitions = []RequestTransition{
	// Restaurant decides on a pending request
	{From: models.RequestPending, To: models.RequestApproved, Actor: models.RoleRestaurant},
	{From: models.RequestPending, To: models.RequestRejected, Actor: models.RoleRestaurant},
	// NGO may withdraw before fulfillment
	{From: models.RequestPending, To: models.RequestCancelled, Actor: models.RoleNGO},
	{From: models.RequestApproved, To: models.RequestCancelled, Actor: models.RoleNGO},
	// Restaurant hands the food over
	{From: models.RequestApproved, To: models.RequestFulfilled, Actor: models.RoleRestaurant},
}

type requestKey struct {
	From  models.RequestStatus
	To    models.RequestStatus
	Actor models.UserRole
}

var requestTransitionMap = func() map[requestKey]bool {
	m := make(map[requestKey]bool)
	for _, t := range requestTransitions {
		m[requestKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidRequestTransitionsFrom returns all valid next states from a given state
func ValidRequestTransitionsFrom(status models.RequestStatus) []models.RequestStatus {
	var nexts []models.RequestStatus
	seen := map[models.RequestStatus]bool{}
	for _, t := range requestTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransitionRequest checks if a given role can move a request between states.
// Admin may perform any transition that exists for some role.
func CanTransitionRequest(from, to models.RequestStatus, role models.UserRole) error {
	if role == models.RoleAdmin {
		for _, t := range requestTransitions {
			if t.From == from && t.To == to {
				return nil
			}
		}
	}
	if requestTransitionMap[requestKey{From: from, To: to, Actor: role}] {
		return nil
	}
	return errors.New(
		"invalid transition: " + string(from) + " → " + string(to) +
			" is not allowed for role '" + string(role) + "'. " +
			"Valid transitions from " + string(from) + " are: " + describeRequestFrom(from),
	)
}

func describeRequestFrom(status models.RequestStatus) string {
	nexts := ValidRequestTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	result := ""
	for i, s := range nexts {
		if i > 0 {
			result += ", "
		}
		result += string(s)
	}
	return result
}

// AllRequestTransitions returns the full request state machine for documentation
func AllRequestTransitions() []RequestTransition {
	return requestTransitions
}
