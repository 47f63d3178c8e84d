package statemachine

import (
	"errors"

	"food-rescue-api/models"
)

// DeliveryTransition defines a valid delivery state change and who can perform it
type DeliveryTransition struct {
	From  models.DeliveryStatus
	To    models.DeliveryStatus
	Actor models.UserRole
}

// deliveryTransitions is the authoritative delivery state machine definition.
// A delivery must pass through in_transit before delivered; failed is
// reachable from any non-terminal state.
var deliveryTransitions = []DeliveryTransition{
	{From: models.DeliveryAssigned, To: models.DeliveryInTransit, Actor: models.RoleDeliveryAgent},
	{From: models.DeliveryInTransit, To: models.DeliveryDelivered, Actor: models.RoleDeliveryAgent},
	{From: models.DeliveryAssigned, To: models.DeliveryFailed, Actor: models.RoleDeliveryAgent},
	{From: models.DeliveryInTransit, To: models.DeliveryFailed, Actor: models.RoleDeliveryAgent},
}

type deliveryKey struct {
	From  models.DeliveryStatus
	To    models.DeliveryStatus
	Actor models.UserRole
}

var deliveryTransitionMap = func() map[deliveryKey]bool {
	m := make(map[deliveryKey]bool)
	for _, t := range deliveryTransitions {
		m[deliveryKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidDeliveryTransitionsFrom returns all valid next states from a given state
func ValidDeliveryTransitionsFrom(status models.DeliveryStatus) []models.DeliveryStatus {
	var nexts []models.DeliveryStatus
	seen := map[models.DeliveryStatus]bool{}
	for _, t := range deliveryTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransitionDelivery checks if a given role can move a delivery between states
func CanTransitionDelivery(from, to models.DeliveryStatus, role models.UserRole) error {
	if role == models.RoleAdmin {
		for _, t := range deliveryTransitions {
			if t.From == from && t.To == to {
				return nil
			}
		}
	}
	if deliveryTransitionMap[deliveryKey{From: from, To: to, Actor: role}] {
		return nil
	}
	return errors.New(
		"invalid transition: " + string(from) + " → " + string(to) +
			" is not allowed for role '" + string(role) + "'. " +
			"Valid transitions from " + string(from) + " are: " + describeDeliveryFrom(from),
	)
}

// DeliveryTrailOpen reports whether location updates may still be appended
func DeliveryTrailOpen(status models.DeliveryStatus) bool {
	return status == models.DeliveryAssigned || status == models.DeliveryInTransit
}

func describeDeliveryFrom(status models.DeliveryStatus) string {
	nexts := ValidDeliveryTransitionsFrom(status)
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

// AllDeliveryTransitions returns the full delivery state machine for documentation
func AllDeliveryTransitions() []DeliveryTransition {
	return deliveryTransitions
}
