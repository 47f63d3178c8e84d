package statemachine

import (
	"errors"

	"food-rescue-api/models"
)

// DonationTransition defines a valid donation state change. Donation status
// is mostly driven by the workflow itself (request approval, delivery
// progress), so edges are marked with the role whose action triggers them.
type DonationTransition struct {
	From  models.DonationStatus
	To    models.DonationStatus
	Actor models.UserRole
}

var donationTransitions = []DonationTransition{
	// Restaurant approves a request for the donation
	{From: models.DonationAvailable, To: models.DonationAssigned, Actor: models.RoleRestaurant},
	// Courier picks the food up, then drops it off
	{From: models.DonationAssigned, To: models.DonationCollected, Actor: models.RoleDeliveryAgent},
	{From: models.DonationCollected, To: models.DonationDistributed, Actor: models.RoleDeliveryAgent},
	// Owner may withdraw an undelivered donation
	{From: models.DonationAvailable, To: models.DonationCancelled, Actor: models.RoleRestaurant},
	{From: models.DonationAssigned, To: models.DonationCancelled, Actor: models.RoleRestaurant},
}

type donationKey struct {
	From  models.DonationStatus
	To    models.DonationStatus
	Actor models.UserRole
}

var donationTransitionMap = func() map[donationKey]bool {
	m := make(map[donationKey]bool)
	for _, t := range donationTransitions {
		m[donationKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidDonationTransitionsFrom returns all valid next states from a given state
func ValidDonationTransitionsFrom(status models.DonationStatus) []models.DonationStatus {
	var nexts []models.DonationStatus
	seen := map[models.DonationStatus]bool{}
	for _, t := range donationTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransitionDonation checks if a given role can move a donation between states
func CanTransitionDonation(from, to models.DonationStatus, role models.UserRole) error {
	if role == models.RoleAdmin {
		for _, t := range donationTransitions {
			if t.From == from && t.To == to {
				return nil
			}
		}
	}
	if donationTransitionMap[donationKey{From: from, To: to, Actor: role}] {
		return nil
	}
	return errors.New(
		"invalid transition: " + string(from) + " → " + string(to) +
			" is not allowed for role '" + string(role) + "'",
	)
}

// AllDonationTransitions returns the full donation state machine for documentation
func AllDonationTransitions() []DonationTransition {
	return donationTransitions
}
