package statemachine

import (
	"testing"

	"food-rescue-api/models"

	"github.com/stretchr/testify/assert"
)

func TestRequestTransitions(t *testing.T) {
	tests := []struct {
		name string
		from models.RequestStatus
		to   models.RequestStatus
		role models.UserRole
		ok   bool
	}{
		{"restaurant approves pending", models.RequestPending, models.RequestApproved, models.RoleRestaurant, true},
		{"restaurant rejects pending", models.RequestPending, models.RequestRejected, models.RoleRestaurant, true},
		{"ngo cancels pending", models.RequestPending, models.RequestCancelled, models.RoleNGO, true},
		{"ngo cancels approved", models.RequestApproved, models.RequestCancelled, models.RoleNGO, true},
		{"restaurant fulfills approved", models.RequestApproved, models.RequestFulfilled, models.RoleRestaurant, true},
		{"admin may fulfill approved", models.RequestApproved, models.RequestFulfilled, models.RoleAdmin, true},
		{"ngo cannot approve", models.RequestPending, models.RequestApproved, models.RoleNGO, false},
		{"restaurant cannot cancel", models.RequestPending, models.RequestCancelled, models.RoleRestaurant, false},
		{"cannot fulfill pending", models.RequestPending, models.RequestFulfilled, models.RoleRestaurant, false},
		{"rejected is terminal", models.RequestRejected, models.RequestApproved, models.RoleRestaurant, false},
		{"cancelled is terminal", models.RequestCancelled, models.RequestPending, models.RoleNGO, false},
		{"fulfilled is terminal", models.RequestFulfilled, models.RequestCancelled, models.RoleNGO, false},
		{"admin cannot invent edges", models.RequestRejected, models.RequestFulfilled, models.RoleAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanTransitionRequest(tt.from, tt.to, tt.role)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidRequestTransitionsFrom(t *testing.T) {
	assert.ElementsMatch(t,
		[]models.RequestStatus{models.RequestApproved, models.RequestRejected, models.RequestCancelled},
		ValidRequestTransitionsFrom(models.RequestPending))
	assert.ElementsMatch(t,
		[]models.RequestStatus{models.RequestFulfilled, models.RequestCancelled},
		ValidRequestTransitionsFrom(models.RequestApproved))
	assert.Empty(t, ValidRequestTransitionsFrom(models.RequestFulfilled))
	assert.Empty(t, ValidRequestTransitionsFrom(models.RequestRejected))
}
