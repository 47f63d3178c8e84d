package handlers_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"food-rescue-api/config"
	"food-rescue-api/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRequestFansOutToAllParties(t *testing.T) {
	r := setupRouter(t)
	restaurant, restaurantToken := newUser(t, "trattoria", models.RoleRestaurant)
	ngo, ngoToken := newUser(t, "foodbank", models.RoleNGO)
	agent1, _ := newUser(t, "rider-one", models.RoleDeliveryAgent)
	agent2, _ := newUser(t, "rider-two", models.RoleDeliveryAgent)
	donationID := createDonation(t, r, restaurantToken, "bread", 10)

	createRequest(t, r, ngoToken, donationID)

	for _, agent := range []models.User{agent1, agent2} {
		rows := notificationsFor(t, agent.ID)
		require.Len(t, rows, 1)
		assert.Contains(t, rows[0].Message, fmt.Sprintf("donation #%d", donationID))
		assert.Contains(t, rows[0].Message, "bread")
		assert.Contains(t, rows[0].Message, "12 Baker Street")
	}

	restaurantRows := notificationsFor(t, restaurant.ID)
	require.Len(t, restaurantRows, 1)
	assert.Contains(t, restaurantRows[0].Message, "requested by an NGO")

	// The NGO got the donation broadcast plus the request confirmation
	ngoRows := notificationsFor(t, ngo.ID)
	require.Len(t, ngoRows, 2)
	confirmed := false
	for _, row := range ngoRows {
		if strings.Contains(row.Message, "has been sent") {
			confirmed = true
		}
	}
	assert.True(t, confirmed, "NGO should receive a request confirmation")
}

func TestDuplicateRequestConflicts(t *testing.T) {
	r := setupRouter(t)
	_, restaurantToken := newUser(t, "trattoria", models.RoleRestaurant)
	_, ngoToken := newUser(t, "foodbank", models.RoleNGO)
	_, otherNGOToken := newUser(t, "shelter", models.RoleNGO)
	donationID := createDonation(t, r, restaurantToken, "bread", 10)

	createRequest(t, r, ngoToken, donationID)

	// Second request for the same (donation, ngo) pair must conflict
	w := doJSON(t, r, http.MethodPost, "/api/ngo/requests", ngoToken, gin.H{"donation_id": donationID})
	assert.Equal(t, http.StatusConflict, w.Code)

	var count int64
	config.DB.Model(&models.Request{}).Where("donation_id = ?", donationID).Count(&count)
	assert.Equal(t, int64(1), count)

	// A different NGO may still request the same donation
	w = doJSON(t, r, http.MethodPost, "/api/ngo/requests", otherNGOToken, gin.H{"donation_id": donationID})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateRequestGuards(t *testing.T) {
	r := setupRouter(t)
	_, restaurantToken := newUser(t, "trattoria", models.RoleRestaurant)
	_, ngoToken := newUser(t, "foodbank", models.RoleNGO)

	// Unknown donation
	w := doJSON(t, r, http.MethodPost, "/api/ngo/requests", ngoToken, gin.H{"donation_id": 999})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Wrong role
	donationID := createDonation(t, r, restaurantToken, "bread", 10)
	w = doJSON(t, r, http.MethodPost, "/api/ngo/requests", restaurantToken, gin.H{"donation_id": donationID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Cancelled donation cannot be requested
	doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/restaurant/donations/%d/cancel", donationID), restaurantToken, nil)
	w = doJSON(t, r, http.MethodPost, "/api/ngo/requests", ngoToken, gin.H{"donation_id": donationID})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDecideRequestLifecycle(t *testing.T) {
	r := setupRouter(t)
	_, restaurantToken := newUser(t, "trattoria", models.RoleRestaurant)
	ngo, ngoToken := newUser(t, "foodbank", models.RoleNGO)
	donationID := createDonation(t, r, restaurantToken, "bread", 10)
	requestID := createRequest(t, r, ngoToken, donationID)

	var request models.Request
	require.NoError(t, config.DB.First(&request, requestID).Error)
	assert.Equal(t, models.RequestPending, request.Status)
	assert.Nil(t, request.DecidedAt)

	path := fmt.Sprintf("/api/restaurant/requests/%d/status", requestID)

	// pending → fulfilled skips approval and must be rejected
	w := doJSON(t, r, http.MethodPut, path, restaurantToken, gin.H{"status": "fulfilled"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	config.DB.First(&request, requestID)
	assert.Equal(t, models.RequestPending, request.Status)

	// pending → approved
	w = doJSON(t, r, http.MethodPut, path, restaurantToken, gin.H{"status": "approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	config.DB.First(&request, requestID)
	assert.Equal(t, models.RequestApproved, request.Status)
	require.NotNil(t, request.DecidedAt)

	// Approval moves the donation out of the open pool
	var donation models.FoodDonation
	config.DB.First(&donation, donationID)
	assert.Equal(t, models.DonationAssigned, donation.Status)

	// ...and tells the NGO
	approved := false
	for _, row := range notificationsFor(t, ngo.ID) {
		if strings.Contains(row.Message, "approved") {
			approved = true
		}
	}
	assert.True(t, approved, "NGO should be told about the approval")

	// approved → fulfilled spawns exactly one delivery
	w = doJSON(t, r, http.MethodPut, path, restaurantToken, gin.H{"status": "fulfilled"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var deliveries []models.Delivery
	config.DB.Where("request_id = ?", requestID).Find(&deliveries)
	require.Len(t, deliveries, 1)
	assert.Equal(t, models.DeliveryAssigned, deliveries[0].Status)
	assert.Nil(t, deliveries[0].AgentID)
	assert.Equal(t, models.QualityUnknown, deliveries[0].QualityStatus)

	// fulfilled is terminal
	w = doJSON(t, r, http.MethodPut, path, restaurantToken, gin.H{"status": "cancelled"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDecideRequestRequiresDonationOwnership(t *testing.T) {
	r := setupRouter(t)
	_, ownerToken := newUser(t, "owner", models.RoleRestaurant)
	_, otherToken := newUser(t, "other", models.RoleRestaurant)
	_, ngoToken := newUser(t, "foodbank", models.RoleNGO)
	donationID := createDonation(t, r, ownerToken, "bread", 10)
	requestID := createRequest(t, r, ngoToken, donationID)

	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/restaurant/requests/%d/status", requestID),
		otherToken, gin.H{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	var request models.Request
	config.DB.First(&request, requestID)
	assert.Equal(t, models.RequestPending, request.Status)
	assert.Nil(t, request.DecidedAt)
}

func TestRejectRequestStampsDecision(t *testing.T) {
	r := setupRouter(t)
	_, restaurantToken := newUser(t, "trattoria", models.RoleRestaurant)
	_, ngoToken := newUser(t, "foodbank", models.RoleNGO)
	donationID := createDonation(t, r, restaurantToken, "bread", 10)
	requestID := createRequest(t, r, ngoToken, donationID)

	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/restaurant/requests/%d/status", requestID),
		restaurantToken, gin.H{"status": "rejected"})
	require.Equal(t, http.StatusOK, w.Code)

	var request models.Request
	config.DB.First(&request, requestID)
	assert.Equal(t, models.RequestRejected, request.Status)
	assert.NotNil(t, request.DecidedAt)

	// The donation stays available for other NGOs
	var donation models.FoodDonation
	config.DB.First(&donation, donationID)
	assert.Equal(t, models.DonationAvailable, donation.Status)
}

func TestNGOCancelsOwnRequestOnly(t *testing.T) {
	r := setupRouter(t)
	_, restaurantToken := newUser(t, "trattoria", models.RoleRestaurant)
	_, ngoToken := newUser(t, "foodbank", models.RoleNGO)
	_, otherNGOToken := newUser(t, "shelter", models.RoleNGO)
	donationID := createDonation(t, r, restaurantToken, "bread", 10)
	requestID := createRequest(t, r, ngoToken, donationID)

	path := fmt.Sprintf("/api/ngo/requests/%d/cancel", requestID)

	w := doJSON(t, r, http.MethodPut, path, otherNGOToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPut, path, ngoToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var request models.Request
	config.DB.First(&request, requestID)
	assert.Equal(t, models.RequestCancelled, request.Status)
	assert.NotNil(t, request.DecidedAt)

	// cancelled is terminal
	w = doJSON(t, r, http.MethodPut, path, ngoToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
