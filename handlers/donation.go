package handlers

import (
	"fmt"
	"net/http"
	"time"

	"food-rescue-api/config"
	"food-rescue-api/middleware"
	"food-rescue-api/models"
	"food-rescue-api/notify"
	"food-rescue-api/statemachine"

	"github.com/gin-gonic/gin"
)

type CreateDonationRequest struct {
	FoodType      string     `json:"food_type" binding:"required"`
	Description   string     `json:"description"`
	Quantity      int        `json:"quantity" binding:"required,min=1"`
	Expiry        *time.Time `json:"expiry"`
	PickupAddress string     `json:"pickup_address"`
	Latitude      *float64   `json:"latitude"`
	Longitude     *float64   `json:"longitude"`
	Notes         string     `json:"notes"`
}

// CreateDonation posts a new surplus-food donation (restaurant only) and
// broadcasts it to every NGO. The broadcast is best-effort: the donation row
// stands whether or not any notification was written.
func CreateDonation(c *gin.Context) {
	restaurantID := middleware.GetUserID(c)

	var req CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var restaurant models.User
	if err := config.DB.First(&restaurant, restaurantID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	donation := models.FoodDonation{
		RestaurantID:  restaurantID,
		FoodType:      req.FoodType,
		Description:   req.Description,
		Quantity:      req.Quantity,
		Expiry:        req.Expiry,
		Status:        models.DonationAvailable,
		PickupAddress: req.PickupAddress,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Notes:         req.Notes,
	}

	if err := config.DB.Create(&donation).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create donation"})
		return
	}

	fanout := notify.NewFanout(config.DB)
	notified := fanout.BroadcastToRole(models.RoleNGO,
		fmt.Sprintf("New donation posted: %s ×%d by %s.", donation.FoodType, donation.Quantity, restaurant.Name))

	c.JSON(http.StatusCreated, gin.H{
		"message":       "Donation posted successfully",
		"donation":      donation,
		"ngos_notified": notified,
	})
}

// ListDonations returns donations, optionally filtered (public)
func ListDonations(c *gin.Context) {
	var donations []models.FoodDonation
	query := config.DB.Preload("Restaurant")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("food_type LIKE ? OR description LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if c.Query("exclude_expired") == "true" {
		query = query.Where("expiry IS NULL OR expiry > ?", time.Now())
	}

	query.Order("created_at desc").Find(&donations)
	c.JSON(http.StatusOK, gin.H{
		"count":     len(donations),
		"donations": donations,
	})
}

// GetDonation returns a single donation (public)
func GetDonation(c *gin.Context) {
	var donation models.FoodDonation
	if err := config.DB.Preload("Restaurant").First(&donation, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Donation not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"donation": donation})
}

// GetMyDonations returns the caller's donations with a status summary
func GetMyDonations(c *gin.Context) {
	restaurantID := middleware.GetUserID(c)

	var donations []models.FoodDonation
	query := config.DB.Preload("Requests").Where("restaurant_id = ?", restaurantID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	query.Order("created_at desc").Find(&donations)

	summary := map[string]int{}
	for _, d := range donations {
		summary[string(d.Status)]++
	}

	c.JSON(http.StatusOK, gin.H{
		"donation_summary": summary,
		"count":            len(donations),
		"donations":        donations,
	})
}

type UpdateDonationRequest struct {
	FoodType      *string    `json:"food_type"`
	Description   *string    `json:"description"`
	Quantity      *int       `json:"quantity"`
	Expiry        *time.Time `json:"expiry"`
	PickupAddress *string    `json:"pickup_address"`
	Latitude      *float64   `json:"latitude"`
	Longitude     *float64   `json:"longitude"`
	Notes         *string    `json:"notes"`
}

// UpdateDonation edits donation fields. The caller must be a restaurant AND
// own this specific donation; role alone is not enough.
func UpdateDonation(c *gin.Context) {
	restaurantID := middleware.GetUserID(c)

	var donation models.FoodDonation
	if err := config.DB.First(&donation, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Donation not found"})
		return
	}
	if donation.RestaurantID != restaurantID {
		c.JSON(http.StatusForbidden, gin.H{"error": "This donation does not belong to you"})
		return
	}

	var req UpdateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Quantity != nil && *req.Quantity < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity must be at least 1"})
		return
	}

	updates := map[string]interface{}{}
	if req.FoodType != nil {
		updates["food_type"] = *req.FoodType
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Quantity != nil {
		updates["quantity"] = *req.Quantity
	}
	if req.Expiry != nil {
		updates["expiry"] = *req.Expiry
	}
	if req.PickupAddress != nil {
		updates["pickup_address"] = *req.PickupAddress
	}
	if req.Latitude != nil {
		updates["latitude"] = *req.Latitude
	}
	if req.Longitude != nil {
		updates["longitude"] = *req.Longitude
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) > 0 {
		if err := config.DB.Model(&donation).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update donation"})
			return
		}
	}

	config.DB.First(&donation, donation.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Donation updated", "donation": donation})
}

// CancelDonation withdraws a donation (owner only, undelivered states only)
func CancelDonation(c *gin.Context) {
	restaurantID := middleware.GetUserID(c)

	var donation models.FoodDonation
	if err := config.DB.First(&donation, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Donation not found"})
		return
	}
	if donation.RestaurantID != restaurantID {
		c.JSON(http.StatusForbidden, gin.H{"error": "This donation does not belong to you"})
		return
	}

	if err := statemachine.CanTransitionDonation(donation.Status, models.DonationCancelled, middleware.GetRole(c)); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":          "Cannot cancel donation",
			"current_status": donation.Status,
			"reason":         err.Error(),
		})
		return
	}

	config.DB.Model(&donation).Update("status", models.DonationCancelled)

	c.JSON(http.StatusOK, gin.H{"message": "Donation cancelled", "donation_id": donation.ID})
}

// GetStateMachineInfo returns the workflow state machines for documentation
func GetStateMachineInfo(c *gin.Context) {
	requestInfo := []gin.H{}
	for _, t := range statemachine.AllRequestTransitions() {
		requestInfo = append(requestInfo, gin.H{"from": t.From, "to": t.To, "actor": t.Actor})
	}
	deliveryInfo := []gin.H{}
	for _, t := range statemachine.AllDeliveryTransitions() {
		deliveryInfo = append(deliveryInfo, gin.H{"from": t.From, "to": t.To, "actor": t.Actor})
	}
	donationInfo := []gin.H{}
	for _, t := range statemachine.AllDonationTransitions() {
		donationInfo = append(donationInfo, gin.H{"from": t.From, "to": t.To, "actor": t.Actor})
	}
	c.JSON(http.StatusOK, gin.H{
		"request_state_machine":  requestInfo,
		"delivery_state_machine": deliveryInfo,
		"donation_state_machine": donationInfo,
		"description":            "Surplus Food Donation Workflow State Machines",
	})
}
