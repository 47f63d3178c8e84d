package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"food-rescue-api/config"
	"food-rescue-api/middleware"
	"food-rescue-api/models"
	"food-rescue-api/notify"
	"food-rescue-api/statemachine"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateRequestRequest struct {
	DonationID uint   `json:"donation_id" binding:"required"`
	Message    string `json:"message"`
}

// CreateRequest files an NGO's claim on a donation. The (donation, ngo)
// uniqueness is enforced by the composite unique index; a duplicate attempt
// surfaces as a constraint violation and maps to 409 without touching the
// existing row.
func CreateRequest(c *gin.Context) {
	ngoID := middleware.GetUserID(c)

	var req CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var donation models.FoodDonation
	if err := config.DB.First(&donation, req.DonationID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Donation not found"})
		return
	}
	if donation.Status == models.DonationCancelled {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Donation has been cancelled"})
		return
	}

	request := models.Request{
		DonationID: donation.ID,
		NGOID:      ngoID,
		Status:     models.RequestPending,
		Message:    req.Message,
	}
	if err := config.DB.Create(&request).Error; err != nil {
		if isDuplicateErr(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "You have already requested this donation"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create request"})
		return
	}

	// Best-effort fan-out to agents, the owning restaurant and the NGO.
	// None of these can fail the request creation.
	fanout := notify.NewFanout(config.DB)
	pickupAddr := donation.PickupAddress
	if pickupAddr == "" {
		pickupAddr = "pickup location"
	}
	fanout.BroadcastToRole(models.RoleDeliveryAgent,
		fmt.Sprintf("Pickup requested for donation #%d (%s) at %s.", donation.ID, donation.FoodType, pickupAddr))
	fanout.NotifyBestEffort(donation.RestaurantID,
		fmt.Sprintf("Your donation #%d has been requested by an NGO. Delivery agents have been notified for pickup.", donation.ID))
	fanout.NotifyBestEffort(ngoID,
		fmt.Sprintf("Your request for donation #%d has been sent. Delivery agents have been notified for pickup.", donation.ID))

	c.JSON(http.StatusCreated, gin.H{
		"message": "Request created successfully",
		"request": request,
	})
}

// GetMyRequests returns all requests filed by the calling NGO
func GetMyRequests(c *gin.Context) {
	ngoID := middleware.GetUserID(c)
	var requests []models.Request
	query := config.DB.Preload("Donation").Preload("Donation.Restaurant").
		Where("ngo_id = ?", ngoID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	query.Order("created_at desc").Find(&requests)
	c.JSON(http.StatusOK, gin.H{"count": len(requests), "requests": requests})
}

// CancelRequest withdraws the calling NGO's own request
func CancelRequest(c *gin.Context) {
	ngoID := middleware.GetUserID(c)

	var request models.Request
	if err := config.DB.First(&request, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		return
	}
	if request.NGOID != ngoID {
		c.JSON(http.StatusForbidden, gin.H{"error": "This request does not belong to you"})
		return
	}

	if err := statemachine.CanTransitionRequest(request.Status, models.RequestCancelled, models.RoleNGO); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":          "Cannot cancel request",
			"current_status": request.Status,
			"reason":         err.Error(),
		})
		return
	}

	applyRequestTransition(&request, models.RequestCancelled)

	c.JSON(http.StatusOK, gin.H{"message": "Request cancelled", "request_id": request.ID})
}

// GetRequestsForMyDonations returns requests against the caller's donations
func GetRequestsForMyDonations(c *gin.Context) {
	restaurantID := middleware.GetUserID(c)

	var requests []models.Request
	query := config.DB.Preload("Donation").Preload("NGO").
		Joins("JOIN food_donations ON food_donations.id = requests.donation_id").
		Where("food_donations.restaurant_id = ?", restaurantID)
	if status := c.Query("status"); status != "" {
		query = query.Where("requests.status = ?", status)
	}
	query.Order("requests.created_at desc").Find(&requests)
	c.JSON(http.StatusOK, gin.H{"count": len(requests), "requests": requests})
}

type DecideRequestRequest struct {
	Status models.RequestStatus `json:"status" binding:"required"`
}

// DecideRequest lets the donation's owning restaurant approve, reject or
// fulfill a request. Every mutation goes through the transition table; there
// is no generic status overwrite.
func DecideRequest(c *gin.Context) {
	restaurantID := middleware.GetUserID(c)

	var request models.Request
	if err := config.DB.Preload("Donation").First(&request, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		return
	}
	if request.Donation.RestaurantID != restaurantID {
		c.JSON(http.StatusForbidden, gin.H{"error": "This request targets a donation that does not belong to you"})
		return
	}

	var req DecideRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := statemachine.CanTransitionRequest(request.Status, req.Status, middleware.GetRole(c)); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":             "Invalid state transition",
			"current_status":    request.Status,
			"requested":         req.Status,
			"reason":            err.Error(),
			"valid_next_states": statemachine.ValidRequestTransitionsFrom(request.Status),
		})
		return
	}

	prevStatus := request.Status
	applyRequestTransition(&request, req.Status)

	fanout := notify.NewFanout(config.DB)
	switch req.Status {
	case models.RequestApproved:
		// Approving a request moves the donation out of the open pool
		if statemachine.CanTransitionDonation(request.Donation.Status, models.DonationAssigned, models.RoleRestaurant) == nil {
			config.DB.Model(&request.Donation).Update("status", models.DonationAssigned)
		}
		fanout.NotifyBestEffort(request.NGOID,
			fmt.Sprintf("Your request for donation #%d has been approved.", request.DonationID))
	case models.RequestRejected:
		fanout.NotifyBestEffort(request.NGOID,
			fmt.Sprintf("Your request for donation #%d has been rejected.", request.DonationID))
	case models.RequestFulfilled:
		delivery := createDeliveryForRequest(&request, fanout)
		c.JSON(http.StatusOK, gin.H{
			"message":         "Request fulfilled, delivery created",
			"request_id":      request.ID,
			"previous_status": prevStatus,
			"current_status":  request.Status,
			"delivery":        delivery,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         "Request status updated",
		"request_id":      request.ID,
		"previous_status": prevStatus,
		"current_status":  request.Status,
	})
}

// applyRequestTransition persists the new status and stamps decided_at on any
// edge leaving pending, so decided_at is null exactly while status is pending.
func applyRequestTransition(request *models.Request, to models.RequestStatus) {
	updates := map[string]interface{}{"status": to}
	if request.Status == models.RequestPending && to != models.RequestPending {
		now := time.Now()
		updates["decided_at"] = &now
	}
	config.DB.Model(request).Updates(updates)
}

// createDeliveryForRequest spawns the courier leg of a fulfilled request. The
// unique index on request_id guarantees at most one delivery per request even
// under concurrent fulfill calls.
func createDeliveryForRequest(request *models.Request, fanout *notify.Fanout) *models.Delivery {
	delivery := models.Delivery{
		RequestID:     request.ID,
		Status:        models.DeliveryAssigned,
		QualityStatus: models.QualityUnknown,
		LocationTrail: models.LocationTrail{},
	}
	if err := config.DB.Create(&delivery).Error; err != nil {
		if !isDuplicateErr(err) {
			log.Printf("delivery creation failed for request %d: %v", request.ID, err)
		}
		var existing models.Delivery
		if config.DB.Where("request_id = ?", request.ID).First(&existing).Error == nil {
			return &existing
		}
		return nil
	}

	fanout.NotifyBestEffort(request.NGOID,
		fmt.Sprintf("Donation #%d has been handed over. A delivery agent will bring it to you.", request.DonationID))
	fanout.BroadcastToRole(models.RoleDeliveryAgent,
		fmt.Sprintf("Delivery #%d for donation #%d is ready to be claimed.", delivery.ID, request.DonationID))
	return &delivery
}

func isDuplicateErr(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}
