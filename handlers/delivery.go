package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"food-rescue-api/config"
	"food-rescue-api/middleware"
	"food-rescue-api/models"
	"food-rescue-api/notify"
	"food-rescue-api/statemachine"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetAvailableDeliveries shows unclaimed deliveries waiting for an agent
func GetAvailableDeliveries(c *gin.Context) {
	var deliveries []models.Delivery
	config.DB.Preload("Request").Preload("Request.Donation").
		Where("status = ? AND agent_id IS NULL", models.DeliveryAssigned).
		Order("created_at asc").
		Find(&deliveries)
	c.JSON(http.StatusOK, gin.H{
		"count":      len(deliveries),
		"deliveries": deliveries,
	})
}

// GetMyDeliveries returns all deliveries claimed by the calling agent
func GetMyDeliveries(c *gin.Context) {
	agentID := middleware.GetUserID(c)
	var deliveries []models.Delivery
	query := config.DB.Preload("Request").Preload("Request.Donation").Preload("Request.NGO").
		Where("agent_id = ?", agentID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	query.Order("updated_at desc").Find(&deliveries)
	c.JSON(http.StatusOK, gin.H{"count": len(deliveries), "deliveries": deliveries})
}

// AcceptDelivery claims an unassigned delivery for the calling agent
func AcceptDelivery(c *gin.Context) {
	agentID := middleware.GetUserID(c)

	var delivery models.Delivery
	if err := config.DB.First(&delivery, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Delivery not found"})
		return
	}
	if delivery.AgentID != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Delivery has already been claimed by another agent"})
		return
	}
	if delivery.Status != models.DeliveryAssigned {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":          "Delivery can no longer be claimed",
			"current_status": delivery.Status,
		})
		return
	}

	// Claim atomically: only succeeds if nobody else got there first
	res := config.DB.Model(&models.Delivery{}).
		Where("id = ? AND agent_id IS NULL", delivery.ID).
		Update("agent_id", agentID)
	if res.Error != nil || res.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Delivery has already been claimed by another agent"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Delivery claimed successfully",
		"delivery_id": delivery.ID,
	})
}

type UpdateDeliveryStatusRequest struct {
	Status models.DeliveryStatus `json:"status" binding:"required"`
}

// UpdateDeliveryStatus advances the delivery state machine. Only the assigned
// agent (or an admin) may transition; pickup and dropoff timestamps are
// stamped on the corresponding edges, and donation status follows along.
func UpdateDeliveryStatus(c *gin.Context) {
	callerID := middleware.GetUserID(c)
	role := middleware.GetRole(c)

	var delivery models.Delivery
	if err := config.DB.Preload("Request").Preload("Request.Donation").First(&delivery, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Delivery not found"})
		return
	}
	if role != models.RoleAdmin {
		if delivery.AgentID == nil || *delivery.AgentID != callerID {
			c.JSON(http.StatusForbidden, gin.H{"error": "You are not the assigned agent for this delivery"})
			return
		}
	}

	var req UpdateDeliveryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := statemachine.CanTransitionDelivery(delivery.Status, req.Status, role); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":             "Invalid state transition",
			"current_status":    delivery.Status,
			"requested":         req.Status,
			"reason":            err.Error(),
			"valid_next_states": statemachine.ValidDeliveryTransitionsFrom(delivery.Status),
		})
		return
	}

	now := time.Now()
	updates := map[string]interface{}{"status": req.Status}
	switch req.Status {
	case models.DeliveryInTransit:
		updates["pickup_time"] = &now
	case models.DeliveryDelivered, models.DeliveryFailed:
		updates["dropoff_time"] = &now
	}

	prevStatus := delivery.Status
	config.DB.Model(&delivery).Updates(updates)

	advanceDonationForDelivery(&delivery, req.Status)

	c.JSON(http.StatusOK, gin.H{
		"message":         "Delivery status updated",
		"delivery_id":     delivery.ID,
		"previous_status": prevStatus,
		"current_status":  req.Status,
	})
}

// advanceDonationForDelivery keeps donation status consistent with courier
// progress and fans out the completion notices. All of it is best-effort.
func advanceDonationForDelivery(delivery *models.Delivery, to models.DeliveryStatus) {
	donation := &delivery.Request.Donation
	if donation.ID == 0 {
		return
	}
	fanout := notify.NewFanout(config.DB)

	switch to {
	case models.DeliveryInTransit:
		if statemachine.CanTransitionDonation(donation.Status, models.DonationCollected, models.RoleDeliveryAgent) == nil {
			config.DB.Model(donation).Update("status", models.DonationCollected)
		}
	case models.DeliveryDelivered:
		if statemachine.CanTransitionDonation(donation.Status, models.DonationDistributed, models.RoleDeliveryAgent) == nil {
			config.DB.Model(donation).Update("status", models.DonationDistributed)
		}
		fanout.NotifyBestEffort(delivery.Request.NGOID,
			fmt.Sprintf("Delivery #%d for donation #%d has been delivered.", delivery.ID, donation.ID))
		fanout.NotifyBestEffort(donation.RestaurantID,
			fmt.Sprintf("Your donation #%d has been delivered to the NGO.", donation.ID))
	case models.DeliveryFailed:
		fanout.NotifyBestEffort(delivery.Request.NGOID,
			fmt.Sprintf("Delivery #%d for donation #%d has failed.", delivery.ID, donation.ID))
		fanout.NotifyBestEffort(donation.RestaurantID,
			fmt.Sprintf("Delivery of your donation #%d has failed.", donation.ID))
	}
}

type RecordLocationRequest struct {
	// Pointers so 0 stays a valid coordinate (equator, prime meridian)
	Lat *float64   `json:"lat" binding:"required"`
	Lng *float64   `json:"lng" binding:"required"`
	Ts  *time.Time `json:"ts"`
}

// RecordLocation appends one point to the delivery's trail. Valid only while
// the delivery is assigned or in transit; never reorders or rewrites earlier
// entries and never changes status.
func RecordLocation(c *gin.Context) {
	agentID := middleware.GetUserID(c)

	var delivery models.Delivery
	if err := config.DB.First(&delivery, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Delivery not found"})
		return
	}
	if delivery.AgentID == nil || *delivery.AgentID != agentID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not the assigned agent for this delivery"})
		return
	}
	if !statemachine.DeliveryTrailOpen(delivery.Status) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":          "Location updates are only accepted while the delivery is assigned or in transit",
			"current_status": delivery.Status,
		})
		return
	}

	var req RecordLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ts := time.Now()
	if req.Ts != nil {
		ts = *req.Ts
	}

	point, err := json.Marshal(models.LocationUpdate{
		Lat: *req.Lat,
		Lng: *req.Lng,
		Ts:  ts,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record location"})
		return
	}

	// Append inside the database so two concurrent points cannot overwrite
	// each other through a stale read of the trail
	res := config.DB.Model(&delivery).Update("location_trail",
		gorm.Expr("json_insert(COALESCE(location_trail, '[]'), '$[#]', json(?))", string(point)))
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record location"})
		return
	}
	config.DB.First(&delivery, delivery.ID)

	c.JSON(http.StatusOK, gin.H{
		"message":          "Location recorded",
		"delivery_id":      delivery.ID,
		"location_updates": delivery.LocationTrail,
	})
}

type SetQualityRequest struct {
	QualityStatus models.QualityStatus `json:"quality_status" binding:"required"`
}

// SetQualityStatus records the advisory freshness flag. It may come from a
// scan verdict or a manual override and never gates a transition.
func SetQualityStatus(c *gin.Context) {
	callerID := middleware.GetUserID(c)
	role := middleware.GetRole(c)

	var delivery models.Delivery
	if err := config.DB.First(&delivery, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Delivery not found"})
		return
	}
	if role != models.RoleAdmin {
		if delivery.AgentID == nil || *delivery.AgentID != callerID {
			c.JSON(http.StatusForbidden, gin.H{"error": "You are not the assigned agent for this delivery"})
			return
		}
	}

	var req SetQualityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.QualityStatus {
	case models.QualityUnknown, models.QualityGood, models.QualitySpoiled:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "quality_status must be unknown, good or spoiled"})
		return
	}

	config.DB.Model(&delivery).Update("quality_status", req.QualityStatus)

	c.JSON(http.StatusOK, gin.H{
		"message":        "Quality status updated",
		"delivery_id":    delivery.ID,
		"quality_status": req.QualityStatus,
	})
}

// GetDelivery returns one delivery with its request context
func GetDelivery(c *gin.Context) {
	var delivery models.Delivery
	if err := config.DB.Preload("Request").Preload("Request.Donation").Preload("Agent").
		First(&delivery, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Delivery not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivery": delivery})
}
