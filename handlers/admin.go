package handlers

import (
	"net/http"

	"food-rescue-api/config"
	"food-rescue-api/models"

	"github.com/gin-gonic/gin"
)

// AdminGetAllUsers returns all users — admin only
func AdminGetAllUsers(c *gin.Context) {
	var users []models.User
	query := config.DB
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	query.Find(&users)
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

// AdminGetAllDonations returns all donations with their requests — admin only
func AdminGetAllDonations(c *gin.Context) {
	var donations []models.FoodDonation
	query := config.DB.Preload("Restaurant").Preload("Requests")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if restaurantID := c.Query("restaurant_id"); restaurantID != "" {
		query = query.Where("restaurant_id = ?", restaurantID)
	}

	query.Order("created_at desc").Find(&donations)

	// Admin dashboard: aggregate by status
	summary := map[string]int{}
	var totalQuantity int
	for _, d := range donations {
		summary[string(d.Status)]++
		if d.Status == models.DonationDistributed {
			totalQuantity += d.Quantity
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"donation_summary":     summary,
		"quantity_distributed": totalQuantity,
		"count":                len(donations),
		"donations":            donations,
	})
}

// AdminGetAllDeliveries returns all deliveries with full context — admin only
func AdminGetAllDeliveries(c *gin.Context) {
	var deliveries []models.Delivery
	query := config.DB.Preload("Request").Preload("Request.Donation").Preload("Request.NGO").Preload("Agent")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if agentID := c.Query("agent_id"); agentID != "" {
		query = query.Where("agent_id = ?", agentID)
	}

	query.Order("updated_at desc").Find(&deliveries)

	summary := map[string]int{}
	for _, d := range deliveries {
		summary[string(d.Status)]++
	}

	c.JSON(http.StatusOK, gin.H{
		"delivery_summary": summary,
		"count":            len(deliveries),
		"deliveries":       deliveries,
	})
}
