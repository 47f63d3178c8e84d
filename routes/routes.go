package routes

import (
	"food-rescue-api/classifier"
	"food-rescue-api/handlers"
	"food-rescue-api/middleware"
	"food-rescue-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, cls *classifier.Classifier) {
	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Auth
		public.POST("/auth/register", handlers.Register)
		public.POST("/auth/login", handlers.Login)

		// Donations are browsable without an account
		public.GET("/donations", handlers.ListDonations)
		public.GET("/donations/:id", handlers.GetDonation)

		// State machine info (great for docs/Postman)
		public.GET("/state-machine", handlers.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired())
	{
		auth.GET("/profile", handlers.GetProfile)

		// Image freshness scan — advisory only, persists nothing
		auth.POST("/scan", handlers.ScanFoodImage(cls))

		// Notifications are readable and markable by their owner only
		auth.GET("/notifications", handlers.GetMyNotifications)
		auth.PUT("/notifications/:id/read", handlers.MarkNotificationRead)
		auth.PUT("/notifications/read-all", handlers.MarkAllNotificationsRead)
	}

	// ── Restaurant routes ──────────────────────────────────────────
	restaurant := r.Group("/api/restaurant")
	restaurant.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleRestaurant))
	{
		restaurant.POST("/donations", handlers.CreateDonation)
		restaurant.GET("/donations", handlers.GetMyDonations)
		restaurant.PUT("/donations/:id", handlers.UpdateDonation)
		restaurant.PUT("/donations/:id/cancel", handlers.CancelDonation)

		restaurant.GET("/requests", handlers.GetRequestsForMyDonations)
		restaurant.PUT("/requests/:id/status", handlers.DecideRequest)
	}

	// ── NGO routes ─────────────────────────────────────────────────
	ngo := r.Group("/api/ngo")
	ngo.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleNGO))
	{
		ngo.POST("/requests", handlers.CreateRequest)
		ngo.GET("/requests", handlers.GetMyRequests)
		ngo.PUT("/requests/:id/cancel", handlers.CancelRequest)
	}

	// ── Delivery agent routes ──────────────────────────────────────
	agent := r.Group("/api/agent")
	agent.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleDeliveryAgent, models.RoleAdmin))
	{
		agent.GET("/deliveries/available", handlers.GetAvailableDeliveries)
		agent.GET("/deliveries", handlers.GetMyDeliveries)
		agent.GET("/deliveries/:id", handlers.GetDelivery)
		agent.PUT("/deliveries/:id/accept", handlers.AcceptDelivery)
		agent.PUT("/deliveries/:id/status", handlers.UpdateDeliveryStatus)
		agent.POST("/deliveries/:id/location", handlers.RecordLocation)
		agent.PUT("/deliveries/:id/quality", handlers.SetQualityStatus)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/users", handlers.AdminGetAllUsers)
		admin.GET("/donations", handlers.AdminGetAllDonations)
		admin.GET("/deliveries", handlers.AdminGetAllDeliveries)
	}
}
