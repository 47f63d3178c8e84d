package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"food-rescue-api/classifier"
	"food-rescue-api/config"
	"food-rescue-api/middleware"
	"food-rescue-api/models"
	"food-rescue-api/routes"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// setupRouter builds a full router over a fresh in-memory database
func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.InitTestDB()
	r := gin.New()
	routes.SetupRoutes(r, classifier.New(nil))
	return r
}

// newUser inserts a user with the given role and returns it with a valid token
func newUser(t *testing.T, name string, role models.UserRole) (models.User, string) {
	t.Helper()
	user := models.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "not-used-in-tests",
		Role:         role,
	}
	require.NoError(t, config.DB.Create(&user).Error)
	token, err := middleware.GenerateToken(&user)
	require.NoError(t, err)
	return user, token
}

// doJSON performs a request with an optional bearer token and JSON body
func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decodeBody unmarshals a JSON response body into a map
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// notificationsFor returns all notification rows addressed to a user
func notificationsFor(t *testing.T, userID uint) []models.Notification {
	t.Helper()
	var rows []models.Notification
	require.NoError(t, config.DB.Where("user_id = ?", userID).Order("created_at asc").Find(&rows).Error)
	return rows
}

// createDonation posts a donation as the given restaurant and returns its ID
func createDonation(t *testing.T, r *gin.Engine, token string, foodType string, quantity int) uint {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/restaurant/donations", token, gin.H{
		"food_type":      foodType,
		"quantity":       quantity,
		"pickup_address": "12 Baker Street",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody(t, w)
	donation := body["donation"].(map[string]interface{})
	return uint(donation["id"].(float64))
}

// createRequest files a request as the given NGO and returns its ID
func createRequest(t *testing.T, r *gin.Engine, token string, donationID uint) uint {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/ngo/requests", token, gin.H{
		"donation_id": donationID,
		"message":     "We can distribute this today",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody(t, w)
	request := body["request"].(map[string]interface{})
	return uint(request["id"].(float64))
}
