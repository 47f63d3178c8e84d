package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"food-rescue-api/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// JWTSecret used to sign tokens — read from env or fallback
var JWTSecret = []byte(getEnv("JWT_SECRET", "food_rescue_super_secret_2024"))

// TokenTTL controls how long issued tokens stay valid (JWT_TTL_HOURS env)
var TokenTTL = func() time.Duration {
	hours, err := strconv.Atoi(getEnv("JWT_TTL_HOURS", "24"))
	if err != nil || hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}()

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func InitDB() {
	openDB(getEnv("DB_PATH", "food_rescue.db"))
	log.Println("✅ Database connected and migrated successfully")
}

// InitTestDB opens a fresh in-memory database, used by the test suites
func InitTestDB() {
	openDB(":memory:")
}

func openDB(dsn string) {
	var err error
	DB, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate all models
	err = DB.AutoMigrate(
		&models.User{},
		&models.FoodDonation{},
		&models.Request{},
		&models.Delivery{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}
}
