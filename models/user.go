package models

import (
	"time"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleRestaurant    UserRole = "restaurant"
	RoleNGO           UserRole = "ngo"
	RoleDeliveryAgent UserRole = "delivery_agent"
	RoleAdmin         UserRole = "admin"
)

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         UserRole  `json:"role" gorm:"not null;index;default:'restaurant'"`
	Organization string    `json:"organization"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
