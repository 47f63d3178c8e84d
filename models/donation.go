package models

import "time"

// DonationStatus represents all possible states of a posted food donation
type DonationStatus string

const (
	DonationAvailable   DonationStatus = "available"
	DonationAssigned    DonationStatus = "assigned"
	DonationCollected   DonationStatus = "collected"
	DonationDistributed DonationStatus = "distributed"
	DonationCancelled   DonationStatus = "cancelled"
)

type FoodDonation struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	RestaurantID  uint           `json:"restaurant_id" gorm:"not null;index"`
	Restaurant    User           `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE"`
	FoodType      string         `json:"food_type"`
	Description   string         `json:"description"`
	Quantity      int            `json:"quantity" gorm:"not null"`
	Expiry        *time.Time     `json:"expiry" gorm:"index"`
	Status        DonationStatus `json:"status" gorm:"not null;index;default:'available'"`
	PickupAddress string         `json:"pickup_address"`
	Latitude      *float64       `json:"latitude"`
	Longitude     *float64       `json:"longitude"`
	Notes         string         `json:"notes"`
	Requests      []Request      `json:"requests,omitempty" gorm:"foreignKey:DonationID"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// RequestStatus represents all possible states of an NGO's claim on a donation
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestRejected  RequestStatus = "rejected"
	RequestCancelled RequestStatus = "cancelled"
	RequestFulfilled RequestStatus = "fulfilled"
)

// Request links one donation to one requesting NGO. The composite unique
// index is what enforces "at most one request per (donation, ngo)" — the
// database constraint, not a read-then-write check, is the correctness
// mechanism under concurrency.
type Request struct {
	ID         uint          `json:"id" gorm:"primaryKey"`
	DonationID uint          `json:"donation_id" gorm:"not null;uniqueIndex:idx_donation_ngo"`
	Donation   FoodDonation  `json:"donation,omitempty" gorm:"foreignKey:DonationID;constraint:OnDelete:CASCADE"`
	NGOID      uint          `json:"ngo_id" gorm:"not null;uniqueIndex:idx_donation_ngo"`
	NGO        User          `json:"ngo,omitempty" gorm:"foreignKey:NGOID;constraint:OnDelete:CASCADE"`
	Status     RequestStatus `json:"status" gorm:"not null;index;default:'pending'"`
	Message    string        `json:"message" gorm:"size:512"`
	CreatedAt  time.Time     `json:"created_at"`
	DecidedAt  *time.Time    `json:"decided_at"`
}
