package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// DeliveryStatus represents all possible states of a courier delivery
type DeliveryStatus string

const (
	DeliveryAssigned  DeliveryStatus = "assigned"
	DeliveryInTransit DeliveryStatus = "in_transit"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

// QualityStatus is the advisory freshness flag on a delivery. It never gates
// a status transition; a delivery may complete with quality still unknown.
type QualityStatus string

const (
	QualityUnknown QualityStatus = "unknown"
	QualityGood    QualityStatus = "good"
	QualitySpoiled QualityStatus = "spoiled"
)

// LocationUpdate is one point on the courier's trail
type LocationUpdate struct {
	Lat float64   `json:"lat"`
	Lng float64   `json:"lng"`
	Ts  time.Time `json:"ts"`
}

// LocationTrail is stored as a JSON column, appended in arrival order and
// never reordered or trimmed.
type LocationTrail []LocationUpdate

// Value stores the trail as TEXT, not a blob, so SQLite's JSON functions can
// operate on the column in place.
func (t LocationTrail) Value() (driver.Value, error) {
	if t == nil {
		t = LocationTrail{}
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (t *LocationTrail) Scan(value interface{}) error {
	if value == nil {
		*t = LocationTrail{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("location trail: unsupported column type")
	}
	if len(raw) == 0 {
		*t = LocationTrail{}
		return nil
	}
	return json.Unmarshal(raw, t)
}

// Delivery tracks the courier-side fulfillment of one request. The unique
// index on RequestID enforces the one-to-one invariant at the storage layer.
// If the agent account is removed the reference is cleared, not the row.
type Delivery struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	RequestID     uint           `json:"request_id" gorm:"not null;uniqueIndex"`
	Request       Request        `json:"request,omitempty" gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
	AgentID       *uint          `json:"agent_id"`
	Agent         *User          `json:"agent,omitempty" gorm:"foreignKey:AgentID;constraint:OnDelete:SET NULL"`
	Status        DeliveryStatus `json:"status" gorm:"not null;index;default:'assigned'"`
	LocationTrail LocationTrail  `json:"location_updates" gorm:"type:text"`
	QualityStatus QualityStatus  `json:"quality_status" gorm:"not null;default:'unknown'"`
	PickupTime    *time.Time     `json:"pickup_time"`
	DropoffTime   *time.Time     `json:"dropoff_time"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" gorm:"index"`
}
