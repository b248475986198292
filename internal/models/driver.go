package models

import "time"

// Driver is a community-contributed record keyed by (VehicleNumber, Platform).
type Driver struct {
	ID                 string    `json:"id"`
	VehicleNumber      string    `json:"vehicle_number"`
	Platform           Platform  `json:"platform"`
	DriverName         *string   `json:"driver_name"`
	PhoneNumber        *string   `json:"phone_number"`
	TotalRides         int       `json:"total_rides"`
	IsMultiplePlatform bool      `json:"is_multiple_platform"`
	AverageRating      float64   `json:"average_rating"` // maintained by the store
	ContributedBy      *string   `json:"contributed_by"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewDriver holds the client-settable columns of a driver row.
type NewDriver struct {
	VehicleNumber      string
	Platform           Platform
	DriverName         *string
	PhoneNumber        *string
	TotalRides         int
	IsMultiplePlatform bool
	ContributedBy      *string
}

// DriverDetails is a search result: the driver with its reviews and contributor name.
type DriverDetails struct {
	Driver
	Reviews             []Review `json:"reviews"`
	ContributorUsername *string  `json:"contributor_username"`
}

// DriverSummary is a driver with its review count, used by profile and leaderboard views.
type DriverSummary struct {
	Driver
	ReviewCount int `json:"review_count"`
}
