package drivers

import "driver-review-service/internal/models"

// RegisterRequest is the body for POST /drivers.
type RegisterRequest struct {
	VehicleNumber      string          `json:"vehicle_number" validate:"required,vehicle_number"`
	Platform           models.Platform `json:"platform" validate:"required,platform"`
	DriverName         *string         `json:"driver_name" validate:"omitempty,max=100"`
	PhoneNumber        *string         `json:"phone_number" validate:"omitempty,phone"`
	TotalRides         int             `json:"total_rides" validate:"gte=0"`
	IsMultiplePlatform bool            `json:"is_multiple_platform"`
}

// SearchQuery holds the query string of GET /drivers/search.
type SearchQuery struct {
	VehicleNumber string          `json:"vehicle_number" validate:"required,vehicle_number"`
	Platform      models.Platform `json:"platform" validate:"omitempty,platform"`
}

// SearchResponse is returned by GET /drivers/search.
type SearchResponse struct {
	Drivers []models.DriverDetails `json:"drivers"`
	Count   int                    `json:"count"`
	Message string                 `json:"message,omitempty"`
}

const noResultsMessage = "No driver data found for this vehicle number."
