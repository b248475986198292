package reviews

import "driver-review-service/internal/models"

// SubmitRequest is the body for POST /drivers/{id}/reviews. DriverID comes from the path.
type SubmitRequest struct {
	DriverID   string  `json:"driver_id" validate:"required"`
	Rating     int     `json:"rating" validate:"required,min=1,max=5"`
	ReviewText *string `json:"review_text" validate:"omitempty,max=2000"`
	RideDate   string  `json:"ride_date" validate:"omitempty,datetime=2006-01-02"`
}

// QuickReviewRequest is the body for POST /reviews/quick.
type QuickReviewRequest struct {
	VehicleNumber string          `json:"vehicle_number" validate:"required,vehicle_number"`
	Platform      models.Platform `json:"platform" validate:"required,platform"`
	Rating        int             `json:"rating" validate:"required,min=1,max=5"`
	ReviewText    *string         `json:"review_text" validate:"omitempty,max=2000"`
	RideDate      string          `json:"ride_date" validate:"omitempty,datetime=2006-01-02"`
}

// QuickReviewResult is the driver the review was attached to, the review, and
// whether this call created the driver.
type QuickReviewResult struct {
	Driver        *models.Driver `json:"driver"`
	Review        *models.Review `json:"review"`
	DriverCreated bool           `json:"driver_created"`
}
