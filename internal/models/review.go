package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is one reviewer's rating of one driver.
type Review struct {
	ID         string     `json:"id"`
	DriverID   string     `json:"driver_id"`
	ReviewerID string     `json:"reviewer_id"`
	Rating     int        `json:"rating"`
	ReviewText *string    `json:"review_text"`
	RideDate   *time.Time `json:"ride_date"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewReview holds the columns supplied on insert.
type NewReview struct {
	DriverID   string
	ReviewerID string
	Rating     int
	ReviewText *string
	RideDate   *time.Time
}
