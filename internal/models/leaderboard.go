package models

// Contributor is one row of the top contributors board.
type Contributor struct {
	ID           string  `json:"id"`
	Username     *string `json:"username"`
	DisplayName  string  `json:"display_name"`
	Score        int     `json:"score"`
	DriversAdded int     `json:"drivers_added"`
}

// Stats are the community-wide totals.
type Stats struct {
	TotalDrivers  int     `json:"total_drivers"`
	TotalReviews  int     `json:"total_reviews"`
	TotalUsers    int     `json:"total_users"`
	AverageRating float64 `json:"average_rating"`
}
