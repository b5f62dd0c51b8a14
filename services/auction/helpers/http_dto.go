package helpers

import "time"

// Request DTOs
type PlaceBidRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// CreateListingRequest fields are validated by the catalog service so that
// missing values surface as validation errors rather than binding errors.
type CreateListingRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	ImageURL      string `json:"image_url"`
	StartingPrice int64  `json:"starting_price"`
	Category      string `json:"category"`
}

type CommentRequest struct {
	Comment string `json:"comment"`
}

type RegisterRequest struct {
	Username     string `json:"username" binding:"required"`
	Email        string `json:"email"`
	Password     string `json:"password" binding:"required"`
	Confirmation string `json:"confirmation"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Response DTOs
type BidResponse struct {
	ListingID     string `json:"listing_id"`
	BidderID      string `json:"bidder_id"`
	Amount        int64  `json:"amount"`
	AmountDisplay string `json:"amount_display"`
	MinNextBid    int64  `json:"min_next_bid"`
}

type BidRejectedResponse struct {
	CurrentHighest int64 `json:"current_highest"`
	MinNextBid     int64 `json:"min_next_bid"`
}

type CloseResponse struct {
	ListingID   string  `json:"listing_id"`
	HasWinner   bool    `json:"has_winner"`
	WinnerID    *string `json:"winner_id"`
	FinalAmount int64   `json:"final_amount"`
}

type WatchlistResponse struct {
	ListingID string `json:"listing_id"`
	Watching  bool   `json:"watching"`
	Added     bool   `json:"added"`
}

type CategoryListingsResponse struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Listings any    `json:"listings"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
}

// FormatTime renders timestamps the same way across responses
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
