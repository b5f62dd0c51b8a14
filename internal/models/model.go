package models

import "time"

// User represents a marketplace account
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username     string    `json:"username" gorm:"type:varchar(150);uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"type:varchar(254)"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// Category groups listings under a label
type Category struct {
	ID   string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name string `json:"name" gorm:"type:varchar(64);uniqueIndex;not null"`
	Slug string `json:"slug" gorm:"type:varchar(64);uniqueIndex;not null"`
}

// Listing represents an item offered for auction
type Listing struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title         string    `json:"title" gorm:"type:varchar(64);not null"`
	Description   string    `json:"description" gorm:"type:varchar(256);not null"`
	ImageURL      string    `json:"image_url,omitempty" gorm:"type:varchar(256)"`
	StartingPrice int64     `json:"starting_price" gorm:"not null"`
	CategoryID    string    `json:"category_id" gorm:"type:varchar(36);index;not null"`
	OwnerID       string    `json:"owner_id" gorm:"type:varchar(36);index;not null"`
	Active        bool      `json:"active" gorm:"index;not null"`
	WinnerID      *string   `json:"winner_id,omitempty" gorm:"type:varchar(36);index"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Bid is the running highest offer on a listing. A listing has at most one.
type Bid struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ListingID string    `json:"listing_id" gorm:"type:varchar(36);uniqueIndex;not null"`
	BidderID  string    `json:"bidder_id" gorm:"type:varchar(36);index;not null"`
	Amount    int64     `json:"amount" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Comment is an immutable note left on a listing
type Comment struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ListingID string    `json:"listing_id" gorm:"type:varchar(36);index;not null"`
	AuthorID  string    `json:"author_id" gorm:"type:varchar(36);not null"`
	Text      string    `json:"text" gorm:"type:varchar(1024);not null"`
	CreatedAt time.Time `json:"created_at"`
}

// WatchlistEntry marks a listing as watched by a user
type WatchlistEntry struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);uniqueIndex:idx_watch_user_listing;not null"`
	ListingID string    `json:"listing_id" gorm:"type:varchar(36);uniqueIndex:idx_watch_user_listing;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// ListingFilter narrows listing queries. Zero values match everything.
type ListingFilter struct {
	ActiveOnly bool
	CategoryID string
	OwnerID    string
	WinnerID   string
}

// ListingView is the read-only projection rendered on a listing page
type ListingView struct {
	Listing         Listing   `json:"listing"`
	CategoryName    string    `json:"category_name"`
	HighestBid      int64     `json:"highest_bid"`
	HighestDisplay  string    `json:"highest_display"`
	MinNextBid      int64     `json:"min_next_bid"`
	HasBids         bool      `json:"has_bids"`
	HighestBidderID string    `json:"highest_bidder_id,omitempty"`
	IsOwner         bool      `json:"is_owner"`
	IsWatching      bool      `json:"is_watching"`
	Comments        []Comment `json:"comments"`
}
