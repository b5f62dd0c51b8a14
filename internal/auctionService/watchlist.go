package auction

import (
	"context"
	"fmt"
	"time"

	"auction-ledger/internal/auctionerrors"
	"auction-ledger/internal/models"
	"auction-ledger/internal/repository"
	"auction-ledger/utils"
)

// WatchlistService manages each user's set of watched listings
type WatchlistService struct {
	store repository.WatchlistStore
}

// NewWatchlistService creates a new WatchlistService instance
func NewWatchlistService(store repository.WatchlistStore) *WatchlistService {
	return &WatchlistService{store: store}
}

// AddToWatchlist watches a listing. Adding a pair twice is a no-op; added reports whether a row was created.
func (s *WatchlistService) AddToWatchlist(ctx context.Context, userID, listingID string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("service: %w - anonymous user", auctionerrors.ErrUnauthorized)
	}
	if listingID == "" {
		return false, fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrNotFound)
	}

	added, err := s.store.AddWatch(ctx, models.WatchlistEntry{
		ID:        utils.GenerateID(),
		UserID:    userID,
		ListingID: listingID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("service: failed to watch listing %s for user %s: %w", listingID, userID, err)
	}
	return added, nil
}

// RemoveFromWatchlist stops watching a listing; it fails with ErrNotFound if the pair is absent
func (s *WatchlistService) RemoveFromWatchlist(ctx context.Context, userID, listingID string) error {
	if userID == "" {
		return fmt.Errorf("service: %w - anonymous user", auctionerrors.ErrUnauthorized)
	}
	if listingID == "" {
		return fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrNotFound)
	}

	if err := s.store.RemoveWatch(ctx, userID, listingID); err != nil {
		return fmt.Errorf("service: failed to unwatch listing %s for user %s: %w", listingID, userID, err)
	}
	return nil
}

// GetWatchlist returns the listings a user watches
func (s *WatchlistService) GetWatchlist(ctx context.Context, userID string) ([]models.Listing, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w - anonymous user", auctionerrors.ErrUnauthorized)
	}

	listings, err := s.store.ListWatchlist(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get watchlist for user %s: %w", userID, err)
	}
	return listings, nil
}
