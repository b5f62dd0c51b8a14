package auction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-ledger/internal/auctionerrors"
	"auction-ledger/internal/models"
	"auction-ledger/internal/repository"
	"auction-ledger/utils"
)

// BidResult describes an accepted bid
type BidResult struct {
	ListingID  string
	BidderID   string
	Amount     int64
	MinNextBid int64
}

// CloseResult describes a closed auction. WinnerID is nil when nobody bid.
type CloseResult struct {
	ListingID   string
	WinnerID    *string
	FinalAmount int64
}

// HasWinner reports whether the auction closed with a bid
func (r CloseResult) HasWinner() bool {
	return r.WinnerID != nil
}

// Ledger enforces bid monotonicity and performs auction closure
type Ledger struct {
	listings   repository.ListingStore
	categories repository.CategoryStore
	comments   repository.CommentStore
	watchlist  repository.WatchlistStore
}

// NewLedger creates a new Ledger instance
func NewLedger(listings repository.ListingStore, categories repository.CategoryStore,
	comments repository.CommentStore, watchlist repository.WatchlistStore) *Ledger {
	return &Ledger{
		listings:   listings,
		categories: categories,
		comments:   comments,
		watchlist:  watchlist,
	}
}

// bidReader is satisfied by both the store and a locked ListingTx
type bidReader interface {
	GetBid(ctx context.Context, listingID string) (models.Bid, bool, error)
}

// currentHighest returns the listing's running bid amount, or its starting price when nobody bid
func currentHighest(ctx context.Context, r bidReader, listing models.Listing) (int64, models.Bid, bool, error) {
	bid, ok, err := r.GetBid(ctx, listing.ID)
	if err != nil {
		return 0, models.Bid{}, false, err
	}
	if !ok {
		return listing.StartingPrice, models.Bid{}, false, nil
	}
	return bid.Amount, bid, true, nil
}

// PlaceBid validates an offer and, if it is at least the current highest, makes it the listing's bid
func (s *Ledger) PlaceBid(ctx context.Context, listingID, bidderID string, amount int64) (BidResult, error) {
	if listingID == "" || bidderID == "" {
		return BidResult{}, fmt.Errorf("service: %w - missing listingID or bidderID", auctionerrors.ErrInvalidBid)
	}
	if amount <= 0 {
		return BidResult{}, fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidBid)
	}

	var result BidResult
	err := s.listings.WithListingLock(ctx, listingID, func(tx repository.ListingTx) error {
		listing, err := tx.GetListing(ctx, listingID)
		if err != nil {
			return err
		}
		if !listing.Active {
			return fmt.Errorf("listing %s: %w", listingID, auctionerrors.ErrAlreadyClosed)
		}

		current, existing, hasBid, err := currentHighest(ctx, tx, listing)
		if err != nil {
			return err
		}
		// ties are accepted
		if amount < current {
			return &auctionerrors.BidTooLowError{Current: current}
		}

		bid := models.Bid{
			ID:        utils.GenerateID(),
			ListingID: listingID,
			BidderID:  bidderID,
			Amount:    amount,
			UpdatedAt: time.Now().UTC(),
		}
		if hasBid {
			bid.ID = existing.ID
		}
		if err := tx.SaveBid(ctx, bid); err != nil {
			return err
		}

		result = BidResult{
			ListingID:  listingID,
			BidderID:   bidderID,
			Amount:     amount,
			MinNextBid: amount + 1,
		}
		return nil
	})
	if err != nil {
		return BidResult{}, fmt.Errorf("service: failed to place bid on listing %s by user %s: %w", listingID, bidderID, err)
	}

	return result, nil
}

// CloseAuction deactivates a listing on behalf of its owner and assigns the current bidder as winner
func (s *Ledger) CloseAuction(ctx context.Context, listingID, requestorID string) (CloseResult, error) {
	if listingID == "" {
		return CloseResult{}, fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrNotFound)
	}
	if requestorID == "" {
		return CloseResult{}, fmt.Errorf("service: %w - anonymous requestor", auctionerrors.ErrUnauthorized)
	}

	var result CloseResult
	err := s.listings.WithListingLock(ctx, listingID, func(tx repository.ListingTx) error {
		listing, err := tx.GetListing(ctx, listingID)
		if err != nil {
			return err
		}
		if listing.OwnerID != requestorID {
			return fmt.Errorf("user %s does not own listing %s: %w", requestorID, listingID, auctionerrors.ErrUnauthorized)
		}
		if !listing.Active {
			return fmt.Errorf("listing %s: %w", listingID, auctionerrors.ErrAlreadyClosed)
		}

		final, bid, hasBid, err := currentHighest(ctx, tx, listing)
		if err != nil {
			return err
		}

		listing.Active = false
		listing.WinnerID = nil
		if hasBid {
			winner := bid.BidderID
			listing.WinnerID = &winner
		}
		if err := tx.SaveListing(ctx, listing); err != nil {
			return err
		}

		result = CloseResult{ListingID: listingID, WinnerID: listing.WinnerID, FinalAmount: final}
		return nil
	})
	if err != nil {
		return CloseResult{}, fmt.Errorf("service: failed to close listing %s: %w", listingID, err)
	}

	return result, nil
}

// GetListingView computes the read-only fields shown on a listing page.
// viewerID may be empty for anonymous visitors.
func (s *Ledger) GetListingView(ctx context.Context, listingID, viewerID string) (models.ListingView, error) {
	if listingID == "" {
		return models.ListingView{}, fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrNotFound)
	}

	listing, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return models.ListingView{}, fmt.Errorf("service: failed to get listing %s: %w", listingID, err)
	}

	highest, bid, hasBid, err := currentHighest(ctx, s.listings, listing)
	if err != nil {
		return models.ListingView{}, fmt.Errorf("service: failed to get bid for listing %s: %w", listingID, err)
	}

	view := models.ListingView{
		Listing:        listing,
		HighestBid:     highest,
		HighestDisplay: utils.FormatMinorUnits(highest),
		MinNextBid:     highest + 1,
		HasBids:        hasBid,
	}
	if hasBid {
		view.HighestBidderID = bid.BidderID
	}

	category, err := s.categories.GetCategory(ctx, listing.CategoryID)
	switch {
	case err == nil:
		view.CategoryName = category.Name
	case !errors.Is(err, auctionerrors.ErrNotFound):
		return models.ListingView{}, fmt.Errorf("service: failed to get category for listing %s: %w", listingID, err)
	}

	comments, err := s.comments.ListComments(ctx, listingID)
	if err != nil {
		return models.ListingView{}, fmt.Errorf("service: failed to get comments for listing %s: %w", listingID, err)
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	view.Comments = comments

	if viewerID != "" {
		view.IsOwner = listing.OwnerID == viewerID
		watching, err := s.watchlist.IsWatching(ctx, viewerID, listingID)
		if err != nil {
			return models.ListingView{}, fmt.Errorf("service: failed to check watchlist for listing %s: %w", listingID, err)
		}
		view.IsWatching = watching
	}

	return view, nil
}
