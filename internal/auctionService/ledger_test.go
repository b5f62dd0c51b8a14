package auction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"auction-ledger/internal/auctionerrors"
	model "auction-ledger/internal/models"
	"auction-ledger/internal/repository"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type ledgerMocks struct {
	listings   *repository.MockListingStore
	tx         *repository.MockListingTx
	categories *repository.MockCategoryStore
	comments   *repository.MockCommentStore
	watchlist  *repository.MockWatchlistStore
}

func newMockLedger(t *testing.T) (*Ledger, ledgerMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	m := ledgerMocks{
		listings:   repository.NewMockListingStore(ctrl),
		tx:         repository.NewMockListingTx(ctrl),
		categories: repository.NewMockCategoryStore(ctrl),
		comments:   repository.NewMockCommentStore(ctrl),
		watchlist:  repository.NewMockWatchlistStore(ctrl),
	}
	return NewLedger(m.listings, m.categories, m.comments, m.watchlist), m
}

// expectLock makes WithListingLock run its callback against the mock transaction
func (m ledgerMocks) expectLock(listingID string) {
	m.listings.EXPECT().
		WithListingLock(gomock.Any(), listingID, gomock.Any()).
		DoAndReturn(func(ctx context.Context, id string, fn func(repository.ListingTx) error) error {
			return fn(m.tx)
		})
}

func activeListing(id, ownerID string, startingPrice int64) model.Listing {
	return model.Listing{ID: id, Title: "title " + id, OwnerID: ownerID, CategoryID: "cat", StartingPrice: startingPrice, Active: true}
}

// Tests PlaceBid
func TestLedger_PlaceBid(t *testing.T) {
	tests := []struct {
		name          string
		listingID     string
		bidderID      string
		amount        int64
		mockSetup     func(m ledgerMocks)
		expectError   bool
		expectedError error
		tooLowCurrent int64
	}{
		{
			name:      "first_bid_at_starting_price",
			listingID: "L1",
			bidderID:  "bob",
			amount:    100,
			mockSetup: func(m ledgerMocks) {
				m.expectLock("L1")
				m.tx.EXPECT().GetListing(gomock.Any(), "L1").Return(activeListing("L1", "alice", 100), nil)
				m.tx.EXPECT().GetBid(gomock.Any(), "L1").Return(model.Bid{}, false, nil)
				m.tx.EXPECT().SaveBid(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, bid model.Bid) error {
					_, err := uuid.Parse(bid.ID)
					require.NoError(t, err, "new bid rows get a UUID")
					require.Equal(t, "L1", bid.ListingID)
					require.Equal(t, "bob", bid.BidderID)
					require.Equal(t, int64(100), bid.Amount)
					return nil
				})
			},
		},
		{
			name:      "first_bid_below_starting_price",
			listingID: "L1",
			bidderID:  "bob",
			amount:    99,
			mockSetup: func(m ledgerMocks) {
				m.expectLock("L1")
				m.tx.EXPECT().GetListing(gomock.Any(), "L1").Return(activeListing("L1", "alice", 100), nil)
				m.tx.EXPECT().GetBid(gomock.Any(), "L1").Return(model.Bid{}, false, nil)
			},
			expectedError: auctionerrors.ErrInvalidBid,
			tooLowCurrent: 100,
		},
		{
			name:      "raise_keeps_bid_row",
			listingID: "L1",
			bidderID:  "carol",
			amount:    150,
			mockSetup: func(m ledgerMocks) {
				m.expectLock("L1")
				m.tx.EXPECT().GetListing(gomock.Any(), "L1").Return(activeListing("L1", "alice", 100), nil)
				m.tx.EXPECT().GetBid(gomock.Any(), "L1").Return(model.Bid{ID: "row-1", ListingID: "L1", BidderID: "bob", Amount: 120}, true, nil)
				m.tx.EXPECT().SaveBid(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, bid model.Bid) error {
					require.Equal(t, "row-1", bid.ID)
					require.Equal(t, "carol", bid.BidderID)
					require.Equal(t, int64(150), bid.Amount)
					return nil
				})
			},
		},
		{
			name:      "tie_with_current_bid",
			listingID: "L1",
			bidderID:  "carol",
			amount:    120,
			mockSetup: func(m ledgerMocks) {
				m.expectLock("L1")
				m.tx.EXPECT().GetListing(gomock.Any(), "L1").Return(activeListing("L1", "alice", 100), nil)
				m.tx.EXPECT().GetBid(gomock.Any(), "L1").Return(model.Bid{ID: "row-1", ListingID: "L1", BidderID: "bob", Amount: 120}, true, nil)
				m.tx.EXPECT().SaveBid(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:      "below_current_bid",
			listingID: "L1",
			bidderID:  "carol",
			amount:    119,
			mockSetup: func(m ledgerMocks) {
				m.expectLock("L1")
				m.tx.EXPECT().GetListing(gomock.Any(), "L1").Return(activeListing("L1", "alice", 100), nil)
				m.tx.EXPECT().GetBid(gomock.Any(), "L1").Return(model.Bid{ID: "row-1", ListingID: "L1", BidderID: "bob", Amount: 120}, true, nil)
			},
			expectedError: auctionerrors.ErrInvalidBid,
			tooLowCurrent: 120,
		},
		{
			name:      "closed_listing",
			listingID: "L1",
			bidderID:  "bob",
			amount:    500,
			mockSetup: func(m ledgerMocks) {
				closed := activeListing("L1", "alice", 100)
				closed.Active = false
				m.expectLock("L1")
				m.tx.EXPECT().GetListing(gomock.Any(), "L1").Return(closed, nil)
			},
			expectedError: auctionerrors.ErrAlreadyClosed,
		},
		{
			name:      "missing_listing",
			listingID: "L9",
			bidderID:  "bob",
			amount:    500,
			mockSetup: func(m ledgerMocks) {
				m.expectLock("L9")
				m.tx.EXPECT().GetListing(gomock.Any(), "L9").Return(model.Listing{}, fmt.Errorf("get listing L9: %w", auctionerrors.ErrNotFound))
			},
			expectedError: auctionerrors.ErrNotFound,
		},
		{
			name:          "empty_listingID",
			listingID:     "",
			bidderID:      "bob",
			amount:        50,
			mockSetup:     func(m ledgerMocks) {},
			expectedError: auctionerrors.ErrInvalidBid,
		},
		{
			name:          "empty_bidderID",
			listingID:     "L1",
			bidderID:      "",
			amount:        50,
			mockSetup:     func(m ledgerMocks) {},
			expectedError: auctionerrors.ErrInvalidBid,
		},
		{
			name:          "zero_amount",
			listingID:     "L1",
			bidderID:      "bob",
			amount:        0,
			mockSetup:     func(m ledgerMocks) {},
			expectedError: auctionerrors.ErrInvalidBid,
		},
		{
			name:          "negative_amount",
			listingID:     "L1",
			bidderID:      "bob",
			amount:        -50,
			mockSetup:     func(m ledgerMocks) {},
			expectedError: auctionerrors.ErrInvalidBid,
		},
		{
			name:      "repo_write_fails",
			listingID: "L1",
			bidderID:  "bob",
			amount:    150,
			mockSetup: func(m ledgerMocks) {
				m.expectLock("L1")
				m.tx.EXPECT().GetListing(gomock.Any(), "L1").Return(activeListing("L1", "alice", 100), nil)
				m.tx.EXPECT().GetBid(gomock.Any(), "L1").Return(model.Bid{}, false, nil)
				m.tx.EXPECT().SaveBid(gomock.Any(), gomock.Any()).Return(errors.New("repo write failed"))
			},
			expectError: true, // service wraps the repo error
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ledger, m := newMockLedger(t)
			tc.mockSetup(m)

			result, err := ledger.PlaceBid(context.Background(), tc.listingID, tc.bidderID, tc.amount)

			if tc.expectError {
				require.Error(t, err)
				return
			}
			if tc.expectedError != nil {
				require.Error(t, err)
				require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)

				var tooLow *auctionerrors.BidTooLowError
				if tc.tooLowCurrent != 0 {
					require.True(t, errors.As(err, &tooLow))
					require.Equal(t, tc.tooLowCurrent, tooLow.Current)
					require.Equal(t, tc.tooLowCurrent+1, tooLow.MinNextBid())
				} else {
					require.False(t, errors.As(err, &tooLow))
				}
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.listingID, result.ListingID)
			require.Equal(t, tc.bidderID, result.BidderID)
			require.Equal(t, tc.amount, result.Amount)
			require.Equal(t, tc.amount+1, result.MinNextBid)
		})
	}
}

// Tests CloseAuction
func TestLedger_CloseAuction(t *testing.T) {
	tests := []struct {
		name          string
		listingID     string
		requestorID   string
		mockSetup     func(m ledgerMocks)
		expectedError error
		wantWinner    string
		wantFinal     int64
	}{
		{
			name:        "owner_closes_with_bid",
			listingID:   "L1",
			requestorID: "alice",
			mockSetup: func(m ledgerMocks) {
				m.expectLock("L1")
				m.tx.EXPECT().GetListing(gomock.Any(), "L1").Return(activeListing("L1", "alice", 100), nil)
				m.tx.EXPECT().GetBid(gomock.Any(), "L1").Return(model.Bid{ID: "row-1", ListingID: "L1", BidderID: "bob", Amount: 150}, true, nil)
				m.tx.EXPECT().SaveListing(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, l model.Listing) error {
					require.False(t, l.Active)
					require.NotNil(t, l.WinnerID)
					require.Equal(t, "bob", *l.WinnerID)
					return nil
				})
			},
			wantWinner: "bob",
			wantFinal:  150,
		},
		{
			name:        "owner_closes_without_bids",
			listingID:   "L1",
			requestorID: "alice",
			mockSetup: func(m ledgerMocks) {
				m.expectLock("L1")
				m.tx.EXPECT().GetListing(gomock.Any(), "L1").Return(activeListing("L1", "alice", 100), nil)
				m.tx.EXPECT().GetBid(gomock.Any(), "L1").Return(model.Bid{}, false, nil)
				m.tx.EXPECT().SaveListing(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, l model.Listing) error {
					require.False(t, l.Active)
					require.Nil(t, l.WinnerID)
					return nil
				})
			},
			wantFinal: 100,
		},
		{
			name:        "non_owner",
			listingID:   "L1",
			requestorID: "mallory",
			mockSetup: func(m ledgerMocks) {
				m.expectLock("L1")
				m.tx.EXPECT().GetListing(gomock.Any(), "L1").Return(activeListing("L1", "alice", 100), nil)
			},
			expectedError: auctionerrors.ErrUnauthorized,
		},
		{
			name:        "non_owner_on_closed_listing",
			listingID:   "L1",
			requestorID: "mallory",
			mockSetup: func(m ledgerMocks) {
				closed := activeListing("L1", "alice", 100)
				closed.Active = false
				m.expectLock("L1")
				m.tx.EXPECT().GetListing(gomock.Any(), "L1").Return(closed, nil)
			},
			expectedError: auctionerrors.ErrUnauthorized,
		},
		{
			name:        "already_closed",
			listingID:   "L1",
			requestorID: "alice",
			mockSetup: func(m ledgerMocks) {
				closed := activeListing("L1", "alice", 100)
				closed.Active = false
				m.expectLock("L1")
				m.tx.EXPECT().GetListing(gomock.Any(), "L1").Return(closed, nil)
			},
			expectedError: auctionerrors.ErrAlreadyClosed,
		},
		{
			name:        "missing_listing",
			listingID:   "L9",
			requestorID: "alice",
			mockSetup: func(m ledgerMocks) {
				m.expectLock("L9")
				m.tx.EXPECT().GetListing(gomock.Any(), "L9").Return(model.Listing{}, auctionerrors.ErrNotFound)
			},
			expectedError: auctionerrors.ErrNotFound,
		},
		{
			name:          "anonymous_requestor",
			listingID:     "L1",
			requestorID:   "",
			mockSetup:     func(m ledgerMocks) {},
			expectedError: auctionerrors.ErrUnauthorized,
		},
		{
			name:          "empty_listingID",
			listingID:     "",
			requestorID:   "alice",
			mockSetup:     func(m ledgerMocks) {},
			expectedError: auctionerrors.ErrNotFound,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ledger, m := newMockLedger(t)
			tc.mockSetup(m)

			result, err := ledger.CloseAuction(context.Background(), tc.listingID, tc.requestorID)

			if tc.expectedError != nil {
				require.Error(t, err)
				require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.listingID, result.ListingID)
			require.Equal(t, tc.wantFinal, result.FinalAmount)
			if tc.wantWinner == "" {
				require.False(t, result.HasWinner())
			} else {
				require.True(t, result.HasWinner())
				require.Equal(t, tc.wantWinner, *result.WinnerID)
			}
		})
	}
}

// Tests GetListingView
func TestLedger_GetListingView(t *testing.T) {
	tests := []struct {
		name          string
		viewerID      string
		mockSetup     func(m ledgerMocks)
		expectedError error
		validate      func(t *testing.T, v model.ListingView)
	}{
		{
			name:     "anonymous_no_bids",
			viewerID: "",
			mockSetup: func(m ledgerMocks) {
				m.listings.EXPECT().GetListing(gomock.Any(), "L1").Return(activeListing("L1", "alice", 1000), nil)
				m.listings.EXPECT().GetBid(gomock.Any(), "L1").Return(model.Bid{}, false, nil)
				m.categories.EXPECT().GetCategory(gomock.Any(), "cat").Return(model.Category{ID: "cat", Name: "Books"}, nil)
				m.comments.EXPECT().ListComments(gomock.Any(), "L1").Return(nil, nil)
			},
			validate: func(t *testing.T, v model.ListingView) {
				require.Equal(t, int64(1000), v.HighestBid)
				require.Equal(t, "10.00", v.HighestDisplay)
				require.Equal(t, int64(1001), v.MinNextBid)
				require.False(t, v.HasBids)
				require.Empty(t, v.HighestBidderID)
				require.Equal(t, "Books", v.CategoryName)
				require.False(t, v.IsOwner)
				require.False(t, v.IsWatching)
				require.NotNil(t, v.Comments)
			},
		},
		{
			name:     "owner_watching_with_bid",
			viewerID: "alice",
			mockSetup: func(m ledgerMocks) {
				m.listings.EXPECT().GetListing(gomock.Any(), "L1").Return(activeListing("L1", "alice", 1000), nil)
				m.listings.EXPECT().GetBid(gomock.Any(), "L1").Return(model.Bid{ListingID: "L1", BidderID: "bob", Amount: 1550}, true, nil)
				m.categories.EXPECT().GetCategory(gomock.Any(), "cat").Return(model.Category{}, auctionerrors.ErrNotFound)
				m.comments.EXPECT().ListComments(gomock.Any(), "L1").Return([]model.Comment{{ID: "c1", Text: "nice"}}, nil)
				m.watchlist.EXPECT().IsWatching(gomock.Any(), "alice", "L1").Return(true, nil)
			},
			validate: func(t *testing.T, v model.ListingView) {
				require.Equal(t, int64(1550), v.HighestBid)
				require.Equal(t, "15.50", v.HighestDisplay)
				require.Equal(t, int64(1551), v.MinNextBid)
				require.True(t, v.HasBids)
				require.Equal(t, "bob", v.HighestBidderID)
				require.Empty(t, v.CategoryName)
				require.True(t, v.IsOwner)
				require.True(t, v.IsWatching)
				require.Len(t, v.Comments, 1)
			},
		},
		{
			name:     "other_viewer",
			viewerID: "bob",
			mockSetup: func(m ledgerMocks) {
				m.listings.EXPECT().GetListing(gomock.Any(), "L1").Return(activeListing("L1", "alice", 1000), nil)
				m.listings.EXPECT().GetBid(gomock.Any(), "L1").Return(model.Bid{}, false, nil)
				m.categories.EXPECT().GetCategory(gomock.Any(), "cat").Return(model.Category{Name: "Books"}, nil)
				m.comments.EXPECT().ListComments(gomock.Any(), "L1").Return([]model.Comment{}, nil)
				m.watchlist.EXPECT().IsWatching(gomock.Any(), "bob", "L1").Return(false, nil)
			},
			validate: func(t *testing.T, v model.ListingView) {
				require.False(t, v.IsOwner)
				require.False(t, v.IsWatching)
			},
		},
		{
			name:     "missing_listing",
			viewerID: "bob",
			mockSetup: func(m ledgerMocks) {
				m.listings.EXPECT().GetListing(gomock.Any(), "L1").Return(model.Listing{}, auctionerrors.ErrNotFound)
			},
			expectedError: auctionerrors.ErrNotFound,
		},
		{
			name:     "category_store_failure",
			viewerID: "",
			mockSetup: func(m ledgerMocks) {
				m.listings.EXPECT().GetListing(gomock.Any(), "L1").Return(activeListing("L1", "alice", 1000), nil)
				m.listings.EXPECT().GetBid(gomock.Any(), "L1").Return(model.Bid{}, false, nil)
				m.categories.EXPECT().GetCategory(gomock.Any(), "cat").Return(model.Category{}, errors.New("db down"))
			},
			expectedError: nil,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ledger, m := newMockLedger(t)
			tc.mockSetup(m)

			view, err := ledger.GetListingView(context.Background(), "L1", tc.viewerID)

			if tc.validate == nil {
				require.Error(t, err)
				if tc.expectedError != nil {
					require.ErrorIs(t, err, tc.expectedError)
				}
				return
			}
			require.NoError(t, err)
			tc.validate(t, view)
		})
	}
}

// seedListing stores an active listing directly in the repo
func seedListing(t *testing.T, repo *repository.MemoryRepo, id, ownerID string, startingPrice int64) {
	t.Helper()
	require.NoError(t, repo.CreateListing(context.Background(), activeListing(id, ownerID, startingPrice)))
}

func TestLedger_BiddingScenario(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	ledger := NewLedger(repo, repo, repo, repo)
	seedListing(t, repo, "L1", "owner", 100)

	_, err := ledger.PlaceBid(ctx, "L1", "u1", 80)
	var tooLow *auctionerrors.BidTooLowError
	require.True(t, errors.As(err, &tooLow))
	require.Equal(t, int64(100), tooLow.Current)
	_, hasBid, err := repo.GetBid(ctx, "L1")
	require.NoError(t, err)
	require.False(t, hasBid, "a rejected bid must not create a bid row")

	_, err = ledger.PlaceBid(ctx, "L1", "u1", 100)
	require.NoError(t, err)
	bid, _, err := repo.GetBid(ctx, "L1")
	require.NoError(t, err)
	require.Equal(t, int64(100), bid.Amount)
	require.Equal(t, "u1", bid.BidderID)

	_, err = ledger.PlaceBid(ctx, "L1", "u2", 150)
	require.NoError(t, err)
	bid, _, err = repo.GetBid(ctx, "L1")
	require.NoError(t, err)
	require.Equal(t, int64(150), bid.Amount)
	require.Equal(t, "u2", bid.BidderID)

	result, err := ledger.CloseAuction(ctx, "L1", "owner")
	require.NoError(t, err)
	require.True(t, result.HasWinner())
	require.Equal(t, "u2", *result.WinnerID)
	require.Equal(t, int64(150), result.FinalAmount)

	listing, err := repo.GetListing(ctx, "L1")
	require.NoError(t, err)
	require.False(t, listing.Active)
	require.Equal(t, "u2", *listing.WinnerID)

	_, err = ledger.CloseAuction(ctx, "L1", "owner")
	require.ErrorIs(t, err, auctionerrors.ErrAlreadyClosed)

	_, err = ledger.PlaceBid(ctx, "L1", "u3", 1000)
	require.ErrorIs(t, err, auctionerrors.ErrAlreadyClosed)
}

func TestLedger_FirstBidAcceptedIffAtLeastStartingPrice(t *testing.T) {
	ctx := context.Background()

	for _, amount := range []int64{1, 50, 99, 100, 101, 5000} {
		amount := amount
		t.Run(fmt.Sprintf("amount_%d", amount), func(t *testing.T) {
			t.Parallel()

			repo := repository.NewMemoryRepo()
			ledger := NewLedger(repo, repo, repo, repo)
			seedListing(t, repo, "L1", "owner", 100)

			_, err := ledger.PlaceBid(ctx, "L1", "u1", amount)
			if amount >= 100 {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, auctionerrors.ErrInvalidBid)
			}
		})
	}
}

func TestLedger_AcceptedBidsAreNonDecreasing(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	ledger := NewLedger(repo, repo, repo, repo)
	seedListing(t, repo, "L1", "owner", 10)

	var last int64
	for i, amount := range []int64{10, 5, 12, 12, 11, 40, 39, 41} {
		_, err := ledger.PlaceBid(ctx, "L1", fmt.Sprintf("u%d", i), amount)
		if err == nil {
			require.GreaterOrEqual(t, amount, last)
			last = amount
		}

		bid, ok, err := repo.GetBid(ctx, "L1")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, last, bid.Amount, "stored amount equals the last accepted bid")
	}
	require.Equal(t, int64(41), last)
}

func TestLedger_NonOwnerCloseLeavesListingUntouched(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	ledger := NewLedger(repo, repo, repo, repo)
	seedListing(t, repo, "L1", "owner", 10)

	_, err := ledger.PlaceBid(ctx, "L1", "bidder", 20)
	require.NoError(t, err)

	_, err = ledger.CloseAuction(ctx, "L1", "intruder")
	require.ErrorIs(t, err, auctionerrors.ErrUnauthorized)

	listing, err := repo.GetListing(ctx, "L1")
	require.NoError(t, err)
	require.True(t, listing.Active)
	require.Nil(t, listing.WinnerID)
}

func TestLedger_CloseWithoutBids(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	ledger := NewLedger(repo, repo, repo, repo)
	seedListing(t, repo, "L1", "owner", 10)

	result, err := ledger.CloseAuction(ctx, "L1", "owner")
	require.NoError(t, err)
	require.False(t, result.HasWinner())

	listing, err := repo.GetListing(ctx, "L1")
	require.NoError(t, err)
	require.False(t, listing.Active)
	require.Nil(t, listing.WinnerID)
}

// Concurrent bids on one listing must never let a lower amount overwrite a higher one
func TestLedger_ConcurrentBidsKeepHighest(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	ledger := NewLedger(repo, repo, repo, repo)
	seedListing(t, repo, "L1", "owner", 1)
	seedListing(t, repo, "L2", "owner", 1)

	var wg sync.WaitGroup
	bidCount := 200
	for i := 1; i <= bidCount; i++ {
		for _, listingID := range []string{"L1", "L2"} {
			wg.Add(1)
			go func(listingID string, amount int64) {
				defer wg.Done()
				_, err := ledger.PlaceBid(ctx, listingID, fmt.Sprintf("user-%d", amount), amount)
				if err != nil {
					require.ErrorIs(t, err, auctionerrors.ErrInvalidBid)
				}
			}(listingID, int64(i))
		}
	}
	wg.Wait()

	for _, listingID := range []string{"L1", "L2"} {
		bid, ok, err := repo.GetBid(ctx, listingID)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, int64(bidCount), bid.Amount)
		require.Equal(t, fmt.Sprintf("user-%d", bidCount), bid.BidderID)
	}
}

// A close racing with bids either sees a bid or not, but the winner always matches the final bid row
func TestLedger_ConcurrentCloseAndBids(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	ledger := NewLedger(repo, repo, repo, repo)
	seedListing(t, repo, "L1", "owner", 1)

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(amount int64) {
			defer wg.Done()
			_, _ = ledger.PlaceBid(ctx, "L1", fmt.Sprintf("user-%d", amount), amount)
		}(int64(i))
	}
	wg.Add(1)
	var result CloseResult
	go func() {
		defer wg.Done()
		var err error
		result, err = ledger.CloseAuction(ctx, "L1", "owner")
		require.NoError(t, err)
	}()
	wg.Wait()

	bid, ok, err := repo.GetBid(ctx, "L1")
	require.NoError(t, err)
	if !ok {
		require.False(t, result.HasWinner())
		return
	}
	require.True(t, result.HasWinner())
	require.Equal(t, bid.BidderID, *result.WinnerID)
	require.Equal(t, bid.Amount, result.FinalAmount)
}
