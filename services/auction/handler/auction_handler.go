package handler

import (
	"context"
	"errors"
	"net/http"

	"auction-ledger/internal/accounts"
	auction "auction-ledger/internal/auctionService"
	"auction-ledger/internal/auctionerrors"
	model "auction-ledger/internal/models"
	"auction-ledger/services/auction/helpers"
	"auction-ledger/utils"

	"github.com/gin-gonic/gin"
)

type LedgerService interface {
	PlaceBid(ctx context.Context, listingID, bidderID string, amount int64) (auction.BidResult, error)
	CloseAuction(ctx context.Context, listingID, requestorID string) (auction.CloseResult, error)
	GetListingView(ctx context.Context, listingID, viewerID string) (model.ListingView, error)
}

type CatalogService interface {
	CreateListing(ctx context.Context, ownerID string, in auction.NewListing) (model.Listing, error)
	ListActive(ctx context.Context) ([]model.Listing, error)
	ListAll(ctx context.Context) ([]model.Listing, error)
	ListByCategory(ctx context.Context, name string) (model.Category, []model.Listing, error)
	ListWon(ctx context.Context, userID string) ([]model.Listing, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}

type WatchlistService interface {
	AddToWatchlist(ctx context.Context, userID, listingID string) (bool, error)
	RemoveFromWatchlist(ctx context.Context, userID, listingID string) error
	GetWatchlist(ctx context.Context, userID string) ([]model.Listing, error)
}

type CommentService interface {
	PostComment(ctx context.Context, listingID, authorID, text string) (model.Comment, error)
}

type AuctionHandler struct {
	ledger    LedgerService
	catalog   CatalogService
	watchlist WatchlistService
	comments  CommentService
}

func NewAuctionHandler(ledger LedgerService, catalog CatalogService, watchlist WatchlistService, comments CommentService) *AuctionHandler {
	return &AuctionHandler{
		ledger:    ledger,
		catalog:   catalog,
		watchlist: watchlist,
		comments:  comments,
	}
}

// requireIdentity aborts with 401 when the auth middleware did not attach a caller
func requireIdentity(c *gin.Context, handlerName string) (accounts.Identity, bool) {
	id, ok := helpers.CurrentIdentity(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, errors.New("authentication required"), "authentication required")
		utils.Warn(handlerName+": anonymous request", map[string]any{"path": c.Request.URL.Path})
		return accounts.Identity{}, false
	}
	return id, true
}

func nonNil(listings []model.Listing) []model.Listing {
	if listings == nil {
		return []model.Listing{}
	}
	return listings
}

// IndexHandler handles GET /
func (h *AuctionHandler) IndexHandler(c *gin.Context) {
	listings, err := h.catalog.ListActive(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, "IndexHandler", err, nil)
		return
	}

	listings = nonNil(listings)
	utils.JSONResponse(c, http.StatusOK, listings, "active listings retrieved successfully")
	helpers.LogSuccess("IndexHandler", "active listings retrieved successfully", map[string]any{"count": len(listings)})
}

// AllListingsHandler handles GET /all
func (h *AuctionHandler) AllListingsHandler(c *gin.Context) {
	listings, err := h.catalog.ListAll(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, "AllListingsHandler", err, nil)
		return
	}

	listings = nonNil(listings)
	utils.JSONResponse(c, http.StatusOK, listings, "listings retrieved successfully")
	helpers.LogSuccess("AllListingsHandler", "listings retrieved successfully", map[string]any{"count": len(listings)})
}

// CreateFormHandler handles GET /create
func (h *AuctionHandler) CreateFormHandler(c *gin.Context) {
	if _, ok := requireIdentity(c, "CreateFormHandler"); !ok {
		return
	}
	h.CategoriesHandler(c)
}

// CreateListingHandler handles POST /create
func (h *AuctionHandler) CreateListingHandler(c *gin.Context) {
	id, ok := requireIdentity(c, "CreateListingHandler")
	if !ok {
		return
	}

	var req helpers.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateListingHandler", err)
		return
	}

	listing, err := h.catalog.CreateListing(c.Request.Context(), id.UserID, auction.NewListing{
		Title:         req.Title,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		StartingPrice: req.StartingPrice,
		Category:      req.Category,
	})
	if err != nil {
		helpers.RespondError(c, "CreateListingHandler", err, map[string]any{"user_id": id.UserID, "title": req.Title})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, listing, "item added successfully")
	helpers.LogSuccess("CreateListingHandler", "item added successfully", map[string]any{
		"listing_id": listing.ID,
		"owner_id":   listing.OwnerID,
	})
}

// ListingHandler handles GET /list/:id
func (h *AuctionHandler) ListingHandler(c *gin.Context) {
	listingID := c.Param("id")
	viewer, _ := helpers.CurrentIdentity(c)

	view, err := h.ledger.GetListingView(c.Request.Context(), listingID, viewer.UserID)
	if err != nil {
		helpers.RespondError(c, "ListingHandler", err, map[string]any{"listing_id": listingID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, view, "listing retrieved successfully")
}

// PlaceBidHandler handles POST /bid/:id
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	id, ok := requireIdentity(c, "PlaceBidHandler")
	if !ok {
		return
	}
	listingID := c.Param("id")

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	result, err := h.ledger.PlaceBid(c.Request.Context(), listingID, id.UserID, req.Amount)
	if err != nil {
		var tooLow *auctionerrors.BidTooLowError
		if errors.As(err, &tooLow) {
			status, message := helpers.MapErrorToHTTP(err)
			utils.JSONErrorWithData(c, status, err, "invalid bid", helpers.BidRejectedResponse{
				CurrentHighest: tooLow.Current,
				MinNextBid:     tooLow.MinNextBid(),
			})
			utils.Info("PlaceBidHandler: "+message, map[string]any{
				"listing_id": listingID,
				"user_id":    id.UserID,
				"amount":     req.Amount,
				"current":    tooLow.Current,
			})
			return
		}
		helpers.RespondError(c, "PlaceBidHandler", err, map[string]any{
			"listing_id": listingID,
			"user_id":    id.UserID,
			"amount":     req.Amount,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.BidResponse{
		ListingID:     result.ListingID,
		BidderID:      result.BidderID,
		Amount:        result.Amount,
		AmountDisplay: utils.FormatMinorUnits(result.Amount),
		MinNextBid:    result.MinNextBid,
	}, "bid placed successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid placed successfully", map[string]any{
		"listing_id": result.ListingID,
		"user_id":    result.BidderID,
		"amount":     result.Amount,
	})
}

// CloseAuctionHandler handles POST /close/:id
func (h *AuctionHandler) CloseAuctionHandler(c *gin.Context) {
	id, ok := requireIdentity(c, "CloseAuctionHandler")
	if !ok {
		return
	}
	listingID := c.Param("id")

	result, err := h.ledger.CloseAuction(c.Request.Context(), listingID, id.UserID)
	if err != nil {
		helpers.RespondError(c, "CloseAuctionHandler", err, map[string]any{"listing_id": listingID, "user_id": id.UserID})
		return
	}

	message := "auction closed successfully"
	if !result.HasWinner() {
		message = "auction closed without any bids"
	}
	utils.JSONResponse(c, http.StatusOK, helpers.CloseResponse{
		ListingID:   result.ListingID,
		HasWinner:   result.HasWinner(),
		WinnerID:    result.WinnerID,
		FinalAmount: result.FinalAmount,
	}, message)
	helpers.LogSuccess("CloseAuctionHandler", message, map[string]any{
		"listing_id": result.ListingID,
		"has_winner": result.HasWinner(),
	})
}

// CommentHandler handles POST /comment/:id
func (h *AuctionHandler) CommentHandler(c *gin.Context) {
	id, ok := requireIdentity(c, "CommentHandler")
	if !ok {
		return
	}
	listingID := c.Param("id")

	var req helpers.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CommentHandler", err)
		return
	}

	comment, err := h.comments.PostComment(c.Request.Context(), listingID, id.UserID, req.Comment)
	if err != nil {
		helpers.RespondError(c, "CommentHandler", err, map[string]any{"listing_id": listingID, "user_id": id.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, comment, "comment posted successfully")
	helpers.LogSuccess("CommentHandler", "comment posted successfully", map[string]any{
		"listing_id": listingID,
		"comment_id": comment.ID,
	})
}

// AddToWatchlistHandler handles GET|POST /additem/:id
func (h *AuctionHandler) AddToWatchlistHandler(c *gin.Context) {
	id, ok := requireIdentity(c, "AddToWatchlistHandler")
	if !ok {
		return
	}
	listingID := c.Param("id")

	added, err := h.watchlist.AddToWatchlist(c.Request.Context(), id.UserID, listingID)
	if err != nil {
		helpers.RespondError(c, "AddToWatchlistHandler", err, map[string]any{"listing_id": listingID, "user_id": id.UserID})
		return
	}

	message := "item added to watchlist"
	if !added {
		message = "item already in watchlist"
	}
	utils.JSONResponse(c, http.StatusOK, helpers.WatchlistResponse{ListingID: listingID, Watching: true, Added: added}, message)
	helpers.LogSuccess("AddToWatchlistHandler", message, map[string]any{"listing_id": listingID, "user_id": id.UserID})
}

// RemoveFromWatchlistHandler handles GET|POST /removeitem/:id
func (h *AuctionHandler) RemoveFromWatchlistHandler(c *gin.Context) {
	id, ok := requireIdentity(c, "RemoveFromWatchlistHandler")
	if !ok {
		return
	}
	listingID := c.Param("id")

	if err := h.watchlist.RemoveFromWatchlist(c.Request.Context(), id.UserID, listingID); err != nil {
		helpers.RespondError(c, "RemoveFromWatchlistHandler", err, map[string]any{"listing_id": listingID, "user_id": id.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.WatchlistResponse{ListingID: listingID}, "item removed from watchlist")
	helpers.LogSuccess("RemoveFromWatchlistHandler", "item removed from watchlist", map[string]any{"listing_id": listingID, "user_id": id.UserID})
}

// WatchlistHandler handles GET /watchlist
func (h *AuctionHandler) WatchlistHandler(c *gin.Context) {
	id, ok := requireIdentity(c, "WatchlistHandler")
	if !ok {
		return
	}

	listings, err := h.watchlist.GetWatchlist(c.Request.Context(), id.UserID)
	if err != nil {
		helpers.RespondError(c, "WatchlistHandler", err, map[string]any{"user_id": id.UserID})
		return
	}

	listings = nonNil(listings)
	utils.JSONResponse(c, http.StatusOK, listings, "watchlist retrieved successfully")
	helpers.LogSuccess("WatchlistHandler", "watchlist retrieved successfully", map[string]any{"user_id": id.UserID, "count": len(listings)})
}

// WonListingsHandler handles GET /won
func (h *AuctionHandler) WonListingsHandler(c *gin.Context) {
	id, ok := requireIdentity(c, "WonListingsHandler")
	if !ok {
		return
	}

	listings, err := h.catalog.ListWon(c.Request.Context(), id.UserID)
	if err != nil {
		helpers.RespondError(c, "WonListingsHandler", err, map[string]any{"user_id": id.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nonNil(listings), "won listings retrieved successfully")
}

// CategoriesHandler handles GET /categories
func (h *AuctionHandler) CategoriesHandler(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, "CategoriesHandler", err, nil)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}

	utils.JSONResponse(c, http.StatusOK, categories, "categories retrieved successfully")
}

// CategoryHandler handles GET /category/:name
func (h *AuctionHandler) CategoryHandler(c *gin.Context) {
	name := c.Param("name")

	category, listings, err := h.catalog.ListByCategory(c.Request.Context(), name)
	if err != nil {
		helpers.RespondError(c, "CategoryHandler", err, map[string]any{"category": name})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.CategoryListingsResponse{
		Name:     category.Name,
		Slug:     category.Slug,
		Listings: nonNil(listings),
	}, "category listings retrieved successfully")
}
