package repository

import (
	"auction-ledger/internal/auctionerrors"
	model "auction-ledger/internal/models"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ListingTx is the view of the store available inside a listing's critical section
type ListingTx interface {
	GetListing(ctx context.Context, listingID string) (model.Listing, error)
	GetBid(ctx context.Context, listingID string) (model.Bid, bool, error)
	SaveBid(ctx context.Context, bid model.Bid) error
	SaveListing(ctx context.Context, listing model.Listing) error
}

// ListingStore persists listings and their single running bid
type ListingStore interface {
	GetListing(ctx context.Context, listingID string) (model.Listing, error)
	GetBid(ctx context.Context, listingID string) (model.Bid, bool, error)
	CreateListing(ctx context.Context, listing model.Listing) error
	ListListings(ctx context.Context, filter model.ListingFilter) ([]model.Listing, error)
	// WithListingLock runs fn while holding the listing's exclusive lock.
	// Every read-then-write on a listing or its bid must go through here.
	WithListingLock(ctx context.Context, listingID string, fn func(tx ListingTx) error) error
}

// CategoryStore persists listing categories
type CategoryStore interface {
	CreateCategory(ctx context.Context, category model.Category) error
	GetCategory(ctx context.Context, categoryID string) (model.Category, error)
	FindCategory(ctx context.Context, nameOrSlug string) (model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}

// CommentStore persists comments in insertion order
type CommentStore interface {
	AddComment(ctx context.Context, comment model.Comment) error
	ListComments(ctx context.Context, listingID string) ([]model.Comment, error)
}

// WatchlistStore persists (user, listing) watch pairs
type WatchlistStore interface {
	// AddWatch reports false when the pair already exists
	AddWatch(ctx context.Context, entry model.WatchlistEntry) (bool, error)
	RemoveWatch(ctx context.Context, userID, listingID string) error
	IsWatching(ctx context.Context, userID, listingID string) (bool, error)
	ListWatchlist(ctx context.Context, userID string) ([]model.Listing, error)
}

// UserStore persists accounts
type UserStore interface {
	CreateUser(ctx context.Context, user model.User) error
	GetUser(ctx context.Context, userID string) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
}

// AuctionDB is the full Listing Store consumed by the application
type AuctionDB interface {
	ListingStore
	CategoryStore
	CommentStore
	WatchlistStore
	UserStore
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	mu           sync.RWMutex
	users        map[string]model.User                      // key: userID
	usernames    map[string]string                          // key: username -> userID
	categories   map[string]model.Category                  // key: categoryID
	listings     map[string]model.Listing                   // key: listingID
	listingOrder []string                                   // listing ids in creation order
	bids         map[string]model.Bid                       // key: listingID -> running bid
	comments     map[string][]model.Comment                 // key: listingID
	watches      map[string]map[string]model.WatchlistEntry // key: userID -> listingID
	watchOrder   map[string][]string                        // key: userID -> listing ids in insertion order

	locks *listingLocks
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:      make(map[string]model.User),
		usernames:  make(map[string]string),
		categories: make(map[string]model.Category),
		listings:   make(map[string]model.Listing),
		bids:       make(map[string]model.Bid),
		comments:   make(map[string][]model.Comment),
		watches:    make(map[string]map[string]model.WatchlistEntry),
		watchOrder: make(map[string][]string),
		locks:      newListingLocks(),
	}
}

// WithListingLock serializes fn against every other locked operation on the same listing
func (r *MemoryRepo) WithListingLock(ctx context.Context, listingID string, fn func(tx ListingTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := r.locks.lock(listingID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(r)
}

// GetListing returns a listing by id
func (r *MemoryRepo) GetListing(ctx context.Context, listingID string) (model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return model.Listing{}, fmt.Errorf("get listing %s: %w", listingID, auctionerrors.ErrNotFound)
	}
	return cloneListing(listing), nil
}

// GetBid returns the listing's running bid, if any
func (r *MemoryRepo) GetBid(ctx context.Context, listingID string) (model.Bid, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bid, ok := r.bids[listingID]
	return bid, ok, nil
}

// SaveBid upserts the single bid row of a listing
func (r *MemoryRepo) SaveBid(ctx context.Context, bid model.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[bid.ListingID]; !ok {
		return fmt.Errorf("save bid for listing %s: %w", bid.ListingID, auctionerrors.ErrNotFound)
	}

	if existing, ok := r.bids[bid.ListingID]; ok {
		bid.ID = existing.ID
	}
	r.bids[bid.ListingID] = bid
	return nil
}

// SaveListing overwrites an existing listing
func (r *MemoryRepo) SaveListing(ctx context.Context, listing model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[listing.ID]; !ok {
		return fmt.Errorf("save listing %s: %w", listing.ID, auctionerrors.ErrNotFound)
	}
	listing.UpdatedAt = time.Now().UTC()
	r.listings[listing.ID] = cloneListing(listing)
	return nil
}

// CreateListing stores a new listing
func (r *MemoryRepo) CreateListing(ctx context.Context, listing model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if listing.ID == "" {
		return fmt.Errorf("create listing: empty id: %w", auctionerrors.ErrValidation)
	}
	if _, ok := r.listings[listing.ID]; ok {
		return fmt.Errorf("create listing %s: %w", listing.ID, auctionerrors.ErrDuplicate)
	}
	r.listings[listing.ID] = cloneListing(listing)
	r.listingOrder = append(r.listingOrder, listing.ID)
	return nil
}

// ListListings returns listings matching the filter in creation order
func (r *MemoryRepo) ListListings(ctx context.Context, filter model.ListingFilter) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listings := make([]model.Listing, 0)
	for _, id := range r.listingOrder {
		l := r.listings[id]
		if filter.ActiveOnly && !l.Active {
			continue
		}
		if filter.CategoryID != "" && l.CategoryID != filter.CategoryID {
			continue
		}
		if filter.OwnerID != "" && l.OwnerID != filter.OwnerID {
			continue
		}
		if filter.WinnerID != "" && (l.WinnerID == nil || *l.WinnerID != filter.WinnerID) {
			continue
		}
		listings = append(listings, cloneListing(l))
	}
	return listings, nil
}

// CreateCategory stores a category; names and slugs are unique
func (r *MemoryRepo) CreateCategory(ctx context.Context, category model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.categories {
		if c.ID == category.ID || c.Name == category.Name || c.Slug == category.Slug {
			return fmt.Errorf("create category %q: %w", category.Name, auctionerrors.ErrDuplicate)
		}
	}
	r.categories[category.ID] = category
	return nil
}

// GetCategory returns a category by id
func (r *MemoryRepo) GetCategory(ctx context.Context, categoryID string) (model.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[categoryID]
	if !ok {
		return model.Category{}, fmt.Errorf("get category %s: %w", categoryID, auctionerrors.ErrNotFound)
	}
	return c, nil
}

// FindCategory looks a category up by name or slug
func (r *MemoryRepo) FindCategory(ctx context.Context, nameOrSlug string) (model.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.categories {
		if c.Name == nameOrSlug || c.Slug == nameOrSlug {
			return c, nil
		}
	}
	return model.Category{}, fmt.Errorf("find category %q: %w", nameOrSlug, auctionerrors.ErrNotFound)
}

// ListCategories returns all categories ordered by name
func (r *MemoryRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	categories := make([]model.Category, 0, len(r.categories))
	for _, c := range r.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

// AddComment appends a comment to a listing
func (r *MemoryRepo) AddComment(ctx context.Context, comment model.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[comment.ListingID]; !ok {
		return fmt.Errorf("add comment to listing %s: %w", comment.ListingID, auctionerrors.ErrNotFound)
	}
	r.comments[comment.ListingID] = append(r.comments[comment.ListingID], comment)
	return nil
}

// ListComments returns a listing's comments, oldest first
func (r *MemoryRepo) ListComments(ctx context.Context, listingID string) ([]model.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]model.Comment{}, r.comments[listingID]...), nil
}

// AddWatch records a watch pair unless it already exists
func (r *MemoryRepo) AddWatch(ctx context.Context, entry model.WatchlistEntry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[entry.ListingID]; !ok {
		return false, fmt.Errorf("watch listing %s: %w", entry.ListingID, auctionerrors.ErrNotFound)
	}

	userWatches, ok := r.watches[entry.UserID]
	if !ok {
		userWatches = make(map[string]model.WatchlistEntry)
		r.watches[entry.UserID] = userWatches
	}
	if _, exists := userWatches[entry.ListingID]; exists {
		return false, nil
	}
	userWatches[entry.ListingID] = entry
	r.watchOrder[entry.UserID] = append(r.watchOrder[entry.UserID], entry.ListingID)
	return true, nil
}

// RemoveWatch deletes a watch pair
func (r *MemoryRepo) RemoveWatch(ctx context.Context, userID, listingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.watches[userID][listingID]; !ok {
		return fmt.Errorf("remove watch %s/%s: %w", userID, listingID, auctionerrors.ErrNotFound)
	}
	delete(r.watches[userID], listingID)

	order := r.watchOrder[userID]
	for i, id := range order {
		if id == listingID {
			r.watchOrder[userID] = append(order[:i:i], order[i+1:]...)
			break
		}
	}
	return nil
}

// IsWatching reports whether the pair exists
func (r *MemoryRepo) IsWatching(ctx context.Context, userID, listingID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.watches[userID][listingID]
	return ok, nil
}

// ListWatchlist returns the user's watched listings in the order they were added
func (r *MemoryRepo) ListWatchlist(ctx context.Context, userID string) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listings := make([]model.Listing, 0, len(r.watchOrder[userID]))
	for _, id := range r.watchOrder[userID] {
		if l, ok := r.listings[id]; ok {
			listings = append(listings, cloneListing(l))
		}
	}
	return listings, nil
}

// CreateUser stores an account; usernames are unique
func (r *MemoryRepo) CreateUser(ctx context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.usernames[user.Username]; ok {
		return fmt.Errorf("create user %q: %w", user.Username, auctionerrors.ErrDuplicate)
	}
	if _, ok := r.users[user.ID]; ok {
		return fmt.Errorf("create user %s: %w", user.ID, auctionerrors.ErrDuplicate)
	}
	r.users[user.ID] = user
	r.usernames[user.Username] = user.ID
	return nil
}

// GetUser returns an account by id
func (r *MemoryRepo) GetUser(ctx context.Context, userID string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrNotFound)
	}
	return u, nil
}

// GetUserByUsername returns an account by username
func (r *MemoryRepo) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.usernames[username]
	if !ok {
		return model.User{}, fmt.Errorf("get user %q: %w", username, auctionerrors.ErrNotFound)
	}
	return r.users[id], nil
}

// cloneListing copies the winner pointer so callers cannot mutate stored state
func cloneListing(l model.Listing) model.Listing {
	if l.WinnerID != nil {
		w := *l.WinnerID
		l.WinnerID = &w
	}
	return l
}
