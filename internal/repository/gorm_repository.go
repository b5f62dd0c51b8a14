package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-ledger/internal/auctionerrors"
	model "auction-ledger/internal/models"
	"auction-ledger/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepo is the relational implementation of AuctionDB
type GormRepo struct {
	db    *gorm.DB
	locks *listingLocks
}

// NewGormRepo creates a GormRepo over an open connection
func NewGormRepo(db *gorm.DB) *GormRepo {
	if db == nil {
		panic("database connection cannot be nil for GormRepo")
	}
	return &GormRepo{db: db, locks: newListingLocks()}
}

// gormTx implements ListingTx over a handle that may be a transaction
type gormTx struct {
	db *gorm.DB
}

// WithListingLock runs fn in a transaction holding the listing's lock.
// On postgres the listing row is locked FOR UPDATE so other processes
// serialize as well; the in-process mutex covers sqlite, which has no row locks.
func (r *GormRepo) WithListingLock(ctx context.Context, listingID string, fn func(tx ListingTx) error) error {
	unlock := r.locks.lock(listingID)
	defer unlock()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if locksRows(tx) {
			var locked model.Listing
			if err := lockListingRow(tx, listingID, &locked).Error; err != nil {
				return notFoundOr(err, "lock listing %s", listingID)
			}
		}
		return fn(gormTx{db: tx})
	})
}

// locksRows reports whether the dialect supports SELECT ... FOR UPDATE
func locksRows(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

// lockListingRow selects the listing's id FOR UPDATE inside the caller's transaction
func lockListingRow(tx *gorm.DB, listingID string, dest *model.Listing) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").Where("id = ?", listingID).Take(dest)
}

func (r *GormRepo) GetListing(ctx context.Context, listingID string) (model.Listing, error) {
	return gormTx{db: r.db.WithContext(ctx)}.GetListing(ctx, listingID)
}

func (r *GormRepo) GetBid(ctx context.Context, listingID string) (model.Bid, bool, error) {
	return gormTx{db: r.db.WithContext(ctx)}.GetBid(ctx, listingID)
}

// SaveBid is exposed for seeding; ledger writes go through WithListingLock
func (r *GormRepo) SaveBid(ctx context.Context, bid model.Bid) error {
	return gormTx{db: r.db.WithContext(ctx)}.SaveBid(ctx, bid)
}

func (r *GormRepo) SaveListing(ctx context.Context, listing model.Listing) error {
	return gormTx{db: r.db.WithContext(ctx)}.SaveListing(ctx, listing)
}

func (t gormTx) GetListing(ctx context.Context, listingID string) (model.Listing, error) {
	var listing model.Listing
	if err := t.db.Where("id = ?", listingID).Take(&listing).Error; err != nil {
		return model.Listing{}, notFoundOr(err, "get listing %s", listingID)
	}
	return listing, nil
}

func (t gormTx) GetBid(ctx context.Context, listingID string) (model.Bid, bool, error) {
	var bids []model.Bid
	if err := t.db.Where("listing_id = ?", listingID).Limit(1).Find(&bids).Error; err != nil {
		return model.Bid{}, false, fmt.Errorf("gorm: get bid for listing %s: %w", listingID, err)
	}
	if len(bids) == 0 {
		return model.Bid{}, false, nil
	}
	return bids[0], true, nil
}

// SaveBid inserts the listing's bid row or overwrites bidder and amount in place
func (t gormTx) SaveBid(ctx context.Context, bid model.Bid) error {
	if bid.ID == "" {
		bid.ID = utils.GenerateID()
	}
	if bid.UpdatedAt.IsZero() {
		bid.UpdatedAt = time.Now().UTC()
	}

	err := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "listing_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"bidder_id", "amount", "updated_at"}),
	}).Create(&bid).Error
	if err != nil {
		return fmt.Errorf("gorm: save bid for listing %s: %w", bid.ListingID, err)
	}
	return nil
}

// SaveListing overwrites the mutable columns of an existing listing
func (t gormTx) SaveListing(ctx context.Context, listing model.Listing) error {
	listing.UpdatedAt = time.Now().UTC()
	res := t.db.Model(&model.Listing{}).Where("id = ?", listing.ID).
		Select("title", "description", "image_url", "starting_price", "category_id", "active", "winner_id", "updated_at").
		Updates(&listing)
	if res.Error != nil {
		return fmt.Errorf("gorm: save listing %s: %w", listing.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("save listing %s: %w", listing.ID, auctionerrors.ErrNotFound)
	}
	return nil
}

func (r *GormRepo) CreateListing(ctx context.Context, listing model.Listing) error {
	if listing.ID == "" {
		return fmt.Errorf("create listing: empty id: %w", auctionerrors.ErrValidation)
	}
	if _, err := r.GetListing(ctx, listing.ID); err == nil {
		return fmt.Errorf("create listing %s: %w", listing.ID, auctionerrors.ErrDuplicate)
	} else if !errors.Is(err, auctionerrors.ErrNotFound) {
		return err
	}

	if err := r.db.WithContext(ctx).Create(&listing).Error; err != nil {
		return duplicateOr(err, "create listing %s", listing.ID)
	}
	return nil
}

func (r *GormRepo) ListListings(ctx context.Context, filter model.ListingFilter) ([]model.Listing, error) {
	q := r.db.WithContext(ctx).Model(&model.Listing{})
	if filter.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.OwnerID != "" {
		q = q.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.WinnerID != "" {
		q = q.Where("winner_id = ?", filter.WinnerID)
	}

	listings := make([]model.Listing, 0)
	if err := q.Order("created_at asc, id asc").Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("gorm: list listings: %w", err)
	}
	return listings, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, category model.Category) error {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).
		Where("name = ? OR slug = ?", category.Name, category.Slug).Count(&count).Error
	if err != nil {
		return fmt.Errorf("gorm: count categories named %q: %w", category.Name, err)
	}
	if count > 0 {
		return fmt.Errorf("create category %q: %w", category.Name, auctionerrors.ErrDuplicate)
	}
	if err := r.db.WithContext(ctx).Create(&category).Error; err != nil {
		return duplicateOr(err, "create category %q", category.Name)
	}
	return nil
}

func (r *GormRepo) GetCategory(ctx context.Context, categoryID string) (model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("id = ?", categoryID).Take(&category).Error; err != nil {
		return model.Category{}, notFoundOr(err, "get category %s", categoryID)
	}
	return category, nil
}

func (r *GormRepo) FindCategory(ctx context.Context, nameOrSlug string) (model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).Where("name = ? OR slug = ?", nameOrSlug, nameOrSlug).Take(&category).Error
	if err != nil {
		return model.Category{}, notFoundOr(err, "find category %q", nameOrSlug)
	}
	return category, nil
}

func (r *GormRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories := make([]model.Category, 0)
	if err := r.db.WithContext(ctx).Order("name asc").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("gorm: list categories: %w", err)
	}
	return categories, nil
}

func (r *GormRepo) AddComment(ctx context.Context, comment model.Comment) error {
	if _, err := r.GetListing(ctx, comment.ListingID); err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return fmt.Errorf("gorm: add comment to listing %s: %w", comment.ListingID, err)
	}
	return nil
}

func (r *GormRepo) ListComments(ctx context.Context, listingID string) ([]model.Comment, error) {
	comments := make([]model.Comment, 0)
	err := r.db.WithContext(ctx).Where("listing_id = ?", listingID).
		Order("created_at asc, id asc").Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list comments for listing %s: %w", listingID, err)
	}
	return comments, nil
}

func (r *GormRepo) AddWatch(ctx context.Context, entry model.WatchlistEntry) (bool, error) {
	if _, err := r.GetListing(ctx, entry.ListingID); err != nil {
		return false, fmt.Errorf("watch listing: %w", err)
	}

	watching, err := r.IsWatching(ctx, entry.UserID, entry.ListingID)
	if err != nil {
		return false, err
	}
	if watching {
		return false, nil
	}

	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		// lost a race with a concurrent add of the same pair
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("gorm: add watch %s/%s: %w", entry.UserID, entry.ListingID, err)
	}
	return true, nil
}

func (r *GormRepo) RemoveWatch(ctx context.Context, userID, listingID string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Delete(&model.WatchlistEntry{})
	if res.Error != nil {
		return fmt.Errorf("gorm: remove watch %s/%s: %w", userID, listingID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("remove watch %s/%s: %w", userID, listingID, auctionerrors.ErrNotFound)
	}
	return nil
}

func (r *GormRepo) IsWatching(ctx context.Context, userID, listingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.WatchlistEntry{}).
		Where("user_id = ? AND listing_id = ?", userID, listingID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: check watch %s/%s: %w", userID, listingID, err)
	}
	return count > 0, nil
}

func (r *GormRepo) ListWatchlist(ctx context.Context, userID string) ([]model.Listing, error) {
	listings := make([]model.Listing, 0)
	err := r.db.WithContext(ctx).Model(&model.Listing{}).
		Joins("JOIN watchlist_entries ON watchlist_entries.listing_id = listings.id").
		Where("watchlist_entries.user_id = ?", userID).
		Order("watchlist_entries.created_at asc").
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list watchlist for user %s: %w", userID, err)
	}
	return listings, nil
}

func (r *GormRepo) CreateUser(ctx context.Context, user model.User) error {
	if _, err := r.GetUserByUsername(ctx, user.Username); err == nil {
		return fmt.Errorf("create user %q: %w", user.Username, auctionerrors.ErrDuplicate)
	} else if !errors.Is(err, auctionerrors.ErrNotFound) {
		return err
	}

	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return duplicateOr(err, "create user %q", user.Username)
	}
	return nil
}

func (r *GormRepo) GetUser(ctx context.Context, userID string) (model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).Take(&user).Error; err != nil {
		return model.User{}, notFoundOr(err, "get user %s", userID)
	}
	return user, nil
}

func (r *GormRepo) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).Take(&user).Error; err != nil {
		return model.User{}, notFoundOr(err, "get user %q", username)
	}
	return user, nil
}

// notFoundOr maps gorm.ErrRecordNotFound to ErrNotFound and wraps anything else
func notFoundOr(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", msg, auctionerrors.ErrNotFound)
	}
	return fmt.Errorf("gorm: %s: %w", msg, err)
}

// duplicateOr maps unique violations to ErrDuplicate and wraps anything else
func duplicateOr(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", msg, auctionerrors.ErrDuplicate)
	}
	return fmt.Errorf("gorm: %s: %w", msg, err)
}
