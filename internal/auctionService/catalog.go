package auction

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"auction-ledger/internal/auctionerrors"
	"auction-ledger/internal/models"
	"auction-ledger/internal/repository"
	"auction-ledger/utils"

	"github.com/gosimple/slug"
)

// Field limits for new listings
const (
	MaxTitleLength       = 64
	MaxDescriptionLength = 256
	MaxImageURLLength    = 256
)

// NewListing carries the owner-supplied fields of a listing
type NewListing struct {
	Title         string
	Description   string
	ImageURL      string
	StartingPrice int64
	Category      string // category name or slug
}

// CatalogService creates listings and answers browse queries
type CatalogService struct {
	listings   repository.ListingStore
	categories repository.CategoryStore
}

// NewCatalogService creates a new CatalogService instance
func NewCatalogService(listings repository.ListingStore, categories repository.CategoryStore) *CatalogService {
	return &CatalogService{listings: listings, categories: categories}
}

// CreateListing validates and stores a new active listing owned by ownerID
func (s *CatalogService) CreateListing(ctx context.Context, ownerID string, in NewListing) (models.Listing, error) {
	if ownerID == "" {
		return models.Listing{}, fmt.Errorf("service: %w - anonymous owner", auctionerrors.ErrUnauthorized)
	}
	if err := validateNewListing(&in); err != nil {
		return models.Listing{}, err
	}

	category, err := s.categories.FindCategory(ctx, in.Category)
	if err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to resolve category %q: %w", in.Category, err)
	}

	now := time.Now().UTC()
	listing := models.Listing{
		ID:            utils.GenerateID(),
		Title:         in.Title,
		Description:   in.Description,
		ImageURL:      in.ImageURL,
		StartingPrice: in.StartingPrice,
		CategoryID:    category.ID,
		OwnerID:       ownerID,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.listings.CreateListing(ctx, listing); err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to create listing %q: %w", in.Title, err)
	}

	return listing, nil
}

// validateNewListing trims the text fields in place and checks required values and limits
func validateNewListing(in *NewListing) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.Category = strings.TrimSpace(in.Category)

	switch {
	case in.Title == "":
		return fmt.Errorf("service: %w - title is required", auctionerrors.ErrValidation)
	case in.Description == "":
		return fmt.Errorf("service: %w - description is required", auctionerrors.ErrValidation)
	case in.StartingPrice <= 0:
		return fmt.Errorf("service: %w - starting price must be positive", auctionerrors.ErrValidation)
	case in.Category == "":
		return fmt.Errorf("service: %w - category is required", auctionerrors.ErrValidation)
	case utf8.RuneCountInString(in.Title) > MaxTitleLength:
		return fmt.Errorf("service: %w - title longer than %d characters", auctionerrors.ErrValidation, MaxTitleLength)
	case utf8.RuneCountInString(in.Description) > MaxDescriptionLength:
		return fmt.Errorf("service: %w - description longer than %d characters", auctionerrors.ErrValidation, MaxDescriptionLength)
	}

	if in.ImageURL != "" {
		if utf8.RuneCountInString(in.ImageURL) > MaxImageURLLength {
			return fmt.Errorf("service: %w - image url longer than %d characters", auctionerrors.ErrValidation, MaxImageURLLength)
		}
		u, err := url.ParseRequestURI(in.ImageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("service: %w - image url must be an absolute http(s) url", auctionerrors.ErrValidation)
		}
	}
	return nil
}

// ListActive returns every listing still open for bidding
func (s *CatalogService) ListActive(ctx context.Context) ([]models.Listing, error) {
	listings, err := s.listings.ListListings(ctx, models.ListingFilter{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("service: failed to list active listings: %w", err)
	}
	return listings, nil
}

// ListAll returns every listing, open or closed
func (s *CatalogService) ListAll(ctx context.Context) ([]models.Listing, error) {
	listings, err := s.listings.ListListings(ctx, models.ListingFilter{})
	if err != nil {
		return nil, fmt.Errorf("service: failed to list listings: %w", err)
	}
	return listings, nil
}

// ListByCategory returns the listings filed under a category name or slug
func (s *CatalogService) ListByCategory(ctx context.Context, name string) (models.Category, []models.Listing, error) {
	category, err := s.categories.FindCategory(ctx, name)
	if err != nil {
		return models.Category{}, nil, fmt.Errorf("service: failed to find category %q: %w", name, err)
	}

	listings, err := s.listings.ListListings(ctx, models.ListingFilter{CategoryID: category.ID})
	if err != nil {
		return models.Category{}, nil, fmt.Errorf("service: failed to list category %q: %w", name, err)
	}
	return category, listings, nil
}

// ListWon returns the closed listings the user won
func (s *CatalogService) ListWon(ctx context.Context, userID string) ([]models.Listing, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w - anonymous user", auctionerrors.ErrUnauthorized)
	}
	listings, err := s.listings.ListListings(ctx, models.ListingFilter{WinnerID: userID})
	if err != nil {
		return nil, fmt.Errorf("service: failed to list listings won by %s: %w", userID, err)
	}
	return listings, nil
}

// ListCategories returns all categories ordered by name
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list categories: %w", err)
	}
	return categories, nil
}

// EnsureCategories creates any of the named categories that do not exist yet
func (s *CatalogService) EnsureCategories(ctx context.Context, names []string) error {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if utf8.RuneCountInString(name) > 64 {
			return fmt.Errorf("service: %w - category %q longer than 64 characters", auctionerrors.ErrValidation, name)
		}

		category := models.Category{
			ID:   utils.GenerateID(),
			Name: name,
			Slug: slug.Make(name),
		}
		err := s.categories.CreateCategory(ctx, category)
		if err != nil && !errors.Is(err, auctionerrors.ErrDuplicate) {
			return fmt.Errorf("service: failed to create category %q: %w", name, err)
		}
	}
	return nil
}
