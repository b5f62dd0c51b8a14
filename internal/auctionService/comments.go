package auction

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"auction-ledger/internal/auctionerrors"
	"auction-ledger/internal/models"
	"auction-ledger/internal/repository"
	"auction-ledger/utils"
)

// MaxCommentLength is measured in characters, not bytes
const MaxCommentLength = 256

// CommentService appends immutable comments to listings
type CommentService struct {
	store repository.CommentStore
}

// NewCommentService creates a new CommentService instance
func NewCommentService(store repository.CommentStore) *CommentService {
	return &CommentService{store: store}
}

// PostComment validates and stores a comment
func (s *CommentService) PostComment(ctx context.Context, listingID, authorID, text string) (models.Comment, error) {
	if authorID == "" {
		return models.Comment{}, fmt.Errorf("service: %w - anonymous author", auctionerrors.ErrUnauthorized)
	}
	if listingID == "" {
		return models.Comment{}, fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrNotFound)
	}
	if strings.TrimSpace(text) == "" {
		return models.Comment{}, fmt.Errorf("service: %w", auctionerrors.ErrEmptyComment)
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return models.Comment{}, fmt.Errorf("service: %w - comment longer than %d characters", auctionerrors.ErrTooLong, MaxCommentLength)
	}

	comment := models.Comment{
		ID:        utils.GenerateID(),
		ListingID: listingID,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AddComment(ctx, comment); err != nil {
		return models.Comment{}, fmt.Errorf("service: failed to comment on listing %s: %w", listingID, err)
	}
	return comment, nil
}

// ListComments returns a listing's comments, oldest first
func (s *CommentService) ListComments(ctx context.Context, listingID string) ([]models.Comment, error) {
	comments, err := s.store.ListComments(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list comments for listing %s: %w", listingID, err)
	}
	return comments, nil
}
