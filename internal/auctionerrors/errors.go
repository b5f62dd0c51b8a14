package auctionerrors

import (
	"errors"
	"fmt"
)

// Repository-level errors
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate entry")
)

// business logic errors
var (
	ErrInvalidBid           = errors.New("invalid bid")
	ErrUnauthorized         = errors.New("not authorized")
	ErrAlreadyClosed        = errors.New("auction already closed")
	ErrEmptyComment         = errors.New("empty comment not allowed")
	ErrTooLong              = errors.New("max length exceeded")
	ErrValidation           = errors.New("validation error")
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// BidTooLowError is returned when an offer is below the listing's current highest amount.
// It matches ErrInvalidBid under errors.Is.
type BidTooLowError struct {
	Current int64
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("%s: amount below current highest %d", ErrInvalidBid, e.Current)
}

func (e *BidTooLowError) Is(target error) bool {
	return target == ErrInvalidBid
}

// MinNextBid is the smallest amount a client should offer next.
func (e *BidTooLowError) MinNextBid() int64 {
	return e.Current + 1
}
