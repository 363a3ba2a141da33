// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrProductNotFound    = errors.New("product not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
)

// Stage names the part of a request that touched the store when it failed.
type Stage string

const (
	StageFilterQuery   Stage = "filter_query"
	StageAffinityBuild Stage = "affinity_build"
	StageScoring       Stage = "scoring"
	StageFallback      Stage = "fallback"
	StageListing       Stage = "listing"
	StageEngagement    Stage = "engagement"
)

// StoreError is a retriable backing-store failure. errors.Is(err, ErrStoreUnavailable)
// holds for every StoreError.
type StoreError struct {
	Stage Stage
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Stage, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

func invalidInput(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}
