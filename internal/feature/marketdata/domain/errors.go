// Package domain defines domain-level errors for the marketdata feature.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyTicker is returned when a snapshot is requested without a ticker.
	ErrEmptyTicker = errors.New("ticker is required")

	// ErrUnexpectedStatus indicates that the upstream answered with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected upstream status")
)

// FetchError is the terminal failure of the resilient fetcher after all attempts are used up.
// Err holds the cause of the last attempt.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractionError indicates that the upstream document could not be recognized at all.
// It is never retried.
type ExtractionError struct {
	Ticker string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %s", e.Ticker, e.Reason)
}

// ServiceError is returned when no fetch succeeded and no cached snapshot exists for the ticker.
type ServiceError struct {
	Ticker string
	Err    error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("no market data available for %s: %v", e.Ticker, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }
