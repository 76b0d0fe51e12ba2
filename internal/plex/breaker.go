// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package plex

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/curatarr/curatarr/internal/logging"
	"github.com/curatarr/curatarr/internal/metrics"
	"github.com/curatarr/curatarr/internal/models"
)

// BreakerClient wraps PlexClient with a circuit breaker so the supervised
// curation and consolidation loops stop hammering an unavailable server.
// One reconciliation issues hundreds of catalog calls; without the breaker a
// down server turns every run into a slow cascade of timeouts.
//
// DETERMINISM NOTE: the breaker uses real time for its interval and timeout
// calculations. Unit tests should exercise the wrapped client directly.
const (
	breakerInterval = 1 * time.Minute
	breakerTimeout  = 2 * time.Minute
)

type BreakerClient struct {
	client *PlexClient
	cb     *gobreaker.CircuitBreaker[any]
	name   string
}

// NewBreakerClient creates a PlexClient wrapped in a circuit breaker.
// Configuration: max 3 concurrent requests half-open, 1 minute measurement
// window, 2 minute open timeout, trips at a 60% failure rate with at least
// 10 requests observed.
func NewBreakerClient(client *PlexClient) *BreakerClient {
	cbName := "plex-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // closed

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    breakerInterval,
		Timeout:     breakerTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= 0.6 {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
				return true
			}
			return false
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("from", stateToString(from)).Str("to", stateToString(to)).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &BreakerClient{client: client, cb: cb, name: cbName}
}

// execute runs one catalog call through the circuit breaker, recording the
// outcome in metrics.
func execute[T any](bc *BreakerClient, fn func() (T, error)) (T, error) {
	result, err := bc.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "rejected").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "failure").Inc()
		}
		var zero T
		return zero, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "success").Inc()

	typed, ok := result.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// executeVoid runs a call with no result through the circuit breaker.
func executeVoid(bc *BreakerClient, fn func() error) error {
	_, err := execute(bc, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// ListCollections delegates through the circuit breaker.
func (bc *BreakerClient) ListCollections(ctx context.Context, library string) ([]models.CollectionRef, error) {
	return execute(bc, func() ([]models.CollectionRef, error) {
		return bc.client.ListCollections(ctx, library)
	})
}

// FindCollectionByName delegates through the circuit breaker.
func (bc *BreakerClient) FindCollectionByName(ctx context.Context, library, name string) (string, error) {
	return execute(bc, func() (string, error) {
		return bc.client.FindCollectionByName(ctx, library, name)
	})
}

// CreateCollection delegates through the circuit breaker.
func (bc *BreakerClient) CreateCollection(ctx context.Context, library, name, kind, seedItemID string) (string, error) {
	return execute(bc, func() (string, error) {
		return bc.client.CreateCollection(ctx, library, name, kind, seedItemID)
	})
}

// DeleteCollection delegates through the circuit breaker.
func (bc *BreakerClient) DeleteCollection(ctx context.Context, id string) error {
	return executeVoid(bc, func() error { return bc.client.DeleteCollection(ctx, id) })
}

// GetMembers delegates through the circuit breaker.
func (bc *BreakerClient) GetMembers(ctx context.Context, id string) ([]models.ItemRef, error) {
	return execute(bc, func() ([]models.ItemRef, error) {
		return bc.client.GetMembers(ctx, id)
	})
}

// AddMember delegates through the circuit breaker.
func (bc *BreakerClient) AddMember(ctx context.Context, id, itemID string) error {
	return executeVoid(bc, func() error { return bc.client.AddMember(ctx, id, itemID) })
}

// RemoveMember delegates through the circuit breaker.
func (bc *BreakerClient) RemoveMember(ctx context.Context, id, itemID string) error {
	return executeVoid(bc, func() error { return bc.client.RemoveMember(ctx, id, itemID) })
}

// SetSortMode delegates through the circuit breaker.
func (bc *BreakerClient) SetSortMode(ctx context.Context, id, mode string) error {
	return executeVoid(bc, func() error { return bc.client.SetSortMode(ctx, id, mode) })
}

// MoveMember delegates through the circuit breaker.
func (bc *BreakerClient) MoveMember(ctx context.Context, id, itemID, afterItemID string) error {
	return executeVoid(bc, func() error { return bc.client.MoveMember(ctx, id, itemID, afterItemID) })
}

// SetVisibility delegates through the circuit breaker.
func (bc *BreakerClient) SetVisibility(ctx context.Context, library, id string, vis models.Visibility) error {
	return executeVoid(bc, func() error { return bc.client.SetVisibility(ctx, library, id, vis) })
}

// GetHubIdentifier delegates through the circuit breaker.
func (bc *BreakerClient) GetHubIdentifier(ctx context.Context, library, id string) (string, error) {
	return execute(bc, func() (string, error) {
		return bc.client.GetHubIdentifier(ctx, library, id)
	})
}

// MoveHub delegates through the circuit breaker.
func (bc *BreakerClient) MoveHub(ctx context.Context, library, hubID, afterHubID string) error {
	return executeVoid(bc, func() error { return bc.client.MoveHub(ctx, library, hubID, afterHubID) })
}

// GetItemMetadata delegates through the circuit breaker.
func (bc *BreakerClient) GetItemMetadata(ctx context.Context, itemID string) (*models.ItemMetadata, error) {
	return execute(bc, func() (*models.ItemMetadata, error) {
		return bc.client.GetItemMetadata(ctx, itemID)
	})
}

// DeleteCopy delegates through the circuit breaker.
func (bc *BreakerClient) DeleteCopy(ctx context.Context, partID string) error {
	return executeVoid(bc, func() error { return bc.client.DeleteCopy(ctx, partID) })
}

// UploadPoster delegates through the circuit breaker.
func (bc *BreakerClient) UploadPoster(ctx context.Context, id string, data []byte) error {
	return executeVoid(bc, func() error { return bc.client.UploadPoster(ctx, id, data) })
}

// UploadArt delegates through the circuit breaker.
func (bc *BreakerClient) UploadArt(ctx context.Context, id string, data []byte) error {
	return executeVoid(bc, func() error { return bc.client.UploadArt(ctx, id, data) })
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
