// go-regbridge
// Copyright (c) 2025 The go-regbridge Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-regbridge.
//
// go-regbridge is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-regbridge is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-regbridge; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package retry repeats idempotent bridge operations that failed with a
// retryable error.
package retry

import (
	"context"
	"time"

	regbridge "github.com/benchlab/go-regbridge"
)

// Config configures retry behavior
type Config struct {
	// OnRetry is called before each repeat with the failure being retried.
	OnRetry func(attempt int, err error)

	// MaxRetries is the number of repeats after the first attempt.
	MaxRetries int

	// Delay is the wait between attempts.
	Delay time.Duration
}

// Do runs op until it succeeds, fails with an error that is not
// retryable, runs out of retries, or ctx ends. The last error is returned.
func Do(ctx context.Context, cfg Config, op func() error) error {
	_, err := Value(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}

// Value is Do for operations that return a result.
func Value[T any](ctx context.Context, cfg Config, op func() (T, error)) (T, error) {
	var zero T

	for attempt := 0; ; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}
		if !regbridge.IsRetryable(err) || attempt >= cfg.MaxRetries {
			return zero, err
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err)
		}

		if err := sleep(ctx, cfg.Delay); err != nil {
			return zero, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
