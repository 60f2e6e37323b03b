// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Default retry policy for persistence writes.
const (
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 50 * time.Millisecond
)

// permanent reports errors that another attempt cannot fix.
func permanent(err error) bool {
	return errors.Is(err, ErrStorageClosed) ||
		errors.Is(err, ErrSerializationFailed) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// RetryWithBackoff runs write up to maxAttempts times, sleeping baseDelay,
// 2*baseDelay, 4*baseDelay and so on between attempts. It stops early on
// success, on a canceled ctx and on permanent errors (a closed store or a
// value that cannot be encoded). It returns the last error seen.
func RetryWithBackoff(ctx context.Context, write func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	delay := baseDelay
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := write()
		switch {
		case err == nil:
			if attempt > 1 {
				slog.Debug("write succeeded after retry", "attempt", attempt)
			}
			return nil
		case permanent(err):
			return err
		case attempt == maxAttempts:
			slog.Debug("write failed, giving up", "attempts", attempt, "err", err)
			return err
		}
		slog.Debug("write failed, will retry", "attempt", attempt, "maxAttempts", maxAttempts, "delay", delay, "err", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
