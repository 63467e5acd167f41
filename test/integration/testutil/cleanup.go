//go:build integration

package testutil

import (
	"context"
	"time"
)

// CleanAll empties every table and resets the id sequences.
func (env *TestEnv) CleanAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := env.Pool.Exec(ctx, `TRUNCATE players, event_outbox RESTART IDENTITY`); err != nil {
		env.t.Fatalf("CleanAll: %v", err)
	}
}
