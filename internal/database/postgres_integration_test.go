//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	"github.com/foodgram/gateway/internal/testutil"
)

func TestPostgres_Ping(t *testing.T) {
	databaseURL := testutil.RequireEnv(t, "DATABASE_URL")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pg, err := NewPostgres(ctx, databaseURL)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	defer pg.Close()

	if err := pg.Ping(ctx); err != nil {
		t.Fatalf("expected ping to succeed, got %v", err)
	}
}
