//go:build integration

package repository_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, roles ...string) uuid.UUID {
	t.Helper()
	if len(roles) == 0 {
		roles = []string{"BUYER"}
	}
	id := uuid.New()
	_, err := tcPool.Exec(context.Background(),
		`INSERT INTO users (id, display_name, roles) VALUES ($1, $2, $3)`, id, "user "+id.String()[:8], roles)
	require.NoError(t, err)
	return id
}

func banUser(t *testing.T, id uuid.UUID) {
	t.Helper()
	_, err := tcPool.Exec(context.Background(), `UPDATE users SET is_banned = TRUE WHERE id = $1`, id)
	require.NoError(t, err)
}

func seedStore(t *testing.T, owner uuid.UUID) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := tcPool.Exec(context.Background(), `INSERT INTO stores (id, owner_id, name) VALUES ($1, $2, 'shop')`, id, owner)
	require.NoError(t, err)
	return id
}

func seedOrder(t *testing.T, buyer uuid.UUID, stores ...uuid.UUID) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	id := uuid.New()
	_, err := tcPool.Exec(ctx, `INSERT INTO orders (id, buyer_id, total) VALUES ($1, $2, 1500)`, id, buyer)
	require.NoError(t, err)
	for _, s := range stores {
		_, err := tcPool.Exec(ctx, `INSERT INTO order_items (id, order_id, store_id) VALUES ($1, $2, $3)`, uuid.New(), id, s)
		require.NoError(t, err)
	}
	return id
}

func orderStatus(t *testing.T, id uuid.UUID) (status string, deliveryStatus *string) {
	t.Helper()
	err := tcPool.QueryRow(context.Background(),
		`SELECT status, delivery_status FROM orders WHERE id = $1`, id).Scan(&status, &deliveryStatus)
	require.NoError(t, err)
	return status, deliveryStatus
}
