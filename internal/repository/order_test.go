package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"eshop-backend/internal/model"
	"eshop-backend/internal/repository"
)

func createOrderWithItems(t *testing.T, db *gorm.DB, repo repository.OrderRepository, orderID, userID string) {
	t.Helper()
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := repo.Create(ctx, tx, &model.Order{
			ID:            orderID,
			UserID:        userID,
			Street:        "1 Main St",
			City:          "Springfield",
			TotalAmount:   20,
			Status:        model.OrderPending,
			PaymentMode:   model.PaymentModeCOD,
			PaymentStatus: model.PaymentNotPaid,
		}); err != nil {
			return err
		}
		return repo.CreateOrderItems(ctx, tx, []*model.OrderItem{
			{OrderID: orderID, ProductID: "p1", Name: "Product p1", Price: 10, Quantity: 2},
		})
	})
	require.NoError(t, err)
}

func TestOrderRepository_FindByID(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := repository.NewOrderRepository(db)
	createOrderWithItems(t, db, repo, "o1", "u1")

	order, err := repo.FindByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "u1", order.UserID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := repository.NewOrderRepository(db)
	createOrderWithItems(t, db, repo, "o1", "u1")

	require.NoError(t, repo.UpdateStatus(ctx, "o1", model.OrderShipped))

	order, err := repo.FindByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderShipped, order.Status)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, "missing", model.OrderShipped), repository.ErrOrderNotFound)
}

func TestOrderRepository_Delete_CascadesItems(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := repository.NewOrderRepository(db)
	createOrderWithItems(t, db, repo, "o1", "u1")

	require.NoError(t, repo.Delete(ctx, "o1"))

	_, err := repo.FindByID(ctx, "o1")
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)

	items, err := repo.GetOrderItems(ctx, "o1")
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.ErrorIs(t, repo.Delete(ctx, "o1"), repository.ErrOrderNotFound)
}

func TestOrderRepository_SessionIDUnique(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := repository.NewOrderRepository(db)

	session := "cs_test_123"
	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.Create(ctx, tx, &model.Order{
			ID: "o1", UserID: "u1", Street: "1 Main St", City: "Springfield",
			Status: model.OrderPending, PaymentMode: model.PaymentModeCard,
			PaymentStatus: model.PaymentPaid, SessionID: &session,
		})
	})
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		return repo.Create(ctx, tx, &model.Order{
			ID: "o2", UserID: "u1", Street: "1 Main St", City: "Springfield",
			Status: model.OrderPending, PaymentMode: model.PaymentModeCard,
			PaymentStatus: model.PaymentPaid, SessionID: &session,
		})
	})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	order, err := repo.FindBySessionID(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, "o1", order.ID)
}

func TestWebhookEventRepository_MarkProcessed(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := repository.NewWebhookEventRepository(db)

	exists, err := repo.Exists(ctx, "cs_1")
	require.NoError(t, err)
	assert.False(t, exists)

	err = db.Transaction(func(tx *gorm.DB) error {
		return repo.MarkProcessed(ctx, tx, "cs_1", "evt_1", "checkout.session.completed")
	})
	require.NoError(t, err)

	exists, err = repo.Exists(ctx, "cs_1")
	require.NoError(t, err)
	assert.True(t, exists)

	// a racing delivery of the same session loses on the primary key
	err = db.Transaction(func(tx *gorm.DB) error {
		return repo.MarkProcessed(ctx, tx, "cs_1", "evt_2", "checkout.session.completed")
	})
	assert.ErrorIs(t, err, repository.ErrDuplicateEvent)
}
