package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motorent/internal/domain"
	"motorent/internal/repository"
	"motorent/internal/repository/postgres"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

var motorcycleCols = []string{
	"id", "make", "model", "variant", "color",
	"price_per_day_mon_thu", "price_per_day_fri_sun", "security_deposit", "categories",
}

func TestMotorcycleRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := postgres.NewMotorcycleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM motorcycles WHERE id = $1")).
		WithArgs("moto-1").
		WillReturnRows(sqlmock.NewRows(motorcycleCols).
			AddRow("moto-1", "Ather", "450X", "Gen 3", "grey", 1000.0, 1500.0, 2000.0, []byte("{ELECTRIC,SCOOTER}")))
	mock.ExpectQuery(regexp.QuoteMeta("FROM motorcycle_stock")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"motorcycle_id", "branch", "quantity"}).
			AddRow("moto-1", "Bangalore", 3).
			AddRow("moto-1", "Goa", 0))

	m, err := repo.GetByID(context.Background(), "moto-1")
	require.NoError(t, err)

	assert.Equal(t, "Ather", m.Make)
	assert.True(t, m.IsElectric())
	assert.Equal(t, 3, m.StockAt("Bangalore"))
	assert.Equal(t, 0, m.StockAt("Goa"))
	assert.Equal(t, -1, m.StockAt("Delhi"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMotorcycleRepository_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := postgres.NewMotorcycleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM motorcycles WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(motorcycleCols))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMotorcycleRepository_GetByIDs_Empty(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := postgres.NewMotorcycleRepository(db)

	result, err := repo.GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockRepository_AdjustStock_MergesAndReportsRefusals(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := postgres.NewStockRepository(db)

	// Two lines of the same motorcycle at the same branch become one delta of -3.
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE motorcycle_stock AS s")).
		WithArgs(
			pq.Array([]string{"moto-1", "moto-2"}),
			pq.Array([]string{"Bangalore", "Goa"}),
			pq.Array([]int64{-3, -1}),
		).
		WillReturnRows(sqlmock.NewRows([]string{"motorcycle_id", "branch"}).
			AddRow("moto-1", "Bangalore"))

	applied, err := repo.AdjustStock(context.Background(), []domain.StockAdjustment{
		{MotorcycleID: "moto-1", Branch: "Bangalore", Delta: -1},
		{MotorcycleID: "moto-2", Branch: "Goa", Delta: -1},
		{MotorcycleID: "moto-1", Branch: "Bangalore", Delta: -2},
	})
	require.NoError(t, err)

	assert.Equal(t, []bool{true, false, true}, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockRepository_AdjustStock_NoAdjustments(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := postgres.NewStockRepository(db)

	applied, err := repo.AdjustStock(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_GetOrCreate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := postgres.NewCartRepository(db)

	now := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO carts")).
		WithArgs("cust-1").
		WillReturnRows(sqlmock.NewRows([]string{"coupon_id", "updated_at"}).AddRow("promo-1", now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM cart_items WHERE customer_id = $1")).
		WithArgs("cust-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "motorcycle_id", "quantity", "pickup_at", "dropoff_at", "pickup_location", "dropoff_location",
			"duration", "total_hours", "rent_amount", "tax_percentage", "total_tax",
		}).AddRow("item-1", "moto-1", 1, now, now.Add(52*time.Hour), "Bangalore", "Bangalore",
			"2 days 4 hours", 52.0, 2400.0, 28.0, 672.0))

	cart, err := repo.GetOrCreate(context.Background(), "cust-1")
	require.NoError(t, err)

	assert.Equal(t, "promo-1", cart.CouponID)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, domain.Branch("Bangalore"), cart.Items[0].PickupLocation)
	assert.Equal(t, 2400.0, cart.Items[0].RentAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_UpsertItem_KeepsStoredID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := postgres.NewCartRepository(db)

	item := &domain.CartItem{ID: "new-id", MotorcycleID: "moto-1", Quantity: 2}

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (customer_id, motorcycle_id) DO UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("existing-id"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE carts SET updated_at")).
		WithArgs("cust-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpsertItem(context.Background(), "cust-1", item))
	assert.Equal(t, "existing-id", item.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_RemoveItem_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := postgres.NewCartRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items")).
		WithArgs("cust-1", "item-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RemoveItem(context.Background(), "cust-1", "item-9")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCartRepository_RemoveItemsPickingUpBefore(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := postgres.NewCartRepository(db)

	cutoff := time.Date(2026, 1, 4, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE pickup_at < $1")).
		WithArgs(cutoff, "").
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.RemoveItemsPickingUpBefore(context.Background(), "", cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestCartRepository_Clear(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := postgres.NewCartRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE customer_id = $1")).
		WithArgs("cust-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE carts SET coupon_id = NULLIF($2, '')")).
		WithArgs("cust-1", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Clear(context.Background(), "cust-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromoCodeRepository_Create_Duplicate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := postgres.NewPromoCodeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO promo_codes")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), &domain.PromoCode{ID: "p1", Code: "SAVE10"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestPromoCodeRepository_FindActive_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := postgres.NewPromoCodeRepository(db)

	now := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE code = $1 AND is_active")).
		WithArgs("GONE", now).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActive(context.Background(), "GONE", now)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

var bookingCols = []string{
	"id", "customer_id", "items", "coupon_id", "coupon_code",
	"rent_total", "discount_total", "security_deposit_total", "total_tax", "cart_total", "discounted_total",
	"paid_amount", "remaining_amount", "status", "payment_status", "payments",
	"cancellation_reason", "cancellation_charge", "refund_amount", "cancelled_by", "cancelled_at",
	"created_at", "updated_at",
}

func TestBookingRepository_GetByOrderID_DecodesSnapshots(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := postgres.NewBookingRepository(db)

	created := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	items := `[{"id":"item-1","motorcycle_id":"moto-1","quantity":2,"pickup_at":"2026-01-10T09:00:00Z",` +
		`"dropoff_at":"2026-01-12T09:00:00Z","pickup_location":"Goa","dropoff_location":"Goa",` +
		`"rent_amount":5000,"discounted_rent_amount":4500,"tax_percentage":28,"total_tax":1260,` +
		`"security_deposit":1000,"stock_held":true}]`
	payments := `[{"order_id":"order_1","provider":"razorpay","amount":1152,"status":"unpaid","created_at":"2026-01-05T10:00:00Z"}]`

	mock.ExpectQuery(regexp.QuoteMeta("WHERE payments @> $1::jsonb")).
		WithArgs(`[{"order_id":"order_1"}]`).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(
			"bk-1", "cust-1", []byte(items), "", "",
			5000.0, 500.0, 2000.0, 1260.0, 6400.0, 7760.0,
			0.0, 7760.0, "PENDING", "UNPAID", []byte(payments),
			"", 0.0, 0.0, "", nil,
			created, created,
		))

	b, err := repo.GetByOrderID(context.Background(), "order_1")
	require.NoError(t, err)

	assert.Equal(t, domain.BookingStatusPending, b.Status)
	require.Len(t, b.Items, 1)
	assert.True(t, b.Items[0].StockHeld)
	assert.Equal(t, domain.Branch("Goa"), b.Items[0].PickupLocation)
	assert.Equal(t, 2, b.Items[0].Quantity)
	require.Len(t, b.Payments, 1)
	assert.Equal(t, domain.PaymentAttemptUnpaid, b.Payments[0].Status)
	assert.Zero(t, b.FindPayment("order_1"))
	assert.True(t, b.CancelledAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_GetByIDForUpdate_LocksRowInTx(t *testing.T) {
	db, mock := setupMockDB(t)

	created := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = $1 FOR UPDATE")).
		WithArgs("bk-1").
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(
			"bk-1", "cust-1", []byte(`[]`), "", "",
			0.0, 0.0, 0.0, 0.0, 0.0, 0.0,
			0.0, 0.0, "RESERVED", "PARTIAL_PAID", []byte(`[]`),
			"", 0.0, 0.0, "", nil,
			created, created,
		))
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = $1 FOR UPDATE")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	repo := postgres.NewBookingRepositoryWithTx(tx)

	b, err := repo.GetByIDForUpdate(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusReserved, b.Status)

	_, err = repo.GetByIDForUpdate(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_Update_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := postgres.NewBookingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &domain.Booking{ID: "missing"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBookingRepository_ListStalePending(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := postgres.NewBookingRepository(db)

	before := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = $1 AND created_at < $2")).
		WithArgs("PENDING", before).
		WillReturnRows(sqlmock.NewRows(bookingCols))

	bookings, err := repo.ListStalePending(context.Background(), before)
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestTxManager_CommitsOnSuccess(t *testing.T) {
	db, mock := setupMockDB(t)
	tm := postgres.NewTxManager(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE customer_id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE carts SET coupon_id")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := tm.WithinTx(context.Background(), func(ctx context.Context, stores repository.Stores) error {
		return stores.Carts.Clear(ctx, "cust-1")
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_RollsBackOnError(t *testing.T) {
	db, mock := setupMockDB(t)
	tm := postgres.NewTxManager(db)

	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := tm.WithinTx(context.Background(), func(ctx context.Context, stores repository.Stores) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
