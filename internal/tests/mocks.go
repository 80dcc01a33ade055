package tests

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"motorent/internal/domain"
	"motorent/internal/gateway"
	"motorent/internal/redis"
	"motorent/internal/repository"
	"motorent/internal/service"
)

// Ensure mocks implement the interfaces the services consume.
var (
	_ repository.MotorcycleRepository = (*MockMotorcycleRepository)(nil)
	_ repository.StockRepository      = (*MockMotorcycleRepository)(nil)
	_ repository.CartRepository       = (*MockCartRepository)(nil)
	_ repository.PromoCodeRepository  = (*MockPromoCodeRepository)(nil)
	_ repository.BookingRepository    = (*MockBookingRepository)(nil)
	_ repository.TxManager            = (*MockTxManager)(nil)
	_ redis.LockStoreInterface        = (*MockLockStore)(nil)
	_ service.PaymentGateway          = (*MockGateway)(nil)
	_ service.Publisher               = (*MockPublisher)(nil)
)

// ──────────────────────────────────────────────
// MOCK MOTORCYCLE REPOSITORY
// ──────────────────────────────────────────────

// MockMotorcycleRepository is a mock fleet. It serves both motorcycle reads
// and stock adjustments so add-to-cart checks see confirmed holds.
type MockMotorcycleRepository struct {
	mu          sync.RWMutex
	motorcycles map[string]*domain.Motorcycle

	// Counters for verification
	GetCallCount    int32
	AdjustCallCount int32

	// Error injection
	GetError    error
	AdjustError error
}

// NewMockMotorcycleRepository creates a new mock motorcycle repository.
func NewMockMotorcycleRepository() *MockMotorcycleRepository {
	return &MockMotorcycleRepository{
		motorcycles: make(map[string]*domain.Motorcycle),
	}
}

// AddMotorcycle adds a motorcycle to the mock repository.
func (m *MockMotorcycleRepository) AddMotorcycle(motorcycle *domain.Motorcycle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.motorcycles[motorcycle.ID] = cloneMotorcycle(motorcycle)
}

func (m *MockMotorcycleRepository) GetByID(ctx context.Context, id string) (*domain.Motorcycle, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	motorcycle, ok := m.motorcycles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneMotorcycle(motorcycle), nil
}

func (m *MockMotorcycleRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Motorcycle, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string]*domain.Motorcycle, len(ids))
	for _, id := range ids {
		if motorcycle, ok := m.motorcycles[id]; ok {
			result[id] = cloneMotorcycle(motorcycle)
		}
	}
	return result, nil
}

// AdjustStock mirrors the conditional bulk update: duplicate pairs are merged
// and a pair is refused if it would go negative or does not exist.
func (m *MockMotorcycleRepository) AdjustStock(ctx context.Context, adjustments []domain.StockAdjustment) ([]bool, error) {
	atomic.AddInt32(&m.AdjustCallCount, 1)
	if m.AdjustError != nil {
		return nil, m.AdjustError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	type pair struct {
		motorcycleID string
		branch       domain.Branch
	}
	totals := make(map[pair]int)
	for _, a := range adjustments {
		totals[pair{a.MotorcycleID, a.Branch}] += a.Delta
	}

	applied := make(map[pair]bool, len(totals))
	for p, delta := range totals {
		motorcycle, ok := m.motorcycles[p.motorcycleID]
		if !ok {
			continue
		}
		for i := range motorcycle.AvailableInCities {
			stock := &motorcycle.AvailableInCities[i]
			if stock.Branch == p.branch && stock.Quantity+delta >= 0 {
				stock.Quantity += delta
				applied[p] = true
			}
		}
	}

	result := make([]bool, len(adjustments))
	for i, a := range adjustments {
		result[i] = applied[pair{a.MotorcycleID, a.Branch}]
	}
	return result, nil
}

// StockAt returns the current stock for test assertions.
func (m *MockMotorcycleRepository) StockAt(motorcycleID string, branch domain.Branch) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	motorcycle, ok := m.motorcycles[motorcycleID]
	if !ok {
		return -1
	}
	return motorcycle.StockAt(branch)
}

// SetStock overwrites one branch counter.
func (m *MockMotorcycleRepository) SetStock(motorcycleID string, branch domain.Branch, quantity int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	motorcycle := m.motorcycles[motorcycleID]
	for i := range motorcycle.AvailableInCities {
		if motorcycle.AvailableInCities[i].Branch == branch {
			motorcycle.AvailableInCities[i].Quantity = quantity
		}
	}
}

func (m *MockMotorcycleRepository) snapshot() func() {
	m.mu.RLock()
	saved := make(map[string]*domain.Motorcycle, len(m.motorcycles))
	for id, motorcycle := range m.motorcycles {
		saved[id] = cloneMotorcycle(motorcycle)
	}
	m.mu.RUnlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.motorcycles = saved
	}
}

func cloneMotorcycle(src *domain.Motorcycle) *domain.Motorcycle {
	dst := *src
	dst.Categories = append([]domain.Category(nil), src.Categories...)
	dst.AvailableInCities = append([]domain.BranchStock(nil), src.AvailableInCities...)
	return &dst
}

// ──────────────────────────────────────────────
// MOCK CART REPOSITORY
// ──────────────────────────────────────────────

// MockCartRepository is a mock implementation of CartRepository.
type MockCartRepository struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart

	// Counters for verification
	ClearCallCount     int32
	SetCouponCallCount int32

	// Error injection
	UpsertError error
	ClearError  error
	PruneError  error
}

// NewMockCartRepository creates a new mock cart repository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		carts: make(map[string]*domain.Cart),
	}
}

func (m *MockCartRepository) GetOrCreate(ctx context.Context, customerID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[customerID]
	if !ok {
		cart = &domain.Cart{CustomerID: customerID, UpdatedAt: time.Now()}
		m.carts[customerID] = cart
	}
	return cloneCart(cart), nil
}

func (m *MockCartRepository) UpsertItem(ctx context.Context, customerID string, item *domain.CartItem) error {
	if m.UpsertError != nil {
		return m.UpsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cart := m.cart(customerID)
	for i := range cart.Items {
		if cart.Items[i].MotorcycleID == item.MotorcycleID {
			item.ID = cart.Items[i].ID
			cart.Items[i] = *item
			return nil
		}
	}
	cart.Items = append(cart.Items, *item)
	return nil
}

func (m *MockCartRepository) RemoveItem(ctx context.Context, customerID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart := m.cart(customerID)
	idx := cart.FindItem(itemID)
	if idx < 0 {
		return repository.ErrNotFound
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	return nil
}

func (m *MockCartRepository) RemoveItemsPickingUpBefore(ctx context.Context, customerID string, cutoff time.Time) (int64, error) {
	if m.PruneError != nil {
		return 0, m.PruneError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for id, cart := range m.carts {
		if customerID != "" && id != customerID {
			continue
		}
		kept := cart.Items[:0]
		for _, item := range cart.Items {
			if item.PickupAt.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, item)
		}
		cart.Items = kept
	}
	return removed, nil
}

func (m *MockCartRepository) SetCoupon(ctx context.Context, customerID, couponID string) error {
	atomic.AddInt32(&m.SetCouponCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[customerID]
	if !ok {
		return repository.ErrNotFound
	}
	cart.CouponID = couponID
	return nil
}

func (m *MockCartRepository) Clear(ctx context.Context, customerID string) error {
	atomic.AddInt32(&m.ClearCallCount, 1)
	if m.ClearError != nil {
		return m.ClearError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cart := m.cart(customerID)
	cart.Items = nil
	cart.CouponID = ""
	return nil
}

// GetCartState returns the stored cart for test assertions.
func (m *MockCartRepository) GetCartState(customerID string) *domain.Cart {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cart, ok := m.carts[customerID]
	if !ok {
		return nil
	}
	return cloneCart(cart)
}

// AddItemDirect stores a line without any validation.
func (m *MockCartRepository) AddItemDirect(customerID string, item domain.CartItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart := m.cart(customerID)
	cart.Items = append(cart.Items, item)
}

// SetStoredZone rewrites every stored line time into loc, the way a database
// session zone hands timestamps back.
func (m *MockCartRepository) SetStoredZone(loc *time.Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cart := range m.carts {
		for i := range cart.Items {
			cart.Items[i].PickupAt = cart.Items[i].PickupAt.In(loc)
			cart.Items[i].DropoffAt = cart.Items[i].DropoffAt.In(loc)
		}
	}
}

// cart must be called with mu held.
func (m *MockCartRepository) cart(customerID string) *domain.Cart {
	cart, ok := m.carts[customerID]
	if !ok {
		cart = &domain.Cart{CustomerID: customerID}
		m.carts[customerID] = cart
	}
	return cart
}

func (m *MockCartRepository) snapshot() func() {
	m.mu.RLock()
	saved := make(map[string]*domain.Cart, len(m.carts))
	for id, cart := range m.carts {
		saved[id] = cloneCart(cart)
	}
	m.mu.RUnlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.carts = saved
	}
}

func cloneCart(src *domain.Cart) *domain.Cart {
	dst := *src
	dst.Items = append([]domain.CartItem(nil), src.Items...)
	return &dst
}

// ──────────────────────────────────────────────
// MOCK PROMO CODE REPOSITORY
// ──────────────────────────────────────────────

// MockPromoCodeRepository is a mock implementation of PromoCodeRepository.
type MockPromoCodeRepository struct {
	mu     sync.RWMutex
	promos map[string]*domain.PromoCode

	// Counters for verification
	CreateCallCount int32
}

// NewMockPromoCodeRepository creates a new mock promo code repository.
func NewMockPromoCodeRepository() *MockPromoCodeRepository {
	return &MockPromoCodeRepository{
		promos: make(map[string]*domain.PromoCode),
	}
}

// AddPromo adds a promo code to the mock repository.
func (m *MockPromoCodeRepository) AddPromo(promo *domain.PromoCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *promo
	m.promos[promo.ID] = &copy
}

// DeletePromo removes a promo code, leaving carts with a dangling reference.
func (m *MockPromoCodeRepository) DeletePromo(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.promos, id)
}

func (m *MockPromoCodeRepository) FindActive(ctx context.Context, code string, now time.Time) (*domain.PromoCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.promos {
		if p.Code == code && p.IsApplicableAt(now) {
			copy := *p
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockPromoCodeRepository) GetByID(ctx context.Context, id string) (*domain.PromoCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.promos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *p
	return &copy, nil
}

func (m *MockPromoCodeRepository) Create(ctx context.Context, promo *domain.PromoCode) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.promos {
		if p.Code == promo.Code {
			return repository.ErrDuplicate
		}
	}
	copy := *promo
	m.promos[promo.ID] = &copy
	return nil
}

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking

	// Counters for verification
	CreateCallCount    int32
	UpdateCallCount    int32
	ForUpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings: make(map[string]*domain.Booking),
	}
}

// AddBooking adds a booking to the mock repository.
func (m *MockBookingRepository) AddBooking(booking *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = cloneBooking(booking)
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneBooking(booking), nil
}

func (m *MockBookingRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Booking, error) {
	atomic.AddInt32(&m.ForUpdateCallCount, 1)
	return m.GetByID(ctx, id)
}

func (m *MockBookingRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, booking := range m.bookings {
		if booking.FindPayment(orderID) >= 0 {
			return cloneBooking(booking), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockBookingRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Booking, 0)
	for _, booking := range m.bookings {
		if booking.CustomerID == customerID {
			result = append(result, cloneBooking(booking))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockBookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[booking.ID]; !ok {
		return repository.ErrNotFound
	}
	m.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

func (m *MockBookingRepository) ListStalePending(ctx context.Context, before time.Time) ([]*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Booking, 0)
	for _, booking := range m.bookings {
		if booking.Status == domain.BookingStatusPending && booking.CreatedAt.Before(before) {
			result = append(result, cloneBooking(booking))
		}
	}
	return result, nil
}

// GetBookingState returns the stored booking for test assertions.
func (m *MockBookingRepository) GetBookingState(id string) *domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil
	}
	return cloneBooking(booking)
}

// CountBookings returns the number of stored bookings.
func (m *MockBookingRepository) CountBookings() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bookings)
}

func (m *MockBookingRepository) snapshot() func() {
	m.mu.RLock()
	saved := make(map[string]*domain.Booking, len(m.bookings))
	for id, booking := range m.bookings {
		saved[id] = cloneBooking(booking)
	}
	m.mu.RUnlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.bookings = saved
	}
}

// SetStoredZone rewrites every stored line time into loc.
func (m *MockBookingRepository) SetStoredZone(loc *time.Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		for i := range b.Items {
			b.Items[i].PickupAt = b.Items[i].PickupAt.In(loc)
			b.Items[i].DropoffAt = b.Items[i].DropoffAt.In(loc)
		}
	}
}

func cloneBooking(src *domain.Booking) *domain.Booking {
	dst := *src
	dst.Items = append([]domain.BookingItem(nil), src.Items...)
	dst.Payments = append([]domain.PaymentAttempt(nil), src.Payments...)
	return &dst
}

// ──────────────────────────────────────────────
// MOCK TX MANAGER
// ──────────────────────────────────────────────

// MockTxManager runs transactions against the mock repositories and restores
// their state when the callback fails.
type MockTxManager struct {
	mu          sync.Mutex
	bookings    *MockBookingRepository
	carts       *MockCartRepository
	motorcycles *MockMotorcycleRepository

	// Counters
	CommitCount   int32
	RollbackCount int32

	// Error injection
	BeginError error
}

// NewMockTxManager creates a new mock transaction manager.
func NewMockTxManager(bookings *MockBookingRepository, carts *MockCartRepository, motorcycles *MockMotorcycleRepository) *MockTxManager {
	return &MockTxManager{
		bookings:    bookings,
		carts:       carts,
		motorcycles: motorcycles,
	}
}

func (m *MockTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, stores repository.Stores) error) error {
	if m.BeginError != nil {
		return m.BeginError
	}

	// Transactions are serialized so a snapshot is never interleaved.
	m.mu.Lock()
	defer m.mu.Unlock()

	restores := []func(){
		m.bookings.snapshot(),
		m.carts.snapshot(),
		m.motorcycles.snapshot(),
	}

	err := fn(ctx, repository.Stores{
		Bookings: m.bookings,
		Carts:    m.carts,
		Stock:    m.motorcycles,
	})
	if err != nil {
		atomic.AddInt32(&m.RollbackCount, 1)
		for _, restore := range restores {
			restore()
		}
		return err
	}

	atomic.AddInt32(&m.CommitCount, 1)
	return nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]mockLock
	seq   int

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]mockLock),
	}
}

type mockLock struct {
	token  string
	expiry time.Time
}

func (m *MockLockStore) AcquireBookingLock(ctx context.Context, bookingID string, ttl time.Duration) (string, bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return "", false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return "", false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "lock:booking:" + bookingID
	if held, exists := m.locks[key]; exists {
		if time.Now().Before(held.expiry) {
			return "", false, nil // Lock still held.
		}
	}

	m.seq++
	token := fmt.Sprintf("token-%d", m.seq)
	m.locks[key] = mockLock{token: token, expiry: time.Now().Add(ttl)}
	return token, true, nil
}

func (m *MockLockStore) ReleaseBookingLock(ctx context.Context, bookingID, token string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	key := "lock:booking:" + bookingID
	if held, exists := m.locks[key]; exists && held.token == token {
		delete(m.locks, key)
	}
	return nil
}

// IsLocked checks if a booking is locked (for test assertions).
func (m *MockLockStore) IsLocked(bookingID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	held, exists := m.locks["lock:booking:"+bookingID]
	return exists && time.Now().Before(held.expiry)
}

// ──────────────────────────────────────────────
// MOCK PAYMENT GATEWAY
// ──────────────────────────────────────────────

// MockGateway is a mock payment provider. Signatures are real HMACs over the
// configured secrets so tests sign with gateway.Sign.
type MockGateway struct {
	mu     sync.Mutex
	orders []gateway.Order
	seq    int

	KeySecret     string
	WebhookSecret string

	// Counters
	CreateOrderCallCount int32

	// Error injection
	CreateOrderError error
}

// NewMockGateway creates a new mock gateway.
func NewMockGateway(keySecret, webhookSecret string) *MockGateway {
	return &MockGateway{KeySecret: keySecret, WebhookSecret: webhookSecret}
}

func (m *MockGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*gateway.Order, error) {
	atomic.AddInt32(&m.CreateOrderCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateOrderError != nil {
		return nil, m.CreateOrderError
	}
	m.seq++
	order := gateway.Order{
		ID:       fmt.Sprintf("order_%04d", m.seq),
		Amount:   amountMinor,
		Currency: currency,
		Receipt:  receipt,
	}
	m.orders = append(m.orders, order)
	return &order, nil
}

func (m *MockGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return gateway.VerifySignature(m.KeySecret, orderID+"|"+paymentID, signature)
}

func (m *MockGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	if m.WebhookSecret == "" {
		return false
	}
	return gateway.VerifySignature(m.WebhookSecret, string(body), signature)
}

// Orders returns every order created so far.
func (m *MockGateway) Orders() []gateway.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]gateway.Order(nil), m.orders...)
}

// ──────────────────────────────────────────────
// MOCK PUBLISHER
// ──────────────────────────────────────────────

// PublishedMessage is one message handed to the mock publisher.
type PublishedMessage struct {
	Topic string
	Body  []byte
}

// MockPublisher is a mock notification publisher.
type MockPublisher struct {
	mu       sync.Mutex
	messages []PublishedMessage

	// Error injection
	PublishError error
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(topic string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishError != nil {
		return m.PublishError
	}
	m.messages = append(m.messages, PublishedMessage{Topic: topic, Body: body})
	return nil
}

// Messages returns the messages published to a topic.
func (m *MockPublisher) Messages(topic string) []PublishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []PublishedMessage
	for _, msg := range m.messages {
		if msg.Topic == topic {
			result = append(result, msg)
		}
	}
	return result
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBConstraint = errors.New("mock: unique constraint violation")
	ErrMockTimeout      = errors.New("mock: operation timeout")
)
