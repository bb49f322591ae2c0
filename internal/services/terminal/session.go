package terminal

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"restaurant-pos/internal/cart"
	"restaurant-pos/internal/checkout"
	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/pricing"
)

var (
	// ErrSessionNotFound is returned for unknown or closed session IDs.
	ErrSessionNotFound = errors.New("session not found")
	// ErrCheckoutInFlight is returned when a session already has an open checkout.
	ErrCheckoutInFlight = errors.New("a checkout is already in progress for this session")
	// ErrNoCheckout is returned when no checkout has been started.
	ErrNoCheckout = errors.New("no checkout in progress")
)

// Session is one POS terminal: a cart plus at most one in-flight checkout.
type Session struct {
	ID         string
	OperatorID int
	CreatedAt  time.Time

	mu       sync.Mutex
	cart     *cart.Cart
	checkout *checkout.Checkout
}

// View is the serializable snapshot of a session.
type View struct {
	ID            string           `json:"id"`
	OperatorID    int              `json:"operator_id"`
	OrderType     models.OrderType `json:"order_type"`
	TableNumber   string           `json:"table_number,omitempty"`
	CustomerName  string           `json:"customer_name,omitempty"`
	CustomerPhone string           `json:"customer_phone,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	Items         []cart.LineItem  `json:"items"`
	ItemCount     int              `json:"item_count"`
	Totals        pricing.Totals   `json:"totals"`
	CheckoutState checkout.State   `json:"checkout_state,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// Manager owns the live terminal sessions.
type Manager struct {
	orders  checkout.OrderService
	printer checkout.PrintService
	logger  *logger.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a new session manager.
func NewManager(orders checkout.OrderService, printer checkout.PrintService, log *logger.Logger) *Manager {
	return &Manager{
		orders:   orders,
		printer:  printer,
		logger:   log,
		sessions: make(map[string]*Session),
	}
}

// Open starts a new terminal session for an operator.
func (m *Manager) Open(operatorID int) *Session {
	session := &Session{
		ID:         logger.GenerateRequestID(),
		OperatorID: operatorID,
		CreatedAt:  time.Now().UTC(),
		cart:       cart.New(),
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	m.logger.Info("session_opened", fmt.Sprintf("Terminal session %s opened", session.ID), "", map[string]interface{}{
		"session_id":  session.ID,
		"operator_id": operatorID,
	})
	return session
}

// Get looks up a live session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Close removes a session. Any cart content is discarded.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	m.logger.Info("session_closed", fmt.Sprintf("Terminal session %s closed", id), "", map[string]interface{}{
		"session_id": id,
	})
	return nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Mutate runs fn with exclusive access to the session cart. Mutation is
// rejected while a checkout is in flight so the snapshot cannot drift from
// what the customer is paying for.
func (s *Session) Mutate(fn func(c *cart.Cart)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkoutOpenLocked() {
		return ErrCheckoutInFlight
	}
	fn(s.cart)
	return nil
}

// View snapshots the session for API responses.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:            s.ID,
		OperatorID:    s.OperatorID,
		OrderType:     s.cart.OrderType(),
		TableNumber:   s.cart.TableNumber(),
		CustomerName:  s.cart.CustomerName(),
		CustomerPhone: s.cart.CustomerPhone(),
		Notes:         s.cart.Notes(),
		Items:         s.cart.Items(),
		ItemCount:     s.cart.ItemCount(),
		Totals:        s.cart.Totals(),
		CreatedAt:     s.CreatedAt,
	}
	if s.checkout != nil {
		v.CheckoutState = s.checkout.State()
	}
	return v
}

// StartCheckout opens a checkout flow for the session cart. A session holds
// at most one open checkout; a finished one is replaced.
func (s *Session) StartCheckout(m *Manager) (*checkout.Checkout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkoutOpenLocked() {
		return nil, ErrCheckoutInFlight
	}

	co := checkout.New(s.cart, m.orders, m.printer, m.logger, s.OperatorID)
	s.checkout = co
	return co, nil
}

// Checkout returns the session's current checkout flow.
func (s *Session) Checkout() (*checkout.Checkout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkout == nil {
		return nil, ErrNoCheckout
	}
	return s.checkout, nil
}

func (s *Session) checkoutOpenLocked() bool {
	if s.checkout == nil {
		return false
	}
	switch s.checkout.State() {
	case checkout.StateCompleted, checkout.StateFailed, checkout.StateAbandoned:
		return false
	default:
		return true
	}
}
