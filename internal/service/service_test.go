package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/Dan9191/shop-service/internal/config"
	"github.com/Dan9191/shop-service/internal/models"
	"github.com/Dan9191/shop-service/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// fakeStore keeps users, orders and installments in memory
type fakeStore struct {
	users        map[string]*models.User
	orders       map[int64]*models.Order
	installments map[int64]*models.Installment
	items        map[int64][]models.InstallmentItem

	takenOrderNos int // number of OrderNoExists calls answering true
	takenRefunds  int
	noChecks      int
	nextID        int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        make(map[string]*models.User),
		orders:       make(map[int64]*models.Order),
		installments: make(map[int64]*models.Installment),
		items:        make(map[int64][]models.InstallmentItem),
	}
}

func (s *fakeStore) CreateUser(_ context.Context, user *models.User) error {
	if _, ok := s.users[user.Email]; ok {
		return fmt.Errorf("user %s: %w", user.Email, repository.ErrDuplicate)
	}
	s.nextID++
	user.ID = s.nextID
	s.users[user.Email] = user
	return nil
}

func (s *fakeStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, repository.ErrNotFound)
	}
	return u, nil
}

func (s *fakeStore) OrderNoExists(_ context.Context, _ string) (bool, error) {
	s.noChecks++
	if s.takenOrderNos > 0 {
		s.takenOrderNos--
		return true, nil
	}
	return false, nil
}

func (s *fakeStore) RefundNoExists(_ context.Context, _ string) (bool, error) {
	if s.takenRefunds > 0 {
		s.takenRefunds--
		return true, nil
	}
	return false, nil
}

func (s *fakeStore) CreateOrder(_ context.Context, order *models.Order) error {
	s.nextID++
	order.ID = s.nextID
	s.orders[order.ID] = order
	return nil
}

func (s *fakeStore) FindOrderByID(_ context.Context, id int64) (*models.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, repository.ErrNotFound)
	}
	cp := *o
	return &cp, nil
}

func (s *fakeStore) orderByNo(no string) *models.Order {
	for _, o := range s.orders {
		if o.No == no {
			return o
		}
	}
	return nil
}

func (s *fakeStore) MarkOrderPaid(_ context.Context, no, method, paymentNo string, paidAt time.Time) (bool, error) {
	o := s.orderByNo(no)
	if o == nil || o.PaidAt != nil {
		return false, nil
	}
	o.PaidAt = &paidAt
	o.PaymentMethod = method
	o.PaymentNo = paymentNo
	return true, nil
}

func (s *fakeStore) ApplyRefund(_ context.Context, orderID int64, refundNo string, extra []byte) (bool, error) {
	o, ok := s.orders[orderID]
	if !ok || o.PaidAt == nil || o.RefundStatus != models.RefundStatusPending {
		return false, nil
	}
	o.RefundStatus = models.RefundStatusApplied
	o.RefundNo = refundNo
	o.Extra = extra
	return true, nil
}

func (s *fakeStore) UpdateRefundStatus(_ context.Context, refundNo string, status models.RefundStatus) (bool, error) {
	for _, o := range s.orders {
		if o.RefundNo == refundNo {
			o.RefundStatus = status
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) FindInstallment(_ context.Context, id int64) (*models.Installment, error) {
	i, ok := s.installments[id]
	if !ok {
		return nil, fmt.Errorf("installment %d: %w", id, repository.ErrNotFound)
	}
	return i, nil
}

func (s *fakeStore) ListInstallmentItems(_ context.Context, installmentID int64) ([]models.InstallmentItem, error) {
	return s.items[installmentID], nil
}

var serviceNow = time.Date(2018, 6, 29, 11, 43, 0, 0, time.UTC)

func newTestService(store Store) *Service {
	svc := NewService(store, quietLogger(), &config.Config{JWTSecret: "test-secret"})
	svc.now = func() time.Time { return serviceNow }
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret")) != nil {
		t.Error("password hash does not match")
	}

	if _, err := svc.Register(ctx, "alice2", "alice@example.com", "x"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate Register() error = %v, want ErrEmailTaken", err)
	}

	token, err := svc.Login(ctx, "alice@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}, jwt.WithTimeFunc(func() time.Time { return serviceNow }))
	if err != nil {
		t.Fatalf("token does not validate: %v", err)
	}
	if claims.Subject != strconv.FormatInt(user.ID, 10) {
		t.Errorf("subject = %s, want %d", claims.Subject, user.ID)
	}

	for _, tc := range []struct{ email, password string }{
		{"alice@example.com", "wrong"},
		{"bob@example.com", "s3cret"},
	} {
		if _, err := svc.Login(ctx, tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login(%s) error = %v, want ErrInvalidCredentials", tc.email, err)
		}
	}
}

func TestCreateOrderAssignsNumber(t *testing.T) {
	store := newFakeStore()
	store.takenOrderNos = 2
	svc := newTestService(store)

	order, err := svc.CreateOrder(context.Background(), 7, CreateOrderInput{
		Address:     json.RawMessage(`{"city":"Hangzhou"}`),
		TotalAmount: decimal.RequireFromString("99.905"),
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if !regexp.MustCompile(`^20180629114300\d{6}$`).MatchString(order.No) {
		t.Errorf("order no = %q, want timestamp prefix and 6 digits", order.No)
	}
	if store.noChecks != 3 {
		t.Errorf("uniqueness checked %d times, want 3", store.noChecks)
	}
	if order.RefundStatus != models.RefundStatusPending || order.ShipStatus != models.ShipStatusPending {
		t.Errorf("unexpected initial statuses: %s / %s", order.RefundStatus, order.ShipStatus)
	}
	if order.TotalAmount.String() != "99.91" {
		t.Errorf("total amount = %s, want 99.91", order.TotalAmount)
	}
	if store.orders[order.ID].No != order.No {
		t.Error("order persisted without its number")
	}
}

func TestCreateOrderNoExhausted(t *testing.T) {
	store := newFakeStore()
	store.takenOrderNos = maxOrderNoAttempts
	svc := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), 7, CreateOrderInput{TotalAmount: decimal.NewFromInt(1)})
	if !errors.Is(err, ErrOrderNoUnavailable) {
		t.Fatalf("CreateOrder() error = %v, want ErrOrderNoUnavailable", err)
	}
	if len(store.orders) != 0 {
		t.Error("order must not be persisted without a number")
	}
}

func TestCreateOrderValidation(t *testing.T) {
	tests := []struct {
		name string
		in   CreateOrderInput
	}{
		{name: "zero amount", in: CreateOrderInput{TotalAmount: decimal.Zero}},
		{name: "negative amount", in: CreateOrderInput{TotalAmount: decimal.NewFromInt(-5)}},
		{name: "broken address", in: CreateOrderInput{TotalAmount: decimal.NewFromInt(5), Address: json.RawMessage(`{`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(newFakeStore())
			if _, err := svc.CreateOrder(context.Background(), 1, tt.in); !errors.Is(err, ErrInvalidOrder) {
				t.Errorf("CreateOrder() error = %v, want ErrInvalidOrder", err)
			}
		})
	}
}

func TestPaymentAndRefundFlow(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, 7, CreateOrderInput{TotalAmount: decimal.NewFromInt(120)})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	if _, err := svc.ApplyRefund(ctx, 7, order.ID, "changed my mind"); !errors.Is(err, ErrRefundNotAllowed) {
		t.Fatalf("refund of unpaid order error = %v, want ErrRefundNotAllowed", err)
	}

	if err := svc.HandleOrderPaid(ctx, PaymentMethodAlipay, order.No, "2018062921001"); err != nil {
		t.Fatalf("HandleOrderPaid() error = %v", err)
	}
	// duplicate notification is accepted
	if err := svc.HandleOrderPaid(ctx, PaymentMethodAlipay, order.No, "2018062921001"); err != nil {
		t.Fatalf("repeated HandleOrderPaid() error = %v", err)
	}
	if stored := store.orders[order.ID]; stored.PaidAt == nil || stored.PaymentNo != "2018062921001" {
		t.Fatalf("order not marked paid: %+v", stored)
	}

	if _, err := svc.ApplyRefund(ctx, 8, order.ID, "not mine"); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("refund by another user error = %v, want ErrOrderNotFound", err)
	}

	refunded, err := svc.ApplyRefund(ctx, 7, order.ID, "damaged")
	if err != nil {
		t.Fatalf("ApplyRefund() error = %v", err)
	}
	if refunded.RefundStatus != models.RefundStatusApplied || len(refunded.RefundNo) != 32 {
		t.Errorf("unexpected refund state: %s %q", refunded.RefundStatus, refunded.RefundNo)
	}
	var extra map[string]string
	if err := json.Unmarshal(refunded.Extra, &extra); err != nil || extra["refund_reason"] != "damaged" {
		t.Errorf("extra = %s, want refund_reason", refunded.Extra)
	}

	if _, err := svc.ApplyRefund(ctx, 7, order.ID, "again"); !errors.Is(err, ErrRefundNotAllowed) {
		t.Errorf("second refund error = %v, want ErrRefundNotAllowed", err)
	}

	if err := svc.HandleRefundResult(ctx, refunded.RefundNo, true); err != nil {
		t.Fatalf("HandleRefundResult() error = %v", err)
	}
	if store.orders[order.ID].RefundStatus != models.RefundStatusSuccess {
		t.Errorf("refund status = %s, want success", store.orders[order.ID].RefundStatus)
	}
	if err := svc.HandleRefundResult(ctx, "unknown", false); err != nil {
		t.Errorf("unknown refund no should be ignored, got %v", err)
	}
}

func TestGetInstallment(t *testing.T) {
	store := newFakeStore()
	paidAt := serviceNow
	store.installments[3] = &models.Installment{ID: 3, UserID: 7, Status: models.InstallmentStatusRepaying}
	store.items[3] = []models.InstallmentItem{
		{ID: 1, InstallmentID: 3, Sequence: 0, Base: decimal.NewFromInt(100), Fee: decimal.NewFromInt(5), Fine: decimal.RequireFromString("1.05"), PaidAt: &paidAt},
		{ID: 2, InstallmentID: 3, Sequence: 1, Base: decimal.NewFromInt(100), Fee: decimal.NewFromInt(5), Fine: decimal.RequireFromString("3.15")},
	}
	svc := newTestService(store)

	view, err := svc.GetInstallment(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("GetInstallment() error = %v", err)
	}
	if view.TotalFine.String() != "4.2" {
		t.Errorf("TotalFine = %s, want 4.2", view.TotalFine)
	}
	if view.Outstanding.String() != "108.15" {
		t.Errorf("Outstanding = %s, want 108.15", view.Outstanding)
	}

	if _, err := svc.GetInstallment(context.Background(), 8, 3); !errors.Is(err, ErrInstallmentNotFound) {
		t.Errorf("foreign installment error = %v, want ErrInstallmentNotFound", err)
	}
	if _, err := svc.GetInstallment(context.Background(), 7, 99); !errors.Is(err, ErrInstallmentNotFound) {
		t.Errorf("missing installment error = %v, want ErrInstallmentNotFound", err)
	}
}
