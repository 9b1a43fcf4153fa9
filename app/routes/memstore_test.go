package routes_test

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bistroboss/bistro/app/models"
	"github.com/bistroboss/bistro/app/repositories"
)

// In-memory stores backing the route tests.

type memUsers struct {
	mu    sync.Mutex
	users []models.User
}

func (m *memUsers) All(context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.User{}, m.users...), nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, u *models.User) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return primitive.NilObjectID, repositories.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	m.users = append(m.users, *u)
	return u.ID, nil
}

func (m *memUsers) SetRole(_ context.Context, id primitive.ObjectID, role string) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == id {
			if m.users[i].Role == role {
				return 1, 0, nil
			}
			m.users[i].Role = role
			return 1, 1, nil
		}
	}
	return 0, 0, nil
}

func (m *memUsers) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

type memMenu struct {
	mu    sync.Mutex
	items []models.MenuItem
}

func (m *memMenu) All(context.Context) ([]models.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.MenuItem{}, m.items...), nil
}

func (m *memMenu) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.MenuItem{}
	for _, it := range m.items {
		for _, id := range ids {
			if it.ID == id {
				out = append(out, it)
				break
			}
		}
	}
	return out, nil
}

func (m *memMenu) Create(_ context.Context, item *models.MenuItem) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.ID = primitive.NewObjectID()
	m.items = append(m.items, *item)
	return item.ID, nil
}

func (m *memMenu) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, it := range m.items {
		if it.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *memMenu) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.items)), nil
}

type memReviews struct{}

func (memReviews) All(context.Context) ([]models.Review, error) {
	return []models.Review{{ID: primitive.NewObjectID(), Name: "Ana", Details: "Great soup", Rating: 5}}, nil
}

type memCarts struct {
	mu      sync.Mutex
	entries []models.CartEntry
}

func (m *memCarts) ByEmail(_ context.Context, email string) ([]models.CartEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.CartEntry{}
	for _, e := range m.entries {
		if e.Email == email {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memCarts) Create(_ context.Context, e *models.CartEntry) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = primitive.NewObjectID()
	m.entries = append(m.entries, *e)
	return e.ID, nil
}

func (m *memCarts) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	return m.DeleteMany(ctx, []primitive.ObjectID{id})
}

func (m *memCarts) DeleteMany(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	kept := m.entries[:0]
	var n int64
	for _, e := range m.entries {
		if drop[e.ID] {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return n, nil
}

type memPayments struct {
	mu       sync.Mutex
	payments []models.Payment
}

func (m *memPayments) Insert(_ context.Context, p *models.Payment) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.payments {
		if existing.TransactionID == p.TransactionID {
			return primitive.NilObjectID, repositories.ErrDuplicate
		}
	}
	p.ID = primitive.NewObjectID()
	m.payments = append(m.payments, *p)
	return p.ID, nil
}

func (m *memPayments) find(match func(models.Payment) bool) (models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if match(p) {
			return p, nil
		}
	}
	return models.Payment{}, repositories.ErrNotFound
}

func (m *memPayments) FindByID(_ context.Context, id primitive.ObjectID) (models.Payment, error) {
	return m.find(func(p models.Payment) bool { return p.ID == id })
}

func (m *memPayments) FindByTransactionID(_ context.Context, txID string) (models.Payment, error) {
	return m.find(func(p models.Payment) bool { return p.TransactionID == txID })
}

func (m *memPayments) ByEmail(_ context.Context, email string) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Payment{}
	for _, p := range m.payments {
		if p.Email == email {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPayments) MarkReconciled(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.payments {
		if m.payments[i].ID == id {
			m.payments[i].Reconciled = true
		}
	}
	return nil
}

func (m *memPayments) Unreconciled(context.Context, time.Time, int64) ([]models.Payment, error) {
	return []models.Payment{}, nil
}

func (m *memPayments) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.payments)), nil
}

func (m *memPayments) Revenue(context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total float64
	for _, p := range m.payments {
		total += p.Price
	}
	return total, nil
}

func (m *memPayments) ItemCounts(context.Context) ([]repositories.ItemCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[primitive.ObjectID]int64{}
	for _, p := range m.payments {
		for _, id := range p.MenuItemIDs {
			counts[id]++
		}
	}
	out := []repositories.ItemCount{}
	for id, n := range counts {
		out = append(out, repositories.ItemCount{MenuItemID: id, Count: n})
	}
	return out, nil
}

func (m *memPayments) SummaryByEmail(_ context.Context, email string) (repositories.PaymentSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s repositories.PaymentSummary
	for _, p := range m.payments {
		if p.Email == email {
			s.Payments++
			s.Items += int64(len(p.MenuItemIDs))
			s.Spent += p.Price
		}
	}
	return s, nil
}

type noTx struct{}

func (noTx) SupportsTransactions() bool { return false }

func (noTx) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type upPinger struct{ err error }

func (p upPinger) Ping(context.Context) error { return p.err }
