package services_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bistroboss/bistro/app/models"
	"github.com/bistroboss/bistro/app/repositories"
	"github.com/bistroboss/bistro/pkg/payment"
	"github.com/bistroboss/bistro/pkg/queue"
)

// ─── users ───────────────────────────────────────────────────────────────────

type fakeUsers struct {
	mu    sync.Mutex
	users []models.User
}

func (f *fakeUsers) All(context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.User{}, f.users...), nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repositories.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	f.users = append(f.users, *user)
	return user.ID, nil
}

func (f *fakeUsers) SetRole(_ context.Context, id primitive.ObjectID, role string) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, u := range f.users {
		if u.ID == id {
			if u.Role == role {
				return 1, 0, nil
			}
			f.users[i].Role = role
			return 1, 1, nil
		}
	}
	return 0, 0, nil
}

func (f *fakeUsers) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.users)), nil
}

// ─── menu ────────────────────────────────────────────────────────────────────

type fakeMenu struct {
	mu    sync.Mutex
	items []models.MenuItem
}

func (f *fakeMenu) add(name, category string, price float64) primitive.ObjectID {
	item := models.MenuItem{ID: primitive.NewObjectID(), Name: name, Category: category, Price: price}
	f.items = append(f.items, item)
	return item.ID
}

func (f *fakeMenu) All(context.Context) ([]models.MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.MenuItem{}, f.items...), nil
}

func (f *fakeMenu) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := []models.MenuItem{}
	for _, it := range f.items {
		if want[it.ID] {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeMenu) Create(_ context.Context, item *models.MenuItem) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item.ID = primitive.NewObjectID()
	f.items = append(f.items, *item)
	return item.ID, nil
}

func (f *fakeMenu) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, it := range f.items {
		if it.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeMenu) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.items)), nil
}

type fakeReviews struct{ reviews []models.Review }

func (f *fakeReviews) All(context.Context) ([]models.Review, error) { return f.reviews, nil }

// ─── carts ───────────────────────────────────────────────────────────────────

type fakeCarts struct {
	mu        sync.Mutex
	entries   map[primitive.ObjectID]models.CartEntry
	deleteErr error
}

func newFakeCarts() *fakeCarts {
	return &fakeCarts{entries: map[primitive.ObjectID]models.CartEntry{}}
}

func (f *fakeCarts) add(email string, menuID primitive.ObjectID, price float64) primitive.ObjectID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := primitive.NewObjectID()
	f.entries[id] = models.CartEntry{ID: id, Email: email, MenuItemID: menuID, Price: price}
	return id
}

func (f *fakeCarts) ByEmail(_ context.Context, email string) ([]models.CartEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.CartEntry{}
	for _, e := range f.entries {
		if e.Email == email {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (f *fakeCarts) Create(_ context.Context, entry *models.CartEntry) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = primitive.NewObjectID()
	f.entries[entry.ID] = *entry
	return entry.ID, nil
}

func (f *fakeCarts) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[id]; !ok {
		return 0, nil
	}
	delete(f.entries, id)
	return 1, nil
}

func (f *fakeCarts) DeleteMany(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	var n int64
	for _, id := range ids {
		if _, ok := f.entries[id]; ok {
			delete(f.entries, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeCarts) snapshot() map[primitive.ObjectID]models.CartEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[primitive.ObjectID]models.CartEntry, len(f.entries))
	for k, v := range f.entries {
		out[k] = v
	}
	return out
}

func (f *fakeCarts) restore(s map[primitive.ObjectID]models.CartEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = s
}

// ─── payments ────────────────────────────────────────────────────────────────

type fakePayments struct {
	mu       sync.Mutex
	payments []models.Payment
	markErr  error
}

func (f *fakePayments) Insert(_ context.Context, p *models.Payment) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.payments {
		if existing.TransactionID == p.TransactionID {
			return primitive.NilObjectID, repositories.ErrDuplicate
		}
	}
	p.ID = primitive.NewObjectID()
	f.payments = append(f.payments, *p)
	return p.ID, nil
}

func (f *fakePayments) find(match func(models.Payment) bool) (models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if match(p) {
			return p, nil
		}
	}
	return models.Payment{}, repositories.ErrNotFound
}

func (f *fakePayments) FindByID(_ context.Context, id primitive.ObjectID) (models.Payment, error) {
	return f.find(func(p models.Payment) bool { return p.ID == id })
}

func (f *fakePayments) FindByTransactionID(_ context.Context, txID string) (models.Payment, error) {
	return f.find(func(p models.Payment) bool { return p.TransactionID == txID })
}

func (f *fakePayments) ByEmail(_ context.Context, email string) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Payment{}
	for _, p := range f.payments {
		if p.Email == email {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePayments) MarkReconciled(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	for i := range f.payments {
		if f.payments[i].ID == id {
			f.payments[i].Reconciled = true
		}
	}
	return nil
}

func (f *fakePayments) Unreconciled(_ context.Context, cutoff time.Time, limit int64) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Payment{}
	for _, p := range f.payments {
		if !p.Reconciled && p.CreatedAt.Before(cutoff) && int64(len(out)) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePayments) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.payments)), nil
}

func (f *fakePayments) Revenue(context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total float64
	for _, p := range f.payments {
		total += p.Price
	}
	return total, nil
}

func (f *fakePayments) ItemCounts(context.Context) ([]repositories.ItemCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[primitive.ObjectID]int64{}
	var order []primitive.ObjectID
	for _, p := range f.payments {
		for _, id := range p.MenuItemIDs {
			if counts[id] == 0 {
				order = append(order, id)
			}
			counts[id]++
		}
	}
	out := []repositories.ItemCount{}
	for _, id := range order {
		out = append(out, repositories.ItemCount{MenuItemID: id, Count: counts[id]})
	}
	return out, nil
}

func (f *fakePayments) SummaryByEmail(_ context.Context, email string) (repositories.PaymentSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var s repositories.PaymentSummary
	for _, p := range f.payments {
		if p.Email == email {
			s.Payments++
			s.Items += int64(len(p.MenuItemIDs))
			s.Spent += p.Price
		}
	}
	return s, nil
}

func (f *fakePayments) snapshot() []models.Payment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Payment{}, f.payments...)
}

func (f *fakePayments) restore(s []models.Payment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments = s
}

// ─── transactions, queue, provider ───────────────────────────────────────────

// fakeTx rolls both stores back when fn fails.
type fakeTx struct {
	supported bool
	payments  *fakePayments
	carts     *fakeCarts
	calls     int
}

func (f *fakeTx) SupportsTransactions() bool { return f.supported }

func (f *fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	ps, cs := f.payments.snapshot(), f.carts.snapshot()
	if err := fn(ctx); err != nil {
		f.payments.restore(ps)
		f.carts.restore(cs)
		return err
	}
	return nil
}

type fakeDispatcher struct {
	mu   sync.Mutex
	jobs []queue.Job
}

func (f *fakeDispatcher) Dispatch(_ context.Context, job queue.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

type fakeProvider struct {
	last payment.IntentRequest
	err  error
}

func (f *fakeProvider) CreateIntent(_ context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret", Amount: req.Amount, Currency: req.Currency}, nil
}

var errStoreDown = errors.New("store down")
