package services

import (
	"context"
	"math"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/bistroboss/bistro/app/models"
	"github.com/bistroboss/bistro/pkg/cache"
	"github.com/bistroboss/bistro/pkg/logger"
)

const adminStatsKey = "stats:admin"

// Counter is anything that reports a document count.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// StatsService computes dashboard numbers. Counts are approximate
// (estimated document counts); revenue and category totals are exact.
type StatsService struct {
	users    Counter
	menu     MenuStore
	payments PaymentStore
	cache    *cache.Store
	ttl      time.Duration
}

// NewStatsService wires the aggregator. store may be nil to disable caching.
func NewStatsService(users Counter, menu MenuStore, payments PaymentStore, store *cache.Store, ttl time.Duration) *StatsService {
	return &StatsService{users: users, menu: menu, payments: payments, cache: store, ttl: ttl}
}

// Admin returns store-wide totals. Revenue over zero payments is 0.
func (s *StatsService) Admin(ctx context.Context) (models.AdminStats, error) {
	if s.ttl <= 0 {
		return s.computeAdmin(ctx)
	}
	return cache.Remember(ctx, s.cache, adminStatsKey, s.ttl, s.computeAdmin)
}

func (s *StatsService) computeAdmin(ctx context.Context) (models.AdminStats, error) {
	var out models.AdminStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) { out.Users, err = s.users.Count(gctx); return })
	g.Go(func() (err error) { out.MenuItems, err = s.menu.Count(gctx); return })
	g.Go(func() (err error) { out.Orders, err = s.payments.Count(gctx); return })
	g.Go(func() (err error) { out.Revenue, err = s.payments.Revenue(gctx); return })

	if err := g.Wait(); err != nil {
		return models.AdminStats{}, err
	}
	return out, nil
}

// InvalidateAdmin drops the cached admin totals.
func (s *StatsService) InvalidateAdmin(ctx context.Context) {
	if err := s.cache.Forget(ctx, adminStatsKey); err != nil {
		logger.WithCtx(ctx).Warn("stats: cache invalidation failed", "error", err)
	}
}

// User returns the purchase summary of email. The menu size is global.
func (s *StatsService) User(ctx context.Context, email string) (models.UserStats, error) {
	var out models.UserStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) { out.Menu, err = s.menu.Count(gctx); return })
	g.Go(func() error {
		sum, err := s.payments.SummaryByEmail(gctx, email)
		if err != nil {
			return err
		}
		out.Orders = sum.Items
		out.Payments = sum.Payments
		out.Spent = round2(sum.Spent)
		return nil
	})

	if err := g.Wait(); err != nil {
		return models.UserStats{}, err
	}
	return out, nil
}

// OrdersByCategory groups every purchased menu item by category. Each row
// counts purchased units and sums their current menu prices, rounded to two
// decimals. Categories with no sales and items no longer on the menu are
// omitted. Rows are sorted by category.
func (s *StatsService) OrdersByCategory(ctx context.Context) ([]models.CategoryStats, error) {
	counts, err := s.payments.ItemCounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(counts) == 0 {
		return []models.CategoryStats{}, nil
	}

	ids := make([]primitive.ObjectID, 0, len(counts))
	for _, c := range counts {
		ids = append(ids, c.MenuItemID)
	}
	items, err := s.menu.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]models.MenuItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	rows := map[string]*models.CategoryStats{}
	for _, c := range counts {
		item, ok := byID[c.MenuItemID]
		if !ok || c.Count <= 0 {
			continue
		}
		row := rows[item.Category]
		if row == nil {
			row = &models.CategoryStats{Category: item.Category}
			rows[item.Category] = row
		}
		row.Count += c.Count
		row.Total += item.Price * float64(c.Count)
	}

	out := make([]models.CategoryStats, 0, len(rows))
	for _, row := range rows {
		row.Total = round2(row.Total)
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
