package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"github.com/yashrajoria/storefront-backend/services/order-service/models"
	"github.com/yashrajoria/storefront-backend/services/order-service/repository"
	productmodels "github.com/yashrajoria/storefront-backend/services/product-service/models"
	"go.uber.org/zap"
)

const (
	RangeToday     = "today"
	Range7Days     = "7d"
	Range30Days    = "30d"
	RangeThisMonth = "this_month"
	RangeCustom    = "custom"

	maxCustomRangeDays = 366
	topProductsLimit   = 5
	lowStockLimit      = 20
)

var (
	ErrUnknownRange     = errors.New("range must be one of today, 7d, 30d, this_month, custom")
	ErrCustomRangeDates = errors.New("custom range needs from and to dates in YYYY-MM-DD format")
	ErrRangeOrder       = errors.New("from must not be after to")
	ErrRangeTooLong     = errors.New("custom range cannot exceed 366 days")
)

// DateRange is the half-open interval [From, To).
type DateRange struct {
	Preset string    `json:"preset"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
}

// Days is the number of calendar days the range covers.
func (r DateRange) Days() int {
	n := 0
	for d := r.From; d.Before(r.To); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ResolveDateRange turns a dashboard preset into concrete bounds in now's location.
// An empty preset means 30d. Custom ranges include the whole of the to day.
func ResolveDateRange(preset, from, to string, now time.Time) (DateRange, error) {
	today := startOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)

	switch preset {
	case RangeToday:
		return DateRange{Preset: preset, From: today, To: tomorrow}, nil
	case Range7Days:
		return DateRange{Preset: preset, From: today.AddDate(0, 0, -6), To: tomorrow}, nil
	case "", Range30Days:
		return DateRange{Preset: Range30Days, From: today.AddDate(0, 0, -29), To: tomorrow}, nil
	case RangeThisMonth:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return DateRange{Preset: preset, From: first, To: tomorrow}, nil
	case RangeCustom:
		if from == "" || to == "" {
			return DateRange{}, ErrCustomRangeDates
		}
		start, err := time.ParseInLocation(dateLayout, from, now.Location())
		if err != nil {
			return DateRange{}, ErrCustomRangeDates
		}
		end, err := time.ParseInLocation(dateLayout, to, now.Location())
		if err != nil {
			return DateRange{}, ErrCustomRangeDates
		}
		if start.After(end) {
			return DateRange{}, ErrRangeOrder
		}
		r := DateRange{Preset: preset, From: start, To: end.AddDate(0, 0, 1)}
		if r.Days() > maxCustomRangeDays {
			return DateRange{}, ErrRangeTooLong
		}
		return r, nil
	}
	return DateRange{}, ErrUnknownRange
}

type DailyPoint struct {
	Date    string `json:"date"`
	Orders  int64  `json:"orders"`
	Revenue int64  `json:"revenue"`
}

type LowStockProduct struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Stock int       `json:"stock"`
}

type DashboardStats struct {
	Range             DateRange               `json:"range"`
	TotalOrders       int64                   `json:"total_orders"`
	Revenue           int64                   `json:"revenue"`
	AverageOrderValue int64                   `json:"average_order_value"`
	OrdersByStatus    map[string]int64        `json:"orders_by_status"`
	Daily             []DailyPoint            `json:"daily"`
	TopProducts       []repository.TopProduct `json:"top_products"`
	NewUsers          int64                   `json:"new_users"`
	LowStock          []LowStockProduct       `json:"low_stock"`
}

type UserCounter interface {
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

type LowStockFinder interface {
	LowStock(ctx context.Context, threshold, limit int) ([]productmodels.Product, error)
}

type DashboardService struct {
	stats     *repository.StatsRepository
	users     UserCounter
	products  LowStockFinder
	threshold int
	logger    *zap.Logger
	now       func() time.Time
}

func NewDashboardService(stats *repository.StatsRepository, users UserCounter, products LowStockFinder, lowStockThreshold int, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		stats:     stats,
		users:     users,
		products:  products,
		threshold: lowStockThreshold,
		logger:    logger,
		now:       time.Now,
	}
}

// Stats aggregates orders, revenue, customers and inventory for the selected range.
// Revenue and average order value exclude cancelled orders.
func (s *DashboardService) Stats(ctx context.Context, preset, from, to string) (*DashboardStats, *apperrors.ServiceError) {
	r, err := ResolveDateRange(preset, from, to, s.now().UTC())
	if err != nil {
		return nil, apperrors.BadRequest(err.Error())
	}

	counts, err := s.stats.CountByStatus(ctx, r.From, r.To)
	if err != nil {
		return nil, apperrors.Internal("Failed to load order counts", err)
	}
	points, err := s.stats.Points(ctx, r.From, r.To)
	if err != nil {
		return nil, apperrors.Internal("Failed to load orders", err)
	}
	top, err := s.stats.TopProducts(ctx, r.From, r.To, topProductsLimit)
	if err != nil {
		return nil, apperrors.Internal("Failed to load top products", err)
	}
	newUsers, err := s.users.CountCreatedBetween(ctx, r.From, r.To)
	if err != nil {
		return nil, apperrors.Internal("Failed to count new users", err)
	}
	low, err := s.products.LowStock(ctx, s.threshold, lowStockLimit)
	if err != nil {
		return nil, apperrors.Internal("Failed to load low stock products", err)
	}

	out := &DashboardStats{
		Range:          r,
		OrdersByStatus: make(map[string]int64, len(counts)),
		TopProducts:    top,
		NewUsers:       newUsers,
		LowStock:       make([]LowStockProduct, 0, len(low)),
	}
	for _, c := range counts {
		out.OrdersByStatus[c.Status] = c.Count
		out.TotalOrders += c.Count
	}

	out.Daily, out.Revenue = dailySeries(r, points)
	if active := out.TotalOrders - out.OrdersByStatus[models.StatusCancelled]; active > 0 {
		out.AverageOrderValue = out.Revenue / active
	}
	for _, p := range low {
		out.LowStock = append(out.LowStock, LowStockProduct{ID: p.ID, Name: p.Name, Stock: p.Stock})
	}
	return out, nil
}

// dailySeries buckets points per day of r, zero-filling days without orders.
// Cancelled orders count towards orders but not revenue.
func dailySeries(r DateRange, points []repository.OrderPoint) ([]DailyPoint, int64) {
	loc := r.From.Location()
	series := make([]DailyPoint, 0, r.Days())
	index := make(map[string]int)
	for d := r.From; d.Before(r.To); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		index[key] = len(series)
		series = append(series, DailyPoint{Date: key})
	}

	var revenue int64
	for _, p := range points {
		i, ok := index[p.CreatedAt.In(loc).Format(dateLayout)]
		if !ok {
			continue
		}
		series[i].Orders++
		if p.Status != models.StatusCancelled {
			series[i].Revenue += p.Total
			revenue += p.Total
		}
	}
	return series, revenue
}
