package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
	"github.com/99minutos/shipment-lifecycle/internal/core/ports"
)

// DefaultMaxWeightKg is the heaviest package any service accepts.
const DefaultMaxWeightKg = 1000

// RateEngine prices a package against a catalog. It holds no state besides
// its limits and never touches storage.
type RateEngine struct {
	maxWeight decimal.Decimal
}

// NewRateEngine returns a RateEngine accepting packages up to maxWeightKg.
// Non-positive values fall back to DefaultMaxWeightKg.
func NewRateEngine(maxWeightKg float64) RateEngine {
	if maxWeightKg <= 0 {
		maxWeightKg = DefaultMaxWeightKg
	}
	return RateEngine{maxWeight: decimal.NewFromFloat(maxWeightKg)}
}

// ValidatePackage rejects non-positive or overweight packages and non-positive dimensions.
func (e RateEngine) ValidatePackage(pkg ports.PackageInput) error {
	weight := decimal.NewFromFloat(pkg.WeightKg)
	if !weight.IsPositive() {
		return fmt.Errorf("%w: weight must be greater than 0", domain.ErrInvalidPackage)
	}
	if weight.GreaterThan(e.maxWeight) {
		return fmt.Errorf("%w: weight must not exceed %s kg", domain.ErrInvalidPackage, e.maxWeight)
	}
	if pkg.LengthCm <= 0 || pkg.WidthCm <= 0 || pkg.HeightCm <= 0 {
		return fmt.Errorf("%w: dimensions must be greater than 0", domain.ErrInvalidPackage)
	}
	return nil
}

// Quote prices every active service type for req. Costs are
// base_rate + rate_per_kg * weight rounded half-up to cents; delivery dates
// are calendar days after quoteDate. The result is ordered by cost, then
// fastest minimum transit time, then service code.
func (e RateEngine) Quote(catalog []domain.ServiceType, req ports.RateRequest, quoteDate time.Time) ([]domain.Rate, error) {
	if err := e.ValidatePackage(req.Package); err != nil {
		return nil, err
	}

	weight := decimal.NewFromFloat(req.Package.WeightKg)
	y, m, d := quoteDate.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	rates := make([]domain.Rate, 0, len(catalog))
	for _, st := range catalog {
		if !st.Active {
			continue
		}
		rates = append(rates, domain.Rate{
			ServiceTypeID:        st.ID,
			ServiceName:          st.Name,
			ServiceCode:          st.Code,
			Cost:                 st.BaseRate.Add(st.RatePerKg.Mul(weight)).Round(2),
			EstimatedDaysMin:     st.EstimatedDaysMin,
			EstimatedDaysMax:     st.EstimatedDaysMax,
			EstimatedDeliveryMin: day.AddDate(0, 0, st.EstimatedDaysMin),
			EstimatedDeliveryMax: day.AddDate(0, 0, st.EstimatedDaysMax),
		})
	}

	sort.Slice(rates, func(i, j int) bool {
		if c := rates[i].Cost.Cmp(rates[j].Cost); c != 0 {
			return c < 0
		}
		if rates[i].EstimatedDaysMin != rates[j].EstimatedDaysMin {
			return rates[i].EstimatedDaysMin < rates[j].EstimatedDaysMin
		}
		return rates[i].ServiceCode < rates[j].ServiceCode
	})
	return rates, nil
}

type rateService struct {
	catalog ports.ServiceTypeRepository
	engine  RateEngine
	now     func() time.Time
}

// NewRateService returns a RateService quoting against the active catalog.
func NewRateService(catalog ports.ServiceTypeRepository, engine RateEngine) ports.RateService {
	return &rateService{
		catalog: catalog,
		engine:  engine,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *rateService) Quote(ctx context.Context, req ports.RateRequest) ([]domain.Rate, error) {
	if err := s.engine.ValidatePackage(req.Package); err != nil {
		return nil, fmt.Errorf("quote: %w", err)
	}
	catalog, err := s.catalog.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("quote: %w", err)
	}
	rates, err := s.engine.Quote(catalog, req, s.now())
	if err != nil {
		return nil, fmt.Errorf("quote: %w", err)
	}
	return rates, nil
}
