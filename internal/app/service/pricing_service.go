package service

import (
	"context"
	"errors"
	"time"

	"github.com/anufa/anufa-backend/internal/app/model"
	apperrors "github.com/anufa/anufa-backend/internal/errors"
	"github.com/anufa/anufa-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

type PricingFactors struct {
	ChurnRiskAdjustment bool `json:"churn_risk_adjustment"`
	HighValueCustomer   bool `json:"high_value_customer"`
	LifecycleDiscount   bool `json:"lifecycle_discount"`
	// NewCustomer is set when no profile exists yet and the base price applies.
	NewCustomer bool `json:"new_customer,omitempty"`
}

type PriceQuote struct {
	ProductID          uint            `json:"product_id"`
	BasePrice          decimal.Decimal `json:"base_price"`
	PersonalizedPrice  decimal.Decimal `json:"personalized_price"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	Factors            PricingFactors  `json:"pricing_factors"`
	GeneratedAt        time.Time       `json:"generated_at"`
}

type PricingService interface {
	Quote(ctx context.Context, userID, productID uint) (*PriceQuote, error)
}

// ProfileRefresher returns a profile with time-dependent metrics brought up
// to date. PersonalizationService satisfies it.
type ProfileRefresher interface {
	RefreshProfile(ctx context.Context, userID uint) (*model.CustomerProfile, error)
}

type pricingService struct {
	products ProductService
	profiles ProfileRefresher
}

func NewPricingService(products ProductService, profiles ProfileRefresher) PricingService {
	return &pricingService{products: products, profiles: profiles}
}

var (
	churnDiscount    = decimal.RequireFromString("0.85")
	highValuePremium = decimal.RequireFromString("1.05")
	newCustomerRate  = decimal.RequireFromString("0.90")
	championRate     = decimal.RequireFromString("0.95")
	hundred          = decimal.NewFromInt(100)
)

// priceMultiplier composes the profile adjustments in a fixed order.
func priceMultiplier(p *model.CustomerProfile) (decimal.Decimal, PricingFactors) {
	m := decimal.NewFromInt(1)
	f := PricingFactors{}
	if p.ChurnRisk > 0.6 {
		m = m.Mul(churnDiscount)
		f.ChurnRiskAdjustment = true
	}
	if p.PredictedLTV > 1000 {
		m = m.Mul(highValuePremium)
		f.HighValueCustomer = true
	}
	switch p.LifecycleStage {
	case model.LifecycleNew:
		m = m.Mul(newCustomerRate)
		f.LifecycleDiscount = true
	case model.LifecycleChampion:
		m = m.Mul(championRate)
		f.LifecycleDiscount = true
	}
	return m, f
}

func (s *pricingService) Quote(ctx context.Context, userID, productID uint) (*PriceQuote, error) {
	product, err := s.products.GetProductByID(productID)
	if err != nil {
		return nil, err
	}

	quote := &PriceQuote{
		ProductID:         product.ID,
		BasePrice:         product.Price,
		PersonalizedPrice: product.Price,
		GeneratedAt:       time.Now().UTC(),
	}

	p, err := s.profiles.RefreshProfile(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		quote.Factors.NewCustomer = true
		return quote, nil
	}
	if err != nil {
		return nil, err
	}

	multiplier, factors := priceMultiplier(p)
	quote.Factors = factors
	quote.PersonalizedPrice = roundCents(product.Price.Mul(multiplier))
	quote.DiscountAmount = product.Price.Sub(quote.PersonalizedPrice)
	if quote.DiscountAmount.IsPositive() && product.Price.IsPositive() {
		quote.DiscountPercentage = quote.DiscountAmount.Div(product.Price).Mul(hundred).Round(1)
	}

	logger.Debug("Price quoted", map[string]interface{}{
		"user_id":            userID,
		"product_id":         productID,
		"multiplier":         multiplier,
		"personalized_price": quote.PersonalizedPrice,
	})
	return quote, nil
}
