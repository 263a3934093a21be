package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/trungpqhe173313/SEP490-sub002/internal/apperror"
	"github.com/trungpqhe173313/SEP490-sub002/internal/lock"
	"github.com/trungpqhe173313/SEP490-sub002/internal/model"
	"github.com/trungpqhe173313/SEP490-sub002/internal/repository"
	"github.com/trungpqhe173313/SEP490-sub002/internal/ws"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// maxBagAttempts bounds retries when a concurrent insert took the same bag index.
const maxBagAttempts = 3

type ProductionService interface {
	GetCurrentProduction(ctx context.Context, deviceCode string) (*model.CurrentProductionResponse, error)
	SubmitPackage(ctx context.Context, req *model.SubmitPackageRequest) (*model.PackageResponse, error)
	GetSummaryByProductionID(ctx context.Context, productionID int64) ([]model.ProductWeightSummary, error)
	ListPackages(ctx context.Context, productionID int64, productID *int64) ([]model.PackageResponse, error)
}

type productionService struct {
	productionRepo repository.ProductionRepository
	locker         lock.Locker
	events         ws.Publisher
}

func NewProductionService(repo repository.ProductionRepository, locker lock.Locker, events ws.Publisher) ProductionService {
	return &productionService{
		productionRepo: repo,
		locker:         locker,
		events:         events,
	}
}

func bagLockKey(productionID, productID int64) string {
	return fmt.Sprintf("production:%d:product:%d", productionID, productID)
}

func (s *productionService) GetCurrentProduction(ctx context.Context, deviceCode string) (*model.CurrentProductionResponse, error) {
	deviceCode = strings.TrimSpace(deviceCode)
	if deviceCode == "" {
		return nil, apperror.Validation("deviceCode is required")
	}

	session, err := s.productionRepo.FindRunningByDevice(ctx, deviceCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unavailable(fmt.Sprintf("device %s has no running production", deviceCode))
		}
		return nil, apperror.Internal(err)
	}

	resp := &model.CurrentProductionResponse{
		Status:         session.Status,
		ProductionID:   session.ID,
		DeviceCode:     session.DeviceCode,
		StartedAt:      session.StartedAt,
		TargetProducts: make([]model.TargetProductView, 0, len(session.Targets)),
	}
	for _, t := range session.Targets {
		view := model.TargetProductView{
			ProductID:    t.ProductID,
			TargetWeight: t.TargetWeight,
			TargetBags:   t.TargetBags,
		}
		if t.Product != nil {
			view.ProductCode = t.Product.Code
			view.ProductName = t.Product.Name
		}
		resp.TargetProducts = append(resp.TargetProducts, view)
	}
	return resp, nil
}

func (s *productionService) SubmitPackage(ctx context.Context, req *model.SubmitPackageRequest) (*model.PackageResponse, error) {
	if req == nil {
		return nil, apperror.Validation("request body is required")
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	deviceCode := strings.TrimSpace(req.DeviceCode)

	session, err := s.productionRepo.FindByID(ctx, req.ProductionID)
	if err != nil {
		return nil, lookupErr(err, "production not found")
	}
	if !session.IsRunning() {
		return nil, apperror.Unavailable(fmt.Sprintf("production %d is not running", session.ID))
	}
	if session.DeviceCode != deviceCode {
		return nil, apperror.Conflict(fmt.Sprintf("production %d is not running on device %s", session.ID, deviceCode))
	}
	target, ok := session.Target(req.ProductID)
	if !ok {
		return nil, apperror.Validation(fmt.Sprintf("product %d is not a target of production %d", req.ProductID, session.ID))
	}

	sub := &model.PackageSubmission{
		ProductionID: req.ProductionID,
		ProductID:    req.ProductID,
		ActualWeight: req.Weight,
		TargetWeight: target.TargetWeight,
		DeviceCode:   deviceCode,
	}

	err = lock.With(ctx, s.locker, bagLockKey(req.ProductionID, req.ProductID), func() error {
		var err error
		for attempt := 1; attempt <= maxBagAttempts; attempt++ {
			sub.ID = uuid.Nil
			err = s.productionRepo.AppendPackage(ctx, sub)
			if err == nil || !repository.IsUniqueViolation(err) {
				return err
			}
			log.Warn().Int64("production_id", sub.ProductionID).Int64("product_id", sub.ProductID).Int("attempt", attempt).Msg("bag index taken, retrying")
		}
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSessionNotRunning):
			return nil, apperror.Unavailable(err.Error())
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperror.Validation(fmt.Sprintf("product %d is not a target of production %d", req.ProductID, req.ProductionID))
		case errors.Is(err, lock.ErrNotObtained), repository.IsUniqueViolation(err):
			return nil, apperror.Conflict("bag sequence is busy, retry the submission")
		default:
			return nil, apperror.Internal(err)
		}
	}

	resp := sub.ToResponse()
	log.Info().
		Int64("production_id", sub.ProductionID).
		Int64("product_id", sub.ProductID).
		Int("bag_index", sub.BagIndex).
		Str("weight", sub.ActualWeight.String()).
		Msg("package captured")
	if s.events != nil {
		s.events.Publish(ws.NewEvent(ws.TypeProductionUpdate, "package_captured", resp))
	}
	return &resp, nil
}

func (s *productionService) GetSummaryByProductionID(ctx context.Context, productionID int64) ([]model.ProductWeightSummary, error) {
	if productionID <= 0 {
		return nil, apperror.Validation("invalid production id")
	}
	session, err := s.productionRepo.FindByID(ctx, productionID)
	if err != nil {
		return nil, lookupErr(err, "production not found")
	}

	totals, err := s.productionRepo.SummarizeByProduction(ctx, productionID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	byProduct := make(map[int64]repository.WeightTotals, len(totals))
	for _, t := range totals {
		byProduct[t.ProductID] = t
	}

	out := make([]model.ProductWeightSummary, 0, len(session.Targets))
	for _, t := range session.Targets {
		summary := model.ProductWeightSummary{
			ProductionID: productionID,
			ProductID:    t.ProductID,
			TotalWeight:  decimal.Zero,
			TargetWeight: t.TargetWeight,
			TargetBags:   t.TargetBags,
		}
		if t.Product != nil {
			summary.ProductName = t.Product.Name
		}
		if agg, ok := byProduct[t.ProductID]; ok {
			summary.TotalBags = agg.TotalBags
			summary.TotalWeight = agg.TotalWeight
			delete(byProduct, t.ProductID)
		}
		out = append(out, summary)
	}

	// Submissions for products dropped from the target list still count
	for _, t := range totals {
		if _, ok := byProduct[t.ProductID]; !ok {
			continue
		}
		out = append(out, model.ProductWeightSummary{
			ProductionID: productionID,
			ProductID:    t.ProductID,
			TotalBags:    t.TotalBags,
			TotalWeight:  t.TotalWeight,
			TargetWeight: decimal.Zero,
		})
	}
	return out, nil
}

func (s *productionService) ListPackages(ctx context.Context, productionID int64, productID *int64) ([]model.PackageResponse, error) {
	if productionID <= 0 {
		return nil, apperror.Validation("invalid production id")
	}
	if _, err := s.productionRepo.FindByID(ctx, productionID); err != nil {
		return nil, lookupErr(err, "production not found")
	}

	subs, err := s.productionRepo.ListPackages(ctx, productionID, productID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	out := make([]model.PackageResponse, 0, len(subs))
	for i := range subs {
		out = append(out, subs[i].ToResponse())
	}
	return out, nil
}
