package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/trungpqhe173313/SEP490-sub002/internal/apperror"
	"github.com/trungpqhe173313/SEP490-sub002/internal/middleware"
	"github.com/trungpqhe173313/SEP490-sub002/internal/model"
	"github.com/trungpqhe173313/SEP490-sub002/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- fake services ---

type fakeLedger struct {
	service.InventoryLedger
	view func(productID int64, warehouseID *int64) (*model.StockView, error)
}

func (f *fakeLedger) GetStockView(_ context.Context, productID int64, warehouseID *int64) (*model.StockView, error) {
	return f.view(productID, warehouseID)
}

type fakeAdjustments struct {
	service.StockAdjustmentService
	create  func(req *model.CreateAdjustmentRequest, actor string) (*model.StockAdjustmentResponse, error)
	resolve func(id int64) (*model.StockAdjustmentResponse, error)
	remove  func(id int64) (bool, error)
}

func (f *fakeAdjustments) CreateDraft(_ context.Context, req *model.CreateAdjustmentRequest, actor string) (*model.StockAdjustmentResponse, error) {
	return f.create(req, actor)
}

func (f *fakeAdjustments) Resolve(_ context.Context, id int64, _ string) (*model.StockAdjustmentResponse, error) {
	return f.resolve(id)
}

func (f *fakeAdjustments) DeleteDraft(_ context.Context, id int64) (bool, error) {
	return f.remove(id)
}

type fakeProduction struct {
	service.ProductionService
	current func(deviceCode string) (*model.CurrentProductionResponse, error)
	submit  func(req *model.SubmitPackageRequest) (*model.PackageResponse, error)
	summary func(productionID int64) ([]model.ProductWeightSummary, error)
}

func (f *fakeProduction) GetCurrentProduction(_ context.Context, deviceCode string) (*model.CurrentProductionResponse, error) {
	return f.current(deviceCode)
}

func (f *fakeProduction) SubmitPackage(_ context.Context, req *model.SubmitPackageRequest) (*model.PackageResponse, error) {
	return f.submit(req)
}

func (f *fakeProduction) GetSummaryByProductionID(_ context.Context, productionID int64) ([]model.ProductWeightSummary, error) {
	return f.summary(productionID)
}

type fakeReturns struct {
	service.ReturnTransactionService
	detail func(id int64) (*model.ReturnTransactionDetailView, error)
	data   func(search model.ReturnTransactionSearch) (*model.Page[model.ReturnTransactionRow], error)
}

func (f *fakeReturns) GetDetail(_ context.Context, id int64) (*model.ReturnTransactionDetailView, error) {
	return f.detail(id)
}

func (f *fakeReturns) GetData(_ context.Context, search model.ReturnTransactionSearch) (*model.Page[model.ReturnTransactionRow], error) {
	return f.data(search)
}

type fakeUsers struct{}

func (fakeUsers) Create(context.Context, *model.User) error { return nil }
func (fakeUsers) FindByID(context.Context, int64) (*model.User, error) { return nil, gorm.ErrRecordNotFound }
func (fakeUsers) FindByIDs(context.Context, []int64) ([]model.User, error) { return nil, nil }
func (fakeUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	if email == "lead@example.com" {
		return &model.User{Email: email}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// --- harness ---

type fakes struct {
	ledger      *fakeLedger
	adjustments *fakeAdjustments
	production  *fakeProduction
	returns     *fakeReturns
}

func newTestApp(f fakes) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Use(recover.New())
	api := app.Group("/api/v1", middleware.IdentifyActor(fakeUsers{}))
	RegisterRoutes(api, Handlers{
		Inventory:   NewInventoryHandler(f.ledger),
		Adjustments: NewStockAdjustmentHandler(f.adjustments),
		Production:  NewProductionHandler(f.production),
		ReturnOrder: NewReturnOrderHandler(f.returns),
	})
	return app
}

type envelope struct {
	Success    bool            `json:"success"`
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Error      *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func do(t *testing.T, app *fiber.App, method, path, body string, headers ...string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, resp.StatusCode, env.StatusCode)
	return resp.StatusCode, env
}

// --- tests ---

func TestInventoryEndpoint(t *testing.T) {
	app := newTestApp(fakes{ledger: &fakeLedger{view: func(productID int64, warehouseID *int64) (*model.StockView, error) {
		if productID == 404 {
			return nil, apperror.NotFound("product not found")
		}
		return &model.StockView{ProductID: productID, WarehouseID: warehouseID, Quantity: 0}, nil
	}}})

	status, env := do(t, app, http.MethodGet, "/api/v1/inventory?productId=1&warehouseId=10", "")
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
	var view model.StockView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, int64(0), view.Quantity)
	require.NotNil(t, view.WarehouseID)
	assert.Equal(t, int64(10), *view.WarehouseID)

	status, env = do(t, app, http.MethodGet, "/api/v1/inventory?productId=404", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
	assert.Equal(t, "product not found", env.Error.Message)

	status, _ = do(t, app, http.MethodGet, "/api/v1/inventory", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodGet, "/api/v1/inventory?productId=abc", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestStockAdjustmentEndpoints(t *testing.T) {
	var gotActor string
	adjustments := &fakeAdjustments{
		create: func(req *model.CreateAdjustmentRequest, actor string) (*model.StockAdjustmentResponse, error) {
			gotActor = actor
			if len(req.Details) == 0 {
				return nil, apperror.Validation("details must not be empty")
			}
			return &model.StockAdjustmentResponse{ID: 1, WarehouseID: req.WarehouseID, Status: model.AdjustmentDraft}, nil
		},
		resolve: func(id int64) (*model.StockAdjustmentResponse, error) {
			if id == 2 {
				return nil, apperror.InvalidState("stock adjustment is already resolved")
			}
			return &model.StockAdjustmentResponse{ID: id, Status: model.AdjustmentResolved}, nil
		},
		remove: func(id int64) (bool, error) {
			return id != 2, nil
		},
	}
	app := newTestApp(fakes{adjustments: adjustments})

	status, env := do(t, app, http.MethodPost, "/api/v1/stock-adjustments",
		`{"warehouseId":10,"details":[{"productId":1,"actualQuantity":5}]}`,
		middleware.ActorHeader, "lead@example.com")
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
	assert.Equal(t, "lead@example.com", gotActor)

	status, env = do(t, app, http.MethodPost, "/api/v1/stock-adjustments", `{"warehouseId":10,"details":[]}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "details must not be empty", env.Error.Message)
	assert.Equal(t, "system", gotActor)

	status, _ = do(t, app, http.MethodPost, "/api/v1/stock-adjustments", `{"warehouseId":`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodPost, "/api/v1/stock-adjustments", `{}`, middleware.ActorHeader, "ghost@example.com")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = do(t, app, http.MethodPost, "/api/v1/stock-adjustments/1/resolve", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"status":"Resolved"`)

	status, env = do(t, app, http.MethodPost, "/api/v1/stock-adjustments/2/resolve", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "stock adjustment is already resolved", env.Error.Message)

	status, env = do(t, app, http.MethodDelete, "/api/v1/stock-adjustments/1", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "true", string(env.Data))

	status, env = do(t, app, http.MethodDelete, "/api/v1/stock-adjustments/2", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "false", string(env.Data))

	status, _ = do(t, app, http.MethodDelete, "/api/v1/stock-adjustments/zero", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestProductionEndpoints(t *testing.T) {
	production := &fakeProduction{
		current: func(deviceCode string) (*model.CurrentProductionResponse, error) {
			switch deviceCode {
			case "":
				return nil, apperror.Validation("deviceCode is required")
			case "SCALE-01":
				return &model.CurrentProductionResponse{Status: model.ProductionRunning, ProductionID: 99, DeviceCode: deviceCode}, nil
			default:
				return nil, apperror.Unavailable("device has no running production")
			}
		},
		submit: func(req *model.SubmitPackageRequest) (*model.PackageResponse, error) {
			if req.DeviceCode != "SCALE-01" {
				return nil, apperror.Unavailable("production session is not running on this device")
			}
			return &model.PackageResponse{ProductionID: req.ProductionID, ProductID: req.ProductID, BagIndex: 1, ActualWeight: req.Weight}, nil
		},
		summary: func(productionID int64) ([]model.ProductWeightSummary, error) {
			if productionID != 99 {
				return nil, apperror.NotFound("production not found")
			}
			return []model.ProductWeightSummary{{ProductionID: 99, ProductID: 123, TotalBags: 2, TotalWeight: decimal.NewFromInt(22)}}, nil
		},
	}
	app := newTestApp(fakes{production: production})

	status, _ := do(t, app, http.MethodGet, "/api/v1/production/current?deviceCode=", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodGet, "/api/v1/production/current?deviceCode=SCALE-09", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, env := do(t, app, http.MethodGet, "/api/v1/production/current?deviceCode=SCALE-01", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"productionId":99`)

	status, env = do(t, app, http.MethodPost, "/api/v1/production/package",
		`{"deviceCode":"SCALE-01","productionId":99,"productId":123,"weight":"25.100"}`)
	assert.Equal(t, http.StatusCreated, status)
	var pkg model.PackageResponse
	require.NoError(t, json.Unmarshal(env.Data, &pkg))
	assert.Equal(t, 1, pkg.BagIndex)
	assert.True(t, pkg.ActualWeight.Equal(decimal.RequireFromString("25.1")))

	status, _ = do(t, app, http.MethodPost, "/api/v1/production/package",
		`{"deviceCode":"SCALE-02","productionId":99,"productId":123,"weight":25}`)
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, _ = do(t, app, http.MethodPost, "/api/v1/production/package", `not json`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = do(t, app, http.MethodGet, "/api/v1/production-weight-log/summary/99", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"totalBags":2`)

	status, _ = do(t, app, http.MethodGet, "/api/v1/production-weight-log/summary/5", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestReturnOrderEndpoints(t *testing.T) {
	var lastSearch model.ReturnTransactionSearch
	returns := &fakeReturns{
		detail: func(id int64) (*model.ReturnTransactionDetailView, error) {
			switch {
			case id <= 0:
				return nil, apperror.Validation("invalid return transaction id")
			case id == 1:
				return &model.ReturnTransactionDetailView{ID: 1, TransactionID: 70}, nil
			case id == 2:
				return nil, apperror.NotFound("original transaction not found")
			case id == 3:
				return nil, apperror.Internal(errors.New("pq: connection refused"))
			default:
				return nil, apperror.NotFound("return transaction not found")
			}
		},
		data: func(search model.ReturnTransactionSearch) (*model.Page[model.ReturnTransactionRow], error) {
			lastSearch = search
			return &model.Page[model.ReturnTransactionRow]{Items: []model.ReturnTransactionRow{}, Page: search.Page, Limit: search.Limit}, nil
		},
	}
	app := newTestApp(fakes{returns: returns})

	status, _ := do(t, app, http.MethodGet, "/api/v1/return-orders/0", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodGet, "/api/v1/return-orders/1", "")
	assert.Equal(t, http.StatusOK, status)

	status, env := do(t, app, http.MethodGet, "/api/v1/return-orders/2", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "original transaction not found", env.Error.Message)

	status, env = do(t, app, http.MethodGet, "/api/v1/return-orders/9", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "return transaction not found", env.Error.Message)

	// Unclassified failures keep the observed 400 + message behaviour
	status, env = do(t, app, http.MethodGet, "/api/v1/return-orders/3", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "pq: connection refused", env.Error.Message)

	status, _ = do(t, app, http.MethodGet, "/api/v1/return-orders?warehouseId=10&reason=damaged&from=2026-03-01&page=2&limit=5", "")
	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, lastSearch.WarehouseID)
	assert.Equal(t, int64(10), *lastSearch.WarehouseID)
	assert.Equal(t, "damaged", lastSearch.Reason)
	require.NotNil(t, lastSearch.From)
	assert.Equal(t, 2, lastSearch.Page)
	assert.Equal(t, 5, lastSearch.Limit)

	status, _ = do(t, app, http.MethodGet, "/api/v1/return-orders?from=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	app := newTestApp(fakes{})
	status, env := do(t, app, http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
}
