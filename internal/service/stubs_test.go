package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/trungpqhe173313/SEP490-sub002/internal/model"
	"github.com/trungpqhe173313/SEP490-sub002/internal/repository"
	"github.com/trungpqhe173313/SEP490-sub002/internal/ws"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repositories honouring the gorm repository contracts, including
// rollback of everything a failed transaction callback touched.

var (
	_ repository.InventoryRepository         = (*stubInventoryRepo)(nil)
	_ repository.ProductRepository           = (*stubProductRepo)(nil)
	_ repository.WarehouseRepository         = (*stubWarehouseRepo)(nil)
	_ repository.StockAdjustmentRepository   = (*stubAdjustmentRepo)(nil)
	_ repository.ProductionRepository        = (*stubProductionRepo)(nil)
	_ repository.TransactionRepository       = (*stubTransactionRepo)(nil)
	_ repository.ReturnTransactionRepository = (*stubReturnRepo)(nil)
	_ repository.UserRepository              = (*stubUserRepo)(nil)
	_ repository.SupplierRepository          = (*stubSupplierRepo)(nil)
	_ ws.Publisher                           = (*recordingPublisher)(nil)
)

// --- inventory ---

type stubInventoryRepo struct {
	mu   sync.Mutex
	rows map[model.StockKey]int64
	err  error
}

func newStubInventoryRepo() *stubInventoryRepo {
	return &stubInventoryRepo{rows: make(map[model.StockKey]int64)}
}

func (r *stubInventoryRepo) set(productID, warehouseID, qty int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[model.StockKey{ProductID: productID, WarehouseID: warehouseID}] = qty
}

func (r *stubInventoryRepo) get(productID, warehouseID int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[model.StockKey{ProductID: productID, WarehouseID: warehouseID}]
}

func (r *stubInventoryRepo) snapshot() map[model.StockKey]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[model.StockKey]int64, len(r.rows))
	for k, v := range r.rows {
		out[k] = v
	}
	return out
}

func (r *stubInventoryRepo) FindQuantity(_ context.Context, productID, warehouseID int64) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	return r.get(productID, warehouseID), nil
}

func (r *stubInventoryRepo) SumByProduct(_ context.Context, productID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for k, v := range r.rows {
		if k.ProductID == productID {
			total += v
		}
	}
	return total, nil
}

func (r *stubInventoryRepo) ListByProduct(_ context.Context, productID int64) ([]model.InventoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.InventoryRecord
	for k, v := range r.rows {
		if k.ProductID == productID {
			out = append(out, model.InventoryRecord{ProductID: k.ProductID, WarehouseID: k.WarehouseID, Quantity: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WarehouseID < out[j].WarehouseID })
	return out, nil
}

func (r *stubInventoryRepo) ApplyDeltas(_ context.Context, deltas []model.StockDelta) ([]model.InventoryRecord, error) {
	return r.ApplyDeltasTx(nil, deltas)
}

// ApplyDeltasTx validates every entry before writing any of them.
func (r *stubInventoryRepo) ApplyDeltasTx(_ *gorm.DB, deltas []model.StockDelta) ([]model.InventoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}

	staged := make([]model.InventoryRecord, 0, len(deltas))
	for i, d := range deltas {
		current := r.rows[d.Key()]
		if current+d.Low() < 0 {
			return nil, &repository.NegativeStockError{Key: d.Key(), Current: current, Delta: d.Low(), Position: i}
		}
		staged = append(staged, model.InventoryRecord{ProductID: d.ProductID, WarehouseID: d.WarehouseID, Quantity: current + d.Delta, UpdatedAt: time.Now()})
	}
	for _, s := range staged {
		r.rows[model.StockKey{ProductID: s.ProductID, WarehouseID: s.WarehouseID}] = s.Quantity
	}
	return staged, nil
}

// --- catalog lookups ---

type stubProductRepo struct {
	products map[int64]model.Product
}

func newStubProductRepo(products ...model.Product) *stubProductRepo {
	r := &stubProductRepo{products: make(map[int64]model.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	r.products[p.ID] = *p
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id int64) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *stubProductRepo) FindByIDs(_ context.Context, ids []int64) ([]model.Product, error) {
	seen := make(map[int64]bool)
	var out []model.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) FindByCode(_ context.Context, code string) (*model.Product, error) {
	for _, p := range r.products {
		if p.Code == code {
			p := p
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type stubWarehouseRepo struct {
	warehouses map[int64]model.Warehouse
}

func newStubWarehouseRepo(warehouses ...model.Warehouse) *stubWarehouseRepo {
	r := &stubWarehouseRepo{warehouses: make(map[int64]model.Warehouse)}
	for _, w := range warehouses {
		r.warehouses[w.ID] = w
	}
	return r
}

func (r *stubWarehouseRepo) Create(_ context.Context, w *model.Warehouse) error {
	r.warehouses[w.ID] = *w
	return nil
}

func (r *stubWarehouseRepo) FindByID(_ context.Context, id int64) (*model.Warehouse, error) {
	w, ok := r.warehouses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &w, nil
}

func (r *stubWarehouseRepo) FindByIDs(_ context.Context, ids []int64) ([]model.Warehouse, error) {
	seen := make(map[int64]bool)
	var out []model.Warehouse
	for _, id := range ids {
		if w, ok := r.warehouses[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, w)
		}
	}
	return out, nil
}

type stubUserRepo struct {
	users map[int64]model.User
}

func newStubUserRepo(users ...model.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[int64]model.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	r.users[u.ID] = *u
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *stubUserRepo) FindByIDs(_ context.Context, ids []int64) ([]model.User, error) {
	var out []model.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type stubSupplierRepo struct {
	suppliers map[int64]model.Supplier
}

func (r *stubSupplierRepo) FindByID(_ context.Context, id int64) (*model.Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

// --- stock adjustments ---

type stubAdjustmentRepo struct {
	mu      sync.Mutex
	nextID  int64
	items   map[int64]model.StockAdjustment
	deleted map[int64]bool // staged by DeleteTx, applied when WithLocked commits
}

func newStubAdjustmentRepo() *stubAdjustmentRepo {
	return &stubAdjustmentRepo{items: make(map[int64]model.StockAdjustment), deleted: make(map[int64]bool)}
}

func cloneAdjustment(a model.StockAdjustment) model.StockAdjustment {
	a.Details = append([]model.StockAdjustmentDetail(nil), a.Details...)
	return a
}

func (r *stubAdjustmentRepo) Create(_ context.Context, adj *model.StockAdjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	adj.ID = r.nextID
	adj.CreatedAt = time.Now()
	adj.UpdatedAt = adj.CreatedAt
	for i := range adj.Details {
		adj.Details[i].ID = adj.ID*100 + int64(i) + 1
		adj.Details[i].StockAdjustmentID = adj.ID
	}
	r.items[adj.ID] = cloneAdjustment(*adj)
	return nil
}

func (r *stubAdjustmentRepo) FindByID(_ context.Context, id int64) (*model.StockAdjustment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	a = cloneAdjustment(a)
	return &a, nil
}

func (r *stubAdjustmentRepo) List(_ context.Context, filter model.StockAdjustmentFilter) ([]model.StockAdjustment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []model.StockAdjustment
	for _, a := range r.items {
		if filter.WarehouseID != nil && a.WarehouseID != *filter.WarehouseID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		matched = append(matched, cloneAdjustment(a))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := int64(len(matched))
	paging := filter.Paging.Normalize()
	start := paging.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + paging.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// WithLocked serialises callers on the repo mutex and commits the working copy only on success.
func (r *stubAdjustmentRepo) WithLocked(_ context.Context, id int64, fn func(tx *gorm.DB, adj *model.StockAdjustment) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	working := cloneAdjustment(a)
	if err := fn(nil, &working); err != nil {
		delete(r.deleted, id)
		return err
	}
	if r.deleted[id] {
		delete(r.deleted, id)
		delete(r.items, id)
		return nil
	}
	r.items[id] = working
	return nil
}

func (r *stubAdjustmentRepo) SaveTx(_ *gorm.DB, _ *model.StockAdjustment) error {
	return nil
}

func (r *stubAdjustmentRepo) ReplaceDetailsTx(_ *gorm.DB, adj *model.StockAdjustment) error {
	for i := range adj.Details {
		adj.Details[i].ID = adj.ID*100 + int64(i) + 1
		adj.Details[i].StockAdjustmentID = adj.ID
	}
	return nil
}

// DeleteTx runs inside WithLocked, which already holds mu.
func (r *stubAdjustmentRepo) DeleteTx(_ *gorm.DB, id int64) error {
	r.deleted[id] = true
	return nil
}

func (r *stubAdjustmentRepo) exists(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.items[id]
	return ok
}

// --- production ---

var uniqueViolation = &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"idx_package_bag\""}

type stubProductionRepo struct {
	mu       sync.Mutex
	sessions map[int64]model.ProductionSession
	packages []model.PackageSubmission
	// failUnique makes the next n AppendPackage calls fail with a unique violation
	failUnique int
}

func newStubProductionRepo(sessions ...model.ProductionSession) *stubProductionRepo {
	r := &stubProductionRepo{sessions: make(map[int64]model.ProductionSession)}
	for _, s := range sessions {
		r.sessions[s.ID] = s
	}
	return r
}

func (r *stubProductionRepo) Create(_ context.Context, s *model.ProductionSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = *s
	return nil
}

func (r *stubProductionRepo) FindByID(_ context.Context, id int64) (*model.ProductionSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (r *stubProductionRepo) FindRunningByDevice(_ context.Context, deviceCode string) (*model.ProductionSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.DeviceCode == deviceCode && s.IsRunning() {
			return &s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductionRepo) AppendPackage(_ context.Context, sub *model.PackageSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUnique > 0 {
		r.failUnique--
		return uniqueViolation
	}

	s, ok := r.sessions[sub.ProductionID]
	if !ok || !s.IsRunning() || s.DeviceCode != sub.DeviceCode {
		return repository.ErrSessionNotRunning
	}
	if _, ok := s.Target(sub.ProductID); !ok {
		return gorm.ErrRecordNotFound
	}

	current := 0
	for _, p := range r.packages {
		if p.ProductionID == sub.ProductionID && p.ProductID == sub.ProductID && p.BagIndex > current {
			current = p.BagIndex
		}
	}
	sub.BagIndex = current + 1
	if err := sub.BeforeCreate(nil); err != nil {
		return err
	}
	sub.CreatedAt = time.Now()
	r.packages = append(r.packages, *sub)
	return nil
}

func (r *stubProductionRepo) SummarizeByProduction(_ context.Context, productionID int64) ([]repository.WeightTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byProduct := make(map[int64]*repository.WeightTotals)
	var order []int64
	for _, p := range r.packages {
		if p.ProductionID != productionID {
			continue
		}
		t, ok := byProduct[p.ProductID]
		if !ok {
			t = &repository.WeightTotals{ProductID: p.ProductID, TotalWeight: decimal.Zero}
			byProduct[p.ProductID] = t
			order = append(order, p.ProductID)
		}
		t.TotalBags++
		t.TotalWeight = t.TotalWeight.Add(p.ActualWeight)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	out := make([]repository.WeightTotals, 0, len(order))
	for _, id := range order {
		out = append(out, *byProduct[id])
	}
	return out, nil
}

func (r *stubProductionRepo) ListPackages(_ context.Context, productionID int64, productID *int64) ([]model.PackageSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.PackageSubmission
	for _, p := range r.packages {
		if p.ProductionID != productionID || (productID != nil && p.ProductID != *productID) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].BagIndex < out[j].BagIndex
	})
	return out, nil
}

// --- transactions & returns ---

type stubTransactionRepo struct {
	items map[int64]model.Transaction
}

func (r *stubTransactionRepo) Create(_ context.Context, t *model.Transaction) error {
	r.items[t.ID] = *t
	return nil
}

func (r *stubTransactionRepo) FindByID(_ context.Context, id int64) (*model.Transaction, error) {
	t, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &t, nil
}

type stubReturnRepo struct {
	items      []model.ReturnTransaction
	lastSearch model.ReturnTransactionSearch
}

func (r *stubReturnRepo) Create(_ context.Context, rt *model.ReturnTransaction) error {
	r.items = append(r.items, *rt)
	return nil
}

func (r *stubReturnRepo) FindByID(_ context.Context, id int64) (*model.ReturnTransaction, error) {
	for _, rt := range r.items {
		if rt.ID == id {
			rt := rt
			return &rt, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubReturnRepo) Search(_ context.Context, search model.ReturnTransactionSearch) ([]model.ReturnTransaction, int64, error) {
	r.lastSearch = search
	var out []model.ReturnTransaction
	for _, rt := range r.items {
		if search.WarehouseID != nil && rt.WarehouseID != *search.WarehouseID {
			continue
		}
		out = append(out, rt)
	}
	return out, int64(len(out)), nil
}

// --- ws ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []ws.Event
}

func (p *recordingPublisher) Publish(e ws.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}
