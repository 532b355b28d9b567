// Package memory implementa los puertos de persistencia en memoria.
// Se usa con DB_DRIVER=memory (desarrollo) y como respaldo de los tests de casos de uso.
// Las transacciones se serializan y, si el callback falla, se restaura la foto tomada al empezar.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

type priceKey struct {
	itemID     int64
	supplierID int64
}

type state struct {
	items        map[int64]*entity.Item
	suppliers    map[int64]*entity.Supplier
	prices       map[priceKey]*entity.ItemSupplier
	history      []entity.UnitPriceHistory
	inventory    map[int64]*entity.InventoryItem
	transactions []entity.InventoryTransaction
	orders       map[int64]*entity.PurchaseOrder
	documents    map[int64]*entity.PurchaseOrderDocument
	emailLogs    []entity.EmailSendLog
	requests     map[int64]*entity.UnmanagedOrderRequest
	results      []entity.PurchaseResult
	seq          map[string]int64
}

func newState() *state {
	return &state{
		items:     map[int64]*entity.Item{},
		suppliers: map[int64]*entity.Supplier{},
		prices:    map[priceKey]*entity.ItemSupplier{},
		inventory: map[int64]*entity.InventoryItem{},
		orders:    map[int64]*entity.PurchaseOrder{},
		documents: map[int64]*entity.PurchaseOrderDocument{},
		requests:  map[int64]*entity.UnmanagedOrderRequest{},
		seq:       map[string]int64{},
	}
}

func (s *state) next(name string) int64 {
	s.seq[name]++
	return s.seq[name]
}

// clone copia profunda suficiente: las entidades se guardan y se devuelven por copia,
// y sus punteros internos (decimal, *int64, *time.Time) nunca se modifican en sitio.
func (s *state) clone() *state {
	c := newState()
	for k, v := range s.items {
		cp := *v
		c.items[k] = &cp
	}
	for k, v := range s.suppliers {
		cp := *v
		c.suppliers[k] = &cp
	}
	for k, v := range s.prices {
		cp := *v
		c.prices[k] = &cp
	}
	c.history = append([]entity.UnitPriceHistory(nil), s.history...)
	for k, v := range s.inventory {
		cp := *v
		c.inventory[k] = &cp
	}
	c.transactions = append([]entity.InventoryTransaction(nil), s.transactions...)
	for k, v := range s.orders {
		c.orders[k] = copyOrder(v)
	}
	for k, v := range s.documents {
		cp := *v
		c.documents[k] = &cp
	}
	c.emailLogs = append([]entity.EmailSendLog(nil), s.emailLogs...)
	for k, v := range s.requests {
		cp := *v
		c.requests[k] = &cp
	}
	c.results = append([]entity.PurchaseResult(nil), s.results...)
	for k, v := range s.seq {
		c.seq[k] = v
	}
	return c
}

// Store almacén en memoria. Implementa TxRunner para todos los casos de uso.
type Store struct {
	txMu   sync.Mutex // serializa transacciones
	dataMu sync.RWMutex
	data   *state
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{data: newState()}
}

// Repositories repositorios sobre el almacén (fuera de transacción).
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Items:     &itemRepo{s: s},
		Suppliers: &supplierRepo{s: s},
		Prices:    &priceRepo{s: s},
		Inventory: &inventoryRepo{s: s},
		Orders:    &orderRepo{s: s},
		Requests:  &requestRepo{s: s},
		Results:   &resultRepo{s: s},
	}
}

// Run ejecuta fn en exclusiva; si devuelve error se descartan todos sus cambios.
func (s *Store) Run(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.dataMu.RLock()
	snapshot := s.data.clone()
	s.dataMu.RUnlock()

	if err := fn(s.Repositories()); err != nil {
		s.dataMu.Lock()
		s.data = snapshot
		s.dataMu.Unlock()
		return err
	}
	return nil
}

func (s *Store) read(fn func(d *state)) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	fn(s.data)
}

func (s *Store) write(fn func(d *state) error) error {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return fn(s.data)
}

func copyOrder(o *entity.PurchaseOrder) *entity.PurchaseOrder {
	cp := *o
	cp.Lines = append([]entity.PurchaseOrderLine(nil), o.Lines...)
	return &cp
}
