package repository

// Repositories agrupa los repositorios atados a una misma transacción.
// El TxRunner construye uno por transacción y lo pasa al callback.
type Repositories struct {
	Items     ItemRepository
	Suppliers SupplierRepository
	Prices    ItemSupplierRepository
	Inventory InventoryRepository
	Orders    PurchaseOrderRepository
	Requests  UnmanagedRequestRepository
	Results   PurchaseResultRepository
}
