package domain

import "time"

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ошибку, если запись с таким ID уже существует.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// ListByOwner возвращает заказы покупателя, новые первыми,
	// с опциональным ограничением на количество.
	ListByOwner(ownerID string, limit int) ([]Order, error)
	// Save применяет обновления к заказу с учётом optimistic locking.
	Save(order Order) error
	// Delete удаляет заказ целиком или возвращает ErrOrderNotFound.
	Delete(id string) error
	// ListUnpaidBefore возвращает неоплаченные заказы, созданные до cutoff.
	// Используется воркером сверки для добивания осиротевших заказов.
	ListUnpaidBefore(cutoff time.Time, limit int) ([]Order, error)
}
