package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора владельца заказа.
	ErrOwnerRequired = errors.New("userId is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка отсутствующего названия позиции.
	ErrItemNameRequired = errors.New("item name is required")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item quantity must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка отсутствующей или неположительной суммы заказа.
	ErrAmountInvalid = errors.New("amount must be greater than zero")
	// Ошибка отсутствующего адреса доставки.
	ErrAddressRequired = errors.New("address is required")
	// Ошибка отсутствующего идентификатора заказа.
	ErrOrderIDRequired = errors.New("orderId is required")
	// ErrOwnerMismatch возвращается, когда userId в теле запроса не совпадает
	// с владельцем, которого восстановили из учётных данных.
	ErrOwnerMismatch = errors.New("userId does not match authenticated user")

	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")

	// ErrUnauthenticated — учётные данные отсутствуют или не проходят проверку.
	ErrUnauthenticated = errors.New("invalid or missing credential")

	// ErrGatewayUnavailable — платёжную сессию открыть не удалось;
	// заказ к этому моменту может быть уже сохранён (осиротевший заказ).
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrPaymentUnconfirmed — шлюз не подтвердил оплату сессии,
	// заявленный клиентом успех отклонён.
	ErrPaymentUnconfirmed = errors.New("payment is not confirmed by gateway")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")

	// Ошибка отсутствующего ключа идемпотентности.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// Ошибка отсутствующего хэша запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyKeyAlreadyExists — ключ уже занят другим запросом.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch — ключ переиспользован с другим телом запроса.
	ErrIdempotencyHashMismatch = errors.New("idempotency key is already used with different request payload")
	// ErrIdempotencyKeyNotFound — запись по ключу не найдена.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
)

// IsValidation проверяет, относится ли ошибка к валидационным (вина вызывающего).
func IsValidation(err error) bool {
	for _, sentinel := range []error{
		ErrOwnerRequired, ErrItemsRequired, ErrItemNameRequired,
		ErrItemQtyInvalid, ErrItemPriceInvalid, ErrAmountInvalid,
		ErrAddressRequired, ErrOrderIDRequired, ErrOwnerMismatch,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}
