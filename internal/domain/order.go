package domain

import "time"

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusProcessing — начальный статус заказа в словаре витрины:
	// заказ принят и передан на кухню, оплата ещё не подтверждена.
	OrderStatusProcessing OrderStatus = "Food Processing"
)

// OrderItem представляет одну позицию заказа.
type OrderItem struct {
	// ID позиции нужен для однозначной идентификации и аудита.
	ID string
	// Name — название блюда, как оно уходит в платёжную сессию.
	Name string
	// Price — цена за единицу в валюте витрины.
	Price int64
	// Qty — количество единиц.
	Qty int32
	// CreatedAt фиксирует момент добавления позиции в заказ.
	CreatedAt time.Time
}

// Address — произвольная запись адреса доставки. Поля не интерпретируются
// сервисом и сохраняются как есть.
type Address struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Street    string `json:"street,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	ZipCode   string `json:"zipcode,omitempty"`
	Country   string `json:"country,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// IsZero сообщает, что адрес не был передан вовсе.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Order агрегирует состояние заказа и его позиции.
//
// Paid — единственное поле, которое меняет поток сверки платежа:
// либо false → true (Verify success), либо запись удаляется целиком
// (Verify failure). Обратного перехода true → false не существует.
type Order struct {
	ID      string
	OwnerID string
	Items   []OrderItem
	// Amount — сумма списания, заявленная клиентом при оформлении.
	// Сервис её не пересчитывает из позиций, см. ItemsTotal.
	Amount  int64
	Address Address
	Status  OrderStatus
	Paid    bool
	// CheckoutSessionID — идентификатор платёжной сессии у шлюза.
	// Пустой, если сессию открыть не удалось (осиротевший заказ).
	CheckoutSessionID string
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.OwnerID == "" {
		errs = append(errs, ErrOwnerRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.Amount <= 0 {
		errs = append(errs, ErrAmountInvalid)
	}
	if o.Address.IsZero() {
		errs = append(errs, ErrAddressRequired)
	}

	for _, item := range o.Items {
		if item.Name == "" {
			errs = append(errs, ErrItemNameRequired)
		}
		if item.Qty <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.Price < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
	}

	return errs
}

// ItemsTotal возвращает сумму позиций qty * price в валюте витрины.
// Расхождение с Amount не является ошибкой (скидки задаёт клиентская
// сторона), но сервис логирует его как предупреждение.
func (o *Order) ItemsTotal() int64 {
	var total int64
	for _, item := range o.Items {
		total += int64(item.Qty) * item.Price
	}
	return total
}
