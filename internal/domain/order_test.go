package domain_test

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// helper для создания базового заказа с одной позицией.
func makeOrder() domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:      "order-1",
		OwnerID: "user-1",
		Status:  domain.OrderStatusProcessing,
		Amount:  20,
		Items: []domain.OrderItem{
			{
				ID:        "item-1",
				Name:      "Pizza",
				Price:     10,
				Qty:       2,
				CreatedAt: now,
			},
		},
		Address: domain.Address{
			Street: "1 Main St",
			City:   "Springfield",
		},
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOrderValidateInvariants_Ok(t *testing.T) {
	order := makeOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
		want error
	}{
		{
			name: "no owner",
			mut: func(o *domain.Order) {
				o.OwnerID = ""
			},
			want: domain.ErrOwnerRequired,
		},
		{
			name: "no items",
			mut: func(o *domain.Order) {
				o.Items = nil
			},
			want: domain.ErrItemsRequired,
		},
		{
			name: "zero amount",
			mut: func(o *domain.Order) {
				o.Amount = 0
			},
			want: domain.ErrAmountInvalid,
		},
		{
			name: "no address",
			mut: func(o *domain.Order) {
				o.Address = domain.Address{}
			},
			want: domain.ErrAddressRequired,
		},
		{
			name: "empty item name",
			mut: func(o *domain.Order) {
				o.Items[0].Name = ""
			},
			want: domain.ErrItemNameRequired,
		},
		{
			name: "zero qty",
			mut: func(o *domain.Order) {
				o.Items[0].Qty = 0
			},
			want: domain.ErrItemQtyInvalid,
		},
		{
			name: "negative price",
			mut: func(o *domain.Order) {
				o.Items[0].Price = -1
			},
			want: domain.ErrItemPriceInvalid,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			tc.mut(&order)

			errs := order.ValidateInvariants()
			if len(errs) == 0 {
				t.Fatal("expected validation errors, got none")
			}

			found := false
			for _, err := range errs {
				if err == tc.want {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected %v among %v", tc.want, errs)
			}
		})
	}
}

func TestOrderItemsTotal(t *testing.T) {
	order := makeOrder()
	if total := order.ItemsTotal(); total != 20 {
		t.Fatalf("expected items total 20, got %d", total)
	}

	order.Items = append(order.Items, domain.OrderItem{Name: "Salad", Price: 5, Qty: 3})
	if total := order.ItemsTotal(); total != 35 {
		t.Fatalf("expected items total 35, got %d", total)
	}
}

func TestAddressIsZero(t *testing.T) {
	if !(domain.Address{}).IsZero() {
		t.Fatal("empty address must be zero")
	}
	if (domain.Address{City: "Springfield"}).IsZero() {
		t.Fatal("address with a field must not be zero")
	}
}
