package postgres

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

func TestTimelineRepository_Integration_AppendList(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewTimelineRepository(store)

	base := time.Now().UTC().Truncate(time.Microsecond)

	events := []domain.TimelineEvent{
		{OrderID: "order-1", Type: "order.placed", Occurred: base},
		{OrderID: "order-1", Type: "order.payment_confirmed", Occurred: base.Add(time.Minute)},
		{OrderID: "order-2", Type: "order.placed", Occurred: base},
	}
	for _, event := range events {
		if err := repo.Append(event); err != nil {
			t.Fatalf("append event: %v", err)
		}
	}

	listed, err := repo.List("order-1")
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 events, got %d", len(listed))
	}
	if listed[0].Type != "order.placed" || listed[1].Type != "order.payment_confirmed" {
		t.Fatalf("unexpected event order: %+v", listed)
	}

	empty, err := repo.List("missing")
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no events, got %+v", empty)
	}
}
