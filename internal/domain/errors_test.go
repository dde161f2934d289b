package domain_test

import (
	"fmt"
	"testing"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

func TestIsValidation(t *testing.T) {
	validation := []error{
		domain.ErrOwnerRequired,
		domain.ErrItemsRequired,
		domain.ErrAmountInvalid,
		domain.ErrAddressRequired,
		domain.ErrOrderIDRequired,
		domain.ErrOwnerMismatch,
	}
	for _, err := range validation {
		if !domain.IsValidation(err) {
			t.Fatalf("expected %v to be a validation error", err)
		}
	}

	if domain.IsValidation(domain.ErrOrderNotFound) {
		t.Fatal("not-found must not be a validation error")
	}
	if domain.IsValidation(domain.ErrGatewayUnavailable) {
		t.Fatal("gateway error must not be a validation error")
	}
}

func TestIsValidation_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("place order: %w", domain.ErrItemsRequired)
	if !domain.IsValidation(wrapped) {
		t.Fatal("wrapped validation error must still match")
	}
}

func TestIsVersionConflict(t *testing.T) {
	if !domain.IsVersionConflict(fmt.Errorf("save: %w", domain.ErrOrderVersionConflict)) {
		t.Fatal("wrapped version conflict must match")
	}
	if domain.IsVersionConflict(domain.ErrOrderNotFound) {
		t.Fatal("not-found is not a version conflict")
	}
}

func TestIdempotencyStatusValid(t *testing.T) {
	for _, status := range []domain.IdempotencyStatus{
		domain.IdempotencyStatusProcessing,
		domain.IdempotencyStatusDone,
		domain.IdempotencyStatusFailed,
	} {
		if !status.Valid() {
			t.Fatalf("expected %q to be valid", status)
		}
	}
	if domain.IdempotencyStatus("unknown").Valid() {
		t.Fatal("unknown status must be invalid")
	}
}
