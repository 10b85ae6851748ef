package service

import (
	"context"
	"fmt"

	"github.com/fjod/ixplor/internal/domain"
	"github.com/sirupsen/logrus"
)

type ItemSource interface {
	GetProductItem(ctx context.Context, id string) (*domain.ProductItem, error)
}

// ValidateInventory checks the live item against the requested quantity.
// A failed lookup returns nil: the check fails open and the server
// re-validates at purchase time.
func ValidateInventory(ctx context.Context, items ItemSource, log logrus.FieldLogger, productItemID string, qty int) *ValidationError {
	_, verr := checkInventory(ctx, items, log, productItemID, qty)
	return verr
}

// checkInventory also hands back the fetched item, nil when the lookup failed.
func checkInventory(ctx context.Context, items ItemSource, log logrus.FieldLogger, productItemID string, qty int) (*domain.ProductItem, *ValidationError) {
	item, err := items.GetProductItem(ctx, productItemID)
	if err != nil {
		log.WithError(err).WithField("product_item_id", productItemID).
			Warn("inventory check skipped, item lookup failed")
		return nil, nil
	}

	if item.ItemStatus != domain.ProductStatusPublished {
		return item, &ValidationError{
			Kind:          KindItemUnavailable,
			Message:       "This item is no longer available",
			ProductItemID: productItemID,
		}
	}
	if available := item.Available(); available < qty {
		return item, &ValidationError{
			Kind:          KindInsufficientQuantity,
			Message:       fmt.Sprintf("Only %d remaining", max(available, 0)),
			ProductItemID: productItemID,
		}
	}
	return item, nil
}

// CheckTimeConflicts rejects a candidate whose [start, start+duration) window
// overlaps any existing cart item. This is stricter than the same-vendor
// rule of the data model. Items without a usable slot never conflict.
func CheckTimeConflicts(candidate domain.CartItem, existing []domain.CartItem) *ValidationError {
	start, end, err := candidate.Slot().Window()
	if err != nil {
		return nil
	}

	for _, it := range existing {
		if it.ProductItemID == candidate.ProductItemID {
			continue
		}
		s, e, err := it.Slot().Window()
		if err != nil {
			continue
		}
		if s.Before(end) && e.After(start) {
			name := it.ProductName
			if name == "" {
				name = "another item"
			}
			return &ValidationError{
				Kind:          KindTimeConflict,
				Message:       fmt.Sprintf("This time slot overlaps with %s in your cart", name),
				ProductItemID: candidate.ProductItemID,
			}
		}
	}
	return nil
}
