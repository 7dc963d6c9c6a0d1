package checkout

import (
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/cart"
)

var (
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrCheckoutInProgress = errors.New("a checkout is already in progress for this session")
)

// PartialError reports a per-item checkout that stopped at Failed.
// Submitted items are orders on the gateway now and are not rolled back.
type PartialError struct {
	Failed    cart.LineItem
	Submitted []Submission
	Remaining []cart.LineItem
	Err       error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("checkout stopped at product %d after %d submitted item(s): %v",
		e.Failed.ProductID, len(e.Submitted), e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }
