package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

var (
	// ErrCouponActive is returned when a coupon is applied while another one is attached.
	ErrCouponActive  = errors.New("a coupon is already applied")
	ErrInvalidCoupon = errors.New("coupon discount must not be negative")
)

// LineItem is one product and its quantity. Quantity is always at least 1.
type LineItem struct {
	ProductID int64           `json:"product_id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
}

func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cart keeps line items in insertion order with unique product ids.
// It is not safe for concurrent use; the session store serializes access.
type Cart struct {
	items  []LineItem
	coupon *domain.CouponResult
}

func New() *Cart {
	return &Cart{}
}

// Add increments the quantity of an existing product or appends it with quantity 1.
func (c *Cart) Add(p domain.Product) domain.Notice {
	if i := c.index(p.ID); i >= 0 {
		c.items[i].Quantity++
	} else {
		c.items = append(c.items, LineItem{
			ProductID: p.ID,
			Title:     p.Title,
			UnitPrice: p.Price,
			Image:     p.Image,
			Quantity:  1,
		})
	}
	return domain.Notice{
		Kind:    domain.NoticeSuccess,
		Title:   "Product added",
		Message: fmt.Sprintf("%s was added to the cart.", p.Title),
	}
}

// UpdateQuantity sets the quantity exactly. A quantity of zero or less removes the item.
// Unknown products are ignored.
func (c *Cart) UpdateQuantity(productID int64, quantity int) {
	if quantity <= 0 {
		c.Remove(productID)
		return
	}
	if i := c.index(productID); i >= 0 {
		c.items[i].Quantity = quantity
	}
}

// Remove reports whether the product was present.
func (c *Cart) Remove(productID int64) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return true
}

// RemoveItems drops every listed product, leaving the rest in order.
func (c *Cart) RemoveItems(productIDs ...int64) {
	for _, id := range productIDs {
		c.Remove(id)
	}
}

// Subtotal is the exact sum of line totals, rounded once to cents.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range c.items {
		sum = sum.Add(li.LineTotal())
	}
	return sum.Round(2)
}

func (c *Cart) Discount() decimal.Decimal {
	if c.coupon == nil {
		return decimal.Zero
	}
	return c.coupon.DiscountAmount
}

// Total is the subtotal minus the applied discount, never below zero.
func (c *Cart) Total() decimal.Decimal {
	total := c.Subtotal().Sub(c.Discount())
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

func (c *Cart) ApplyCoupon(result domain.CouponResult) error {
	if c.coupon != nil {
		return ErrCouponActive
	}
	if result.DiscountAmount.IsNegative() {
		return ErrInvalidCoupon
	}
	applied := result
	c.coupon = &applied
	return nil
}

// RemoveCoupon reports whether a coupon was attached.
func (c *Cart) RemoveCoupon() bool {
	had := c.coupon != nil
	c.coupon = nil
	return had
}

func (c *Cart) AppliedCoupon() (domain.CouponResult, bool) {
	if c.coupon == nil {
		return domain.CouponResult{}, false
	}
	return *c.coupon, true
}

func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Item(productID int64) (LineItem, bool) {
	if i := c.index(productID); i >= 0 {
		return c.items[i], true
	}
	return LineItem{}, false
}

func (c *Cart) Len() int { return len(c.items) }

// Count is the number of units across all line items.
func (c *Cart) Count() int {
	n := 0
	for _, li := range c.items {
		n += li.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

// Clear empties the cart and detaches the coupon.
func (c *Cart) Clear() {
	c.items = nil
	c.coupon = nil
}

func (c *Cart) Clone() *Cart {
	clone := &Cart{items: c.Items()}
	if c.coupon != nil {
		applied := *c.coupon
		clone.coupon = &applied
	}
	return clone
}

func (c *Cart) index(productID int64) int {
	for i, li := range c.items {
		if li.ProductID == productID {
			return i
		}
	}
	return -1
}

type snapshot struct {
	Items  []LineItem           `json:"items"`
	Coupon *domain.CouponResult `json:"coupon,omitempty"`
}

func (c *Cart) MarshalJSON() ([]byte, error) {
	items := c.items
	if items == nil {
		items = []LineItem{}
	}
	return json.Marshal(snapshot{Items: items, Coupon: c.coupon})
}

// UnmarshalJSON rejects snapshots that break the cart invariants.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	seen := make(map[int64]struct{}, len(s.Items))
	for _, li := range s.Items {
		if li.Quantity < 1 {
			return fmt.Errorf("cart: product %d has quantity %d", li.ProductID, li.Quantity)
		}
		if _, dup := seen[li.ProductID]; dup {
			return fmt.Errorf("cart: duplicate product %d", li.ProductID)
		}
		seen[li.ProductID] = struct{}{}
	}
	c.items = s.Items
	c.coupon = s.Coupon
	return nil
}
