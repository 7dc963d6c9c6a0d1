package checkout

type Status string

const (
	StatusInitiated  Status = "INITIATED"
	StatusSubmitting Status = "SUBMITTING"
	StatusCompleted  Status = "COMPLETED"
	StatusPartial    Status = "PARTIAL"
	StatusFailed     Status = "FAILED"
)

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusPartial || s == StatusFailed
}

// String representation (for logging)
func (s Status) String() string {
	return string(s)
}

// Mode selects how a cart is turned into orders.
type Mode string

const (
	// ModePerItem submits one purchase per line item, in cart order.
	ModePerItem Mode = "per_item"
	// ModeSingleOrder submits the whole cart as one order.
	ModeSingleOrder Mode = "single_order"
)

func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModePerItem, "":
		return ModePerItem, true
	case ModeSingleOrder:
		return ModeSingleOrder, true
	default:
		return "", false
	}
}
