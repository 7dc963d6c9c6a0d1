package orders

import "github.com/fjod/go_cart/storefront/internal/domain"

const NeutralColor = "gray"

var statusDisplay = map[domain.OrderStatus]string{
	domain.OrderStatusPending:   "Pending",
	domain.OrderStatusConfirmed: "Confirmed",
	domain.OrderStatusShipped:   "Shipped",
	domain.OrderStatusDelivered: "Delivered",
	domain.OrderStatusCancelled: "Cancelled",
}

var statusColor = map[domain.OrderStatus]string{
	domain.OrderStatusPending:   "yellow",
	domain.OrderStatusConfirmed: "blue",
	domain.OrderStatusShipped:   "purple",
	domain.OrderStatusDelivered: "green",
	domain.OrderStatusCancelled: "red",
}

// StatusDisplay echoes unknown statuses verbatim; the server may add new ones.
func StatusDisplay(s domain.OrderStatus) string {
	if label, ok := statusDisplay[s]; ok {
		return label
	}
	return string(s)
}

func StatusColor(s domain.OrderStatus) string {
	if color, ok := statusColor[s]; ok {
		return color
	}
	return NeutralColor
}

// View is an order decorated for display.
type View struct {
	domain.Order
	FinalAmount string `json:"final_amount"`
	StatusLabel string `json:"status_label"`
	StatusColor string `json:"status_color"`
}

func NewView(o domain.Order) View {
	return View{
		Order:       o,
		FinalAmount: o.FinalAmount().StringFixed(2),
		StatusLabel: StatusDisplay(o.Status),
		StatusColor: StatusColor(o.Status),
	}
}
