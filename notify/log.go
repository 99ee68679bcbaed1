package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes bills to the log instead of sending them. Used in development.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendBill(ctx context.Context, bill Bill) error {
	n.logger.InfoContext(ctx, "bill_issued",
		"to", bill.To,
		"items", len(bill.Items),
		"total", bill.Total.StringFixed(2),
		"comment", bill.Comment,
	)
	return nil
}
