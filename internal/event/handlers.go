package event

import (
	"context"
	"log/slog"
)

func (s *Service) handleProductCreatedEvent(ctx context.Context, ev ProductCreatedEvent) error {
	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", ev.ProductID),
		slog.String("sku", ev.Sku),
		slog.Int("initial_stock", ev.InitialStock),
	)
	return nil
}

func (s *Service) handleStockAdjustedEvent(ctx context.Context, ev StockAdjustedEvent) error {
	attrs := []any{
		slog.String("product_id", ev.ProductID),
		slog.String("sku", ev.Sku),
		slog.String("transaction_id", ev.TransactionID),
		slog.String("type", ev.Type),
		slog.Int("quantity", ev.Quantity),
		slog.Int("stock", ev.Stock),
	}

	s.logger.InfoContext(ctx, "stock adjusted", attrs...)

	if ev.Stock <= s.cfg.LowStockThreshold {
		s.logger.WarnContext(ctx, "low stock",
			append(attrs, slog.Int("threshold", s.cfg.LowStockThreshold))...)
	}

	return nil
}
