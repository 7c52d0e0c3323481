package services

import (
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/bastionmc/kitsync/internal/services")

func spanAttrs(playerID uint64, kitID int64) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.String("player.id", strconv.FormatUint(playerID, 10)),
		attribute.Int64("kit.id", kitID),
	)
}
