package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/habitat/internal/shared/domain"
	"github.com/felixgeelhaar/habitat/pkg/observability"
)

type metadataSetter interface {
	SetMetadata(metadata domain.EventMetadata)
}

// EventMetadataFromContext builds metadata for events raised by one call.
// The context's correlation id is used when present, otherwise a new one.
func EventMetadataFromContext(ctx context.Context, userID string) domain.EventMetadata {
	correlationID := observability.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	if fromCtx := observability.UserIDFromContext(ctx); fromCtx != "" {
		userID = fromCtx
	}
	return domain.EventMetadata{
		CorrelationID: correlationID,
		UserID:        userID,
	}
}

// ApplyEventMetadata sets metadata on all events that support it.
func ApplyEventMetadata(events []domain.DomainEvent, metadata domain.EventMetadata) {
	for _, event := range events {
		if setter, ok := event.(metadataSetter); ok {
			setter.SetMetadata(metadata)
		}
	}
}
