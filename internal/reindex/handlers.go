package reindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/cache"
	apperrors "github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/kafka"
)

// RequestHandler returns a Kafka handler that runs the processor for each
// reindex Request. Requests that can never succeed are marked permanent so
// the consumer does not retry them.
func RequestHandler(p *Processor) kafka.MessageHandler {
	return func(ctx context.Context, _ []byte, value []byte) error {
		req, err := kafka.DecodeJSON[Request](value)
		if err != nil {
			return err
		}
		if req.DocumentType == "" {
			_, err := p.ValidateAll(ctx)
			return permanentIfFatal(err)
		}
		_, err = p.ValidateAndReindex(ctx, req.DocumentType)
		return permanentIfFatal(err)
	}
}

func permanentIfFatal(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperrors.ErrStoreFailure):
		return err
	case errors.Is(err, apperrors.ErrReindexInProgress):
		// The holder publishes its own completion event.
		return nil
	default:
		return fmt.Errorf("%w: %v", kafka.ErrPermanent, err)
	}
}

// InvalidateOnComplete returns a Kafka handler that drops cached similarity
// scores of a regenerated type.
func InvalidateOnComplete(scores *cache.SimilarityCache) kafka.MessageHandler {
	logger := slog.Default().With("component", "reindex-listener")
	return func(_ context.Context, _ []byte, value []byte) error {
		ev, err := kafka.DecodeJSON[CompleteEvent](value)
		if err != nil {
			return err
		}
		removed := scores.InvalidateType(ev.DocumentType)
		logger.Info("similarity cache invalidated",
			"document_type", ev.DocumentType,
			"removed", removed,
		)
		return nil
	}
}
