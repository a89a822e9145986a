package holofood

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/holofood-data/holofood-go/pkg/holofood/client"
	"github.com/holofood-data/holofood-go/pkg/holofood/errors"
	"github.com/holofood-data/holofood-go/pkg/holofood/records"
)

// walker drives the cursor paginated fetch loop for one query. It visits
// records one page at a time until the portal runs out of pages, a page
// comes back empty, or maxHits records have been seen. The final page is
// truncated rather than overshooting maxHits.
type walker struct {
	client        client.PortalClient
	entityType    string
	maxHits       int // <= 0 means unbounded
	maxAttempts   uint
	retryInterval time.Duration
	params        []client.RequestDecoratorFunc
}

func (w *walker) walk(ctx context.Context, visit func(rec records.Record) error) (int, error) {
	log := logging.GetFromContext(ctx)

	count := 0
	cursor := ""

	for {
		// cancellation takes effect between page requests, never mid-request
		if err := ctx.Err(); err != nil {
			return count, err
		}

		page, err := w.fetchPage(ctx, cursor)
		if err != nil {
			return count, err
		}

		if len(page.Items) == 0 {
			return count, nil
		}

		items := page.Items
		if w.maxHits > 0 && count+len(items) > w.maxHits {
			items = items[:w.maxHits-count]
		}

		for _, item := range items {
			rec, err := records.NewFromJSON(item)
			if err != nil {
				return count, err
			}

			if err := visit(rec); err != nil {
				return count, err
			}

			count++
		}

		if w.maxHits > 0 && count >= w.maxHits {
			return count, nil
		}

		cursor = page.NextCursor()
		if cursor == "" {
			return count, nil
		}

		log.Debug("fetched page", "entity_type", w.entityType, "count", count, "cursor", cursor)
	}
}

// fetchPage requests a single page, retrying transient failures with
// exponential backoff up to the configured attempt bound. Replaying a cursor
// is safe, so a retried page never duplicates records.
func (w *walker) fetchPage(ctx context.Context, cursor string) (*client.Page, error) {
	attempts := 0
	lastStatus := 0

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = w.retryInterval

	page, err := backoff.Retry(ctx, func() (*client.Page, error) {
		attempts++

		p, err := w.client.FetchPage(ctx, w.entityType, cursor, w.params...)
		if err != nil {
			if !stderrors.Is(err, errors.ErrTransient) {
				return nil, backoff.Permanent(err)
			}

			lastStatus = errors.StatusCodeOf(err)
			return nil, err
		}

		return p, nil
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(w.maxAttempts))

	if err != nil {
		if stderrors.Is(err, errors.ErrTransient) {
			return nil, errors.NewRemoteFetchError(w.entityType, cursor, lastStatus, attempts, err)
		}

		return nil, err
	}

	return page, nil
}
