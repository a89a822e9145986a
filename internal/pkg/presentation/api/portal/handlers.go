package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/go-chi/chi/v5"
	"github.com/holofood-data/holofood-go/internal/pkg/application/proxy"
	"github.com/holofood-data/holofood-go/internal/pkg/infrastructure/storage"
	"github.com/holofood-data/holofood-go/internal/pkg/presentation/api/portal/auth"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("holofood-proxy/api")

// RegisterHandlers mounts the data access API on the given router. The cache
// may be nil, in which case every request goes straight to the upstream.
func RegisterHandlers(ctx context.Context, r *chi.Mux, policies io.Reader, app proxy.DataAccess, cache storage.Cache) error {

	authenticator, err := auth.NewAuthenticator(ctx, policies)
	if err != nil {
		return fmt.Errorf("failed to create api authenticator: %w", err)
	}

	r.Route("/api/v1/{upstream}", func(r chi.Router) {
		r.Get("/search/{entityType}", NewSearchHandler(app, authenticator, cache))
		r.Post("/fetch/{entityType}", NewFetchHandler(app, authenticator))
		r.Post("/results", NewAssembleResultHandler(app, authenticator))
	})

	return nil
}

// reservedParams are query keys consumed by the proxy itself and never
// forwarded as portal filters.
var reservedParams = map[string]struct{}{
	"max_hits": {},
	"nested":   {},
}

func filtersFromQuery(r *http.Request) map[string]string {
	filters := map[string]string{}
	for key, values := range r.URL.Query() {
		if _, reserved := reservedParams[key]; reserved {
			continue
		}
		if len(values) > 0 {
			filters[key] = values[0]
		}
	}
	return filters
}

// cacheKey builds a canonical key for a search request so that equivalent
// queries with differently ordered parameters share a cache entry.
func cacheKey(r *http.Request) string {
	query := r.URL.Query()

	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+query.Get(key))
	}

	return r.URL.Path + "?" + strings.Join(parts, "&")
}

func NewSearchHandler(app proxy.DataAccess, authenticator auth.Enticator, cache storage.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "search-entities")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		log := logging.GetFromContext(ctx)

		upstream := chi.URLParam(r, "upstream")
		entityType := chi.URLParam(r, "entityType")

		err = authenticator.CheckAccess(ctx, r, upstream, []string{entityType})
		if err != nil {
			reportProblem(w, http.StatusUnauthorized, "access denied")
			return
		}

		ttl, cacheable := app.ResponseTTLFor(upstream)
		cacheable = cacheable && cache != nil

		key := cacheKey(r)

		if cacheable {
			if body, found, cerr := cache.Get(ctx, key); cerr == nil && found {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Cache", "HIT")
				w.Write(body)
				return
			} else if cerr != nil {
				log.Warn("response cache lookup failed", "err", cerr.Error())
			}
		}

		maxHits := 0
		if mh := r.URL.Query().Get("max_hits"); mh != "" {
			maxHits, err = strconv.Atoi(mh)
			if err != nil || maxHits < 0 {
				err = fmt.Errorf("max_hits must be a non negative integer")
				reportProblem(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		filters := filtersFromQuery(r)

		var body []byte

		if r.URL.Query().Get("nested") == "true" {
			set, serr := app.SearchTables(ctx, upstream, entityType, filters, maxHits)
			if serr != nil {
				err = serr
				reportError(w, err)
				return
			}
			body, err = json.Marshal(renderTableSet(set))
		} else {
			table, serr := app.Search(ctx, upstream, entityType, filters, maxHits)
			if serr != nil {
				err = serr
				reportError(w, err)
				return
			}
			body, err = json.Marshal(renderTable(table))
		}

		if err != nil {
			reportError(w, err)
			return
		}

		if cacheable {
			if cerr := cache.Put(ctx, key, body, ttl); cerr != nil {
				log.Warn("failed to cache response", "err", cerr.Error())
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}
}

type fetchRequest struct {
	Accessions []string `json:"accessions"`
}

func NewFetchHandler(app proxy.DataAccess, authenticator auth.Enticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "fetch-by-accession")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		upstream := chi.URLParam(r, "upstream")
		entityType := chi.URLParam(r, "entityType")

		err = authenticator.CheckAccess(ctx, r, upstream, []string{entityType})
		if err != nil {
			reportProblem(w, http.StatusUnauthorized, "access denied")
			return
		}

		req := fetchRequest{}
		err = json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			reportProblem(w, http.StatusBadRequest, "unable to decode request payload: "+err.Error())
			return
		}

		result, err := app.FetchByAccession(ctx, upstream, entityType, req.Accessions)
		if err != nil {
			reportError(w, err)
			return
		}

		writeJSON(w, renderFetchResult(result))
	}
}

func NewAssembleResultHandler(app proxy.DataAccess, authenticator auth.Enticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "assemble-result")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		upstream := chi.URLParam(r, "upstream")

		err = authenticator.CheckAccess(ctx, r, upstream, []string{"samples"})
		if err != nil {
			reportProblem(w, http.StatusUnauthorized, "access denied")
			return
		}

		req := fetchRequest{}
		err = json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			reportProblem(w, http.StatusBadRequest, "unable to decode request payload: "+err.Error())
			return
		}

		rc, err := app.AssembleResult(ctx, upstream, req.Accessions)
		if err != nil {
			reportError(w, err)
			return
		}

		writeJSON(w, renderResultContainer(rc))
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		reportError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}
