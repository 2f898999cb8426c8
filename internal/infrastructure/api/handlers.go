package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"linisco-sync-layer/internal/application"
	"linisco-sync-layer/internal/domain"
	"linisco-sync-layer/internal/infrastructure/pubsub"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// firstParam returns the first non-empty query parameter among names
func firstParam(r *http.Request, names ...string) string {
	q := r.URL.Query()
	for _, n := range names {
		if v := strings.TrimSpace(q.Get(n)); v != "" {
			return v
		}
	}
	return ""
}

func rangeParam(r *http.Request) (domain.Range, error) {
	return domain.ParseRange(
		firstParam(r, "fromDate", "from_date", "from"),
		firstParam(r, "toDate", "to_date", "to"),
	)
}

// storeIDsParam reads a comma separated store list; empty means every store
func storeIDsParam(r *http.Request) []string {
	raw := firstParam(r, "stores", "storeIds", "store_ids")
	if raw == "" {
		return nil
	}
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func boolParam(r *http.Request, name string) (bool, error) {
	raw := firstParam(r, name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, domain.NewValidationError("invalid %s %q", name, raw)
	}
	return v, nil
}

// storesHandler lists the configured stores
func storesHandler(stores *domain.StoreDirectory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all := stores.All()
		writeJSON(w, http.StatusOK, domain.Ok(all))
	}
}

// syncFleetHandler syncs every active store, or the stores listed in ?stores=
func syncFleetHandler(sync SyncRunner, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rng, err := rangeParam(r)
		if err != nil {
			respond[*domain.FleetResult](w, logger, nil, err)
			return
		}
		result, err := sync.SyncFleet(r.Context(), rng, storeIDsParam(r)...)
		respond(w, logger, result, err)
	}
}

// syncStoreHandler syncs one store
func syncStoreHandler(sync SyncRunner, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID := chi.URLParam(r, "storeId")
		rng, err := rangeParam(r)
		if err != nil {
			respond[*domain.SyncResult](w, logger, nil, err)
			return
		}
		result, err := sync.SyncStore(r.Context(), storeID, rng)
		respond(w, logger, result, err)
	}
}

// syncStatusHandler reports last syncs, record counts and auth state per store
func syncStatusHandler(stats StatsReader, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := stats.GetSyncStatus(r.Context())
		respond(w, logger, status, err)
	}
}

// statsHandler aggregates sales for ?fromDate&toDate[&stores][&live][&perStoreProducts]
func statsHandler(stats StatsReader, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rng, err := rangeParam(r)
		if err != nil {
			respond[*domain.Stats](w, logger, nil, err)
			return
		}
		live, err := boolParam(r, "live")
		if err != nil {
			respond[*domain.Stats](w, logger, nil, err)
			return
		}
		perStore, err := boolParam(r, "perStoreProducts")
		if err != nil {
			respond[*domain.Stats](w, logger, nil, err)
			return
		}

		result, err := stats.GetStats(r.Context(), application.StatsQuery{
			Range:            rng,
			StoreIDs:         storeIDsParam(r),
			Live:             live,
			PerStoreProducts: perStore,
		})
		respond(w, logger, result, err)
	}
}

// cleanupHandler deletes records older than ?days= (default retention when omitted)
func cleanupHandler(stats StatsReader, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := 0
		if raw := firstParam(r, "days", "retentionDays"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				respond[*domain.CleanupResult](w, logger, nil, domain.NewValidationError("days must be a positive integer, got %q", raw))
				return
			}
			days = n
		}
		result, err := stats.Cleanup(r.Context(), days)
		respond(w, logger, result, err)
	}
}

// authRefreshHandler obtains tokens for every active store; ?force=true discards current ones first
func authRefreshHandler(auth AuthManager, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		force, err := boolParam(r, "force")
		if err != nil {
			respond[[]application.AuthOutcome](w, logger, nil, err)
			return
		}
		outcomes := auth.AuthenticateAll(r.Context(), force)
		respond(w, logger, outcomes, nil)
	}
}

// authStatusHandler reports the token state of every store
func authStatusHandler(auth AuthManager, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reports, err := auth.AuthStatus(r.Context())
		respond(w, logger, reports, err)
	}
}

// syncEventsHandler streams sync events as server-sent events until the client goes away.
// ?store= and ?type= narrow the feed.
func syncEventsHandler(events *pubsub.SyncPubSub, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		filter := &pubsub.SyncEventFilter{StoreID: firstParam(r, "store", "storeId")}
		if t := firstParam(r, "type"); t != "" {
			filter.Types = []domain.SyncEventType{domain.SyncEventType(t)}
		}

		ctx := r.Context()
		channel := events.Subscribe(ctx, filter)
		defer events.Unsubscribe(channel.ID)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, ": connected\n\n")
		flusher.Flush()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-channel.Events:
				if !ok {
					return
				}
				data, err := json.Marshal(event)
				if err != nil {
					logger.Error().Err(err).Msg("Failed to encode sync event")
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
				flusher.Flush()
			}
		}
	}
}
