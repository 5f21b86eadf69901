package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"tastecard-backend/lib/configutil"
	"tastecard-backend/lib/scrapers/douban"
	"tastecard-backend/lib/serviceutil"
	"tastecard-backend/lib/tastestore"
	"tastecard-backend/lib/telemetry"
	"tastecard-backend/services/tasteprofile"

	"github.com/dgraph-io/badger/v4"

	_ "modernc.org/sqlite"
)

type Config struct {
	Port int `json:"port"`
	// sqlite file holding the snapshot history
	SnapshotDb string `json:"snapshot_db"`
	// badger directory for the scrape cache
	CacheDir string `json:"cache_dir"`
}

func main() {
	ctx := serviceutil.SignalContext()

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to load configuration", err)
	}

	telemetry.InitSlog(false)
	tel, err := telemetry.SetupFromEnv(ctx, "tasted")
	if err != nil {
		slog.Warn("telemetry disabled", "err", err)
	} else {
		defer tel.Shutdown(context.Background())
	}
	telemetry.InstrumentPerfStats(ctx)

	sqlite, err := sql.Open("sqlite", config.SnapshotDb)
	if err != nil {
		serviceutil.Fatal("failed to open snapshot db", err)
	}
	_, err = sqlite.Exec(tastestore.Schema)
	if err != nil {
		serviceutil.Fatal("failed to migrate snapshot db", err)
	}

	cache, err := badger.Open(badger.DefaultOptions(config.CacheDir))
	if err != nil {
		serviceutil.Fatal("failed to open scrape cache", err)
	}
	defer cache.Close()

	service := tasteprofile.NewService(tasteprofile.Options{
		Site:  douban.DefaultSite(),
		Store: tastestore.NewStore(sqlite),
		Cache: cache,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/taste/{id}", func(w http.ResponseWriter, r *http.Request) {
		result, err := service.GetTasteProfile(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJson(w, r, result)
	})
	mux.HandleFunc("GET /v1/history/{id}", func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		history, err := service.History(r.Context(), r.PathValue("id"), limit)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJson(w, r, history)
	})

	go serviceutil.StartHttpServer(config.Port, mux)

	<-ctx.Done()
}

func writeJson(w http.ResponseWriter, r *http.Request, body any) {
	w.Header().Set("content-type", "application/json")
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.WarnContext(r.Context(), "failed to write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, douban.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, tasteprofile.ErrNoData):
		status = http.StatusNotFound
	case errors.Is(err, douban.ErrAccessBlocked),
		errors.Is(err, douban.ErrChallengeUnresolved),
		errors.Is(err, douban.ErrSolverExhausted):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	slog.WarnContext(r.Context(), "request failed",
		"path", r.URL.Path, "status", status, "err", err)

	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
