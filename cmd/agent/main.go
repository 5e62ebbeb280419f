package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"siteclock.com/siteclock/ai/classify"
	"siteclock.com/siteclock/infrastructure/communication"
	v1 "siteclock.com/siteclock/siteclock/v1"
	"siteclock.com/siteclock/tracker/core"
	"siteclock.com/siteclock/tracker/model"
	"siteclock.com/siteclock/tracker/reconcile"
	"siteclock.com/siteclock/tracker/store"
)

// simHost stands in for the phone's geofencing subsystem so the whole
// pipeline can be run on a workstation. Transitions are injected over
// a channel; the position sample is whatever was set last.
type simHost struct {
	mu      sync.Mutex
	handler func(core.Transition)
	pos     *core.Position
}

func (h *simHost) Attach(handler func(core.Transition)) error {
	h.mu.Lock()
	h.handler = handler
	h.mu.Unlock()
	return nil
}

func (h *simHost) RegisterZones(zones []model.Zone) error {
	fmt.Printf("[INFO] host registered %d zones\n", len(zones))
	return nil
}

func (h *simHost) LastKnownPosition(maxAge time.Duration) (*core.Position, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pos == nil || time.Since(h.pos.RecordedAt) > maxAge {
		return nil, nil
	}
	return h.pos, nil
}

func (h *simHost) deliver(t core.Transition) {
	h.mu.Lock()
	handler := h.handler
	h.mu.Unlock()
	if handler != nil {
		handler(t)
	}
}

func main() {
	var (
		configPath = flag.String("config", "", "yaml config file (optional)")
		dbPath     = flag.String("db", "siteclock.db", "local database file")
		workerID   = flag.String("worker", "", "worker id")
		serverURL  = flag.String("server", "", "backend base URL (empty disables sync)")
		interval   = flag.Duration("sync-interval", time.Minute, "sync cycle interval")
		demo       = flag.Bool("demo", false, "run a scripted enter/exit visit")
	)
	flag.Parse()

	if *workerID == "" {
		log.Fatal("worker id is required")
	}

	cfg := core.DefaultConfig()
	if *configPath != "" {
		loaded, err := core.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}

	st, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	zones, err := st.ActiveZones()
	if err != nil {
		log.Fatalf("failed to load zones: %v", err)
	}

	cache := core.NewZoneCache()
	cache.ReplaceAll(zones)

	host := &simHost{}
	ledger := core.NewLedger(st)
	audit := core.NewAuditTrail(st, *workerID)

	var remote core.RemoteClassifier
	if os.Getenv("GEMINI_API_KEY") != "" {
		remote = classify.New(context.Background())
	}
	classifier := core.NewClassifier(core.DefaultProfile(), remote, cfg.ClassifierTimeout)

	controller := core.NewController(cfg, *workerID, st, cache, ledger, audit, classifier, host)
	validator := core.NewValidator(cfg, cache, host, controller)

	if err := controller.Attach(host, validator); err != nil {
		log.Fatalf("failed to attach controller: %v", err)
	}
	defer controller.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *serverURL != "" {
		client := v1.NewSiteClockClient(*serverURL, os.Getenv("SITECLOCK_TOKEN"))
		reconciler := reconcile.NewReconciler(st, client.Sync, *workerID, *interval)
		if os.Getenv("SLACK_BOT_TOKEN") != "" {
			reconciler.SetAlerter(communication.ConnectSlack())
		}
		go reconciler.Start(ctx)
		defer reconciler.Stop()
	}

	fmt.Printf("[INFO] agent running for worker %s with %d zones\n", *workerID, cache.Len())

	if *demo {
		go runDemo(st, cache, host)
	}

	<-ctx.Done()
	fmt.Printf("[INFO] agent shutting down\n")
}

// runDemo drives one short scripted visit through the real pipeline:
// enter, a few seconds on site, exit. Useful against a local server to
// watch rows appear on both sides.
func runDemo(st *store.Store, cache *core.ZoneCache, host *simHost) {
	if cache.Len() == 0 {
		zone := model.Zone{
			ID:        "demo-site",
			Name:      "Demo Site",
			Latitude:  -27.4698,
			Longitude: 153.0251,
			Radius:    150,
			Status:    model.ZoneStatusActive,
		}
		if err := st.SaveZone(&zone); err != nil {
			fmt.Printf("[ERROR] failed to seed demo zone: %v\n", err)
			return
		}
		cache.ReplaceAll([]model.Zone{zone})
		fmt.Printf("[INFO] seeded demo zone %s\n", zone.Name)
	}

	zone := cache.All()[0]

	host.mu.Lock()
	host.pos = &core.Position{Latitude: zone.Latitude, Longitude: zone.Longitude, Accuracy: 10, RecordedAt: time.Now()}
	host.mu.Unlock()
	host.deliver(core.Transition{ZoneID: zone.ID, Direction: core.Enter, Timestamp: time.Now()})

	time.Sleep(5 * time.Second)

	host.mu.Lock()
	host.pos = &core.Position{Latitude: zone.Latitude + 0.01, Longitude: zone.Longitude, Accuracy: 10, RecordedAt: time.Now()}
	host.mu.Unlock()
	host.deliver(core.Transition{ZoneID: zone.ID, Direction: core.Exit, Timestamp: time.Now()})
}
