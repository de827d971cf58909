// Command pacsd runs the production PACS SCP: a DIMSE server backed by
// the SQLite catalog and tiered HSM storage, rather than sample_server's
// in-memory demo data.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/caio-sobreiro/pacs/catalog"
	"github.com/caio-sobreiro/pacs/catalog/sqlitestore"
	"github.com/caio-sobreiro/pacs/config"
	"github.com/caio-sobreiro/pacs/hsm"
	"github.com/caio-sobreiro/pacs/hsm/fsbackend"
	"github.com/caio-sobreiro/pacs/server"
	"github.com/caio-sobreiro/pacs/services"
	"github.com/caio-sobreiro/pacs/types"
	"github.com/caio-sobreiro/pacs/worklist"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds pacsd's cobra command tree. Flags are bound
// straight into a map[string]any so config.Load owns defaulting and
// validation; cobra and viper's job ends at "here is what the operator
// passed".
func newRootCmd() *cobra.Command {
	var (
		aeTitle          string
		port             int
		dbPath           string
		storageRoot      string
		worklistPath     string
		moveDestinations string
		maxConcurrent    int
	)

	cmd := &cobra.Command{
		Use:   "pacsd",
		Short: "Run the PACS storage/query/retrieve SCP",
		RunE: func(cmd *cobra.Command, args []string) error {
			destinations, err := parseMoveDestinations(moveDestinations)
			if err != nil {
				return fmt.Errorf("--move-destinations: %w", err)
			}

			cfg, err := config.Load(map[string]any{
				"ae_title":               aeTitle,
				"listen_port":            port,
				"catalog_db_path":        dbPath,
				"storage_root":           storageRoot,
				"worklist_path":          worklistPath,
				"max_concurrent_queries": maxConcurrent,
				"move_destinations":      destinations,
			})
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	defaultCfg := config.MustDefaults()
	flags := cmd.Flags()
	flags.StringVar(&aeTitle, "ae-title", defaultCfg.AETitle, "Called AE title this server answers to")
	flags.IntVar(&port, "port", defaultCfg.ListenPort, "TCP port to listen on")
	flags.StringVar(&dbPath, "catalog-db", defaultCfg.CatalogDBPath, "Path to the SQLite catalog database")
	flags.StringVar(&storageRoot, "storage-root", defaultCfg.StorageRoot, "Root directory for the hot storage tier")
	flags.StringVar(&worklistPath, "worklist-file", defaultCfg.WorklistPath, "Path to the modality worklist JSON file")
	flags.StringVar(&moveDestinations, "move-destinations", "", "Comma-separated AE=host:port pairs for C-MOVE destinations")
	flags.IntVar(&maxConcurrent, "max-concurrent-queries", defaultCfg.MaxConcurrentQueries, "Maximum concurrent C-FIND searches")

	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	store, err := sqlitestore.Open(cfg.CatalogDBPath)
	if err != nil {
		return fmt.Errorf("open catalog database: %w", err)
	}
	defer store.Close()

	hotBackend := fsbackend.New(afero.NewOsFs(), cfg.StorageRoot)
	storage := hsm.New(hotBackend)

	worklistStore, err := worklist.Open(afero.NewOsFs(), cfg.WorklistPath)
	if err != nil {
		return fmt.Errorf("open worklist store: %w", err)
	}

	metrics := prometheus.NewRegistry()
	registry := services.NewRegistry()
	registerHandlers(registry, store, storage, worklistStore, cfg, metrics)

	signalCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	address := fmt.Sprintf(":%d", cfg.ListenPort)
	logger.Info("starting PACS server", "address", address, "ae_title", cfg.AETitle, "catalog_db", cfg.CatalogDBPath)

	err = server.ListenAndServe(signalCtx, address, cfg.AETitle, registry, server.WithLogger(logger))
	switch {
	case err == nil:
		logger.Info("server shutdown complete")
		return nil
	case errors.Is(err, context.Canceled):
		logger.Info("server stopped", "reason", err.Error())
		return nil
	default:
		logger.Error("server terminated unexpectedly", "error", err)
		return err
	}
}

func registerHandlers(registry *services.Registry, store catalog.Store, storage *hsm.HSM, worklistStore *worklist.Store, cfg config.Config, metrics *prometheus.Registry) {
	adapter := catalog.NewAdapter(store)

	echo := services.NewEchoService()
	patientFind := services.NewCFindService(adapter, cfg.MaxConcurrentQueries, cfg.QueryTimeout)
	if err := metrics.Register(patientFind.Dispatcher); err != nil {
		slog.Warn("failed to register querydispatch metrics", "error", err)
	}
	worklistHandler := worklist.NewHandler(worklistStore)
	find := services.NewCFindRouter(patientFind, worklistHandler)

	cstore := services.NewCStoreService(store, storage)
	retrieve := services.NewRetrieveService(store, storage, cfg.AETitle, cfg.MoveDestinations)

	registry.RegisterHandler(types.CEchoRQ, echo)
	registry.RegisterHandler(types.CFindRQ, find)
	registry.RegisterHandler(types.CStoreRQ, cstore)
	registry.RegisterHandler(types.CMoveRQ, retrieve)
	registry.RegisterHandler(types.CGetRQ, retrieve)
}

// parseMoveDestinations parses "AE1=host:port,AE2=host:port" into a map.
func parseMoveDestinations(spec string) (map[string]string, error) {
	destinations := make(map[string]string)
	if spec == "" {
		return destinations, nil
	}
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		aeAddr := strings.SplitN(pair, "=", 2)
		if len(aeAddr) != 2 {
			return nil, fmt.Errorf("invalid move destination %q: want AE=host:port", pair)
		}
		destinations[aeAddr[0]] = aeAddr[1]
	}
	return destinations, nil
}
