package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/surrealcrud/surrealcrud"
	"github.com/surrealcrud/surrealcrud/contrib/crudhttp"
	"github.com/surrealcrud/surrealcrud/pkg/logger"
	"github.com/surrealcrud/surrealcrud/pkg/store"
	"github.com/surrealcrud/surrealcrud/pkg/store/memstore"
	"github.com/surrealcrud/surrealcrud/pkg/store/surrealstore"
)

func newServeCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the CRUD API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *configFile)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	f := cmd.Flags()
	f.String("surrealdb-url", "", "SurrealDB endpoint")
	f.String("namespace", "", "SurrealDB namespace")
	f.String("database", "", "SurrealDB database")
	f.String("username", "", "SurrealDB user")
	f.String("password", "", "SurrealDB password")
	f.String("schema", "", "schema file (default: built-in finance schema)")
	f.String("listen", "", "HTTP listen address")
	f.String("log-level", "", "log level: debug, info, warn or error")
	f.String("store", "", "store backend: surrealdb or memory")
	f.Bool("read-only", false, "reject every write")
	return cmd
}

func serve(ctx context.Context, cfg *config) error {
	logData, err := logger.New().Level(cfg.LogLevel).Make()
	if err != nil {
		return err
	}
	defer logData.Close()
	log := logData.Handler()

	reg, err := loadRegistry(cfg.Schema)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	engine, err := surrealcrud.New(reg, st, surrealcrud.WithLogger(log))
	if err != nil {
		return err
	}
	srv := crudhttp.New(engine,
		crudhttp.WithLogger(log),
		crudhttp.WithUser(crudhttp.HeaderUser(cfg.UserHeader)),
	)
	log.Info("serving", "tables", len(reg.Tables()), "store", cfg.Store, "read_only", cfg.ReadOnly)
	return crudhttp.Serve(ctx, cfg.Listen, srv.Handler(), log)
}

func openStore(ctx context.Context, cfg *config, log logger.Logger) (store.Store, error) {
	var st store.Store
	switch cfg.Store {
	case storeMemory:
		st = memstore.New()
	case storeSurrealDB:
		s, err := surrealstore.New(ctx, surrealstore.Config{
			URL:       cfg.URL,
			Namespace: cfg.Namespace,
			Database:  cfg.Database,
			Username:  cfg.Username,
			Password:  cfg.Password,
			Logger:    log,
		})
		if err != nil {
			return nil, err
		}
		st = s
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
	if cfg.ReadOnly {
		st = store.NewReadOnlyStore(st, func() bool { return true })
	}
	return st, nil
}
