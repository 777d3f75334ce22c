// Package job holds the setup shared by the offline command line tools.
package job

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tessera/blocks"
	"tessera/cache"
	"tessera/common"
	"tessera/database"
	"tessera/store"
)

// Env is what a job runs against.
type Env struct {
	Config  *common.Config
	Log     *zap.Logger
	DB      *gorm.DB
	Store   *store.Store
	Catalog *blocks.Catalog
}

// Cache returns the page cache the server writes to, so jobs can drop
// pages they made stale.
func (e *Env) Cache() *cache.Cache {
	return cache.New(e.Config.CacheDir, e.Config.CacheMaxAge)
}

// Open loads the configuration, connects to the database and builds the
// block catalog including tenant catalog files.
func Open() (*Env, error) {
	cfg, err := common.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	log, err := common.NewLogger(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	db, err := common.ConnectDb(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(db, log); err != nil {
		return nil, err
	}

	catalog := blocks.NewDefaultCatalog()
	loaded, errs := catalog.LoadCatalogDir(cfg.TenantsDir)
	for _, err := range errs {
		log.Warn("tenant catalog", zap.Error(err))
	}
	log.Debug("tenant catalogs loaded", zap.Int("kinds", loaded))

	return &Env{Config: cfg, Log: log, DB: db, Store: store.New(db), Catalog: catalog}, nil
}

// Close flushes the logger and closes the database.
func (e *Env) Close() {
	_ = e.Log.Sync()
	if sqlDB, err := e.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Flags builds a flag set for name. usage is the argument synopsis shown
// after the program name.
func Flags(name, usage string) *pflag.FlagSet {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s %s\n", name, usage)
		flags.PrintDefaults()
	}
	return flags
}

// Args parses the command line into flags and checks the number of
// positional arguments.
func Args(flags *pflag.FlagSet, want int) ([]string, error) {
	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, err
	}
	args := flags.Args()
	if len(args) != want {
		flags.Usage()
		return nil, fmt.Errorf("expected %d argument(s), got %d", want, len(args))
	}
	return args, nil
}

// Main runs run and exits 1 when it fails.
func Main(run func() error) {
	if err := run(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
