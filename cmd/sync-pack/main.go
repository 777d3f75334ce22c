// sync-pack imports SYNC_PACKS_DIR/<tenant> into the store: tenant, menu,
// media, header, footer, pages, homepage and posts.
package main

import (
	"context"
	"errors"
	"path/filepath"

	"go.uber.org/zap"

	"tessera/blocks"
	"tessera/cmd/internal/job"
	"tessera/media"
	"tessera/syncpack"
)

func main() {
	job.Main(run)
}

func run() error {
	var tenant string
	flags := job.Flags("sync-pack", "--tenant <code>")
	flags.StringVar(&tenant, "tenant", "", "code of the tenant to import")
	if _, err := job.Args(flags, 0); err != nil {
		return err
	}
	if tenant == "" {
		flags.Usage()
		return errors.New("--tenant is required")
	}

	env, err := job.Open()
	if err != nil {
		return err
	}
	defer env.Close()

	pack, err := syncpack.Load(filepath.Join(env.Config.SyncPacksDir, tenant))
	if err != nil {
		return err
	}

	library := media.NewLibrary(env.Store, media.NewStorage(env.Config.MediaDir), env.Log)
	importer := syncpack.NewImporter(env.Store, blocks.NewNormalizer(env.Catalog, env.Log), library, env.Log)
	result, err := importer.Import(context.Background(), tenant, pack)
	if err != nil {
		return err
	}

	if err := env.Cache().InvalidateTenant(tenant); err != nil {
		env.Log.Warn("cache invalidation failed", zap.String("tenant", tenant), zap.Error(err))
	}
	env.Log.Info("sync pack imported",
		zap.String("tenant", tenant),
		zap.Int("pages", result.Pages),
		zap.Int("pageErrors", result.PageErrors),
		zap.Int("posts", result.Posts),
		zap.Bool("homepage", result.Homepage),
		zap.Int("mediaUploaded", result.Media.Uploaded),
		zap.Int("mediaReused", result.Media.Reused),
		zap.Int("mediaFailed", result.Media.Failed))
	return nil
}
