package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"comichub/database"
	"comichub/internal/config"
	"comichub/internal/ingestion/crawl"
	"comichub/internal/logging"
	"comichub/internal/microservices/http-api/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	var (
		imageBase string
		workers   int
		migrate   bool
	)

	cmd := &cobra.Command{
		Use:   "comic-import <export.json>",
		Short: "Import comics from a crawler JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			comics, err := crawl.Load(f)
			if err != nil {
				return err
			}

			db, err := database.OpenGorm(cfg, logger)
			if err != nil {
				return err
			}
			defer database.Close(db) //nolint:errcheck
			if migrate {
				if err := database.Migrate(db, logger); err != nil {
					return err
				}
			}

			rdb, err := database.OpenRedis(cfg, logger)
			if err != nil {
				logger.Warn("redis unavailable, catalog cache will expire on its own", zap.Error(err))
				rdb = nil
			}
			if rdb != nil {
				defer rdb.Close()
			}

			importer := crawl.NewImporter(
				repository.NewComicRepository(db),
				repository.NewChapterRepository(db),
				repository.NewCategoryRepository(db),
				repository.NewCache(rdb, time.Duration(cfg.CacheTTL)*time.Second),
				crawl.Options{SourceURL: cfg.ComicSourceBaseURL, ImageBaseURL: imageBase, Workers: workers},
				logger,
			)

			start := time.Now()
			report, err := importer.Import(cmd.Context(), comics)
			if report != nil {
				logger.Info("import finished",
					zap.Int("comics", len(comics)),
					zap.Int("categories", report.Categories),
					zap.Int("comics_created", report.ComicsCreated),
					zap.Int("comics_updated", report.ComicsUpdated),
					zap.Int("chapters_created", report.ChaptersCreated),
					zap.Int("chapters_skipped", report.ChaptersSkipped),
					zap.Int("failed", report.Failed),
					zap.Duration("took", time.Since(start)),
				)
			}
			if err != nil {
				return err
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d comics failed to import", report.Failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&imageBase, "image-base-url", "", "prefix for relative image paths in the export")
	cmd.Flags().IntVar(&workers, "workers", 4, "comics imported concurrently")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply database migrations first")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Fatal(err)
	}
}
