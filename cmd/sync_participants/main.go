package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/mansoorceksport/tripdesk/internal/config"
	"github.com/mansoorceksport/tripdesk/internal/domain"
	"github.com/mansoorceksport/tripdesk/internal/middleware"
	"github.com/mansoorceksport/tripdesk/internal/repository"
	"github.com/mansoorceksport/tripdesk/internal/server"
	"github.com/mansoorceksport/tripdesk/internal/service"
	"github.com/redis/go-redis/v9"
)

// dryRunPackages reports the writes the synchronizer would make instead of making them
type dryRunPackages struct {
	domain.PackageRepository
}

func (r dryRunPackages) Save(_ context.Context, pkgType domain.PackageType, pkg *domain.Package) error {
	fmt.Printf("   🏃 DRY RUN - Would update %s package %s (%s)\n", pkgType, pkg.ID, pkg.Name)
	for _, dr := range pkg.DateRanges {
		fmt.Printf("      %s → %s: %d participants\n", dr.StartDate, dr.EndDate, dr.CurrentParticipants)
	}
	return nil
}

func main() {
	// Command line flags
	typeFlag := flag.String("type", "all", "Package type to sync: surf, snowboard or all")
	dryRun := flag.Bool("dry-run", false, "Show what would be done without making changes")
	flag.Parse()

	var types []domain.PackageType
	if *typeFlag == "all" {
		types = domain.PackageTypes
	} else {
		t, err := domain.ParsePackageType(*typeFlag)
		if err != nil {
			fmt.Println("Usage: sync_participants [-type surf|snowboard|all] [-dry-run]")
			fmt.Println("\nThis script recounts trip members per date range and stores the")
			fmt.Println("result in each package's currentParticipants.")
			os.Exit(1)
		}
		types = []domain.PackageType{t}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var firebaseApp *firebase.App
	if cfg.Firebase.Enabled() {
		firebaseApp, err = middleware.InitFirebase(ctx, cfg.Firebase.ProjectID, cfg.Firebase.PrivateKey, cfg.Firebase.ClientEmail)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
	}

	stores, err := server.OpenStores(ctx, cfg, firebaseApp)
	if err != nil {
		log.Fatalf("Failed to open document store: %v", err)
	}
	defer stores.Close(context.Background())

	var packages domain.PackageRepository = stores.Packages
	if *dryRun {
		packages = dryRunPackages{stores.Packages}
	}
	syncService := service.NewSyncService(packages, stores.Members, cfg.Sync.Concurrency, cfg.Sync.ConflictRetries)

	// The API caches package documents; drop them once the counts are rewritten
	var cache *repository.CachedPackageRepository
	if !*dryRun {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Warning: Redis unavailable, package cache will expire on its own: %v", err)
		} else {
			cache = repository.NewCachedPackageRepository(stores.Packages, repository.NewRedisCacheRepository(redisClient), cfg.Server.PackageCacheTTL)
		}
	}

	failed := false
	for _, t := range types {
		fmt.Printf("🔍 Syncing %s packages\n", t)
		_, report, err := syncService.SyncPackages(ctx, t)
		if err != nil {
			fmt.Printf("   ❌ Failed: %v\n\n", err)
			failed = true
			continue
		}

		fmt.Printf("   📋 Packages: %d, date ranges: %d\n", report.Packages, report.DateRanges)
		fmt.Printf("   ✅ Updated: %d\n", report.Updated)
		if cache != nil && report.Updated > 0 {
			if err := cache.InvalidateCatalogue(ctx, t); err != nil {
				fmt.Printf("   ⚠️  Failed to clear package cache: %v\n", err)
			}
		}
		if report.FailedRanges > 0 || report.FailedSaves > 0 || report.Conflicts > 0 {
			fmt.Printf("   ⚠️  Failed ranges: %d, failed saves: %d, conflicts: %d\n", report.FailedRanges, report.FailedSaves, report.Conflicts)
			failed = true
		}
		fmt.Println()
	}

	if *dryRun {
		fmt.Println("⚠️  This was a dry run. No changes were made.")
		fmt.Println("   Run without -dry-run to apply changes.")
	}
	if failed {
		os.Exit(1)
	}
}
