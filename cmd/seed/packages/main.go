package main

import (
	"context"
	"errors"
	"log"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/mansoorceksport/tripdesk/internal/config"
	"github.com/mansoorceksport/tripdesk/internal/domain"
	"github.com/mansoorceksport/tripdesk/internal/middleware"
	"github.com/mansoorceksport/tripdesk/internal/server"
	"github.com/mansoorceksport/tripdesk/internal/service"
)

type seedPackage struct {
	input      domain.PackageInput
	dateRanges []domain.DateRangeInput
}

func strPtr(s string) *string { return &s }

func capacity(n int) domain.OptionalInt {
	return domain.OptionalInt{Set: true, Value: domain.IntPtr(n)}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
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

	syncService := service.NewSyncService(stores.Packages, stores.Members, 1, cfg.Sync.ConflictRetries)
	packageService := service.NewPackageService(stores.Packages, stores.Members, stores.Schemas, syncService, cfg.Sync.ConflictRetries)
	dateRangeService := service.NewDateRangeService(stores.Packages, stores.Members, cfg.Sync.ConflictRetries)
	schemaService := service.NewDetailSchemaService(stores.Schemas, stores.Packages, cfg.Sync.ConflictRetries)

	schemas := map[domain.PackageType][]domain.DetailCategory{
		domain.PackageTypeSurf: {
			{Name: "Accommodation", Fields: []string{"Hotel", "Room type"}},
			{Name: "Surf Level", Fields: []string{"Minimum level", "Board provided"}},
		},
		domain.PackageTypeSnowboard: {
			{Name: "Accommodation", Fields: []string{"Chalet", "Room type"}},
			{Name: "Lift Pass", Fields: []string{"Resort", "Days included"}},
		},
	}
	for pkgType, categories := range schemas {
		for _, c := range categories {
			_, err := schemaService.AddCategory(ctx, pkgType, c.Name, c.Fields)
			if errors.Is(err, domain.ErrValidation) {
				log.Printf("Skipping %s category %q: %v", pkgType, c.Name, err)
				continue
			}
			if err != nil {
				log.Fatalf("Failed to seed %s schema: %v", pkgType, err)
			}
		}
	}

	catalogue := map[domain.PackageType][]seedPackage{
		domain.PackageTypeSurf: {
			{
				input: domain.PackageInput{
					Name:        "Bali Surf Week",
					Description: "Seven days of coached sessions on the Bukit peninsula.",
					Price:       domain.ParseMoney("1299.00"),
					Duration:    "7 days",
					Featured:    true,
					Highlights:  []string{"Daily coaching", "Video analysis", "Airport transfer"},
				},
				dateRanges: []domain.DateRangeInput{
					{StartDate: strPtr("2027-04-03"), EndDate: strPtr("2027-04-10"), MaxParticipants: capacity(12)},
					{StartDate: strPtr("2027-05-08"), EndDate: strPtr("2027-05-15"), MaxParticipants: capacity(12)},
				},
			},
			{
				input: domain.PackageInput{
					Name:        "Mentawai Boat Trip",
					Description: "Ten nights on a surf charter.",
					Price:       domain.ParseMoney("3450"),
					Duration:    "10 nights",
					Highlights:  []string{"Uncrowded reefs", "All meals"},
				},
				dateRanges: []domain.DateRangeInput{
					{StartDate: strPtr("2027-06-01"), EndDate: strPtr("2027-06-11"), MaxParticipants: capacity(8)},
				},
			},
		},
		domain.PackageTypeSnowboard: {
			{
				input: domain.PackageInput{
					Name:        "Niseko Powder Week",
					Description: "Hokkaido powder with local guides.",
					Price:       domain.ParseMoney("2100"),
					Duration:    "7 days",
					Featured:    true,
					Highlights:  []string{"Guided backcountry", "Onsen evenings"},
				},
				dateRanges: []domain.DateRangeInput{
					{StartDate: strPtr("2027-01-15"), EndDate: strPtr("2027-01-22")},
				},
			},
		},
	}

	for pkgType, packages := range catalogue {
		for _, seed := range packages {
			pkg, err := packageService.CreatePackage(ctx, pkgType, seed.input)
			if err != nil {
				log.Fatalf("Failed to create %s package %q: %v", pkgType, seed.input.Name, err)
			}
			for _, dr := range seed.dateRanges {
				if _, _, err := dateRangeService.AddDateRange(ctx, pkgType, pkg.ID, dr); err != nil {
					log.Fatalf("Failed to add date range to %s package %s: %v", pkgType, pkg.ID, err)
				}
			}
			log.Printf("✓ Seeded %s package %s (%s)", pkgType, pkg.ID, pkg.Name)
		}
	}
}
