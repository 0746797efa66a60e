package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/arunika-studio/backend-arunika/internal/app"
	"github.com/arunika-studio/backend-arunika/internal/auth"
	"github.com/arunika-studio/backend-arunika/internal/catalog"
	"github.com/arunika-studio/backend-arunika/internal/pricing"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.RunMigrations(dbURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	store := catalog.NewPGStore(pool)
	seedRates(ctx, store)
	seedProducts(ctx, store)
	seedStaff(ctx, pool)

	log.Println("Seeding completed successfully!")
}

func seedRates(ctx context.Context, store *catalog.PGStore) {
	log.Println("Seeding rates...")
	rates := map[string]pricing.Money{
		"invitation_standard": 10000,
		"invitation_premium":  15000,
		"invitation_custom":   22000,
		"foil_stamping":       3000,
		"wax_seal":            2500,
		"envelope_liner":      1500,
		"signage_small":       45000,
		"signage_large":       85000,
		"easel_rental":        25000,
		"favor_box_classic":   8000,
		"favor_box_deluxe":    12500,
		"ribbon_wrap":         1200,
		"booklet_binding":     18000,
		"petal_count":         650,
		"panel_led_backlight": 40000,
	}
	if err := store.UpsertRates(ctx, rates); err != nil {
		log.Fatalf("Failed to seed rates: %v", err)
	}
}

func seedProducts(ctx context.Context, store *catalog.PGStore) {
	log.Println("Seeding products...")
	qtyAdvice := []pricing.SoftConstraint{
		{Kind: pricing.ConstraintMin, Value: 20, Message: "Orders under 20 pieces lose the volume discount."},
		{Kind: pricing.ConstraintMax, Value: 500, Message: "Orders above 500 pieces need production lead time review."},
	}

	products := []pricing.Product{
		{
			ID:         1,
			Name:       "Invitation Card",
			ConfigType: pricing.TypeUnitQuantity,
			Variants:   []string{"Standard", "Premium", "Custom"},
			VariantRateKeys: map[string]string{
				"Standard": "invitation_standard",
				"Premium":  "invitation_premium",
				"Custom":   "invitation_custom",
			},
			SoftConstraints: qtyAdvice,
			SpecialLogic:    pricing.SpecialCustomVariantMinimum,
			Addons: []pricing.Addon{
				{ID: "foil", Name: "Foil Stamping", Type: pricing.AddonCheckbox, RateKey: "foil_stamping"},
				{ID: "wax_seal", Name: "Wax Seal", Type: pricing.AddonCheckbox, RateKey: "wax_seal", DependsOn: "foil"},
				{ID: "liner", Name: "Envelope Liner", Type: pricing.AddonCheckbox, RateKey: "envelope_liner", VisibleIfVariant: "Premium"},
			},
		},
		{
			ID:         2,
			Name:       "Welcome Signage",
			ConfigType: pricing.TypeSizeMatrix,
			Sizes: []pricing.SizeOption{
				{Name: "Small", RateKey: "signage_small", SoftConstraints: []pricing.SoftConstraint{
					{Kind: pricing.ConstraintMax, Value: 10, Message: "Small capped at 10."},
				}},
				{Name: "Large", RateKey: "signage_large", SoftConstraints: []pricing.SoftConstraint{
					{Kind: pricing.ConstraintMax, Value: 5, Message: "Large capped at 5."},
				}},
			},
			Addons: []pricing.Addon{
				{ID: "easel", Name: "Easel Rental", Type: pricing.AddonPhysicalQuantity, RateKey: "easel_rental"},
			},
		},
		{
			ID:         3,
			Name:       "Favor Box",
			ConfigType: pricing.TypeUnitQuantity,
			Variants:   []string{"Classic", "Deluxe"},
			VariantRateKeys: map[string]string{
				"Classic": "favor_box_classic",
				"Deluxe":  "favor_box_deluxe",
			},
			SoftConstraints: qtyAdvice,
			Addons: []pricing.Addon{
				{ID: "ribbon", Name: "Ribbon Wrap", Type: pricing.AddonCheckbox, RateKey: "ribbon_wrap"},
			},
		},
		{
			ID:         4,
			Name:       "Itinerary Booklet",
			ConfigType: pricing.TypePageCount,
			BasePrice:  4000,
			SoftConstraints: []pricing.SoftConstraint{
				{Kind: pricing.ConstraintMin, Value: 4, Message: "Booklets under 4 pages print as flat cards."},
			},
			Addons: []pricing.Addon{
				{ID: "binding", Name: "Saddle Binding", Type: pricing.AddonNumeric, RateKey: "booklet_binding"},
			},
		},
		{
			ID:         5,
			Name:       "Design Retainer",
			ConfigType: pricing.TypeFlatFee,
			BasePrice:  250000,
		},
		{
			ID:         6,
			Name:       "Flower Wall Panel",
			ConfigType: pricing.TypeMultiField,
			BasePrice:  95000,
			SpecialLogic: pricing.SpecialPetalCountCap,
			CustomFields: []pricing.CustomField{
				{ID: "petal_count", Name: "Petal Count", RateKey: "petal_count"},
			},
			Addons: []pricing.Addon{
				{ID: "led", Name: "LED Backlight", Type: pricing.AddonCheckbox, RateKey: "panel_led_backlight"},
			},
		},
	}

	for i, p := range products {
		if err := store.InsertProduct(ctx, p, i); err != nil {
			log.Fatalf("Failed to seed product %s: %v", p.Name, err)
		}
	}
}

func seedStaff(ctx context.Context, pool *pgxpool.Pool) {
	log.Println("Seeding staff...")
	password := os.Getenv("SEED_STAFF_PASSWORD")
	if password == "" {
		password = "changeme123"
	}
	hash, err := app.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash staff password: %v", err)
	}
	staffStore := auth.NewPGStaffStore(pool)
	err = staffStore.Upsert(ctx, auth.Staff{
		ID:           uuid.NewString(),
		Name:         "Studio Admin",
		Email:        "admin@arunika.studio",
		PasswordHash: hash,
	})
	if err != nil {
		log.Fatalf("Failed to seed staff user: %v", err)
	}
}
