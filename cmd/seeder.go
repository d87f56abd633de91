package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/datatypes"

	"github.com/frahmantamala/paylink/internal"
	"github.com/frahmantamala/paylink/internal/auth"
	authPostgres "github.com/frahmantamala/paylink/internal/auth/postgres"
	linkDatamodel "github.com/frahmantamala/paylink/internal/core/datamodel/paymentlink"
	userDatamodel "github.com/frahmantamala/paylink/internal/core/datamodel/user"
	"github.com/frahmantamala/paylink/internal/core/pricing"
	"github.com/frahmantamala/paylink/internal/core/slug"
	linkPostgres "github.com/frahmantamala/paylink/internal/paymentlink/postgres"
	"github.com/frahmantamala/paylink/pkg/logger"
)

var (
	seedAdminEmail    string
	seedAdminPassword string
	seedSampleLink    bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with an admin account and a sample link",
	Long:  `Seed the database with the operator account and, optionally, a sample payment link for development.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}

		db, err := initDB(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		lg := logger.LoggerWrapper()
		users := authPostgres.NewRepository(db)

		admin, err := users.GetByEmail(ctx, seedAdminEmail)
		if err != nil {
			return fmt.Errorf("failed to look up admin: %w", err)
		}
		if admin != nil {
			lg.Info("admin user already exists", "email", seedAdminEmail)
		} else {
			password := seedAdminPassword
			if password == "" {
				password = os.Getenv("PAYLINK_ADMIN_PASSWORD")
			}
			if len(password) < 6 {
				return errors.New("admin password must be at least 6 characters (--admin-password or PAYLINK_ADMIN_PASSWORD)")
			}

			hash, err := auth.HashPassword(password, cfg.Security.BCryptCost)
			if err != nil {
				return fmt.Errorf("failed to hash admin password: %w", err)
			}
			now := time.Now().UTC()
			admin = &userDatamodel.User{
				ID:           uuid.New(),
				Email:        seedAdminEmail,
				Name:         "Administrator",
				PasswordHash: hash,
				Role:         string(internal.RoleAdmin),
				IsActive:     true,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := users.Create(ctx, admin); err != nil {
				return fmt.Errorf("failed to insert admin user: %w", err)
			}
			lg.Info("seeded admin user", "email", seedAdminEmail)
		}

		if !seedSampleLink {
			return nil
		}

		gdb, err := initGorm(db, cfg.Env)
		if err != nil {
			return err
		}

		normal := decimal.NewFromInt(250000)
		discount := decimal.NewFromInt(20)
		bri := "1234567890"
		link := &linkDatamodel.PaymentLink{
			Slug:            slug.Generate(),
			ProductName:     "Sample Course",
			NormalPrice:     normal,
			DiscountPercent: discount,
			FinalPrice:      pricing.FinalPrice(normal, discount),
			PaymentMethods:  datatypes.JSONSlice[string]{"bri"},
			BankBRIAccount:  &bri,
			CreatedBy:       &admin.ID,
		}
		if err := linkPostgres.NewPaymentLinkRepository(gdb).Create(ctx, link); err != nil {
			return fmt.Errorf("failed to insert sample link: %w", err)
		}
		lg.Info("seeded sample payment link", "slug", link.Slug, "url", cfg.Server.Origin()+"/pay/"+link.Slug)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedAdminEmail, "admin-email", "admin@paylink.local", "operator account email")
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "", "operator account password")
	seedCmd.Flags().BoolVar(&seedSampleLink, "sample-link", false, "also create a sample payment link")
}
