package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/frahmantamala/school-admin/internal/bootstrap"
	"github.com/spf13/cobra"
)

var (
	seedAdminEmail    string
	seedAdminPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed permissions, pages, system roles and the first admin",
	Long: `Ensure the permission and page catalog, the four system roles with their
default grants and, when an email is given, an initial administrator.
Running it again changes nothing.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		deps, err := initializeDependencies(ctx)
		if err != nil {
			log.Fatalf("failed to initialize dependencies: %v", err)
		}
		defer deps.Close()

		app := setupRoutes(deps)

		opts := bootstrap.Options{
			AdminEmail:    deps.Config.Bootstrap.AdminEmail,
			AdminPassword: deps.Config.Bootstrap.AdminPassword,
		}
		if seedAdminEmail != "" {
			opts.AdminEmail = seedAdminEmail
		}
		if seedAdminPassword != "" {
			opts.AdminPassword = seedAdminPassword
		}

		result, err := app.Seeder.Run(ctx, opts)
		if err != nil {
			log.Fatalf("seed failed: %v", err)
		}

		fmt.Printf("Ensured %d permissions, %d pages and %d system roles\n", result.Permissions, result.Pages, result.Roles)
		if len(result.SeededRoles) > 0 {
			fmt.Println("Granted defaults to:", result.SeededRoles)
		}
		if result.AdminCreated {
			fmt.Println("Created admin user:", opts.AdminEmail)
		}
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedAdminEmail, "admin-email", "", "email of the initial administrator")
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "", "password of the initial administrator")
}
