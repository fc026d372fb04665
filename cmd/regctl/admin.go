package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/familyreg/backend/internal/application/identity"
	"github.com/familyreg/backend/internal/infrastructure/auth"
	"github.com/familyreg/backend/internal/infrastructure/logger"
	"github.com/familyreg/backend/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage dashboard operators",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Add a dashboard operator",
	Long:  "Adds an admin account. The password is read from stdin when --password is not given.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}

		db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database,
			logger.NewGormLogger(log, gormlogger.Warn))
		if err != nil {
			return err
		}
		defer db.Close()

		service := identity.NewAuthService(
			persistence.NewGormFamilyRepository(db.DB),
			persistence.NewGormAdminRepository(db.DB),
			auth.NewJWTService(cfg.JWT),
			auth.NewInMemoryTokenBlacklist(),
			log,
		)
		admin, err := service.CreateAdmin(context.Background(), identity.CreateAdminInput{
			Email:       email,
			Password:    password,
			DisplayName: name,
		})
		if err != nil {
			return err
		}
		log.Info("Admin created", zap.String("admin_id", admin.ID.String()), zap.String("email", admin.Email))
		return nil
	},
}

func init() {
	adminCreateCmd.Flags().String("email", "", "Login email")
	adminCreateCmd.Flags().String("name", "", "Display name")
	adminCreateCmd.Flags().String("password", "", "Password (at least 8 characters)")
	_ = adminCreateCmd.MarkFlagRequired("email")

	adminCmd.AddCommand(adminCreateCmd)
}
