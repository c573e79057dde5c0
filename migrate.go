package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tidyup-backend/dao"
	"tidyup-backend/db"
	"tidyup-backend/model"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the schema and seed reference data",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		conn, err := db.Open(cmd.Context(), cfg.DSN())
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := db.Migrate(cmd.Context(), conn, log); err != nil {
			return err
		}
		log.Info("migrations applied")
		return nil
	},
}

var grantAdminCmd = &cobra.Command{
	Use:   "grant-admin <email>",
	Short: "Give an existing user the admin role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		conn, err := db.Open(cmd.Context(), cfg.DSN())
		if err != nil {
			return err
		}
		defer conn.Close()

		users := dao.NewUserRepository(conn)
		email := strings.ToLower(strings.TrimSpace(args[0]))
		u, err := users.GetByEmail(cmd.Context(), email)
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("no user with email %q", email)
		}
		if err := users.SetRole(cmd.Context(), u.ID, model.RoleAdmin); err != nil {
			return err
		}
		log.Info("granted admin role", zap.String("email", email))
		return nil
	},
}
