package main

import (
	"errors"

	"blog_api/internal/app/service"
	"blog_api/internal/common/security"
	"blog_api/internal/platform/config"

	"github.com/spf13/cobra"
)

// NewPromoteCmd grants the admin role out of band, the only way to do so
// without an existing admin.
func NewPromoteCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Grant the admin role to an existing user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			if cfg.Store == config.StoreMemory {
				return errors.New("promote needs a persistent store")
			}
			repos, closeStore, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			passwords, err := security.NewPasswordHasher(cfg.BcryptCost)
			if err != nil {
				return err
			}
			user, err := service.NewUserService(repos.users, passwords, logger).Promote(cmd.Context(), email)
			if err != nil {
				return err
			}
			cmd.Printf("%s is now %s\n", user.Email, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the account to promote")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
