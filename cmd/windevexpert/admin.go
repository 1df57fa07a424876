package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/windevexpert/windevexpert/internal/adapter/storage"
	"github.com/windevexpert/windevexpert/internal/domain/listing"
	"github.com/windevexpert/windevexpert/internal/domain/user"
	"github.com/windevexpert/windevexpert/internal/service"
)

func adminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage back-office accounts",
		Example: `  windevexpert admin reset-password --email admin@exemple.fr
  windevexpert admin create-user --email new@exemple.fr --name "Nouvel admin" --admin
  windevexpert admin list-users`,
	}
	cmd.AddCommand(adminCreateUserCommand())
	cmd.AddCommand(adminResetPasswordCommand())
	cmd.AddCommand(adminListUsersCommand())
	return cmd
}

// loadAdminService opens the configured backend without serving HTTP.
func loadAdminService(ctx context.Context) (*service.AdminService, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	opened, err := storage.Open(ctx, cfg.Database, cfg.Installer.DataPath(), slog.Default())
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return service.NewAdminService(opened.Store, nil, cfg.Admin.BcryptCost), opened.Store.Close, nil
}

func adminCreateUserCommand() *cobra.Command {
	var (
		email, name, password string
		admin                 bool
	)
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a back-office user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				var err error
				if password, err = promptNewPassword(cmd.ErrOrStderr(), "Password: "); err != nil {
					return err
				}
			}
			role := user.RoleEditor
			if admin {
				role = user.RoleAdmin
			}

			svc, cleanup, err := loadAdminService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			u, err := svc.CreateUser(cmd.Context(), &user.CreateRequest{
				Email:    email,
				Name:     name,
				Password: password,
				Role:     role,
			})
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "User created: %s (id=%s, role=%s)\n", u.Email, u.ID, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email address (required)")
	cmd.Flags().StringVar(&name, "name", "", "user display name (required)")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted if not provided)")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant admin role")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func adminResetPasswordCommand() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Reset a user's password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				var err error
				if password, err = promptNewPassword(cmd.ErrOrStderr(), "New password: "); err != nil {
					return err
				}
			}

			svc, cleanup, err := loadAdminService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.ResetPassword(cmd.Context(), email, password); err != nil {
				return fmt.Errorf("reset password: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Password reset successfully for %s\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "new password (prompted if not provided)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func adminListUsersCommand() *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list-users",
		Short: "List back-office users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cleanup, err := loadAdminService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			f := listing.Filter{Limit: listing.MaxLimit, Search: search}.Normalize()
			var users []user.User
			for {
				page, err := svc.ListUsers(cmd.Context(), f)
				if err != nil {
					return fmt.Errorf("list users: %w", err)
				}
				users = append(users, page.Items...)
				if f.Page >= page.TotalPages {
					break
				}
				f.Page++
			}
			return printUsers(cmd.OutOrStdout(), users)
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "filter by email or name")
	return cmd
}

func printUsers(out io.Writer, users []user.User) error {
	if len(users) == 0 {
		fmt.Fprintln(out, "No users found.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tENABLED")
	for i := range users {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n",
			users[i].ID, users[i].Email, users[i].Name, users[i].Role, users[i].Enabled)
	}
	return w.Flush()
}

// promptNewPassword reads a password twice from the terminal without echoing.
func promptNewPassword(out io.Writer, prompt string) (string, error) {
	pass, err := promptPassword(out, prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	confirm, err := promptPassword(out, "Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if pass != confirm {
		return "", errors.New("passwords do not match")
	}
	return pass, nil
}

func promptPassword(out io.Writer, prompt string) (string, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec // file descriptors fit in int
	if !term.IsTerminal(fd) {
		return "", errors.New("no terminal: pass --password")
	}
	fmt.Fprint(out, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(out) // newline after password input
	if err != nil {
		return "", err
	}
	return string(b), nil
}
