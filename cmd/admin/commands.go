package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/oksasatya/feedback-hub/internal/application"
	"github.com/oksasatya/feedback-hub/internal/container"
	"github.com/oksasatya/feedback-hub/internal/domain/apperr"
	"github.com/oksasatya/feedback-hub/internal/domain/entity"
)

// openFunc builds a container for one command run; withObjects asks for
// an object store as well.
type openFunc func(ctx context.Context, withObjects bool) (*container.Container, func(), error)

func newRootCmd(open openFunc) *cobra.Command {
	root := &cobra.Command{
		Use:          "admin",
		Short:        "Operator tasks against the feedback tree store",
		SilenceUsage: true,
	}
	root.AddCommand(
		newSeedCmd(open),
		newSnapshotCmd(open),
		newCounterCmd(open),
		newPromoteCmd(open),
	)
	return root
}

func withContainer(cmd *cobra.Command, open openFunc, withObjects bool, run func(ctx context.Context, c *container.Container) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c, closeFn, err := open(ctx, withObjects)
	if err != nil {
		return err
	}
	defer closeFn()
	return run(ctx, c)
}

// ensureUser returns the user with in.Email, creating it when absent.
func ensureUser(ctx context.Context, c *container.Container, in application.CreateUserInput) (*entity.User, bool, error) {
	u, err := c.Users.GetByEmail(ctx, in.Email)
	if err == nil {
		return u, false, nil
	}
	if !apperr.IsNotFound(err) {
		return nil, false, err
	}
	u, err = c.UserService.CreateUser(ctx, in)
	return u, err == nil, err
}

func newSeedCmd(open openFunc) *cobra.Command {
	var adminEmail, adminPassword, userEmail, userPassword string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo administrator and a demo user if they do not exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd, open, false, func(ctx context.Context, c *container.Container) error {
				admin, created, err := ensureUser(ctx, c, application.CreateUserInput{
					Email: adminEmail, Name: "Demo Admin", PhoneNumber: "+15550100", Password: adminPassword,
				})
				if err != nil {
					return fmt.Errorf("seed admin: %w", err)
				}
				if admin.Role != entity.RoleAdministrator {
					if err := c.UserService.Promote(ctx, admin.UserID); err != nil {
						return fmt.Errorf("promote admin: %w", err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "admin: id=%d email=%s created=%t\n", admin.UserID, admin.Email, created)

				user, created, err := ensureUser(ctx, c, application.CreateUserInput{
					Email: userEmail, Name: "Demo User", PhoneNumber: "+15550101", Password: userPassword,
				})
				if err != nil {
					return fmt.Errorf("seed user: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user: id=%d email=%s created=%t\n", user.UserID, user.Email, created)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&adminEmail, "admin-email", "admin@example.com", "administrator email")
	cmd.Flags().StringVar(&adminPassword, "admin-password", "password123", "administrator password")
	cmd.Flags().StringVar(&userEmail, "user-email", "demo@example.com", "demo user email")
	cmd.Flags().StringVar(&userPassword, "user-password", "password123", "demo user password")
	return cmd
}

func newSnapshotCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Export all users and feedbacks as one JSON object to the bucket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd, open, true, func(ctx context.Context, c *container.Container) error {
				if c.SnapshotService == nil {
					return fmt.Errorf("no object store configured")
				}
				url, err := c.SnapshotService.Export(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), url)
				return nil
			})
		},
	}
}

func newCounterCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "counter",
		Short: "Print the last allocated user id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd, open, false, func(ctx context.Context, c *container.Container) error {
				n, err := c.Counters.Current(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
}

func newPromoteCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "promote <user-id>",
		Short: "Grant the administrator role to a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			return withContainer(cmd, open, false, func(ctx context.Context, c *container.Container) error {
				if err := c.UserService.Promote(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user %d is now %s\n", id, entity.RoleAdministrator)
				return nil
			})
		},
	}
}
