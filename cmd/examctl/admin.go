package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/haswanth04/examctl/internal/cli"
	"github.com/haswanth04/examctl/internal/model"
)

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrator operations",
	}
	cmd.AddCommand(
		adminUsersCmd(),
		adminSetActiveCmd(),
		adminPendingCmd(),
		adminApproveCmd(),
		adminRejectCmd(),
	)
	return cmd
}

func adminUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List all users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireRoles(model.RoleAdmin); err != nil {
				return err
			}

			users, err := a.gateway.ListUsers(cmd.Context())
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}
			cli.RenderUsers(os.Stdout, users)
			return nil
		},
	}
}

func adminSetActiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-active <user-id> <true|false>",
		Short: "Activate or deactivate a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireRoles(model.RoleAdmin); err != nil {
				return err
			}

			userID, err := parseID(args[0])
			if err != nil {
				return err
			}
			active, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("invalid active flag %q", args[1])
			}

			if err := a.gateway.SetUserActive(cmd.Context(), userID, active); err != nil {
				return fmt.Errorf("set user status: %w", err)
			}
			state := "deactivated"
			if active {
				state = "activated"
			}
			fmt.Printf("User %d %s.\n", userID, state)
			return nil
		},
	}
}

func adminPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List examiner accounts awaiting approval",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireRoles(model.RoleAdmin); err != nil {
				return err
			}

			pending, err := a.gateway.ListPendingExaminers(cmd.Context())
			if err != nil {
				return fmt.Errorf("pending examiners: %w", err)
			}
			cli.RenderPendingExaminers(os.Stdout, pending)
			return nil
		},
	}
}

func adminApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <user-id>",
		Short: "Approve a pending examiner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireRoles(model.RoleAdmin); err != nil {
				return err
			}

			userID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.gateway.ApproveExaminer(cmd.Context(), userID); err != nil {
				return fmt.Errorf("approve examiner: %w", err)
			}
			fmt.Printf("Examiner %d approved.\n", userID)
			return nil
		},
	}
}

func adminRejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <user-id>",
		Short: "Reject a pending examiner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireRoles(model.RoleAdmin); err != nil {
				return err
			}

			userID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.gateway.RejectExaminer(cmd.Context(), userID); err != nil {
				return fmt.Errorf("reject examiner: %w", err)
			}
			fmt.Printf("Examiner %d rejected.\n", userID)
			return nil
		},
	}
}
