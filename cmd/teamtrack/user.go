package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tgienger/teamtrack/internal/client"
)

var (
	userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage users on a teamtrack server",
	}

	profilePicture string

	userAddCmd = &cobra.Command{
		Use:   "add <username>",
		Short: "Register a user and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api := client.New(cfg.Client.BaseURL, cfg.Client.UserID, cfg.Client.Timeout, nil)
			u, err := api.CreateUser(cmd.Context(), args[0], profilePicture)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %q with id %d\n", u.Username, u.ID)
			return nil
		},
	}
)

func init() {
	userAddCmd.Flags().StringVar(&profilePicture, "picture", "", "profile picture URL")
	userCmd.AddCommand(userAddCmd)
}
