package main

import (
	"fmt"
	"time"

	"agent-platform/internal/auth"
	"agent-platform/internal/rbac"

	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	tokenRole    string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !rbac.Valid(tokenRole) {
			return fmt.Errorf("unknown role %q (want viewer, operator or admin)", tokenRole)
		}
		m, err := auth.NewManager(cfg.Auth)
		if err != nil {
			return err
		}
		tok, err := m.Issue(time.Now(), tokenSubject, tokenRole)
		if err != nil {
			return err
		}
		cmd.Println(tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "token subject")
	tokenCmd.Flags().StringVar(&tokenRole, "role", rbac.RoleViewer, "role: viewer, operator or admin")
	_ = tokenCmd.MarkFlagRequired("subject")
	rootCmd.AddCommand(tokenCmd)
}
