package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/dermwatch/internal/config"
	"github.com/blackwell-systems/dermwatch/internal/session"
)

var (
	tokenUser string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a session token",
	Long: `Sign a session token for a user with DERMWATCH_JWT_SECRET. Without
--user a new user id is generated.

Examples:
  dermwatch token
  dermwatch token --user 2f1c... --ttl 24h`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "User id (UUID) to issue the token for")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 30*24*time.Hour, "Token lifetime (0 for no expiry)")
	rootCmd.AddCommand(tokenCmd)
}

type tokenOutput struct {
	UserID    string     `json:"user_id"`
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func runToken(cmd *cobra.Command, args []string) error {
	secrets, err := config.LoadSecrets()
	if err != nil {
		return err
	}
	if secrets.JWTSecret == "" {
		return errors.New("DERMWATCH_JWT_SECRET is not set")
	}
	issuer, err := session.NewIssuer(secrets.JWTSecret, tokenTTL)
	if err != nil {
		return err
	}

	userID := tokenUser
	if userID == "" {
		userID = uuid.NewString()
	}
	token, err := issuer.Issue(userID)
	if err != nil {
		return err
	}

	out := tokenOutput{UserID: userID, Token: token}
	if tokenTTL > 0 {
		exp := time.Now().Add(tokenTTL).UTC()
		out.ExpiresAt = &exp
	}
	if flagJSON {
		return printJSON(out)
	}

	fmt.Println(token)
	return nil
}
