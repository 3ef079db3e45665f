package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/crmfront/internal/session"
)

type decodeOutput struct {
	State     string          `json:"state"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	Context   session.Context `json:"context"`
	Claims    *session.Claims `json:"claims,omitempty"`
}

// decode muestra lo que el resolver ve de un access token (sin verificar firma).
func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <token>",
		Short: "Decodifica un access token y muestra su estado (valid|expired|malformed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok := strings.TrimSpace(args[0])
			claims, state := session.Inspect(tok, time.Now())

			out := decodeOutput{State: state.String(), Claims: claims, Context: session.ClaimsContext(nil)}
			if claims != nil {
				if exp := claims.ExpiresAtTime(); !exp.IsZero() {
					out.ExpiresAt = &exp
				}
				out.Context = session.ClaimsContext(claims)
			}

			b, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			if state == session.CredentialMalformed {
				return fmt.Errorf("token malformado")
			}
			return nil
		},
	}
}
