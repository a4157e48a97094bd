package main

import (
	"fmt"
	"os"

	"articlegen/internal/auth"

	"github.com/mdp/qrterminal/v3"
	"github.com/spf13/cobra"
)

func (a *app) newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Generate an API token and the bcrypt hash for ARTICLEGEN_API_TOKEN_HASH",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := auth.NewToken()
			if err != nil {
				return err
			}
			hash, err := auth.HashToken(token)
			if err != nil {
				return err
			}
			accent.Println("Token (give to players):")
			fmt.Println(token)
			accent.Println("Hash (set on the server):")
			fmt.Printf("ARTICLEGEN_API_TOKEN_HASH='%s'\n", hash)
			return nil
		},
	}
}

func printQR(data string) {
	qrterminal.GenerateHalfBlock(data, qrterminal.L, os.Stdout)
}
