package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tim-hellhake/homie-adapter/pkg/hasher"
)

const tokenLength = 32

// GenerateTokenCommand prints a fresh API token together with the
// bcrypt hash to configure as API_TOKEN_HASH.
func GenerateTokenCommand(ctx *cli.Context) error {
	token, err := hasher.GenerateToken(tokenLength)
	if err != nil {
		return err
	}
	hash, err := hasher.HashToken([]byte(token))
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.App.Writer, "token: %s\nhash: %s\n", token, hash)
	return nil
}
