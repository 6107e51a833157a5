// tokenmint issues posting tokens for local development and tests.
//
//	tokenmint --config postledger.yaml --user juno1abc --username alice --agent juno1xyz
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"postledger/internal/contract/gate"
	"postledger/internal/platform/config"
	"postledger/pkg/domain"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		configPath string
		user       string
		username   string
		agent      string
		ttl        time.Duration
	)
	flagSet := pflag.NewFlagSet("tokenmint", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	flagSet.StringVar(&user, "user", "", "address of the poster")
	flagSet.StringVar(&username, "username", "", "display name embedded in the token")
	flagSet.StringVar(&agent, "agent", "", "address receiving the agent share of each post fee")
	flagSet.DurationVar(&ttl, "ttl", 0, "token lifetime (default: auth.token_ttl)")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	userAddr, err := domain.ParseAddress(user)
	if err != nil {
		return fmt.Errorf("--user: %w", err)
	}
	agentAddr, err := domain.ParseAddress(agent)
	if err != nil {
		return fmt.Errorf("--agent: %w", err)
	}
	if ttl <= 0 {
		ttl = cfg.Auth.TokenTTL
	}

	token, err := gate.NewIssuer(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Contract.ID).
		Issue(userAddr, username, agentAddr, ttl)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	fmt.Println(token)
	return nil
}
