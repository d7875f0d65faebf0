package main

import (
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sudoersllc/opsbox-rego/pkg/server"
	"github.com/sudoersllc/opsbox-rego/pkg/services/checks"
	"github.com/sudoersllc/opsbox-rego/pkg/services/policy"
)

var rounding string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the policy evaluation server",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVar(&rounding, "rounding", "truncate",
		"Percentage rounding mode: truncate or half-up")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	registry := policy.NewRegistry()
	if err := checks.RegisterAll(registry); err != nil {
		return fmt.Errorf("failed to register policies: %w", err)
	}
	registry.Freeze()

	engine := policy.NewEngine(registry)
	switch rounding {
	case "truncate":
	case "half-up":
		engine.SetRounding(policy.RoundHalfUp)
	default:
		return fmt.Errorf("unknown rounding mode %q", rounding)
	}

	logger.Info().Int("policies", len(registry.Policies())).Msg("policy catalog loaded")

	host := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")

	if host == "" || port == "" {
		logger.Error().Msgf("Missing server configuration from .env file")
		os.Exit(1)
	}

	addr := net.JoinHostPort(host, port)

	mux := server.ConfigureRouter(&logger, server.Config{
		Addr: addr,
		Dependencies: server.Dependencies{
			Engine:   engine,
			Registry: registry,
		},
	})

	logger.Info().Msgf("starting server on %s", addr)

	return http.ListenAndServe(addr, mux)
}
