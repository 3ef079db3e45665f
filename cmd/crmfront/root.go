package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/crmfront/internal/config"
)

type rootOpts struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{
		configPath: envOr("CONFIG_PATH", ""),
		envFile:    ".env",
	}

	root := &cobra.Command{
		Use:           "crmfront",
		Short:         "Frontend multi-tenant del CRM (sesión, selector de org, proxy /api)",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env es opcional; variables ya presentes no se pisan
			if opts.envFile != "" {
				if err := godotenv.Load(opts.envFile); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("cargando %s: %w", opts.envFile, err)
				}
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", opts.configPath, "Archivo YAML de configuración (env CONFIG_PATH)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", opts.envFile, "Archivo .env a cargar (vacío = ninguno)")

	root.AddCommand(
		newServeCmd(opts),
		newDecodeCmd(),
		newRoutesCmd(opts),
		newVersionCmd(),
	)
	return root
}

func (o *rootOpts) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config inválida: %w", err)
	}
	return cfg, nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
