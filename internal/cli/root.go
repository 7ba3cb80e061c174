package cli

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"trivia-room-service/internal/config"
)

const envPrefix = "QUIZ"

// options holds the persistent flags shared by every subcommand.
type options struct {
	port       string
	configPath string
	logLevel   string
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "trivia-room-service",
		Short:         "Real-time trivia rooms over WebSocket",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	fs := cmd.PersistentFlags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.StringVar(&opts.port, "port", "", "port to listen on, overrides server.port (env: QUIZ_PORT)")
	fs.StringVar(&opts.configPath, "config", config.DefaultPath, "path to YAML config (env: QUIZ_CONFIG)")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level, overrides log.level (env: QUIZ_LOG_LEVEL)")

	cmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		// a missing .env is normal outside development
		_ = godotenv.Load()
		return bindEnv(fs)
	}

	cmd.AddCommand(newStartCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newImportCmd(opts))
	cmd.CompletionOptions.HiddenDefaultCmd = true
	return cmd
}

// bindEnv fills flags the user did not set from QUIZ_* environment variables.
func bindEnv(fs *pflag.FlagSet) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil {
			return
		}
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			if err := fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
				bindErr = fmt.Errorf("flag %s from env: %w", f.Name, err)
			}
		}
	})
	return bindErr
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts *options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}
	if opts.port != "" {
		cfg.Server.Port = opts.port
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	return cfg, nil
}
