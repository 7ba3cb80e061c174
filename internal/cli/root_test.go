package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestBindEnvFillsUnsetFlags(t *testing.T) {
	t.Setenv("QUIZ_PORT", "9090")
	t.Setenv("QUIZ_LOG_LEVEL", "debug")

	opts := &options{}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringVar(&opts.port, "port", "", "")
	fs.StringVar(&opts.logLevel, "log-level", "", "")
	fs.StringVar(&opts.configPath, "config", "", "")
	if err := fs.Parse([]string{"--log-level", "warn"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	if err := bindEnv(fs); err != nil {
		t.Fatalf("bind env: %v", err)
	}
	if opts.port != "9090" {
		t.Fatalf("expected port from env, got %q", opts.port)
	}
	if opts.logLevel != "warn" {
		t.Fatalf("expected explicit flag to win over env, got %q", opts.logLevel)
	}
}

func TestLoadConfigAppliesOverrides(t *testing.T) {
	cfg, err := loadConfig(&options{port: "7000", logLevel: "error"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "7000" || cfg.Log.Level != "error" {
		t.Fatalf("expected overrides applied, got port=%s level=%s", cfg.Server.Port, cfg.Log.Level)
	}
	if cfg.Questions.DefaultBank != "default" {
		t.Fatalf("expected defaults preserved, got %q", cfg.Questions.DefaultBank)
	}
}

func TestRootRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"start", "migrate", "import-questions"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Fatalf("expected subcommand %s, got %v (%v)", name, cmd, err)
		}
	}
}
