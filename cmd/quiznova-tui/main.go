package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/quiznova/tui/internal/app"
	"github.com/quiznova/tui/internal/client"
	"github.com/quiznova/tui/internal/config"
	"github.com/quiznova/tui/internal/session"
	"github.com/quiznova/tui/internal/store"
)

var releaseVersion = "devel"

type flags struct {
	url        string
	configPath string
	stateDir   string
	noPersist  bool
	verbose    bool
}

func newCmd(f *flags) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("QUIZNOVA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "quiznova-tui",
		Short:         "Terminal client for QuizNova live quiz games.",
		Args:          cobra.ExactArgs(0),
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(f)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&f.url, "url", "u", "", "WebSocket URL of the QuizNova server (env: QUIZNOVA_URL)")
	fs.StringVarP(&f.configPath, "config", "c", defaultConfigPath(), "path to config file (env: QUIZNOVA_CONFIG)")
	fs.StringVar(&f.stateDir, "state-dir", "", "directory for the saved session (env: QUIZNOVA_STATE_DIR)")
	fs.BoolVar(&f.noPersist, "no-persist", false, "disable session persistence and rejoin (env: QUIZNOVA_NO_PERSIST)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log transport diagnostics to stderr (env: QUIZNOVA_VERBOSE)")

	fs.VisitAll(func(fl *pflag.Flag) {
		_ = v.BindPFlag(fl.Name, fl)
		_ = v.BindEnv(fl.Name)
		if !fl.Changed && v.IsSet(fl.Name) {
			_ = fs.Set(fl.Name, fmt.Sprintf("%v", v.Get(fl.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("quiznova-tui v{{.Version}}\n")

	return cmd
}

func run(f *flags) error {
	// Transport logs would scribble over the alt screen; keep them off
	// unless explicitly asked for.
	if !f.verbose {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.LoadOrDefault(f.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if f.url != "" {
		cfg.Server.URL = f.url
	}
	if f.stateDir != "" {
		cfg.Session.StateDir = f.stateDir
	}
	if f.noPersist {
		cfg.Session.Persist = false
	}

	ws := client.NewWSClient(cfg.Server.URL,
		client.WithBackoff(cfg.Reconnect.BaseDelay, cfg.Reconnect.MaxDelay))

	var ident session.IdentityStore
	if cfg.Session.Persist {
		ident = store.New(cfg.Session.StateDir)
	}

	notices := make(app.NoticeChan, 64)
	machine := session.New(session.Config{
		Sender:     ws,
		Sink:       notices,
		Store:      ident,
		RejoinWait: cfg.Reconnect.RejoinWait,
	})

	m := app.New(ws, machine, notices)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// defaultConfigPath returns ~/.config/quiznova/config.yaml, respecting
// XDG_CONFIG_HOME if set.
func defaultConfigPath() string {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, "quiznova", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "quiznova", "config.yaml")
}

func main() {
	if err := newCmd(&flags{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
