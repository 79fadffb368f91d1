// Package main implements nmprofiles, a terminal UI for binding connection profiles to the WiFi networks and rooms
// a client finds itself in.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"nmprofiles/config"
	"nmprofiles/gonetworkmanager"
	"nmprofiles/menutree"
	"nmprofiles/profilemenu"
	"nmprofiles/profiles"
)

const appName = "Connection Profiles"

type rootOptions struct {
	configPath string
	debug      bool
}

// app bundles everything the commands share.
type app struct {
	cfg        *config.Config
	configPath string
	logger     *zap.Logger
	tree       *menutree.Tree
	store      *profiles.Store
	editor     *profileEditor
	resolver   *profilemenu.Resolver
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "nmprofiles",
		Short:         "Pick the connection profile for the current WiFi network or room",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.logger.Sync() //nolint:errcheck
			return a.runTUI()
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: search $"+config.EnvConfigPath+", ./nmprofiles.yaml, ~/.config/nmprofiles)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(newMenuCmd(opts), newRoomsCmd(opts))
	return root
}

func newApp(opts *rootOptions) (*app, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if opts.configPath != "" {
		cfg, path, err = config.LoadFromPath(opts.configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if opts.debug {
		cfg.Debug = true
	}

	logger, err := newLogger(cfg.LogFile, cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not create log file: %v\n", err)
		logger = zap.NewNop()
	}
	gonetworkmanager.SetLogger(logger.Named("nmcli"))

	store, err := profiles.Open(cfg.ProfilesPath)
	if err != nil {
		return nil, err
	}

	var wifi profilemenu.WifiSource
	if err := gonetworkmanager.Available(); err != nil {
		// The room branch still works without NetworkManager.
		logger.Warn("WiFi source disabled", zap.Error(err))
	} else {
		wifi = gonetworkmanager.NewClient()
	}

	a := &app{
		cfg:        cfg,
		configPath: path,
		logger:     logger,
		tree:       menutree.Default(),
		store:      store,
	}
	a.editor = newProfileEditor(store, logger.Named("editor"))
	a.resolver = profilemenu.New(a.tree, wifi, profilemenu.RoomList(cfg.Rooms), a.editor,
		profilemenu.WithLogger(logger.Named("profilemenu")),
		profilemenu.WithWifiTimeout(cfg.WifiTimeout.Std()),
	)
	logger.Info("Started", zap.String("config", path), zap.Int("rooms", len(cfg.Rooms)), zap.Bool("wifi", wifi != nil))
	return a, nil
}

// newLogger writes JSON logs to path; the terminal belongs to the UI.
func newLogger(path string, debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.OutputPaths = []string{path}
	zc.ErrorOutputPaths = []string{path}
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}

func (a *app) runTUI() error {
	program := tea.NewProgram(initialModel(a), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running application: %w", err)
	}
	return nil
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Application crashed: %v\n", r)
			os.Exit(1)
		}
	}()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
