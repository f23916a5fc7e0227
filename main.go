// Package main provides the entry point for the knoxify CLI application.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/knoxify/knoxify/tts"
	"github.com/knoxify/knoxify/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile   string
	showAllFiles bool
	mouse        bool

	// loaded in PersistentPreRunE
	ttsConfig tts.Config

	rootCmd = &cobra.Command{
		Use:   "knoxify [FILE]",
		Short: "Turn text files into speech from the terminal",
		Long: paragraph(
			fmt.Sprintf("\nSend a .txt file to a text-to-speech server and %s.", keyword("listen to the result")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return []string{"txt"}, cobra.ShellCompDirectiveFilterFileExt
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("config") {
				viper.SetConfigFile(configFile)
				if err := viper.ReadInConfig(); err != nil {
					return fmt.Errorf("unable to read %s: %w", configFile, err)
				}
			}
			return validateOptions()
		},
		RunE: execute,
	}
)

func validateOptions() error {
	// grab config values from Viper
	mouse = viper.GetBool("mouse")
	showAllFiles = viper.GetBool("all")

	cfg, err := tts.LoadConfigFromViper()
	if err != nil {
		return err //nolint:wrapcheck
	}
	ttsConfig = cfg
	return nil
}

func execute(_ *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("unable to open file: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", path)
		}
	}

	// Without a terminal there's nothing to draw on; convert the file and
	// report progress instead.
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		if path == "" {
			return errors.New("a file is required when not running in a terminal")
		}
		return runHeadless(ui.HeadlessOptions{File: path})
	}

	return runTUI(path)
}

func uiConfig() (ui.Config, error) {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return cfg, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.TTS = ttsConfig
	cfg.ShowAllFiles = showAllFiles
	cfg.EnableMouse = mouse
	return cfg, nil
}

func runTUI(path string) error {
	cfg, err := uiConfig()
	if err != nil {
		return err
	}
	if path != "" {
		if cfg.Path, err = filepath.Abs(path); err != nil {
			return fmt.Errorf("unable to get absolute path: %w", err)
		}
	}

	p, err := ui.NewProgram(cfg)
	if err != nil {
		return fmt.Errorf("unable to start: %w", err)
	}
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

// runHeadless converts a file without the TUI. The voice is resolved against
// the server first unless opts names one already.
func runHeadless(opts ui.HeadlessOptions) error {
	cfg, err := uiConfig()
	if err != nil {
		return err
	}
	if opts.Voice == "" {
		if opts.Voice, err = resolveVoice(cfg.TTS); err != nil {
			return err
		}
	}
	return ui.RunHeadless(cfg, opts, os.Stderr) //nolint:wrapcheck
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().String("server", "", "address of the text-to-speech server")
	rootCmd.PersistentFlags().String("voice", "", "voice to convert with")
	rootCmd.Flags().BoolVarP(&showAllFiles, "all", "a", false, "offer hidden and ignored files for completion")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse support")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("voice", rootCmd.PersistentFlags().Lookup("voice"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))
	_ = viper.BindPFlag("all", rootCmd.Flags().Lookup("all"))

	viper.SetDefault("all", false)
	tts.SetDefaults()

	rootCmd.AddCommand(configCmd, convertCmd, voicesCmd, cacheCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "knoxify")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "knoxify")}, dirs...)
	}

	if c := os.Getenv("KNOXIFY_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("knoxify")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("knoxify")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "knoxify.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
