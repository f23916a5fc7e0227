package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/knoxify/knoxify/tts"
)

const configHeader = `# knoxify configuration
#
# server: the text-to-speech server files are uploaded to
# voice: default voice, matched case-insensitively against the server's list
# output_dir: where converted audio is saved
#
# Any key can be overridden from the environment as KNOXIFY_<KEY>, with
# dots turned into underscores: KNOXIFY_SERVER, KNOXIFY_CACHE_MAX_SIZE.

`

var (
	printConfigPath bool

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Edit the server, voice and cache settings",
		Long: paragraph(fmt.Sprintf("\nOpen the knoxify configuration in $EDITOR. A file with the defaults is written first if there is none. "+
			"Once the editor exits the file is %s, so a bad server address or cache size shows up here instead of on the next conversion.",
			keyword("checked"))),
		Example: paragraph("knoxify config\nknoxify config --path\nKNOXIFY_CONFIG_HOME=~/dotfiles/knoxify knoxify config"),
		Args:    cobra.NoArgs,
		// a broken config file must not keep us from fixing it
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(*cobra.Command, []string) error {
			if err := ensureConfigFile(); err != nil {
				return err
			}
			if printConfigPath {
				fmt.Println(configFile)
				return nil
			}

			c, err := editor.Cmd("knoxify", configFile)
			if err != nil {
				return fmt.Errorf("unable to find an editor: %w", err)
			}
			c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
			if err := c.Run(); err != nil {
				return fmt.Errorf("editor failed: %w", err)
			}

			cfg, err := checkConfigFile(configFile)
			if err != nil {
				return fmt.Errorf("%s needs fixing: %w", configFile, err)
			}
			fmt.Printf("Saved %s\n", configFile)
			fmt.Printf("  server %s\n  voice  %s\n", keyword(cfg.Server), keyword(cfg.Voice))
			return nil
		},
	}
)

// checkConfigFile loads path on its own, without flags or environment, and
// validates it.
func checkConfigFile(path string) (tts.Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return tts.Config{}, fmt.Errorf("unable to parse: %w", err)
	}
	return tts.LoadConfig(v) //nolint:wrapcheck
}

// ensureConfigFile makes sure configFile names a YAML file that exists,
// writing the defaults when it doesn't.
func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.ConfigFileUsed()
	}
	if configFile == "" {
		return errors.New("no configuration directory found; pass --config")
	}

	switch strings.ToLower(filepath.Ext(configFile)) {
	case ".yml", ".yaml":
	default:
		return fmt.Errorf("%s: the configuration must be a .yml or .yaml file", configFile)
	}

	_, err := os.Stat(configFile)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("unable to read %s: %w", configFile, err)
	}
	return writeDefaultConfig(configFile)
}

func writeDefaultConfig(path string) error {
	defaults, err := tts.GenerateExampleConfig()
	if err != nil {
		return err //nolint:wrapcheck
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("unable to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(configHeader+defaults), 0o600); err != nil {
		return fmt.Errorf("unable to write %s: %w", path, err)
	}
	return nil
}

func init() {
	configCmd.Flags().BoolVar(&printConfigPath, "path", false, "print where the config file lives instead of editing it")
}
