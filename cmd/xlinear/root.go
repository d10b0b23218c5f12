package main

import (
	"io"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/xlinear/pkg/errors"
	"github.com/YuminosukeSato/xlinear/pkg/log"
)

const (
	configName = ".xlinear"
	envPrefix  = "XLINEAR"
)

func newRootCmd() (*cobra.Command, error) {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "xlinear",
		Short: "per-label sparse linear classifiers with warm start",
		Long: `xlinear trains one L2-regularized linear classifier per label column of a
sparse multi-label problem by coordinate descent. Matrices are exchanged as
gob-encoded CSC files.

Settings are read from flags, XLINEAR_* environment variables and
$HOME/.xlinear.yaml, in that order of precedence.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(v, cfgFile); err != nil {
				return err
			}
			return setupLogging(cmd.ErrOrStderr(), v.GetString("log-level"), v.GetString("log-format"))
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default $HOME/.xlinear.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "json", "log format: json, console, slog")
	if err := v.BindPFlags(pf); err != nil {
		return nil, errors.Wrap(err, "bind persistent flags")
	}

	train, err := newTrainCmd(v)
	if err != nil {
		return nil, err
	}
	root.AddCommand(train)
	return root, nil
}

// loadConfig reads the config file and environment into v. A missing default
// config file is not an error; a missing explicit one is.
func loadConfig(v *viper.Viper, cfgFile string) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "read config %s", cfgFile)
		}
		return nil
	}

	home, err := homedir.Dir()
	if err != nil {
		return nil
	}
	v.AddConfigPath(home)
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.Wrapf(err, "read config %s", filepath.Join(home, configName+".yaml"))
	}
	return nil
}

func setupLogging(w io.Writer, level, format string) error {
	lv, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	switch strings.ToLower(format) {
	case "json", "":
		log.SetProvider(log.NewZerologProvider(w, lv))
	case "console":
		log.SetProvider(log.NewConsoleProvider(w, lv))
	case "slog":
		log.SetProvider(log.NewSlogProvider(w, lv))
	default:
		return errors.NewValidationError("log-format", "must be json, console or slog", format)
	}
	return nil
}
