/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/notargets/goprob3/physics"
	"github.com/notargets/goprob3/propagator"
)

var (
	cfgFile  string
	logger   = logrus.New()
	profiler interface{ Stop() }
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "goprob3",
	Short: "Three flavor neutrino oscillation probabilities through the Earth",
	Long: `Computes oscillation probabilities for a grid of zenith cosines and energies,
propagating neutrinos from their production height in the atmosphere through
a layered Earth density model.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		if err = setupLogger(viper.GetString("logLevel")); err != nil {
			return
		}
		return startProfile(viper.GetString("profile"))
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if profiler != nil {
			profiler.Stop()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.goprob3.yaml)")
	rootCmd.PersistentFlags().String("logLevel", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().IntP("threads", "t", 0, "number of worker goroutines, 0 uses all CPUs")
	rootCmd.PersistentFlags().String("strategy", "host", "grid strategy: host (per cosine) or device (per cell)")
	rootCmd.PersistentFlags().String("profile", "", "write a cpu or mem profile to the working directory")
	rootCmd.PersistentFlags().Float64("crossCheck", 0, "tolerance of the per layer transition matrix check, 0 disables it")
	bindFlags(rootCmd.PersistentFlags(), "logLevel", "threads", "strategy", "profile", "crossCheck")
}

func bindFlags(fs *pflag.FlagSet, names ...string) {
	for _, name := range names {
		if err := viper.BindPFlag(name, fs.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			logger.Error(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".goprob3" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".goprob3")
	}

	viper.SetEnvPrefix("GOPROB3")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		logger.WithField("file", viper.ConfigFileUsed()).Debug("using config file")
	}
}

func setupLogger(level string) (err error) {
	var lvl logrus.Level
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if lvl, err = logrus.ParseLevel(strings.ToLower(level)); err != nil {
		return
	}
	logger.SetLevel(lvl)
	return
}

func startProfile(kind string) (err error) {
	switch strings.ToLower(kind) {
	case "":
	case "cpu":
		profiler = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet)
	case "mem":
		profiler = profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet)
	default:
		err = fmt.Errorf("unknown profile %q, choose cpu or mem", kind)
	}
	return
}

// propagatorConfig collects the engine settings shared by all commands
func propagatorConfig() (cfg *propagator.Config, err error) {
	var strategy physics.Strategy
	if strategy, err = physics.NewStrategy(viper.GetString("strategy")); err != nil {
		return
	}
	cfg = &propagator.Config{
		ProcLimit: viper.GetInt("threads"),
		Strategy:  strategy,
		CrossCheck: physics.CrossCheck{
			Tolerance: viper.GetFloat64("crossCheck"),
		},
		Logger: logger,
	}
	return
}
