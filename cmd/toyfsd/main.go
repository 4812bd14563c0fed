package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/toylabs/toyfs/pkg/diskproto"
	"github.com/toylabs/toyfs/pkg/reactor"
	"github.com/toylabs/toyfs/pkg/toyfs"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toyfsd",
		Short: "Serve the inode filesystem protocol over a block device",
		RunE:  runServe,
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml/toml/json)")
	flags.String("listen", "0.0.0.0:5000", "address to listen for filesystem clients on")
	flags.String("disk", "127.0.0.1:5001", "address of the disk service")
	flags.String("log-level", "info", "logrus level: trace/debug/info/warn/error")
	flags.String("log-format", "text", "logrus formatter: text/json")
	viper.BindPFlags(flags)

	cobra.OnInitialize(initConfig)
	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("toyfsd")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/toyfsd")
	}
	viper.SetEnvPrefix("TOYFSD")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			fmt.Fprintf(os.Stderr, "toyfsd: config: %v\n", err)
		}
	}
}

func newLogger() *logrus.Entry {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(viper.GetString("log-level")); err == nil {
		log.SetLevel(lvl)
	}
	if viper.GetString("log-format") == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return logrus.NewEntry(log)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()

	diskAddr := viper.GetString("disk")
	log.WithField("disk", diskAddr).Info("dialing disk service")
	dev, err := diskproto.Dial(diskAddr)
	if err != nil {
		return fmt.Errorf("toyfsd: dial disk: %w", err)
	}
	defer dev.Close()

	fs := toyfs.New(dev)
	if err := fs.Load(); err != nil {
		return fmt.Errorf("toyfsd: load superblock: %w", err)
	}
	if !fs.Formatted() {
		log.Warn("disk is not formatted; waiting for a client to run \"f\"")
	}

	srv := reactor.New(fs, log)
	listenAddr := viper.GetString("listen")
	if err := srv.Listen(listenAddr); err != nil {
		return fmt.Errorf("toyfsd: listen: %w", err)
	}
	return srv.Serve()
}
