////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package cmd initializes the CLI and config parsers as well as the logger.
package cmd

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"

	client "gitlab.com/sharespace/client"
)

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen once
// to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sharespace",
	Short: "Command-line front for the ShareSpace social client",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var profileStopper interface{ Stop() }

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().UintP(logLevelFlag, "v", 0,
		"Verbosity level for log printing (2+ = Trace, 1 = Debug, 0 = Info)")
	rootCmd.PersistentFlags().StringP(logFlag, "l", "-",
		"Path to the log output path (- is stdout)")
	rootCmd.PersistentFlags().String(dbFlag, "",
		"Path to the backend database file (blank for in-memory)")
	rootCmd.PersistentFlags().String(storageDirFlag, "",
		"Path to the local key-value storage directory (blank for in-memory)")
	rootCmd.PersistentFlags().String(storagePassFlag, "",
		"Password for the local key-value storage")
	rootCmd.PersistentFlags().String(profileCpuFlag, "",
		"Enable cpu profiling to this file")
	rootCmd.PersistentFlags().String(envFileFlag, "",
		"Path to a .env file with flag defaults")
	rootCmd.PersistentFlags().StringP(emailFlag, "e", "",
		"Account email address")
	rootCmd.PersistentFlags().StringP(passwordFlag, "p", "",
		"Account password")

	err := viper.BindPFlags(rootCmd.PersistentFlags())
	if err != nil {
		jww.FATAL.Panicf("Failed to bind root flags: %+v", err)
	}
}

// bindFlags binds the executed command's own and inherited flags into Viper.
// Used from PreRun so that subcommands reusing a flag name never clobber each
// other's bindings at init time.
func bindFlags(cmd *cobra.Command, _ []string) {
	err := viper.BindPFlags(cmd.Flags())
	if err == nil {
		err = viper.BindPFlags(cmd.InheritedFlags())
	}
	if err != nil {
		jww.FATAL.Panicf("Failed to bind flags for %s: %+v", cmd.Name(), err)
	}
}

// initConfig runs before every command: .env defaults, environment
// overrides, logging, and the optional cpu profile.
func initConfig() {
	envFile := viper.GetString(envFileFlag)
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			jww.FATAL.Panicf("Failed to load %s: %+v", envFile, err)
		}
	} else {
		// A .env next to the binary is optional.
		_ = godotenv.Load()
	}
	viper.SetEnvPrefix("sharespace")
	viper.AutomaticEnv()

	initLog(viper.GetUint(logLevelFlag), viper.GetString(logFlag))

	if out := viper.GetString(profileCpuFlag); out != "" {
		profileStopper = profile.Start(
			profile.CPUProfile, profile.ProfilePath(out))
	}
}

// initClient assembles the SDK from the root flags.
func initClient() *client.Client {
	c, err := client.NewClient(client.Params{
		DBFilePath:      viper.GetString(dbFlag),
		StorageDir:      viper.GetString(storageDirFlag),
		StoragePassword: viper.GetString(storagePassFlag),
	})
	if err != nil {
		jww.FATAL.Panicf("Failed to assemble client: %+v", err)
	}
	return c
}

// signIn signs the CLI invocation in with the account flags and returns the
// assembled client.
func signIn(c *client.Client) {
	email := viper.GetString(emailFlag)
	password := viper.GetString(passwordFlag)
	if err := c.SignIn(email, password); err != nil {
		jww.FATAL.Panicf("Failed to sign in as %s: %+v", email, err)
	}
}

func finish() {
	if profileStopper != nil {
		profileStopper.Stop()
	}
}

// initLog initializes logging thresholds and the log path.
func initLog(threshold uint, logPath string) {
	if logPath != "-" && logPath != "" {
		// Disable stdout output
		jww.SetStdoutOutput(ioutil.Discard)
		// Use log file
		logOutput, err := os.OpenFile(logPath,
			os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			panic(err.Error())
		}
		jww.SetLogOutput(logOutput)
	}

	if threshold > 1 {
		jww.SetStdoutThreshold(jww.LevelTrace)
		jww.SetLogThreshold(jww.LevelTrace)
		jww.SetFlags(log.LstdFlags | log.Lmicroseconds)
		jww.INFO.Printf("log level set to: TRACE")
	} else if threshold == 1 {
		jww.SetStdoutThreshold(jww.LevelDebug)
		jww.SetLogThreshold(jww.LevelDebug)
		jww.SetFlags(log.LstdFlags | log.Lmicroseconds)
		jww.INFO.Printf("log level set to: DEBUG")
	} else {
		jww.SetStdoutThreshold(jww.LevelInfo)
		jww.SetLogThreshold(jww.LevelInfo)
		jww.INFO.Printf("log level set to: INFO")
	}
}
