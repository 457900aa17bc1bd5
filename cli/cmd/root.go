package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"southwinds.dev/askpass"
	"southwinds.dev/askpass/audit"
)

var (
	cfgFile     string
	promptLabel string
	promptError string
	promptDesc  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "askpass",
	Short: "Securely prompt a user for a secret",
	Long: `Securely prompt a user for a password or passphrase and write it to stdout.
The prompt is served by a pinentry agent when one is available, keeping the
secret out of this process's terminal; otherwise entry happens directly on
the terminal with echo disabled and the prompt erased afterwards.`,
	RunE: runPrompt,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.askpass.yaml)")
	rootCmd.PersistentFlags().String("pinentry", "", "pinentry program to use (or use ASKPASS_PINENTRY env var)")
	rootCmd.PersistentFlags().Bool("no-pinentry", false, "skip pinentry and prompt on the terminal")
	rootCmd.PersistentFlags().Bool("lock-memory", false, "lock process memory while the secret is held")
	rootCmd.PersistentFlags().Bool("audit", false, "enable audit logging of prompt events")
	rootCmd.PersistentFlags().String("audit-log", "", "audit log file path (JSONL)")

	rootCmd.Flags().StringVarP(&promptLabel, "prompt", "p", "Password", "label for the requested secret")
	rootCmd.Flags().StringVarP(&promptError, "error", "e", "", "error message from a previous attempt")
	rootCmd.Flags().StringVarP(&promptDesc, "description", "d", "Please enter the password", "description shown to the user")

	flags := rootCmd.PersistentFlags()
	bindFlagOrPanic("askpass.pinentry", flags.Lookup("pinentry"))
	bindFlagOrPanic("askpass.no_pinentry", flags.Lookup("no-pinentry"))
	bindFlagOrPanic("askpass.lock_memory", flags.Lookup("lock-memory"))
	bindFlagOrPanic("askpass.audit.enabled", flags.Lookup("audit"))
	bindFlagOrPanic("askpass.audit.log_path", flags.Lookup("audit-log"))
}

func bindFlagOrPanic(key string, flag *pflag.Flag) {
	if flag == nil {
		log.Panicf("no flag registered for config key %s", key)
	}
	if err := viper.BindPFlag(key, flag); err != nil {
		log.Panicf("failed to bind flag %s: %v", flag.Name, err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".askpass")
	}

	viper.SetEnvPrefix("ASKPASS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// buildOptions resolves prompt options from flags, config file and environment.
func buildOptions() askpass.Options {
	opts := askpass.DefaultOptions()

	if program := viper.GetString("askpass.pinentry"); program != "" {
		opts.PinentryProgram = program
	}
	if viper.GetBool("askpass.no_pinentry") {
		opts.DisablePinentry = true
	}
	opts.EnableMemoryLock = viper.GetBool("askpass.lock_memory")

	if viper.GetBool("askpass.audit.enabled") {
		logPath := viper.GetString("askpass.audit.log_path")
		if logPath == "" {
			home, err := os.UserHomeDir()
			if err == nil {
				logPath = filepath.Join(home, ".askpass", "audit.log")
			}
		}
		opts.Audit = &audit.Config{
			Enabled: true,
			Type:    audit.FileAuditType,
			Options: map[string]interface{}{"file_path": logPath},
		}
	}
	return opts
}

func runPrompt(cmd *cobra.Command, args []string) error {
	secret, err := askpass.PromptWithOptions(buildOptions(), promptLabel, promptError, "%s", promptDesc)
	if err != nil {
		return err
	}
	if secret == nil {
		// User cancelled; report via exit status without noise on stdout.
		os.Exit(1)
	}
	defer secret.Wipe()

	if _, err := os.Stdout.Write(secret.Bytes()); err != nil {
		return fmt.Errorf("failed to write secret: %w", err)
	}
	fmt.Println()
	return nil
}
