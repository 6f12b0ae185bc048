// main.go bootstraps dokctl: it builds the root Cobra command, binds
// environment overrides, and executes with a signal-aware context.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := newRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	handleError(err)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dokctl",
		Short:         "Install and operate a dokploy deployment on compose or swarm",
		Long:          "dokctl generates the deployment manifests for a dokploy installation and drives them through docker compose on a single host or docker stack across a swarm cluster.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	installCmd := newInstallCommand()
	updateCmd := newUpdateCommand()
	startCmd, stopCmd, restartCmd := newLifecycleCommands()
	statusCmd := newStatusCommand()
	logsCmd := newLogsCommand()
	backupCmd := newBackupCommand()
	migrateCmd := newMigrateCommand()
	uninstallCmd := newUninstallCommand()
	configCmd := newConfigCommand()
	historyCmd := newHistoryCommand()
	cmd.AddCommand(
		installCmd,
		updateCmd,
		startCmd,
		stopCmd,
		restartCmd,
		statusCmd,
		logsCmd,
		backupCmd,
		migrateCmd,
		uninstallCmd,
		configCmd,
		historyCmd,
		newVersionCommand(),
	)
	cmd.Example = `  # Install on this host with docker compose
  dokctl install

  # Install across a swarm cluster, publishing the UI on port 8080
  dokctl install --mode swarm --port 8080

  # Move a legacy swarm deployment onto the compose backend
  dokctl migrate --yes`
	bindViper(installCmd, updateCmd, startCmd, stopCmd, restartCmd, statusCmd,
		logsCmd, backupCmd, migrateCmd, uninstallCmd, configCmd, historyCmd)
	return cmd
}

func bindViper(commands ...*cobra.Command) {
	if len(commands) == 0 {
		return
	}
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix("DOKPLOY")
	v.AutomaticEnv()

	cobra.OnInitialize(func() {
		for _, cmd := range commands {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				cobra.CheckErr(err)
			}
		}
		for _, cmd := range commands {
			cmd.Flags().VisitAll(func(f *pflag.Flag) {
				if f.Changed {
					return
				}
				if !v.IsSet(f.Name) {
					return
				}
				val := fmt.Sprintf("%v", v.Get(f.Name))
				if val != "" {
					_ = f.Value.Set(val)
				}
			})
		}
	})
}

func handleError(err error) {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return
	}
	// The engine already wrote its diagnostic to stderr; repeating the bare
	// exit status adds nothing.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
}
