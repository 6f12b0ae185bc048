// backup.go implements 'dokctl backup': pg_dump inside the running postgres
// container, archived on the host.
package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/amirhmoradi/dokploy-enhanced/internal/config"
	"github.com/amirhmoradi/dokploy-enhanced/internal/engine"
	"github.com/amirhmoradi/dokploy-enhanced/internal/envfile"
	"github.com/amirhmoradi/dokploy-enhanced/internal/pgbackup"
	"github.com/amirhmoradi/dokploy-enhanced/internal/swarm"
)

func newBackupCommand() *cobra.Command {
	opts := config.NewOptions()
	var outputDir string
	var databases []string
	var compress bool
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Dump the postgres databases into a tar archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			return runBackup(cmd, opts, outputDir, databases, compress)
		},
	}
	opts.AddFlags(cmd)
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory the backup archive is written to")
	cmd.Flags().StringSliceVar(&databases, "database", nil, "Databases to dump; all non-template databases when empty")
	cmd.Flags().BoolVarP(&compress, "compress", "z", true, "Gzip the backup archive")
	return cmd
}

// composeExecRunner adapts the compose engine's service exec to the dump
// pipeline's runner contract.
type composeExecRunner struct {
	eng     *engine.Engine
	service string
}

func (r composeExecRunner) Exec(ctx context.Context, command []string, stdout, stderr io.Writer) error {
	return r.eng.ExecInService(ctx, r.service, nil, stdout, stderr, command...)
}

func runBackup(cmd *cobra.Command, opts *config.Options, outputDir string, databases []string, compress bool) error {
	ctx := cmd.Context()
	log, err := buildLogger(opts)
	if err != nil {
		return err
	}
	mode, err := opts.ResolveMode()
	if err != nil {
		return err
	}
	set, err := envfile.Load(envfile.Path(opts.Dir))
	if err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	var runner pgbackup.ExecRunner
	switch mode {
	case envfile.ModeSwarm:
		_, docker, err := swarmBackend(opts, log)
		if err != nil {
			return err
		}
		defer docker.Close()
		runner = swarm.ExecRunner{Finder: docker, Service: swarm.DefaultStackName + "_postgres"}
	default:
		runner = composeExecRunner{eng: composeEngine(opts, log), service: "postgres"}
	}

	started := time.Now()
	res, err := pgbackup.DumpAll(ctx, runner, pgbackup.Options{
		User:      "dokploy",
		Password:  set.Lookup(envfile.KeyDBPassword),
		OutputDir: outputDir,
		Compress:  compress,
		Databases: databases,
		ProgressHook: func(current, total int, database string) {
			fmt.Fprintf(cmd.OutOrStdout(), "[%d/%d] dumping %s\n", current, total, database)
		},
	})
	recordHistory(opts.Dir, "backup", mode, started, err, log)
	if err != nil {
		return err
	}
	color.Green("Backup written to %s (%d databases).", res.ArchivePath, len(res.Databases))
	return nil
}
