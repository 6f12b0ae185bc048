// Package pgbackup orchestrates pg_dump executions inside the stack's
// postgres container for 'dokctl backup'.
package pgbackup

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ExecRunner runs a command inside the database container. The compose
// backend execs through `docker compose exec`; the swarm backend resolves
// the local task container first.
type ExecRunner interface {
	Exec(ctx context.Context, command []string, stdout, stderr io.Writer) error
}

type Options struct {
	User         string
	Password     string
	OutputDir    string
	ArchiveName  string
	Compress     bool
	Databases    []string
	Timestamp    time.Time
	ProgressHook func(current, total int, database string)
}

type Result struct {
	ArchivePath string
	Databases   []string
}

// DumpAll dumps every requested database (discovering them when none are
// named) and packs the dumps into one tar archive.
func DumpAll(ctx context.Context, runner ExecRunner, opts Options) (*Result, error) {
	if runner == nil {
		return nil, fmt.Errorf("exec runner is required")
	}
	user := opts.User
	if user == "" {
		user = "dokploy"
	}
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	ts := opts.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	dbs := dedupe(opts.Databases)
	if len(dbs) == 0 {
		var err error
		dbs, err = discoverDatabases(ctx, runner, user, opts.Password)
		if err != nil {
			return nil, err
		}
	}
	if len(dbs) == 0 {
		return nil, fmt.Errorf("no databases found to dump")
	}

	tempDir, err := os.MkdirTemp("", "dokctl-pgbackup-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	tempPaths := make(map[string]string, len(dbs))
	for i, db := range dbs {
		if opts.ProgressHook != nil {
			opts.ProgressHook(i+1, len(dbs), db)
		}
		tempPath := filepath.Join(tempDir, fmt.Sprintf("%s.sql", db))
		if err := dumpDatabase(ctx, runner, user, opts.Password, db, tempPath); err != nil {
			return nil, err
		}
		tempPaths[db] = tempPath
	}

	archiveName := opts.ArchiveName
	if archiveName == "" {
		archiveName = fmt.Sprintf("dokploy_backup_%s.tar", ts.Format("20060102_150405"))
		if opts.Compress {
			archiveName += ".gz"
		}
	}
	archivePath := filepath.Join(outputDir, archiveName)
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	defer archiveFile.Close()

	var writer io.Writer = archiveFile
	var gz *gzip.Writer
	if opts.Compress {
		gz = gzip.NewWriter(archiveFile)
		writer = gz
	}
	tarWriter := tar.NewWriter(writer)
	defer tarWriter.Close()
	if gz != nil {
		defer gz.Close()
	}

	for _, db := range dbs {
		dumpPath := tempPaths[db]
		info, err := os.Stat(dumpPath)
		if err != nil {
			return nil, fmt.Errorf("stat dump for %s: %w", db, err)
		}
		header := &tar.Header{
			Name:    fmt.Sprintf("%s.sql", db),
			Size:    info.Size(),
			Mode:    0o600,
			ModTime: ts,
		}
		if err := tarWriter.WriteHeader(header); err != nil {
			return nil, fmt.Errorf("write tar header for %s: %w", db, err)
		}
		file, err := os.Open(dumpPath)
		if err != nil {
			return nil, fmt.Errorf("open dump for %s: %w", db, err)
		}
		if _, err := io.Copy(tarWriter, file); err != nil {
			file.Close()
			return nil, fmt.Errorf("copy dump for %s: %w", db, err)
		}
		file.Close()
	}

	return &Result{ArchivePath: archivePath, Databases: dbs}, nil
}

func dumpDatabase(ctx context.Context, runner ExecRunner, user, password, database, path string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dump file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close dump file: %w", cerr)
		}
	}()

	var stderr bytes.Buffer
	base := []string{"pg_dump", "-U", user, "--dbname", database}
	if err := runner.Exec(ctx, withPassword(password, base), file, &stderr); err != nil {
		return fmt.Errorf("dump %s: %w: %s", database, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func withPassword(password string, base []string) []string {
	buf := make([]string, len(base))
	copy(buf, base)
	if password == "" {
		return buf
	}
	cmd := make([]string, 0, len(base)+2)
	cmd = append(cmd, "env", fmt.Sprintf("PGPASSWORD=%s", password))
	cmd = append(cmd, buf...)
	return cmd
}

func dedupe(values []string) []string {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func discoverDatabases(ctx context.Context, runner ExecRunner, user, password string) ([]string, error) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	query := "SELECT datname FROM pg_database WHERE datistemplate = false ORDER BY datname"
	base := []string{"psql", "-U", user, "-tAc", query}
	if err := runner.Exec(ctx, withPassword(password, base), &stdout, &stderr); err != nil {
		return nil, fmt.Errorf("list databases: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	lines := strings.Split(stdout.String(), "\n")
	var names []string
	for _, line := range lines {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return dedupe(names), nil
}
