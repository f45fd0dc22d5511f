package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/johnwards/crmimport/internal/config"
	"github.com/johnwards/crmimport/internal/importer"
	"github.com/johnwards/crmimport/internal/metrics"
)

type importOptions struct {
	encoding string
	noGC     bool
}

func newImportCmd(a *app) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <model> <csvfile> <tenant_pk> [sugar]",
		Short: "Import accounts or contacts from a Sugar CSV export",
		Long: `Import accounts and then contacts from separate CSV files.

  crmimport import accounts partners.csv 10
  crmimport import contacts contacten.csv 10

model is account(s) or contact(s). csvfile may be "-" for standard input.
sugar defaults to 1, which skips contacts without a Sugar ID.
USERMAPPING must hold "sugarname:email" pairs separated by ';'.`,
		Args: usageArgs(cobra.RangeArgs(3, 4)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, a, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.encoding, "encoding", "utf-8", "Character set of the CSV file: utf-8, latin1 or windows-1252")
	cmd.Flags().BoolVar(&opts.noGC, "no-gc", false, "Do not force a garbage collection after every row")
	return cmd
}

func runImport(cmd *cobra.Command, a *app, opts importOptions, args []string) error {
	ctx := cmd.Context()

	model, err := importer.ParseModel(args[0])
	if err != nil {
		return withCode(exitImport, err)
	}
	tenantID, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("invalid tenant_pk %q: %w", args[2], err))
	}
	sugar := len(args) < 4 || args[3] == "1"

	enc, err := importer.ParseEncoding(opts.encoding)
	if err != nil {
		return withCode(exitUsage, err)
	}
	users, err := config.ParseUserMapping(a.cfg.UserMapping)
	if err != nil {
		return withCode(exitUsage, err)
	}

	src, closeSrc, err := openSource(cmd, args[1])
	if err != nil {
		return withCode(exitUsage, err)
	}
	defer closeSrc()

	s, closeDB, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	m := metrics.New()
	imp := importer.New(s,
		importer.WithLogger(a.logger),
		importer.WithMetrics(m),
		importer.WithGC(!opts.noGC),
	)

	res, runErr := imp.Run(ctx, importer.Request{
		Model:    model,
		TenantID: tenantID,
		Source:   src,
		FileName: args[1],
		Encoding: enc,
		Sugar:    sugar,
		Users:    users,
	})

	if a.cfg.MetricsFile != "" {
		if err := m.WriteTextfile(a.cfg.MetricsFile); err != nil {
			a.logger.Error("write metrics file", "path", a.cfg.MetricsFile, "error", err)
		}
	}

	if runErr != nil {
		return withCode(exitImport, runErr)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(),
		"import %d (run %s): %d rows, %d created, %d updated, %d skipped, %d filtered, %d failed\n",
		res.ImportID, res.RunID, res.Rows, res.Created, res.Updated, res.Skipped, res.Filtered, res.Failed)
	return nil
}

// openSource opens the CSV file, or standard input for "-".
func openSource(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open csv file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
