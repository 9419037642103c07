package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/litikesh/Patient-Record-Management-System/internal/records"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Write bool
	CSV   string // export path, "-" for stdout
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <sql> [params...]",
		Short: "Run a raw SQL query",
		Long: `Run one SQL statement against the patient database. Parameters bind to
$1, $2, ... (or ?) in order, as text unless prefixed with int: or float:
(e.g. int:10 for a LIMIT). Column affinity converts text compared against
numeric columns, so WHERE id = $1 with 1 matches.

Queries are read-only unless --write is given.

--csv FILE exports the rows as CSV (use - for stdout). Text cells are quoted,
NULL cells are empty. Nothing is written when the query returns no rows.

With --format json the result envelope is printed as is:
  {"success": true, "data": [...], "error": null}

Example:
  prms query 'SELECT id, first_name FROM patients WHERE id = $1' 1`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			return runQuery(opts, args[0], params, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Write, "write", false, "allow statements that modify the database")
	cmd.Flags().StringVar(&opts.CSV, "csv", "", "export result rows as CSV to `FILE` (- for stdout)")

	return cmd
}

func runQuery(opts *QueryOptions, query string, params []any, cmd *cobra.Command) error {
	s, err := openSession(cmd.Context(), opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	var result records.QueryResult
	if opts.Write {
		result = s.app.Records().RunQuery(cmd.Context(), query, params...)
	} else {
		result = s.app.Query(cmd.Context(), query, params...)
	}

	if result.Success && opts.CSV != "" {
		return exportCSV(s.formatter, opts.CSV, result)
	}

	if err := writeQueryResult(s.formatter, result); err != nil {
		return err
	}
	if !result.Success {
		exitErr := WrapExitError(ExitFailure, "query failed", result.Err())
		exitErr.reported = true
		return exitErr
	}
	return nil
}

func writeQueryResult(f *OutputFormatter, result records.QueryResult) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if !result.Success {
		return f.Report(string(records.ErrCodeQuery), *result.Error, nil)
	}
	writeRows(f.Writer, result.Data)
	return nil
}

// CSVExport is the JSON payload of query --csv FILE.
type CSVExport struct {
	Path string `json:"path"`
	Rows int    `json:"rows"`
}

func exportCSV(f *OutputFormatter, path string, result records.QueryResult) error {
	if len(result.Data) == 0 {
		f.VerboseLog("No rows to export")
		return f.Render(CSVExport{Path: path}, func(w io.Writer) {
			fmt.Fprintln(w, "No results to export.")
		})
	}

	if path == "-" {
		return writeCSV(f.Writer, result.Columns, result.Data)
	}

	file, err := os.Create(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create CSV file", err)
	}
	if err := writeCSV(file, result.Columns, result.Data); err != nil {
		file.Close()
		return WrapExitError(ExitFailure, "failed to write CSV file", err)
	}
	if err := file.Close(); err != nil {
		return WrapExitError(ExitFailure, "failed to write CSV file", err)
	}

	export := CSVExport{Path: path, Rows: len(result.Data)}
	return f.Render(export, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Exported %d rows to %s\n", export.Rows, export.Path)
	})
}

// parseParams binds every argument as text, leaving conversion to SQLite
// column affinity, so values such as "0123456789" keep their leading zeros.
// An int: or float: prefix binds a number instead; text: escapes a value that
// itself starts with one of the prefixes.
func parseParams(args []string) ([]any, error) {
	params := make([]any, len(args))
	for i, arg := range args {
		kind, value, found := strings.Cut(arg, ":")
		if !found {
			params[i] = arg
			continue
		}

		switch kind {
		case "int":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, NewExitError(ExitCommandError, fmt.Sprintf("parameter %d: invalid integer %q", i+1, value))
			}
			params[i] = n
		case "float":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, NewExitError(ExitCommandError, fmt.Sprintf("parameter %d: invalid number %q", i+1, value))
			}
			params[i] = f
		case "text":
			params[i] = value
		default:
			params[i] = arg
		}
	}
	return params, nil
}
