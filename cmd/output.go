package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/core/jsontime"
	"github.com/frahmantamala/admin-console/internal/core/slice"
	"github.com/spf13/cobra"
)

type table struct {
	w *tabwriter.Writer
}

func newTable(out io.Writer, headers ...string) *table {
	t := &table{w: tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)}
	t.row(toAny(headers)...)
	return t
}

func (t *table) row(cols ...any) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = cell(c)
	}
	fmt.Fprintln(t.w, strings.Join(parts, "\t"))
}

func (t *table) flush() error {
	return t.w.Flush()
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case string:
		if x == "" {
			return "-"
		}
		return x
	case *bool:
		if x == nil {
			return "-"
		}
		return strconv.FormatBool(*x)
	case *int64:
		if x == nil {
			return "-"
		}
		return strconv.FormatInt(*x, 10)
	case jsontime.Time:
		if x.IsZero() {
			return "-"
		}
		return x.Local().Format("2006-01-02 15:04")
	case time.Time:
		if x.IsZero() {
			return "-"
		}
		return x.Local().Format("2006-01-02 15:04")
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64)
	}
	return fmt.Sprint(v)
}

func wantJSON() bool {
	return outputFormat == "json"
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPagination(out io.Writer, p *slice.Pagination, shown int) {
	if p == nil {
		return
	}
	fmt.Fprintf(out, "\nshowing %d of %d (page %d)\n", shown, p.Total, p.Page)
}

func printError(out io.Writer, err error) {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		fmt.Fprintln(out, "Error:", err)
		return
	}
	fmt.Fprintf(out, "Error: %s\n", appErr.Message)
	if details, ok := appErr.Details.(internal.ValidationErrors); ok {
		for _, fe := range details.Errors {
			fmt.Fprintf(out, "  %s: %s\n", fe.Field, fe.Message)
		}
	}
}

// readSecret takes the flag value when set, otherwise one line from stdin.
func readSecret(cmd *cobra.Command, value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := readLine(cmd.InOrStdin())
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return line, nil
}

// readLine reads up to the next newline without buffering past it, so
// consecutive prompts share stdin.
func readLine(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n == 1 {
			if buf[0] == '\n' {
				return strings.TrimRight(sb.String(), "\r"), nil
			}
			sb.WriteByte(buf[0])
		}
		if err != nil {
			return sb.String(), err
		}
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, internal.NewValidationFieldError("id", fmt.Sprintf("%q is not a valid id", s), internal.ErrCodeValidationFailed)
	}
	return id, nil
}

func boolFlag(cmd *cobra.Command, name string, v bool) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func int64Flag(cmd *cobra.Command, name string, v int64) *int64 {
	if !cmd.Flags().Changed(name) || v <= 0 {
		return nil
	}
	return &v
}
