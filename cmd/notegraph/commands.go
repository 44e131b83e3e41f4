package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/notegraph/notegraph/internal/storage"
	"github.com/notegraph/notegraph/pkg/rdf"
	"github.com/notegraph/notegraph/pkg/sparql/engine"
	"github.com/notegraph/notegraph/pkg/store"
	"github.com/notegraph/notegraph/pkg/vault"
)

// loadVault opens the configured vault and indexes it into a fresh store
func loadVault() (*store.TripleStore, *vault.Vault, *vault.Indexer, error) {
	st, err := storage.NewMemoryStorage()
	if err != nil {
		return nil, nil, nil, err
	}
	s := store.NewTripleStore(st)

	v, err := vault.Open(flagVault, vault.WithExcludes(flagExcludes...))
	if err != nil {
		_ = s.Close()
		return nil, nil, nil, err
	}

	ix := vault.NewIndexer(s)
	if err := v.Load(ix); err != nil {
		_ = s.Close()
		return nil, nil, nil, err
	}
	return s, v, ix, nil
}

func newQueryCmd() *cobra.Command {
	var (
		format  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "query <query string>",
		Short: "Run a query against the vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, _, err := loadVault()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			result, err := engine.New(s).Query(ctx, args[0])
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "output format: table, json")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "query timeout")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show vault and store statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, v, ix, err := loadVault()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "vault:     %s\n", v.Root())
			fmt.Fprintf(out, "documents: %d\n", len(ix.Paths()))
			fmt.Fprintf(out, "triples:   %d\n", s.Len())
			return nil
		},
	}
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the index live and answer queries from stdin",
		Long: "Watches the vault for changes, reindexing notes as they are " +
			"created, edited or deleted. Queries are read from stdin, " +
			"terminated by a line containing only a semicolon.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, v, ix, err := loadVault()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			w, err := vault.NewWatcher(v, ix, slog.Default())
			if err != nil {
				return err
			}
			defer func() { _ = w.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go func() {
				if err := w.Run(ctx); err != nil && ctx.Err() == nil {
					slog.Error("watcher stopped", "error", err)
				}
			}()

			return queryLoop(ctx, cmd, engine.New(s))
		},
	}
}

// queryLoop reads semicolon-terminated queries from stdin until EOF or
// cancellation.
func queryLoop(ctx context.Context, cmd *cobra.Command, e *engine.Engine) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var sb strings.Builder
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		line := scanner.Text()
		if strings.TrimSpace(line) != ";" {
			sb.WriteString(line)
			sb.WriteByte('\n')
			continue
		}

		query := strings.TrimSpace(sb.String())
		sb.Reset()
		if query == "" {
			continue
		}

		result, err := e.Query(ctx, query)
		if err != nil {
			fmt.Fprintln(out, "error:", err)
			continue
		}
		if err := printResult(out, result, "table"); err != nil {
			return err
		}
		fmt.Fprintf(out, "(%d rows)\n", result.Count())
	}
	return scanner.Err()
}

func printResult(out io.Writer, result *engine.Result, format string) error {
	switch format {
	case "table":
		return printTable(out, result)
	case "json":
		return printJSON(out, result)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func printTable(out io.Writer, result *engine.Result) error {
	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)

	header := make([]string, len(result.Variables))
	for i, v := range result.Variables {
		header[i] = "?" + v
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, row := range result.Rows {
		cells := make([]string, len(result.Variables))
		for i, name := range result.Variables {
			if term, ok := row.Get(name); ok {
				cells[i] = term.String()
			}
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	return w.Flush()
}

// jsonTerm mirrors the shape of a bound term in JSON output
type jsonTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Language string `json:"language,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

func printJSON(out io.Writer, result *engine.Result) error {
	type output struct {
		Variables []string              `json:"variables"`
		Rows      []map[string]jsonTerm `json:"rows"`
	}

	rows := make([]map[string]jsonTerm, 0, len(result.Rows))
	for _, row := range result.Rows {
		encoded := make(map[string]jsonTerm)
		for _, name := range result.Variables {
			term, ok := row.Get(name)
			if !ok {
				continue
			}
			encoded[name] = encodeTerm(term)
		}
		rows = append(rows, encoded)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(output{Variables: result.Variables, Rows: rows})
}

func encodeTerm(term rdf.Term) jsonTerm {
	switch t := term.(type) {
	case *rdf.NamedNode:
		return jsonTerm{Type: "iri", Value: t.IRI}
	case *rdf.BlankNode:
		return jsonTerm{Type: "bnode", Value: t.ID}
	case *rdf.Literal:
		out := jsonTerm{Type: "literal", Value: t.Value, Language: t.Language}
		if t.Datatype != nil {
			out.Datatype = t.Datatype.IRI
		}
		return out
	default:
		return jsonTerm{Type: "unknown", Value: term.String()}
	}
}
