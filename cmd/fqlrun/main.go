// Command fqlrun runs a single FQL query against a built-in demo FoLiA
// document and prints the result. It does no file or network I/O: the
// document lives entirely in memory (internal/docmodel/memdoc), making this
// a one-shot way to exercise the query language without a real corpus.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/foliaquery/fql/internal/docmodel/memdoc"
	"github.com/foliaquery/fql/internal/fql"
)

func main() {
	_ = godotenv.Load() // optional .env providing FQL_FORMAT/FQL_RETURN defaults

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var format, returnType string
	var trace bool

	root := &cobra.Command{
		Use:   "fqlrun QUERY",
		Short: "Run a FoLiA Query Language statement against a demo document",
		Long: "fqlrun parses and evaluates a single FQL statement against an\n" +
			"in-memory sample document (one paragraph, two sentences, token\n" +
			"annotation and one entity span), then prints the result.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args[0], format, returnType, trace)
		},
	}

	root.Flags().StringVarP(&format, "format", "f", envOr("FQL_FORMAT", ""), "override the query's FORMAT clause (xml, json, python, single-xml, ...)")
	root.Flags().StringVarP(&returnType, "return", "r", envOr("FQL_RETURN", ""), "override the query's RETURN clause (focus, target)")
	root.Flags().BoolVarP(&trace, "trace", "t", false, "print a unified diff of every EDIT to stderr")

	root.AddCommand(newListCmd())
	return root
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the element classes the demo document knows about",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range memdoc.NewRegistry().Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func runQuery(cmd *cobra.Command, raw, formatOverride, returnOverride string, trace bool) error {
	doc := memdoc.BuildSample()

	q, err := fql.ParseQuery(raw, doc.Classes())
	if err != nil {
		return fmt.Errorf("parsing query: %w", err)
	}
	if formatOverride != "" {
		q.Format = formatOverride
	}
	if returnOverride != "" {
		q.ReturnType = returnOverride
	}

	var tracer *fql.Tracer
	if trace {
		tracer = fql.NewTracer(cmd.ErrOrStderr(), "fqlrun")
	}

	result, err := fql.RunTraced(q, doc, tracer)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	switch v := result.(type) {
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%v\n", v)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
