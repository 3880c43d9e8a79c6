package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/imishinist/perfreport/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect verdict history",
	Long:  "Inspect the verdicts recorded by previous analyze runs",
}

var historyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show recorded verdicts",
	Long:  "Show recorded verdicts, oldest first, for every test or a single one",
	RunE:  historyShow,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyShowCmd.Flags().String("test", "", "Only show this test")
	historyShowCmd.Flags().String("path", "", "History file (default: storage.path)")
	historyShowCmd.Flags().Bool("json", false, "Print the raw history document")
}

func historyShow(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	test, _ := cmd.Flags().GetString("test")
	path, _ := cmd.Flags().GetString("path")
	asJSON, _ := cmd.Flags().GetBool("json")
	if path == "" {
		path = cfg.StoragePath
	}

	h := history.NewStore(path, history.WithLogger(logger)).Load()
	if test != "" {
		if _, ok := h[test]; !ok {
			return fmt.Errorf("no history for test %s", test)
		}
		h = history.History{test: h[test]}
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(h)
	}
	return printHistory(cmd.OutOrStdout(), h)
}

func printHistory(out io.Writer, h history.History) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TEST\tRUN\tVERDICT")
	for _, test := range h.Tests() {
		for _, run := range h.Runs(test) {
			fmt.Fprintf(w, "%s\t%s\t%s\n", test, run, h[test][run])
		}
	}
	return w.Flush()
}
