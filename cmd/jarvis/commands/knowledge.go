package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/flynn-ai/jarvis/internal/knowledge"
	"github.com/flynn-ai/jarvis/internal/prompt"
)

var (
	knowledgeSourceURL string
	knowledgeLimit     int
)

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Manage the local knowledge index (add, search)",
	Long: `Manage the local SQLite knowledge index used by the "sqlite"
knowledge provider. HTML documents are converted to markdown before they
are indexed.

Examples:
  jarvis knowledge add docs/*.md
  jarvis knowledge add page.html --url https://example.com/page
  jarvis knowledge search "authentication flow"`,
}

var knowledgeAddCmd = &cobra.Command{
	Use:   "add <file>...",
	Short: "Index documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if knowledgeSourceURL != "" && len(args) > 1 {
			return fmt.Errorf("--url applies to a single file")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ix, err := knowledge.OpenIndex(cfg.Knowledge.DatabasePath, newLogger(cfg, false))
		if err != nil {
			return err
		}
		defer ix.Close()

		out := cmd.OutOrStdout()
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			doc, err := knowledge.FromFile(path, data)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			doc.URL = knowledgeSourceURL
			if doc.URL == "" {
				abs, err := filepath.Abs(path)
				if err != nil {
					return err
				}
				doc.URL = "file://" + filepath.ToSlash(abs)
			}
			id, err := ix.Add(cmd.Context(), doc)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Fprintf(out, "%s %s %s\n", titleStyle.Render("indexed"), doc.Title, dimStyle.Render(id))
		}

		n, err := ix.Count(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("%d documents in %s", n, cfg.Knowledge.DatabasePath)))
		return nil
	},
}

var knowledgeSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the configured knowledge provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a := &app{cfg: cfg, log: newLogger(cfg, false)}
		search, err := a.openKnowledge()
		if err != nil {
			return err
		}
		defer a.close()

		res, err := search.Search(cmd.Context(), args[0], knowledgeLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !res.Success {
			fmt.Fprintln(out, errorStyle.Render("search failed: ")+res.Error)
			return nil
		}
		if len(res.Results) == 0 {
			fmt.Fprintln(out, dimStyle.Render("no results"))
			return nil
		}
		for i, r := range res.Results {
			fmt.Fprintf(out, "%d. %s %s\n", i+1, labelStyle.Render(r.Title), dimStyle.Render(fmt.Sprintf("(%.2f)", r.Score)))
			if r.URL != "" {
				fmt.Fprintf(out, "   %s\n", dimStyle.Render(r.URL))
			}
			fmt.Fprintf(out, "   %s\n", prompt.Truncate(r.Preview, 150))
		}
		return nil
	},
}

func init() {
	knowledgeAddCmd.Flags().StringVar(&knowledgeSourceURL, "url", "", "source URL recorded for the document")
	knowledgeSearchCmd.Flags().IntVarP(&knowledgeLimit, "limit", "n", 5, "maximum results")

	knowledgeCmd.AddCommand(knowledgeAddCmd)
	knowledgeCmd.AddCommand(knowledgeSearchCmd)
	rootCmd.AddCommand(knowledgeCmd)
}
