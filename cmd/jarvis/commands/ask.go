package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flynn-ai/jarvis/internal/agent"
	"github.com/flynn-ai/jarvis/internal/server"
	"github.com/flynn-ai/jarvis/internal/voice"
	"github.com/flynn-ai/jarvis/pkg/protocol"
)

var (
	askURL    string
	askJSON   bool
	askStream bool
)

var askCmd = &cobra.Command{
	Use:   "ask <text>",
	Short: "Send one command and print the answer",
	Long: `Send one command to JARVIS. By default the command is processed
in-process with the local configuration; --url sends it to a running brain.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		var resp *protocol.CommandResponse
		if askURL != "" {
			data, err := voice.NewBrainClient(askURL, cfg.BrainTimeout()).Process(cmd.Context(), text)
			if err != nil {
				return err
			}
			if askJSON {
				_, err := fmt.Fprintln(out, string(data))
				return err
			}
			resp = &protocol.CommandResponse{}
			if err := json.Unmarshal(data, resp); err != nil {
				return fmt.Errorf("decode brain response: %w", err)
			}
		} else {
			a, err := newApp(cfg, newLogger(cfg, false))
			if err != nil {
				return err
			}
			defer a.close()

			var cb agent.StreamCallback
			if askStream && !askJSON {
				cb = func(chunk agent.StreamChunk) {
					label := chunk.Stage
					if chunk.Specialist != "" {
						label += " " + chunk.Specialist
					}
					fmt.Fprintln(out, dimStyle.Render("["+label+"]"))
				}
			}
			resp = server.NewCommandResponse(a.orch.ProcessStream(cmd.Context(), text, nil, cb))
		}

		if askJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}
		renderResponse(out, resp)
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askURL, "url", "", "brain URL (default: process locally)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the raw JSON response")
	askCmd.Flags().BoolVar(&askStream, "stream", false, "print progress stages while processing locally")
	rootCmd.AddCommand(askCmd)
}
