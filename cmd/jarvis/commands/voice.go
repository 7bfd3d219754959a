package commands

import (
	"github.com/spf13/cobra"

	"github.com/flynn-ai/jarvis/internal/voice"
)

var voicePort int

var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Run the voice front-end",
	Long: `Run the voice front-end: speech-to-text, a proxy to the brain and
text-to-speech. Without an OpenAI API key only the proxy is available.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if voicePort > 0 {
			cfg.Voice.Port = voicePort
		}
		log := newLogger(cfg, true)
		vc := cfg.Voice

		sc := &voice.Config{
			Brain:  voice.NewBrainClient(vc.BrainURL, cfg.BrainTimeout()),
			Port:   vc.Port,
			Host:   cfg.Server.Host,
			Logger: log,
		}
		speech, err := voice.NewOpenAISpeech(voice.OpenAIConfig{
			APIKey:   vc.OpenAIKey,
			BaseURL:  vc.OpenAIBaseURL,
			STTModel: vc.STTModel,
			TTSModel: vc.TTSModel,
			Voice:    vc.TTSVoice,
			Speed:    vc.TTSSpeed,
			Language: vc.Language,
		})
		if err != nil {
			log.Warn().Err(err).Msg("voice features will be limited")
		} else {
			sc.Speech = speech
		}

		srv := voice.New(sc)
		return runUntilSignal(cmd.Context(), log, srv.Start, srv.Shutdown)
	},
}

func init() {
	voiceCmd.Flags().IntVarP(&voicePort, "port", "p", 0, "listen port (default from config)")
	rootCmd.AddCommand(voiceCmd)
}
