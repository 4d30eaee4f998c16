package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Show or change the voice settings",
	Args:  cobra.NoArgs,
	RunE:  showVoice,
}

func init() {
	voiceCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the current voice settings",
			Args:  cobra.NoArgs,
			RunE:  showVoice,
		},
		&cobra.Command{
			Use:     "provider NAME",
			Short:   "Set the provider (echo, openai, elevenlabs, gemini)",
			Example: paragraph("parrot voice provider openai"),
			Args:    cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				store, err := openSettings()
				if err != nil {
					return err
				}
				return store.SetProvider(args[0])
			},
		},
		&cobra.Command{
			Use:     "model [NAME]",
			Short:   "Set the model, or clear it to use the provider default",
			Example: paragraph("parrot voice model tts-1-hd\nparrot voice model"),
			Args:    cobra.MaximumNArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				store, err := openSettings()
				if err != nil {
					return err
				}
				model := ""
				if len(args) == 1 {
					model = args[0]
				}
				return store.SetModel(model)
			},
		},
		&cobra.Command{
			Use:   "key KEY",
			Short: "Store the provider API key",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				store, err := openSettings()
				if err != nil {
					return err
				}
				return store.SetAPIKey(args[0])
			},
		},
		&cobra.Command{
			Use:   "clear-key",
			Short: "Remove the stored API key",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				store, err := openSettings()
				if err != nil {
					return err
				}
				return store.ClearAPIKey()
			},
		},
		&cobra.Command{
			Use:   "volume LEVEL",
			Short: "Set the playback volume (0.0 to 1.0)",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				v, err := strconv.ParseFloat(args[0], 64)
				if err != nil {
					return fmt.Errorf("invalid volume %q: %w", args[0], err)
				}
				store, err := openSettings()
				if err != nil {
					return err
				}
				return store.SetVolume(v)
			},
		},
		&cobra.Command{
			Use:       "audio on|off",
			Short:     "Enable or disable audio output",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"on", "off"},
			RunE: func(_ *cobra.Command, args []string) error {
				var enabled bool
				switch args[0] {
				case "on":
					enabled = true
				case "off":
				default:
					return fmt.Errorf("expected on or off, got %q", args[0])
				}
				store, err := openSettings()
				if err != nil {
					return err
				}
				return store.SetEnabled(enabled)
			},
		},
	)
}

func showVoice(cmd *cobra.Command, _ []string) error {
	store, err := openSettings()
	if err != nil {
		return err
	}
	vs, err := store.VoiceSettings(context.Background())
	if err != nil {
		return err
	}
	prefs := store.Audio()

	provider := vs.Provider
	if provider == "" {
		provider = "echo " + faint("(default)")
	}
	model := vs.Model
	if model == "" {
		model = faint("provider default")
	}
	key := faint("not set")
	if vs.HasKey {
		key = maskKey(vs.APIKey)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", keyword("provider:"), provider)
	fmt.Fprintf(out, "%s    %s\n", keyword("model:"), model)
	fmt.Fprintf(out, "%s      %s\n", keyword("key:"), key)
	fmt.Fprintf(out, "%s   %.2f\n", keyword("volume:"), prefs.Volume)
	fmt.Fprintf(out, "%s  %t\n", keyword("enabled:"), prefs.Enabled)
	fmt.Fprintln(out, faint("settings: "+store.Path()))
	return nil
}

// maskKey keeps the last four characters.
func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
