package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dgnsrekt/parrot/internal/tts"
	"github.com/dgnsrekt/parrot/internal/tts/engines"
)

var (
	sayMarkdown bool
	sayRepeat   int
	sayDryRun   bool
	saySplit    bool

	sayCmd = &cobra.Command{
		Use:   "say [TEXT...]",
		Short: "Speak text with the configured voice",
		Long: paragraph(fmt.Sprintf("\n%s text with the configured voice. Text comes from the arguments, or from stdin when piped or given as -. Repeats are served from the cache.", keyword("Speak"))),
		Example: paragraph("parrot say Hello there\necho 'Hello there' | parrot say\nparrot say --markdown - < README.md"),
		RunE:    runSay,
	}
)

func init() {
	sayCmd.Flags().BoolVarP(&sayMarkdown, "markdown", "m", false, "strip markdown formatting before speaking")
	sayCmd.Flags().IntVarP(&sayRepeat, "repeat", "r", 1, "speak the text N times")
	sayCmd.Flags().BoolVar(&sayDryRun, "dry-run", false, "synthesize without an audio device")
	sayCmd.Flags().BoolVarP(&saySplit, "sentences", "s", false, "speak sentence by sentence (always on for long text)")
}

func runSay(cmd *cobra.Command, args []string) error {
	if sayRepeat < 1 {
		return fmt.Errorf("--repeat must be at least 1, got %d", sayRepeat)
	}

	text, err := readInput(args, os.Stdin, term.IsTerminal(int(os.Stdin.Fd()))) //nolint:gosec
	if err != nil {
		return err
	}
	if sayMarkdown {
		text = tts.StripMarkdown(text)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openSettings()
	if err != nil {
		return err
	}
	prefs := store.Audio()

	synth, err := newSynthesizer(cfg, logger)
	if err != nil {
		return err
	}
	clips, err := newCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer clips.Close() //nolint:errcheck

	dryRun := sayDryRun || !prefs.Enabled
	p, err := newPlayer(dryRun, logger)
	if err != nil {
		return err
	}
	if err := p.SetVolume(prefs.Volume); err != nil {
		return err
	}
	// Voice changes are picked up by the next Speak; volume applies at once.
	if err := store.Watch(ctx, func() {
		if err := p.SetVolume(store.Audio().Volume); err != nil {
			logger.Warn("apply volume", "err", err)
		}
	}); err != nil {
		logger.Warn("settings will not reload", "err", err)
	}

	ctrl, err := tts.NewController(store, synth, p, tts.WithCache(clips), tts.WithLogger(logger))
	if err != nil {
		return err
	}
	defer ctrl.Close() //nolint:errcheck

	parts := splitInput(text, saySplit)

	out := cmd.OutOrStdout()
	for range sayRepeat {
		for _, part := range parts {
			res, err := ctrl.Speak(ctx, part)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, describeResult(res))
			if !dryRun {
				p.Wait(ctx.Done())
			}
			if ctx.Err() != nil {
				return nil
			}
		}
	}
	return nil
}

// splitInput returns the utterances for text. Long text is packed into
// sentence-aligned chunks the engines accept; with perSentence every sentence
// is its own utterance. Blank text stays a single utterance so Speak reports it.
func splitInput(text string, perSentence bool) []string {
	var parts []string
	switch {
	case perSentence:
		for _, s := range tts.SplitSentences(text) {
			parts = append(parts, tts.Chunk(s, engines.MaxTextSize)...)
		}
	case len(text) > engines.MaxTextSize:
		parts = tts.Chunk(text, engines.MaxTextSize)
	}
	if len(parts) == 0 {
		return []string{text}
	}
	return parts
}

// readInput joins the arguments, or reads stdin when it is piped or the only
// argument is "-".
func readInput(args []string, stdin io.Reader, stdinIsTerminal bool) (string, error) {
	fromStdin := (len(args) == 1 && args[0] == "-") || (len(args) == 0 && !stdinIsTerminal)
	if !fromStdin {
		if len(args) == 0 {
			return "", errors.New("nothing to say: pass text or pipe it on stdin")
		}
		return strings.Join(args, " "), nil
	}

	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("unable to read from stdin: %w", err)
	}
	return string(b), nil
}

func describeResult(res tts.Result) string {
	voice := res.Provider
	if res.Model != "" {
		voice += "/" + res.Model
	}
	switch {
	case res.FellBack:
		return warning("fell back to "+voice) + faint(fmt.Sprintf(" (%d bytes)", res.Bytes))
	case res.CacheHit:
		return "played " + keyword(voice) + faint(" (cached)")
	default:
		return "played " + keyword(voice) + faint(fmt.Sprintf(" (%d bytes)", res.Bytes))
	}
}
