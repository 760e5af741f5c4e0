package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/okian/chordscan/internal/adapters/musicxml"
	service "github.com/okian/chordscan/internal/app"
	"github.com/okian/chordscan/internal/domain/model"
	"github.com/okian/chordscan/internal/domain/types"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <file>",
		Short: "Recognize one score and print its chords as JSON",
		Long: `Run a score image or PDF through the OMR engine and chord inference,
printing the same JSON body the HTTP API returns.

Example:
  chordscan scan page.png`,
		Args: cobra.ExactArgs(1),
		RunE: runScan,
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := setup(cmd, os.Stderr)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	in, err := localInput(args[0])
	if err != nil {
		return err
	}

	svc := newService(cfg)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	res, err := svc.ScanScore(ctx, in)
	if err != nil {
		_ = printJSON(cmd.OutOrStdout(), types.NewErrorResponse(err))
		return err
	}
	return printJSON(cmd.OutOrStdout(), types.NewScanResponse(res, res.ArtifactPath))
}

func newGateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gate <audio>",
		Short: "Print the language decision for a song",
		Long: `Read a song's tags (or its file name) and print the detected language
and whether the configured target language accepts it.

Example:
  chordscan gate Sa_Kanyang_Pamanaw.mp3`,
		Args: cobra.ExactArgs(1),
		RunE: runGate,
	}
}

func runGate(cmd *cobra.Command, args []string) error {
	cfg, err := setup(cmd, os.Stderr)
	if err != nil {
		return err
	}
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		return err
	}
	res := newGate(cfg).Check(cmd.Context(), path, filepath.Base(path))
	return printJSON(cmd.OutOrStdout(), res)
}

func newLeadSheetCmd() *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "leadsheet [chord...]",
		Short: "Write a lead sheet for a chord progression to stdout",
		Long: `Synthesize a MusicXML lead sheet with one measure per chord. Without
chords the placeholder progression is used.

Example:
  chordscan leadsheet --title "My Song" C G Am F > my-song.musicxml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd, os.Stderr)
			if err != nil {
				return err
			}
			chords := args
			if len(chords) == 0 {
				chords = service.PlaceholderProgression()
			}
			data, err := musicxml.Synthesize(title, chords, leadSheetOptions(cfg))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", service.DefaultLeadSheetTitle, "work title")
	return cmd
}

// localInput describes a file on disk the way the upload intake would.
func localInput(path string) (model.Input, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.Input{}, err
	}
	if info.IsDir() {
		return model.Input{}, fmt.Errorf("%s is a directory", path)
	}
	detected := ""
	if mt, err := mimetype.DetectFile(path); err == nil {
		detected = mt.String()
	}
	return model.Input{
		Path:         path,
		OriginalName: filepath.Base(path),
		Size:         info.Size(),
		DetectedMIME: detected,
	}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
