package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vsariola/sampler"
	"github.com/vsariola/sampler/bank"
	samplercmd "github.com/vsariola/sampler/cmd"
	"github.com/vsariola/sampler/oto"
	"github.com/vsariola/sampler/player"
)

var (
	liveInput string
	liveList  bool
)

var liveCmd = &cobra.Command{
	Use:   "live <instrument>",
	Short: "Play an instrument from a MIDI input device until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE:  runLive,
}

func init() {
	liveCmd.Flags().StringVarP(&liveInput, "input", "i", "", "open the first MIDI input whose name starts with this (default: the first input)")
	liveCmd.Flags().BoolVarP(&liveList, "list", "l", false, "list the MIDI inputs and exit")
	rootCmd.AddCommand(liveCmd)
}

func runLive(cmd *cobra.Command, args []string) error {
	b, err := bank.Open(args[0], logger)
	if err != nil {
		return err
	}
	midiContext := samplercmd.NewMIDIContext(b.Config.SampleRate)
	defer midiContext.Close()
	out := cmd.OutOrStdout()
	if liveList {
		return listInputs(cmd, midiContext)
	}
	in, err := player.OpenInput(midiContext, liveInput)
	if err != nil {
		return err
	}
	p, _, err := b.NewPlayer()
	if err != nil {
		return err
	}
	audio, err := oto.NewContext(b.Config.SampleRate)
	if err != nil {
		return fmt.Errorf("could not acquire oto AudioContext: %w", err)
	}
	defer audio.Close()
	playing := audio.Play(func(buf sampler.AudioBuffer) error {
		p.Process(buf, midiContext)
		return nil
	})
	defer playing.Close()
	fmt.Fprintf(out, "%s %s %s\n", titleStyle.Render(b.Name), labelStyle.Render(in.String()), helpStyle.Render("[ctrl+c to quit]"))
	logger.Info("playing live", "instrument", b.Name, "input", in.String(), "mode", p.Mode())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	return nil
}

func listInputs(cmd *cobra.Command, midiContext player.MIDIContext) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("MIDI inputs"), helpStyle.Render("["+midiContext.Support().String()+"]"))
	n := 0
	for in := range midiContext.Inputs {
		n++
		fmt.Fprintf(out, "  %s %s\n", labelStyle.Render(fmt.Sprintf("%2d.", n)), in.String())
	}
	if n == 0 {
		fmt.Fprintln(out, helpStyle.Render("  none"))
	}
	return nil
}
