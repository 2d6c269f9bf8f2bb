package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/vsariola/sampler"
	"github.com/vsariola/sampler/bank"
	"github.com/vsariola/sampler/gomidi"
	"github.com/vsariola/sampler/meter"
	"github.com/vsariola/sampler/oto"
	"github.com/vsariola/sampler/report"
	"github.com/vsariola/sampler/wavfile"
)

var (
	renderDir   string
	renderWav   bool
	renderRaw   bool
	renderPCM16 bool
	renderBits  int
	renderPlay  bool
	renderTail  time.Duration
)

var renderCmd = &cobra.Command{
	Use:   "render <instrument> <song.mid>",
	Short: "Render a standard MIDI file with an instrument",
	Long: `Render plays every note of the MIDI file through the instrument and writes
the requested files to the output directory, named after the MIDI file. With
no output format given, the result is played instead.`,
	Args: cobra.ExactArgs(2),
	RunE: runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderDir, "out", "o", "", "directory for the output files, created if needed (default: working directory)")
	f.BoolVarP(&renderWav, "wav", "w", false, "write a .wav file")
	f.BoolVarP(&renderRaw, "raw", "r", false, "write a .raw file of interleaved stereo float32")
	f.BoolVarP(&renderPCM16, "pcm16", "c", false, "write the .raw file as 16-bit signed PCM instead")
	f.IntVar(&renderBits, "bits", 16, "bit depth of the .wav file: 16, 24 or 32")
	f.BoolVarP(&renderPlay, "play", "p", false, "play the result (default when no file is written)")
	f.DurationVar(&renderTail, "tail", 10*time.Second, "longest time to keep rendering after the last event while voices still sound")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	b, err := bank.Open(args[0], logger)
	if err != nil {
		return err
	}
	rate := b.Config.SampleRate
	f, err := os.Open(args[1])
	if err != nil {
		return fmt.Errorf("could not read file %v: %w", args[1], err)
	}
	events, err := gomidi.ReadSMF(f, rate)
	f.Close()
	if err != nil {
		return fmt.Errorf("%v: %w", args[1], err)
	}
	p, _, err := b.NewPlayer()
	if err != nil {
		return err
	}
	tail := int(renderTail.Seconds() * float64(rate))
	start := time.Now()
	buffer := p.Render(events, tail)
	logger.Info("rendered", "song", args[1], "events", len(events), "frames", len(buffer), "took", time.Since(start))

	name := filepath.Base(args[1])
	name = strings.TrimSuffix(name, filepath.Ext(name))
	summary := report.RenderSummary{Name: name, Frames: len(buffer), SampleRate: rate}
	if renderWav {
		path, err := writeOutput(name, ".wav", func(f *os.File) error {
			return wavfile.Write(f, buffer, rate, renderBits)
		})
		if err != nil {
			return err
		}
		summary.Outputs = append(summary.Outputs, path)
	}
	if renderRaw {
		raw, err := buffer.Raw(renderPCM16)
		if err != nil {
			return fmt.Errorf("could not generate .raw file: %w", err)
		}
		path, err := writeOutput(name, ".raw", func(f *os.File) error {
			_, err := f.Write(raw)
			return err
		})
		if err != nil {
			return err
		}
		summary.Outputs = append(summary.Outputs, path)
	}
	summary.Level = meter.Measure(buffer, rate)
	r, err := reporter()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(b.Name))
	if err := r.Render(out, summary); err != nil {
		return err
	}
	if renderPlay || (!renderWav && !renderRaw) {
		return play(buffer, rate)
	}
	return nil
}

func writeOutput(name, extension string, write func(f *os.File) error) (string, error) {
	dir := renderDir
	if dir == "" {
		var err error
		if dir, err = os.Getwd(); err != nil {
			return "", fmt.Errorf("could not get working directory, specify the output directory explicitly: %w", err)
		}
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("could not create output directory %v: %w", dir, err)
	}
	path := filepath.Join(dir, name+extension)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("could not write file %v: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return "", fmt.Errorf("could not write file %v: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("could not write file %v: %w", path, err)
	}
	logger.Debug("wrote file", "path", path)
	return path, nil
}

func play(buffer sampler.AudioBuffer, rate int) error {
	audio, err := oto.NewContext(rate)
	if err != nil {
		return fmt.Errorf("could not acquire oto AudioContext: %w", err)
	}
	defer audio.Close()
	audio.Play(buffer.Source()).Wait()
	return nil
}
