// sfsynth plays a chosen instrument from a SoundFont 2 bank in real time,
// driven by a raw MIDI byte stream, with the portaudio default output
// device and optional WAV recording via MIDI controller 48.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/fatih/color"
	"github.com/gordonklaus/portaudio"
	"github.com/pommicket/sfsynth"
)

var (
	flagSF2        = flag.String("sf2", "", "path to a SoundFont 2 (.sf2) file")
	flagInstrument = flag.Int("instrument", -1, "instrument index to load (-1 = pick interactively)")
	flagHz         = flag.Int("hz", sfsynth.DefaultSampleRate, "output sample rate")
	flagMIDI       = flag.String("midi", "", "path to the MIDI device file to read from")

	errRed    = color.New(color.FgRed).SprintfFunc()
	warnYellow = color.New(color.FgYellow).SprintfFunc()
	cyan      = color.New(color.FgCyan).SprintfFunc()
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("sfsynth: ")
	flag.Parse()

	sfsynth.WarnHandler = func(err error) {
		fmt.Fprintln(os.Stderr, warnYellow("Warning: %v", err))
	}

	if *flagSF2 == "" || *flagMIDI == "" {
		fatal(fmt.Errorf("both -sf2 and -midi are required"))
	}

	if err := run(); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, errRed("Error: %v", err))
	os.Exit(1)
}

func run() error {
	sf2File, err := os.Open(*flagSF2)
	if err != nil {
		return &sfsynth.FileOpenError{Path: *flagSF2, Err: err}
	}
	defer sf2File.Close()

	sf, err := sfsynth.ReadSoundFont(sf2File)
	if err != nil {
		return err
	}

	idx := *flagInstrument
	if idx < 0 {
		idx, err = pickInstrument(sf)
		if err != nil {
			return err
		}
	}

	instrument, err := sf.LoadInstrument(idx)
	if err != nil {
		return err
	}
	fmt.Println(cyan("Loaded instrument %q", instrument.Name))

	midiFile, err := os.Open(*flagMIDI)
	if err != nil {
		return &sfsynth.FileOpenError{Path: *flagMIDI, Err: err}
	}
	defer midiFile.Close()

	voices := &sfsynth.VoiceTable{}
	engine := sfsynth.NewEngine(instrument, voices, *flagHz, sfsynth.DefaultBlockFrames)

	app, err := newApp(engine, voices, *flagHz)
	if err != nil {
		return err
	}
	defer app.Close()

	app.setupSignalHandlers()
	app.setupKeyboardHandlers()

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		m := &sfsynth.MIDIListener{
			Voices:        voices,
			SampleRate:    *flagHz,
			OpenRecording: openNextRecordingFile,
		}
		if err := m.Run(midiFile); err != nil {
			fmt.Fprintln(os.Stderr, errRed("Error: MIDI read failed: %v", err))
		}
		app.Stop()
	}()

	err = engine.Run(app.ctx.Done(), app)
	app.Stop()
	app.wg.Wait()
	return err
}

// app wires the engine to a portaudio blocking stream, owning the shared
// goroutine lifecycle exactly like the teacher's AudioPlayer.
type app struct {
	stream *portaudio.Stream
	outBuf []int16 // interleaved scratch, length nf*2
	voices *sfsynth.VoiceTable

	ctx      context.Context
	cancelFn context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func newApp(engine *sfsynth.Engine, voices *sfsynth.VoiceTable, hz int) (*app, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}

	a := &app{outBuf: make([]int16, engine.NF*2), voices: voices}
	a.ctx, a.cancelFn = context.WithCancel(context.Background())

	stream, err := portaudio.OpenDefaultStream(0, 2, float64(hz), engine.NF, &a.outBuf)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	a.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, err
	}

	return a, nil
}

// Submit implements devicehook.Sink: interleave the planar block into the
// stream's bound buffer and block until it's written.
func (a *app) Submit(left, right []int16) error {
	for i := range left {
		a.outBuf[2*i] = left[i]
		a.outBuf[2*i+1] = right[i]
	}
	return a.stream.Write()
}

// Recover implements devicehook.Recoverer: portaudio has no direct
// analog of ALSA's snd_pcm_recover, so recovery is a stop/start cycle.
func (a *app) Recover(err error) error {
	fmt.Fprintln(os.Stderr, warnYellow("Warning: audio underrun (%v), recovering", err))
	if err := a.stream.Stop(); err != nil {
		return err
	}
	return a.stream.Start()
}

func (a *app) setupSignalHandlers() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		select {
		case <-a.ctx.Done():
		case <-sigCh:
			a.Stop()
		}
	}()
}

func (a *app) setupKeyboardHandlers() {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		keyboard.Listen(func(key keys.Key) (stop bool, err error) {
			switch {
			case key.Code == keys.CtrlC || key.Code == keys.Escape || string(key.Runes) == "q":
				a.Stop()
				return true, nil
			case string(key.Runes) == "m":
				if a.voices.ToggleMute() {
					fmt.Println(cyan("muted"))
				} else {
					fmt.Println(cyan("unmuted"))
				}
			}
			return false, nil
		})
	}()
}

func (a *app) Stop() {
	a.stopOnce.Do(func() {
		a.cancelFn()
	})
}

func (a *app) Close() {
	a.Stop()
	if a.stream != nil {
		a.stream.Stop()
		a.stream.Close()
	}
	portaudio.Terminate()
}

// pickInstrument lists every instrument and lets the user browse with the
// arrow keys and select with Enter. Device/instrument selection is
// explicitly out of the core's scope (§1); this is the thin cmd-layer
// replacement for the original program's scanf-based terminal prompt.
func pickInstrument(sf *sfsynth.SoundFont) (int, error) {
	n := sf.NumInstruments()
	if n == 0 {
		return 0, fmt.Errorf("soundfont has no instruments")
	}

	for i := 0; i < n; i++ {
		fmt.Printf("  [%d] %s\n", i, sf.Instruments[i].Name)
	}

	sel := 0
	done := make(chan struct{})
	err := keyboard.Listen(func(key keys.Key) (stop bool, ierr error) {
		switch key.Code {
		case keys.Up:
			if sel > 0 {
				sel--
			}
		case keys.Down:
			if sel < n-1 {
				sel++
			}
		case keys.Enter:
			close(done)
			return true, nil
		case keys.CtrlC, keys.Escape:
			return true, io.EOF
		}
		fmt.Printf("\r%s", cyan("selected: [%d] %s", sel, sf.Instruments[sel].Name))
		return false, nil
	})
	if err != nil && err != io.EOF {
		return 0, err
	}
	return sel, nil
}

func openNextRecordingFile() (sfsynth.RecordingFile, error) {
	for i := 1; ; i++ {
		name := fmt.Sprintf("out-%02d.wav", i)
		if _, err := os.Stat(name); os.IsNotExist(err) {
			f, err := os.Create(name)
			if err != nil {
				return nil, err
			}
			fmt.Println(cyan("Recording to %s", name))
			return f, nil
		}
	}
}
