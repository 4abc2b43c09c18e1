// sfinfo dumps the instrument and sample tables of a SoundFont 2 file
// without loading any PCM data, mirroring moddump's role for the teacher
// repo's MOD/S3M formats.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/pommicket/sfsynth"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("sfinfo: ")

	if len(os.Args) <= 1 {
		log.Fatal("Missing SoundFont filename")
	}

	sfsynth.WarnHandler = func(err error) {
		fmt.Fprintln(os.Stderr, color.YellowString("Warning: %v", err))
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	sf, err := sfsynth.ReadSoundFont(f)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s\n", color.CyanString("%d instrument(s), %d sample header(s)", sf.NumInstruments(), len(sf.SampleHeaders)))
	for i := 0; i < sf.NumInstruments(); i++ {
		in := sf.Instruments[i]
		bagLo, bagHi := in.BagIndex, sf.Instruments[i+1].BagIndex
		fmt.Printf("  [%2d] %-20s zones=%d\n", i, in.Name, bagHi-bagLo)
	}

	fmt.Println(color.CyanString("\nsamples:"))
	for _, s := range sf.SampleHeaders {
		fmt.Printf("  %-20s rate=%6d frames=%8d loop=[%d,%d]\n", s.Name, s.SampleRate, s.Count, s.LoopStart, s.LoopEnd)
	}
}
