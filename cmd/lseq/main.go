// Command lseq runs the sequencer: a software clock driving Router and
// Sequencer, a Launchpad MK1 driver hot-plugged through midihw (falling
// back to a terminal visualizer when no pad is attached), and the
// pad-driven screen machine.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"lseq/audio"
	"lseq/config"
	"lseq/debug"
	"lseq/launchpad"
	"lseq/midihw"
	"lseq/router"
	"lseq/seqdata"
	"lseq/sequencer"
	"lseq/theme"
	"lseq/tui"
	"lseq/ui"
)

const sampleRate = 48000

func main() {
	if err := debug.Enable(); err != nil {
		fmt.Fprintf(os.Stderr, "lseq: debug log: %v\n", err)
	}
	defer debug.Disable()

	if err := run(); err != nil {
		debug.Log("startup", "fatal: %v", err)
		fmt.Fprintf(os.Stderr, "lseq: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	project := seqdata.NewProject()
	if cfg.UI.LastBPM > 0 {
		project.BPM = cfg.UI.LastBPM
	}

	synthOut := midihw.NewPort(256, nil)
	rtr := router.New(synthOut, nil)
	seqr := sequencer.New(project, rtr, sampleRate)

	mirror := launchpad.NewMirror()

	// hwSend holds the real Launchpad's outgoing send func, if one is
	// currently connected; it is nil whenever no hardware is attached.
	// The driver's own send func always runs through the mirror first, so
	// the terminal visualizer stays live with or without real hardware.
	var hwSend atomic.Pointer[func(data [3]byte) error]
	driver := launchpad.New(func(data [3]byte) error {
		_ = mirror.Handle(data)
		if f := hwSend.Load(); f != nil {
			return (*f)(data)
		}
		return nil
	})

	waker := ui.NewWaker()

	var seqScreen *ui.SequenceScreen
	openSequence := func(track, seqIdx int) {
		seqScreen.SetSequence(project.Tracks[track].Sequences[seqIdx])
	}
	trackScreen := ui.NewTrackScreen(project, seqr, driver, openSequence)
	songScreen := ui.NewSongScreen(driver)
	seqScreen = ui.NewSequenceScreen(rtr, driver, 0)

	machine := ui.NewMachine(driver, waker, trackScreen, songScreen, seqScreen)

	setSend := func(send func(data [3]byte) error) {
		if send == nil {
			hwSend.Store(nil)
			return
		}
		hwSend.Store(&send)
	}
	hwManager := midihw.NewManager(driver, setSend, synthOut, cfg.SynthOutput.PortName)

	client := audio.NewSoftClient(sampleRate, 5*time.Millisecond)
	client.SetProcessCallback(func(nframes int) {
		seqr.Process(client, nframes)
		rtr.Process(client, nframes)
		synthOut.Flush()
		if n := rtr.Underruns(); n > 0 {
			debug.LogEvery(100, "underrun", "router output underruns total=%d", n)
		}
	})

	stop := make(chan struct{})
	go hwManager.Run(stop)

	if err := client.Activate(); err != nil {
		return fmt.Errorf("activate audio client: %w", err)
	}
	defer client.Deactivate()

	go editLoop(waker, machine)

	th := theme.New(theme.DefaultPalette())
	model := tui.NewModel(project, machine, waker, driver, mirror, th)
	program := tea.NewProgram(model)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		waker.Exit()
		program.Quit()
	}()

	_, runErr := program.Run()

	close(stop)
	cfg.UI.LastBPM = project.BPM
	if saveErr := cfg.Save(); saveErr != nil {
		debug.Log("startup", "save config: %v", saveErr)
	}
	return runErr
}

// editLoop is the edit thread: block on the waker, run the active
// screen's Update, repeat until told to exit.
func editLoop(waker *ui.Waker, machine *ui.Machine) {
	for {
		waker.Wait()
		if waker.ShouldExit() {
			return
		}
		machine.Update()
	}
}
