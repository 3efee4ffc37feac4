// Command miditest is a standalone diagnostic tool for poking at a
// Launchpad MK1 over raw MIDI, independent of the sequencer: listing
// ports, detecting the pad, resetting it, lighting a test pattern, and
// watching for hot-plug changes.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "detect":
		detectLaunchpad()
	case "reset":
		resetLaunchpad()
	case "leds":
		testLEDs()
	case "poll":
		pollDevices()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list    - List all MIDI ports")
	fmt.Println("  detect  - Find a Launchpad MK1")
	fmt.Println("  reset   - Send the MK1 reset + grid-layout commands")
	fmt.Println("  leds    - Test LED control")
	fmt.Println("  poll    - Poll for device changes")
}

func isLaunchpad(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "launchpad") && strings.Contains(name, "midi")
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	type result struct {
		ins  []drivers.In
		outs []drivers.Out
	}
	ch := make(chan result, 1)
	go func() {
		ins := midi.GetInPorts()
		outs := midi.GetOutPorts()
		ch <- result{ins: ins, outs: outs}
	}()

	select {
	case r := <-ch:
		for i, p := range r.ins {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for i, p := range r.outs {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
	case <-time.After(3 * time.Second):
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
	}
}

func detectLaunchpad() {
	fmt.Println("Looking for a Launchpad MK1...")

	ins := midi.GetInPorts()
	outs := midi.GetOutPorts()

	inIdx, outIdx := -1, -1

	for i, p := range ins {
		if isLaunchpad(p.String()) {
			fmt.Printf("Found input: %d: %s\n", i, p.String())
			inIdx = i
		}
	}

	for i, p := range outs {
		if isLaunchpad(p.String()) {
			fmt.Printf("Found output: %d: %s\n", i, p.String())
			outIdx = i
		}
	}

	if inIdx >= 0 && outIdx >= 0 {
		fmt.Println("\nLaunchpad MK1 detected!")
	} else {
		fmt.Println("\nLaunchpad MK1 not found")
	}
}

func findLaunchpadOut() drivers.Out {
	for _, p := range midi.GetOutPorts() {
		if isLaunchpad(p.String()) {
			return p
		}
	}
	return nil
}

// resetLaunchpad sends the MK1's reset command (0xB0 0x00 0x00) followed
// by the grid-layout select (0xB0 0x00 0x01). The MK1 has no SysEx
// programmer-mode handshake like the Launchpad X.
func resetLaunchpad() {
	outPort := findLaunchpadOut()
	if outPort == nil {
		fmt.Println("No Launchpad found")
		return
	}

	send, err := midi.SendTo(outPort)
	if err != nil {
		fmt.Printf("Error opening port: %v\n", err)
		return
	}

	fmt.Println("Sending: reset")
	if err := send([]byte{0xB0, 0x00, 0x00}); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	time.Sleep(50 * time.Millisecond)

	fmt.Println("Sending: select grid layout")
	if err := send([]byte{0xB0, 0x00, 0x01}); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Println("Done.")
}

func testLEDs() {
	fmt.Println("Testing LED control...")

	outPort := findLaunchpadOut()
	if outPort == nil {
		fmt.Println("No Launchpad found")
		return
	}

	send, err := midi.SendTo(outPort)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Println("Lighting up diagonal (green)...")

	// Grid note = (y<<4)|x, status 0x90 on, color byte (g<<4)|r: 0x30 is
	// full green.
	for i := 0; i < 8; i++ {
		note := byte(i<<4) | byte(i)
		send([]byte{0x90, note, 0x30})
		time.Sleep(100 * time.Millisecond)
	}

	fmt.Println("Press Enter to clear...")
	fmt.Scanln()

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			note := byte(y<<4) | byte(x)
			send([]byte{0x80, note, 0x00})
		}
	}

	fmt.Println("Done!")
}

func pollDevices() {
	fmt.Println("Polling for device changes every 2 seconds...")
	fmt.Println("Connect/disconnect Launchpad to test. Ctrl+C to exit.")

	lastIn := ""
	lastOut := ""

	for {
		ins := midi.GetInPorts()
		outs := midi.GetOutPorts()

		var inNames, outNames []string
		for _, p := range ins {
			inNames = append(inNames, p.String())
		}
		for _, p := range outs {
			outNames = append(outNames, p.String())
		}

		currentIn := strings.Join(inNames, ",")
		currentOut := strings.Join(outNames, ",")

		if currentIn != lastIn || currentOut != lastOut {
			fmt.Printf("\n[%s] Device change detected!\n", time.Now().Format("15:04:05"))
			fmt.Printf("  Inputs: %v\n", inNames)
			fmt.Printf("  Outputs: %v\n", outNames)

			for _, name := range inNames {
				if isLaunchpad(name) {
					fmt.Println("  -> Launchpad detected!")
				}
			}

			lastIn = currentIn
			lastOut = currentOut
		}

		time.Sleep(2 * time.Second)
	}
}
