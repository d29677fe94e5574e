package main

import (
	"fmt"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/termbridge/screen"
	"github.com/lixenwraith/termbridge/terminal"
)

var keysList bool

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Show the wire tuple of each event using blocking polls",
	Long: `Poll events synchronously and show each one as its wire tuple
(type, mod, key, ch, width, height, x, y). Esc or Ctrl-C quits.

With --list, print the named key codes and exit without touching the terminal.`,
	Args: cobra.NoArgs,
	RunE: runKeys,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.Flags().BoolVar(&keysList, "list", false, "Print named key codes and exit")
}

func runKeys(cmd *cobra.Command, args []string) error {
	if keysList {
		out := cmd.OutOrStdout()
		for _, k := range terminal.NamedKeys() {
			fmt.Fprintf(out, "%#04x  %s\n", uint16(k), k)
		}
		return nil
	}

	defer recoverCrash()

	s, _, _, cleanup, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	return echoTuples(s)
}

// echoTuples shows each polled event until a quit key, newest at the bottom
func echoTuples(s *screen.Session) error {
	var lines []string
	for {
		s.Clear()
		h := int(s.Height())
		start := max(len(lines)-h, 0)
		for y, line := range lines[start:] {
			x := 0
			for _, r := range line {
				s.ChangeCell(x, y, r, terminal.ColorWhite, terminal.ColorDefault)
				x += max(runewidth.RuneWidth(r), 1)
			}
		}
		if err := s.Present(); err != nil {
			return err
		}

		ev, err := s.PollEvent()
		if err != nil {
			return err
		}
		if ev.Type == terminal.EventKey && (ev.Key == terminal.KeyEsc || ev.Key == terminal.KeyCtrlC) {
			return nil
		}
		t := ev.Tuple()
		lines = append(lines, fmt.Sprintf("%v  %s", t, ev))
	}
}
