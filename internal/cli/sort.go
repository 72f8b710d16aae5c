package cli

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mesh-intelligence/inkpot/internal/widgets/sorting"
)

// ANSI sequences used by the terminal display.
const (
	ansiHome  = "\x1b[H"
	ansiClear = "\x1b[J"
	ansiRed   = "\x1b[31m"
	ansiBlue  = "\x1b[34m"
	ansiReset = "\x1b[0m"
)

// maxChartRows caps the bar chart height.
const maxChartRows = 16

func newSortCmd(a *app) *cobra.Command {
	var (
		seed  uint64
		delay time.Duration
	)
	cmd := &cobra.Command{
		Use:   "sort",
		Short: "Replay a bubble sort of 20 random values in the terminal",
		Long: "Sort replays a bubble sort step by step. On a terminal the array is drawn as\n" +
			"a bar chart with the compared pair highlighted; otherwise one line is printed\n" +
			"per step. Interrupt to stop the replay.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.runSort(ctx, out(cmd), seed, delay)
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for the generated array (0 picks one at random)")
	cmd.Flags().DurationVar(&delay, "delay", sorting.StepDelay, "pause between steps")
	return cmd
}

func (a *app) runSort(ctx context.Context, w io.Writer, seed uint64, delay time.Duration) error {
	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewPCG(seed, seed))
	}

	rows, color := 0, false
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		color = true
		rows = maxChartRows
		if _, h, err := term.GetSize(int(f.Fd())); err == nil && h-4 < rows {
			rows = max(h-4, 4)
		}
	}

	steps := 0
	display := func(f sorting.Frame) {
		steps++
		if rows > 0 {
			fmt.Fprint(w, ansiHome+ansiClear+barChart(f, rows, color))
			return
		}
		fmt.Fprintln(w, frameLine(f))
	}
	sleep := func(ctx context.Context, _ time.Duration) error {
		if delay <= 0 {
			return ctx.Err()
		}
		return sorting.SleepContext(ctx, delay)
	}

	d := sorting.NewDriver(display, sleep, rng)
	initial := d.Snapshot()
	a.log.Debug("replaying", "values", len(initial.Arr), "delay", delay)
	if rows > 0 {
		fmt.Fprint(w, ansiHome+ansiClear+barChart(initial, rows, color))
	} else {
		fmt.Fprintln(w, frameLine(initial))
	}

	d.Start(ctx)

	final := d.Snapshot()
	if final.State != sorting.Finished {
		fmt.Fprintf(w, "interrupted after %d steps\n", steps)
		return nil
	}
	fmt.Fprintf(w, "sorted %d values in %d steps\n", len(final.Arr), steps)
	return nil
}

// frameLine renders a frame as one line of text.
func frameLine(f sorting.Frame) string {
	var b strings.Builder
	b.WriteString(f.State.String())
	if len(f.Comparing) == 2 {
		fmt.Fprintf(&b, " [%d,%d]", f.Comparing[0], f.Comparing[1])
	}
	b.WriteString(":")
	for _, v := range f.Arr {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}

// barChart renders a frame as vertical bars, rows lines tall. Compared bars
// are drawn in red when color is set and with '#' otherwise.
func barChart(f sorting.Frame, rows int, color bool) string {
	heights := make([]int, len(f.Arr))
	for i, v := range f.Arr {
		heights[i] = max(1, (v*rows+sorting.MaxValue-1)/sorting.MaxValue)
	}
	comparing := make(map[int]bool, len(f.Comparing))
	for _, i := range f.Comparing {
		comparing[i] = true
	}

	var b strings.Builder
	for r := rows; r >= 1; r-- {
		for i, h := range heights {
			cell := "  "
			if h >= r {
				switch {
				case comparing[i] && color:
					cell = ansiRed + "██" + ansiReset
				case comparing[i]:
					cell = "##"
				case color:
					cell = ansiBlue + "██" + ansiReset
				default:
					cell = "██"
				}
			}
			b.WriteString(cell)
			b.WriteByte(' ')
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%s\n", f.State)
	return b.String()
}
