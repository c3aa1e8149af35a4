package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cheggaaa/pb"
	"github.com/ttacon/chalk"
	"github.com/urfave/cli"

	"github.com/lab1702/arena-bot/bot"
	"github.com/lab1702/arena-bot/game"
	"github.com/lab1702/arena-bot/server"
)

// segment is a run of consecutive frames in one mode.
type segment struct {
	mode  game.Mode
	start int
	end   int // inclusive
}

type botStats struct {
	name     string
	timeline []game.Mode
	agent    *bot.Agent // current life; counters fold in when it is replaced

	transitions    int
	firstChase     int
	firstAttack    int
	firstEvade     int
	overheatFrames int
	boostMin       float64
	heatMax        float64
	shotsFired     int
	shotsRefused   int
	kills          int
	deaths         int
}

type runStats struct {
	runIndex int
	seed     int64
	frames   int
	pattern  server.Pattern

	bots  []*botStats
	arena server.ArenaStats
}

func main() {
	app := makeapp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%serror: %v%s\n", chalk.Red, err, chalk.Reset)
		os.Exit(1)
	}
}

func makeapp() *cli.App {
	app := cli.NewApp()
	app.Name = "headless-report"
	app.Usage = "Run the bot arena without a network and report how the bots behave"
	app.Flags = []cli.Flag{
		cli.IntFlag{Name: "runs", Value: 5, Usage: "number of headless simulation runs"},
		cli.IntFlag{Name: "frames", Value: 3600, Usage: "frames per run"},
		cli.IntFlag{Name: "bots", Value: server.DefaultBotCount, Usage: "bots per run"},
		cli.Int64Flag{Name: "seed-base", Value: 42, Usage: "base RNG seed for run 1"},
		cli.Int64Flag{Name: "seed-step", Value: 1, Usage: "seed increment between runs"},
		cli.StringFlag{Name: "pattern", Value: string(server.PatternCircle), Usage: "pilot pattern: straight, circle, zigzag"},
		cli.StringFlag{Name: "tuning", Value: "", Usage: "YAML tuning file (defaults when empty)"},
		cli.BoolFlag{Name: "timeline", Usage: "print each bot's mode timeline"},
		cli.BoolFlag{Name: "no-progress", Usage: "disable the progress bar"},
	}
	app.Action = func(c *cli.Context) error {
		return reportAction(c)
	}
	return app
}

func reportAction(c *cli.Context) error {
	runs := c.Int("runs")
	frames := c.Int("frames")
	bots := c.Int("bots")
	if runs <= 0 {
		return errors.New("--runs must be > 0")
	}
	if frames <= 0 {
		return errors.New("--frames must be > 0")
	}
	if bots <= 0 || bots > server.MaxBots {
		return fmt.Errorf("--bots must be between 1 and %d", server.MaxBots)
	}
	pattern, err := server.ParsePattern(c.String("pattern"))
	if err != nil {
		return err
	}
	tuning := game.DefaultTuning()
	if path := c.String("tuning"); path != "" {
		if tuning, err = game.LoadTuning(path); err != nil {
			return err
		}
	}

	seedBase, seedStep := c.Int64("seed-base"), c.Int64("seed-step")
	fmt.Printf("=== Headless Arena Report ===\n")
	fmt.Printf("pattern=%s runs=%d frames=%d bots=%d seed_base=%d seed_step=%d\n\n",
		pattern, runs, frames, bots, seedBase, seedStep)

	var bar *pb.ProgressBar
	if !c.Bool("no-progress") {
		bar = pb.New(runs * frames)
		bar.Output = os.Stderr
		bar.SetWidth(80)
		bar.Start()
	}

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		seed := seedBase + int64(i)*seedStep
		rs := runArena(i+1, seed, frames, bots, pattern, tuning, bar)
		all = append(all, rs)
	}
	if bar != nil {
		bar.Finish()
	}

	for _, rs := range all {
		printRun(os.Stdout, rs, c.Bool("timeline"))
	}
	printAggregate(os.Stdout, all)
	return nil
}

func runArena(runIndex int, seed int64, frames, bots int, pattern server.Pattern, tuning game.Tuning, bar *pb.ProgressBar) runStats {
	arena := server.NewArena(server.ArenaConfig{
		Tuning:  tuning,
		Seed:    seed,
		Pattern: pattern,
		Logger:  log.New(io.Discard),
	})
	arena.AddPilot()

	rs := runStats{runIndex: runIndex, seed: seed, frames: frames, pattern: pattern}
	ships := make([]*server.Ship, 0, bots)
	for i := 0; i < bots; i++ {
		s, err := arena.AddBot()
		if err != nil {
			break
		}
		ships = append(ships, s)
		rs.bots = append(rs.bots, &botStats{
			name:        s.Name,
			timeline:    make([]game.Mode, 0, frames),
			firstChase:  -1,
			firstAttack: -1,
			firstEvade:  -1,
			boostMin:    math.Inf(1),
		})
	}

	for f := 0; f < frames; f++ {
		arena.Step(server.FrameDT)
		for i, s := range ships {
			// Respawns replace the agent, so look it up every frame
			recordFrame(rs.bots[i], s.Agent(), f)
		}
		if bar != nil {
			bar.Increment()
		}
	}

	for _, b := range rs.bots {
		b.foldAgent()
		b.transitions = countTransitions(b.timeline)
	}
	for _, st := range arena.State().Ships {
		for _, b := range rs.bots {
			if b.name == st.Name {
				b.kills, b.deaths = st.Kills, st.Deaths
			}
		}
	}
	rs.arena = arena.Stats()
	return rs
}

// foldAgent adds the current life's shot counters to the totals.
func (b *botStats) foldAgent() {
	if b.agent == nil {
		return
	}
	st := b.agent.Snapshot()
	b.shotsFired += st.ShotsFired
	b.shotsRefused += st.ShotsRefused
	b.agent = nil
}

func recordFrame(b *botStats, a *bot.Agent, frame int) {
	if a != b.agent {
		b.foldAgent()
		b.agent = a
	}
	mode := a.Mode()
	b.timeline = append(b.timeline, mode)
	switch {
	case mode == game.ModeChase && b.firstChase < 0:
		b.firstChase = frame
	case mode == game.ModeAttack && b.firstAttack < 0:
		b.firstAttack = frame
	case mode == game.ModeEvade && b.firstEvade < 0:
		b.firstEvade = frame
	}
	if a.Overheated() {
		b.overheatFrames++
	}
	b.boostMin = math.Min(b.boostMin, a.Boost())
	b.heatMax = math.Max(b.heatMax, a.Heat())
}

// segments compresses a per-frame mode timeline into runs.
func segments(timeline []game.Mode) []segment {
	var out []segment
	for i, m := range timeline {
		if n := len(out); n > 0 && out[n-1].mode == m {
			out[n-1].end = i
			continue
		}
		out = append(out, segment{mode: m, start: i, end: i})
	}
	return out
}

func countTransitions(timeline []game.Mode) int {
	if len(timeline) == 0 {
		return 0
	}
	return len(segments(timeline)) - 1
}

// modeShare returns the fraction of frames spent in each mode.
func modeShare(timeline []game.Mode) map[game.Mode]float64 {
	share := make(map[game.Mode]float64, len(game.Modes))
	if len(timeline) == 0 {
		return share
	}
	for _, m := range timeline {
		share[m]++
	}
	for m := range share {
		share[m] /= float64(len(timeline))
	}
	return share
}

func modeColor(m game.Mode) chalk.Color {
	switch m {
	case game.ModeChase:
		return chalk.Yellow
	case game.ModeAttack:
		return chalk.Red
	case game.ModeBreakOff:
		return chalk.Magenta
	case game.ModeEvade:
		return chalk.Cyan
	default:
		return chalk.Blue
	}
}

func formatTimeline(timeline []game.Mode) string {
	segs := segments(timeline)
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		parts = append(parts, fmt.Sprintf("%s%s%s[%d-%d]", modeColor(s.mode), s.mode, chalk.Reset, s.start, s.end))
	}
	return strings.Join(parts, " ")
}

func frameString(f int) string {
	if f < 0 {
		return "n/a"
	}
	return fmt.Sprintf("%d", f)
}

func printRun(w io.Writer, rs runStats, timeline bool) {
	fmt.Fprintln(w, chalk.Bold.TextStyle(fmt.Sprintf("--- Run %d (seed=%d) ---", rs.runIndex, rs.seed)))
	fmt.Fprintf(w, "shots=%d hits=%d hit_rate=%.1f%% respawns=%d\n",
		rs.arena.ShotsLaunched, rs.arena.Hits, pct(rs.arena.Hits, rs.arena.ShotsLaunched), rs.arena.Respawns)
	for _, b := range rs.bots {
		share := modeShare(b.timeline)
		fmt.Fprintf(w, "  %s transitions=%d first_chase=%s first_attack=%s first_evade=%s\n",
			b.name, b.transitions, frameString(b.firstChase), frameString(b.firstAttack), frameString(b.firstEvade))
		fmt.Fprintf(w, "    modes:")
		for _, m := range game.Modes {
			fmt.Fprintf(w, " %s%s%s=%.1f%%", modeColor(m), m, chalk.Reset, share[m]*100)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "    boost_min=%.1f heat_max=%.1f overheat_frames=%d fired=%d refused=%d kills=%d deaths=%d\n",
			b.boostMin, b.heatMax, b.overheatFrames, b.shotsFired, b.shotsRefused, b.kills, b.deaths)
		if timeline {
			fmt.Fprintf(w, "    timeline: %s\n", formatTimeline(b.timeline))
		}
	}
	fmt.Fprintln(w)
}

func printAggregate(w io.Writer, all []runStats) {
	var shots, hits, respawns, transitions, botCount int
	modeFrames := make(map[game.Mode]int)
	totalFrames := 0
	var attackTicks []int
	for _, rs := range all {
		shots += rs.arena.ShotsLaunched
		hits += rs.arena.Hits
		respawns += rs.arena.Respawns
		for _, b := range rs.bots {
			botCount++
			transitions += b.transitions
			for _, m := range b.timeline {
				modeFrames[m]++
			}
			totalFrames += len(b.timeline)
			if b.firstAttack >= 0 {
				attackTicks = append(attackTicks, b.firstAttack)
			}
		}
	}

	fmt.Fprintln(w, chalk.Bold.TextStyle("=== Aggregate ==="))
	fmt.Fprintf(w, "runs=%d bots=%d\n", len(all), botCount)
	fmt.Fprintf(w, "avg_per_run: shots=%.1f hits=%.1f respawns=%.1f\n",
		avg(shots, len(all)), avg(hits, len(all)), avg(respawns, len(all)))
	fmt.Fprintf(w, "hit_rate=%.1f%% avg_transitions_per_bot=%.1f first_attack=%s\n",
		pct(hits, shots), avg(transitions, botCount), medianString(attackTicks))
	fmt.Fprintf(w, "mode_share:")
	for _, m := range game.Modes {
		fmt.Fprintf(w, " %s=%.1f%%", m, pct(modeFrames[m], totalFrames))
	}
	fmt.Fprintln(w)
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func pct(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func medianString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sorted := append([]int(nil), vals...)
	sort.Ints(sorted)
	return fmt.Sprintf("%d", sorted[len(sorted)/2])
}
