// Command tableview runs a YAML table locally and draws it in the terminal.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/playmatatu/pinball/internal/sim"
	"github.com/playmatatu/pinball/internal/table"
)

type viewer struct {
	screen  tcell.Screen
	def     *table.Definition
	session *sim.Session
	paused  bool
	frame   sim.Frame
}

func (v *viewer) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			// terminals report no key release, so space toggles
			if len(v.frame.Plungers) > 0 && v.frame.Plungers[0].Pulling {
				v.session.Fire("")
			} else {
				v.session.PullBack("")
			}
		case 'b':
			if len(v.def.Balls) > 0 {
				v.session.AddBall(v.def.Balls[0])
			}
		case 'p':
			v.paused = !v.paused
		}

	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

func (v *viewer) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- v.screen.PollEvent()
		}
	}()

	v.frame = v.session.Frame()
	for {
		select {
		case ev := <-eventChan:
			if ev == nil || !v.handleInput(ev) {
				return
			}
			v.frame = v.session.Frame()
		case <-ticker.C:
			if !v.paused {
				f, err := v.session.Advance(interval.Milliseconds())
				if err != nil {
					log.Printf("advance: %v", err)
					return
				}
				v.frame = f
			}
		}
		draw(v.screen, v.def, v.frame, v.paused)
	}
}

func main() {
	path := flag.String("table", "tables/classic.yaml", "YAML table to run")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
	step := flag.Int64("step", 10, "milliseconds per physics tick")
	fps := flag.Int("fps", 60, "frames per second")
	flag.Parse()

	def, err := table.LoadFile(*path)
	if err != nil {
		log.Fatalf("Failed to load table: %v", err)
	}
	session, err := sim.NewSession("local", def, sim.Options{Seed: *seed, StepMsec: *step})
	if err != nil {
		log.Fatalf("Failed to build table: %v", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("Failed to open terminal: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("Failed to init terminal: %v", err)
	}
	defer screen.Fini()

	v := &viewer{screen: screen, def: def, session: session}
	if *fps <= 0 {
		*fps = 60
	}
	v.run(time.Second / time.Duration(*fps))
}
