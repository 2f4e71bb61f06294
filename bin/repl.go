package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"

	rl "github.com/chzyer/readline"

	"github.com/undeconstructed/ladders/client"
	"github.com/undeconstructed/ladders/comms"
	"github.com/undeconstructed/ladders/eventlog"
	"github.com/undeconstructed/ladders/game"
)

type repl struct {
	c   *client.Client
	out io.Writer

	updateCh chan eventlog.Entry

	mu      sync.Mutex
	updates []eventlog.Entry
}

func newRepl(c *client.Client, out io.Writer) *repl {
	r := &repl{
		c:        c,
		out:      out,
		updateCh: make(chan eventlog.Entry),
	}
	c.Events().Subscribe(r.onEntry)
	return r
}

// onEntry runs on the session's goroutine, so it must not block.
func (r *repl) onEntry(e eventlog.Entry) {
	select {
	case r.updateCh <- e:
		// if ui is following
	default:
		r.mu.Lock()
		r.updates = append(r.updates, e)
		r.mu.Unlock()
	}
}

func (r *repl) printUpdates() {
	r.mu.Lock()
	updates := r.updates
	r.updates = nil
	r.mu.Unlock()
	for _, e := range updates {
		printEntry(r.out, e)
	}
}

func (r *repl) followUpdates() {
	ctx, stop := signal.NotifyContext(context.TODO(), os.Interrupt)
	defer stop()
	fmt.Fprintf(r.out, "following, ^C to stop\n")
	for {
		select {
		case e := <-r.updateCh:
			printEntry(r.out, e)
		case <-ctx.Done():
			return
		}
	}
}

func (r *repl) prompt() string {
	s := r.c.State()
	conn := paint("red", "×")
	if r.c.Links().Get().Transport {
		conn = paint("green", "•")
	}
	if !s.GameStarted || len(s.Players) == 0 {
		return fmt.Sprintf("%s » ", conn)
	}
	p := s.Players[s.CurrentPlayer]
	if s.Winner != nil {
		w := s.Players[*s.Winner]
		return fmt.Sprintf("%s %s won » ", conn, paint(w.Color, w.DisplayName()))
	}
	return fmt.Sprintf("%s %d \033%s%s|%d»\033[0m ", conn, s.TurnNumber, col(p.Color), p.DisplayName(), p.Position)
}

// parsePlayers reads "name[:colour]" words into a start_game list, numbering
// the players from 1.
func parsePlayers(args []string) ([]comms.NewPlayer, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("start <name[:colour]> ...")
	}
	players := make([]comms.NewPlayer, 0, len(args))
	for i, a := range args {
		name, colour := a, ""
		if j := strings.IndexByte(a, ':'); j >= 0 {
			name, colour = a[:j], a[j+1:]
		}
		if name == "" {
			return nil, fmt.Errorf("player %d has no name", i+1)
		}
		if colour == "" {
			colour = palette[i%len(palette)]
		}
		players = append(players, comms.NewPlayer{ID: game.PlayerID(i + 1), Name: name, Color: colour})
	}
	return players, nil
}

func (r *repl) run(ctx context.Context) error {
	completer := rl.NewPrefixCompleter(
		rl.PcItem("start"),
		rl.PcItem("roll"),
		rl.PcItem("end"),
		rl.PcItem("state"),
		rl.PcItem("board"),
		rl.PcItem("players"),
		rl.PcItem("log"),
		rl.PcItem("status"),
		rl.PcItem("refresh"),
		rl.PcItem("reset"),
		rl.PcItem("connect"),
		rl.PcItem("close"),
		rl.PcItem("follow"),
		rl.PcItem("help"),
	)

	l, err := rl.NewEx(&rl.Config{
		Prompt:            "» ",
		AutoComplete:      completer,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return err
	}
	defer l.Close()

	go func() {
		<-ctx.Done()
		l.Close()
	}()

	for {
		l.SetPrompt(r.prompt())
		r.printUpdates()

		line, err := l.Readline()
		if err == rl.ErrInterrupt {
			if len(line) == 0 {
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			break
		} else if err != nil {
			return err
		}

		if line == "r" {
			line = "roll"
		} else if line == "e" {
			line = "end"
		} else if line == "b" {
			line = "board"
		} else if line == "f" {
			line = "follow"
		}

		if quit := r.do(line); quit {
			break
		}
	}

	return nil
}

// do runs one command line, returning true to leave.
func (r *repl) do(line string) bool {
	parts := strings.SplitN(strings.TrimSpace(line), " ", 2)
	cmd := parts[0]
	rest := ""
	if len(parts) == 2 {
		rest = strings.TrimSpace(parts[1])
	}

	switch cmd {
	case "start":
		players, err := parsePlayers(strings.Fields(rest))
		if err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			return false
		}
		if err := r.c.StartGame(players); err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
		}
	case "roll":
		value := 0
		if rest != "" {
			v, err := strconv.Atoi(rest)
			if err != nil {
				fmt.Fprintf(r.out, "roll [1-6]\n")
				return false
			}
			value = v
		} else {
			value = client.RandomRoll()
			fmt.Fprintf(r.out, "rolled %d\n", value)
		}
		if err := r.c.RollDice(value); err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
		}
	case "end":
		if err := r.c.EndTurn(); err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
		}
	case "state", "":
		printState(r.out, r.c.State())
	case "board":
		printBoard(r.out, r.c.Board(), r.c.State())
	case "players":
		printPlayers(r.out, r.c.State())
	case "log":
		r.printUpdates()
		printLog(r.out, r.c.Events().Entries())
	case "status":
		printStatus(r.out, r.c.Endpoint(), r.c.Status(), r.c.Links().Get())
	case "refresh":
		r.c.RequestState()
	case "reset":
		r.c.Reset()
	case "connect":
		r.c.Connect()
	case "close":
		r.c.Close()
	case "follow":
		r.printUpdates()
		r.followUpdates()
	case "help":
		fmt.Fprintf(r.out, "start <name[:colour]> ..., roll [n], end, state, board, players, log, status, refresh, reset, connect, close, follow, quit\n")
	case "quit", "exit":
		return true
	default:
		fmt.Fprintf(r.out, "unknown\n")
	}
	return false
}
