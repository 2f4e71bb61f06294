package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/undeconstructed/ladders/board"
	"github.com/undeconstructed/ladders/eventlog"
	"github.com/undeconstructed/ladders/game"
)

func TestParsePlayers(t *testing.T) {
	ps, err := parsePlayers([]string{"ana:red", "ben", "cy:"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ps) != 3 {
		t.Fatalf("got %d players", len(ps))
	}
	if ps[0].ID != 1 || ps[0].Name != "ana" || ps[0].Color != "red" {
		t.Errorf("bad first: %+v", ps[0])
	}
	if ps[1].ID != 2 || ps[1].Color != palette[1] {
		t.Errorf("bad second: %+v", ps[1])
	}
	if ps[2].Color != palette[2] {
		t.Errorf("bad third: %+v", ps[2])
	}

	if _, err := parsePlayers(nil); err == nil {
		t.Errorf("empty list accepted")
	}
	if _, err := parsePlayers([]string{":red"}); err == nil {
		t.Errorf("nameless player accepted")
	}
}

func TestPrintBoard(t *testing.T) {
	b, err := board.New(9, map[int]int{2: 8, 7: 3})
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	s := game.EmptyState()
	s.Players[1] = game.Player{ID: 1, Name: "ana", Position: 5}
	s.Players[2] = game.Player{ID: 2, Name: "ben", Position: 0}

	var buf bytes.Buffer
	printBoard(&buf, b, s)
	lines := strings.Split(buf.String(), "\n")

	if !strings.HasPrefix(lines[0], "   7v") {
		t.Errorf("top row: %q", lines[0])
	}
	if !strings.Contains(lines[1], "A") {
		t.Errorf("middle row has no piece: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "   1 ") || !strings.Contains(lines[2], "2^") {
		t.Errorf("bottom row: %q", lines[2])
	}
	if !strings.Contains(lines[3], "ben") {
		t.Errorf("waiting players: %q", lines[3])
	}
}

func TestPrintLog_oldestFirst(t *testing.T) {
	now := time.Now()
	es := []eventlog.Entry{
		{Message: "second", Type: eventlog.Info, Timestamp: now},
		{Message: "first", Type: eventlog.Error, Timestamp: now},
	}
	var buf bytes.Buffer
	printLog(&buf, es)
	out := buf.String()
	if strings.Index(out, "first") > strings.Index(out, "second") {
		t.Errorf("wrong order: %q", out)
	}
}
