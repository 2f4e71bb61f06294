package game

import (
	"encoding/json"
	"reflect"
	"testing"
)

func threePlayers() GameState {
	s := EmptyState()
	s.GameStarted = true
	s.Players[1] = Player{ID: 1, Name: "ana", Color: "#FF6B6B", Position: 4, Moves: 2}
	s.Players[2] = Player{ID: 2, Name: "bo", Color: "#4ECDC4", Position: 7, Moves: 2}
	s.Players[3] = Player{ID: 3, Name: "cy", Color: "#95E1D3", Position: 1, Moves: 1}
	s.CurrentPlayer = 3
	s.DiceValue = 5
	s.TurnNumber = 6
	return s
}

func TestStore_defaults(t *testing.T) {
	s := NewStore().Get()
	if len(s.Players) != 0 {
		t.Errorf("players: %v", s.Players)
	}
	if s.CurrentPlayer != 1 || s.DiceValue != 0 || s.TurnNumber != 0 {
		t.Errorf("bad counters: %+v", s)
	}
	if s.GameStarted || s.Winner != nil {
		t.Errorf("should not be started: %+v", s)
	}
	if s.BoardSize != 100 {
		t.Errorf("board size: %d", s.BoardSize)
	}
}

func TestStore_mergeOnePlayerField(t *testing.T) {
	st := NewStore()
	st.Set(threePlayers())
	before := st.Get()

	st.Merge(StatePatch{Players: map[PlayerID]PlayerPatch{3: {Position: IntP(10)}}})
	after := st.Get()

	if after.Players[3].Position != 10 {
		t.Errorf("position not merged: %+v", after.Players[3])
	}

	want := before.Players[3]
	want.Position = 10
	if after.Players[3] != want {
		t.Errorf("other fields of player 3 changed: %+v != %+v", after.Players[3], want)
	}
	for _, id := range []PlayerID{1, 2} {
		if after.Players[id] != before.Players[id] {
			t.Errorf("player %d changed: %+v", id, after.Players[id])
		}
	}

	// everything else, byte for byte
	before.Players = nil
	after.Players = nil
	b0, _ := json.Marshal(before)
	b1, _ := json.Marshal(after)
	if string(b0) != string(b1) {
		t.Errorf("state changed:\n%s\n%s", b0, b1)
	}
}

func TestStore_mergeTopLevel(t *testing.T) {
	st := NewStore()
	st.Set(threePlayers())
	st.Merge(StatePatch{CurrentPlayer: PlayerP(1), TurnNumber: IntP(7), DiceValue: IntP(0)})
	s := st.Get()
	if s.CurrentPlayer != 1 || s.TurnNumber != 7 || s.DiceValue != 0 {
		t.Errorf("bad merge: %+v", s)
	}
	if len(s.Players) != 3 {
		t.Errorf("players lost: %v", s.Players)
	}
}

func TestStore_winnerIsTerminal(t *testing.T) {
	st := NewStore()
	st.Set(threePlayers())
	st.Merge(StatePatch{Winner: PlayerP(2)})
	st.Merge(StatePatch{Winner: PlayerP(1)})
	s := st.Get()
	if s.Winner == nil || *s.Winner != 2 {
		t.Errorf("winner changed: %v", s.Winner)
	}
}

func TestStore_snapshotsAreCopies(t *testing.T) {
	st := NewStore()
	st.Set(threePlayers())
	s := st.Get()
	s.Players[1] = Player{ID: 1, Name: "mallory"}
	delete(s.Players, 2)
	again := st.Get()
	if again.Players[1].Name != "ana" || len(again.Players) != 3 {
		t.Errorf("store shared its map: %+v", again.Players)
	}
}

func TestStore_oneNotificationPerMutation(t *testing.T) {
	st := NewStore()
	var seen []GameState
	unsub := st.Subscribe(func(s GameState) {
		// the mutation is complete by the time we hear about it
		if got := st.Get(); !reflect.DeepEqual(got, s) {
			t.Errorf("notified mid-mutation")
		}
		seen = append(seen, s)
	})

	st.Set(threePlayers())
	st.Merge(StatePatch{Players: map[PlayerID]PlayerPatch{1: {Position: IntP(9), Moves: IntP(3)}}, DiceValue: IntP(5)})
	st.Reset()

	if len(seen) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(seen))
	}
	if seen[1].Players[1].Position != 9 {
		t.Errorf("notification carried old state: %+v", seen[1].Players[1])
	}
	if len(seen[2].Players) != 0 {
		t.Errorf("reset not notified")
	}

	unsub()
	st.Reset()
	if len(seen) != 3 {
		t.Errorf("unsubscribed func still called")
	}
}

func TestState_jsonShape(t *testing.T) {
	raw := `{"players":{"1":{"id":1,"name":"Jugador 1","color":"#FF6B6B","position":0,"moves":0}},
		"current_player":1,"dice_value":0,"turn_number":0,"game_started":true,"winner":null,"board_size":100}`
	var s GameState
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Players[1].Name != "Jugador 1" || !s.GameStarted || s.Winner != nil {
		t.Errorf("bad decode: %+v", s)
	}
}
