package actor

import (
	"strings"
	"testing"
)

func newTestTroll() (*Troll, *Actor) {
	troll := NewActor("troll", "troll", "round-room", 2).
		WithWeapon("axe").
		WithCombatPosture(true, true)
	return NewTroll(DefaultTrollConfig(), nil), troll
}

func TestTrollMenacesWhenPerceiving(t *testing.T) {
	tr, a := newTestTroll()
	w := newTestWorld()

	msgs := tr.OnTick(a, w, 0.1, true)
	if len(msgs) != 1 || !strings.Contains(msgs[0], "axe") {
		t.Errorf("low roll should swing the axe: %v", msgs)
	}

	msgs = tr.OnTick(a, w, 0.9, true)
	if len(msgs) != 1 || !strings.Contains(msgs[0], "blocking") {
		t.Errorf("high roll should glower: %v", msgs)
	}
}

func TestTrollSilentWhenNotPerceiving(t *testing.T) {
	tr, a := newTestTroll()
	w := newTestWorld()
	w.Player.Room = "maze"

	if msgs := tr.OnTick(a, w, 0.1, false); len(msgs) != 0 {
		t.Errorf("troll should not menace an unnoticed player: %v", msgs)
	}
}

func TestTrollSilentWhenUnconscious(t *testing.T) {
	tr, a := newTestTroll()
	w := newTestWorld()
	a.OnDamage(2)

	if msgs := tr.OnTick(a, w, 0.1, true); len(msgs) != 0 {
		t.Errorf("unconscious troll should not act: %v", msgs)
	}
}

func TestTrollRejectsTreasure(t *testing.T) {
	tr, a := newTestTroll()
	w := newTestWorld()

	accepted, msg := tr.OnGift(a, w, w.Objects["painting"])
	if accepted {
		t.Error("troll must reject treasure")
	}
	if !strings.Contains(msg, "hurls it back") {
		t.Errorf("message = %q", msg)
	}
	if !w.Player.Has("painting") {
		t.Error("rejected gift stays with the player")
	}
	if !a.BlocksPassage {
		t.Error("a rejected gift must not clear the passage")
	}
}

func TestTrollFoodBribeClearsPassage(t *testing.T) {
	tr, a := newTestTroll()
	w := newTestWorld()

	accepted, msg := tr.OnGift(a, w, w.Objects["sandwich"])
	if !accepted {
		t.Fatalf("food bribe should be accepted: %q", msg)
	}
	if a.BlocksPassage {
		t.Error("a fed troll steps aside")
	}
	if w.Player.Has("sandwich") {
		t.Error("the troll ate the gift")
	}
	if !a.HasItem("sandwich") {
		t.Error("the gift moves to the troll")
	}
}

func TestTrollBribeDisabled(t *testing.T) {
	cfg := DefaultTrollConfig()
	cfg.FoodBribe = false
	tr := NewTroll(cfg, nil)
	a := NewActor("troll", "troll", "round-room", 2).WithCombatPosture(true, true)
	w := newTestWorld()

	accepted, _ := tr.OnGift(a, w, w.Objects["sandwich"])
	if accepted || !a.BlocksPassage {
		t.Error("with the bribe disabled no gift pacifies the troll")
	}
}

func TestTrollGiftWhileDown(t *testing.T) {
	tr, a := newTestTroll()
	w := newTestWorld()

	a.OnDamage(2)
	if accepted, _ := tr.OnGift(a, w, w.Objects["sandwich"]); accepted {
		t.Error("unconscious troll cannot accept gifts")
	}

	a.OnDeath()
	if accepted, _ := tr.OnGift(a, w, w.Objects["sandwich"]); accepted {
		t.Error("dead troll cannot accept gifts")
	}
}
