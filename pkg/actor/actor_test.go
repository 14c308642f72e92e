package actor

import "testing"

func TestNewActorDefaults(t *testing.T) {
	a := NewActor("troll", "troll", "troll-room", 2)

	if !a.IsConscious() {
		t.Error("new actor should be conscious")
	}
	if !a.TickEnabled {
		t.Error("new actor should tick")
	}
	if a.Flags["actorState"] != string(StateConscious) {
		t.Errorf("flags not synced at creation: %v", a.Flags)
	}
}

func TestOnDamageTransitions(t *testing.T) {
	a := NewActor("troll", "troll", "troll-room", 3).
		WithWeapon("axe").
		WithCombatPosture(true, true)

	dropped := a.OnDamage(1)
	if len(dropped) != 0 {
		t.Errorf("surviving damage should drop nothing, got %v", dropped)
	}
	if a.Strength != 2 || !a.IsConscious() {
		t.Errorf("after 1 damage: strength=%d state=%s", a.Strength, a.State)
	}

	dropped = a.OnDamage(5)
	if a.Strength != 0 {
		t.Errorf("strength floored at 0, got %d", a.Strength)
	}
	if a.State != StateUnconscious {
		t.Errorf("state = %s, want unconscious", a.State)
	}
	if a.TickEnabled || a.Fighting || a.BlocksPassage {
		t.Error("knockout should stop ticking and clear combat posture")
	}
	if len(dropped) != 1 || dropped[0] != "axe" {
		t.Errorf("knockout should drop the weapon, got %v", dropped)
	}
	if a.Weapon != "" || a.HasItem("axe") {
		t.Error("weapon should leave the actor on knockout")
	}
}

func TestOnDamageNoOps(t *testing.T) {
	a := NewActor("troll", "troll", "troll-room", 2)

	a.OnDamage(0)
	a.OnDamage(-3)
	if a.Strength != 2 {
		t.Errorf("non-positive damage must not change strength, got %d", a.Strength)
	}

	a.OnDeath()
	a.OnDamage(1)
	if a.Strength != 0 || a.State != StateDead {
		t.Error("damaging a dead actor must be a no-op")
	}
}

func TestStrengthNeverIncreasesThroughDamage(t *testing.T) {
	a := NewActor("thief", "thief", "maze", 4)
	prev := a.Strength
	for i := 0; i < 6; i++ {
		a.OnDamage(1)
		if a.Strength > prev {
			t.Fatalf("strength increased from %d to %d", prev, a.Strength)
		}
		prev = a.Strength
	}
}

func TestRevive(t *testing.T) {
	a := NewActor("thief", "thief", "maze", 2).WithCombatPosture(true, false)

	if a.Revive(3) {
		t.Error("reviving a conscious actor must be a no-op")
	}

	a.OnDamage(2)
	if a.State != StateUnconscious {
		t.Fatalf("setup: state = %s", a.State)
	}

	if a.Revive(0) {
		t.Error("revive with zero strength must fail")
	}
	if !a.Revive(3) {
		t.Fatal("revive from unconscious should succeed")
	}
	if a.Strength != 3 || !a.IsConscious() || !a.TickEnabled {
		t.Errorf("after revive: %+v", a)
	}
	if !a.Fighting {
		t.Error("revival should restore the original combat posture")
	}

	a.OnDeath()
	if a.Revive(3) {
		t.Error("dead actors never revive")
	}
}

func TestOnDeathIdempotent(t *testing.T) {
	a := NewActor("troll", "troll", "troll-room", 2)
	a.OnDeath()
	a.OnDeath()
	if a.State != StateDead || a.Strength != 0 || a.TickEnabled {
		t.Errorf("after death: %+v", a)
	}
}

func TestFlagsMirrorTypedState(t *testing.T) {
	a := NewActor("troll", "troll", "troll-room", 2).WithCombatPosture(true, true)

	a.OnDamage(2)
	if a.Flags["actorState"] != string(StateUnconscious) {
		t.Errorf("actorState flag = %v", a.Flags["actorState"])
	}
	if a.Flags["blocksPassage"] != false {
		t.Errorf("blocksPassage flag = %v", a.Flags["blocksPassage"])
	}
	if a.Flags["strength"] != 0 {
		t.Errorf("strength flag = %v", a.Flags["strength"])
	}

	a.SetEngrossed(true)
	if a.Flags["engrossed"] != true {
		t.Errorf("engrossed flag = %v", a.Flags["engrossed"])
	}
}
