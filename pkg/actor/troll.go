package actor

import "github.com/cwhitt/adventure-engine/pkg/world"

// TrollConfig tunes the troll's combat behavior. Probabilities are
// compared against caller-supplied [0,1) rolls.
type TrollConfig struct {
	HitProbability     float64 // chance a player attack lands
	CounterProbability float64 // chance the troll counterattacks after surviving
	AttackDamage       int     // damage per landed player attack
	FoodBribe          bool    // whether a non-treasure gift pacifies him
}

// DefaultTrollConfig returns the stock tuning.
func DefaultTrollConfig() TrollConfig {
	return TrollConfig{
		HitProbability:     0.6,
		CounterProbability: 0.5,
		AttackDamage:       1,
		FoodBribe:          true,
	}
}

// Troll guards a passage. He does not wander; while conscious he blocks
// movement through his room and menaces the player on each perceiving
// tick. Knocking him out clears the passage.
type Troll struct {
	Config TrollConfig
	events Events
}

// NewTroll creates a troll strategy.
func NewTroll(cfg TrollConfig, events Events) *Troll {
	return &Troll{Config: cfg, events: events}
}

// OnTick implements Behavior.
func (t *Troll) OnTick(a *Actor, w *world.World, roll float64, perceivesPlayer bool) []string {
	if !a.IsConscious() || !perceivesPlayer {
		return nil
	}
	if roll < t.Config.CounterProbability {
		return []string{"The troll swings his bloody axe in a menacing arc."}
	}
	return []string{"The troll eyes you warily, blocking the passage."}
}

// OnGift implements Conversation. The troll eats non-treasure gifts and
// lets the player pass while distracted; treasure just makes him angry.
func (t *Troll) OnGift(a *Actor, w *world.World, obj *world.GameObject) (bool, string) {
	if a.IsDead() {
		return false, "The troll is past eating."
	}
	if !a.IsConscious() {
		return false, "The troll is in no condition to notice."
	}

	if obj.Properties.Treasure || !t.Config.FoodBribe {
		return false, "The troll catches it, sniffs it, and hurls it back at your feet with a snarl."
	}

	w.Player.RemoveItem(obj.ID)
	obj.Location = a.ID
	obj.Visible = false
	a.addItem(obj.ID)
	a.BlocksPassage = false
	a.syncFlags()

	if t.events != nil {
		t.events.ActorEvent("gift_accepted", a.ID, map[string]interface{}{
			"object_id": obj.ID,
			"value":     obj.Properties.Value,
		})
	}
	return true, "The troll devours your gift greedily and, momentarily distracted, steps aside."
}
