package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cwhitt/adventure-engine/pkg/command"
	"github.com/cwhitt/adventure-engine/pkg/lexicon"
	"github.com/cwhitt/adventure-engine/pkg/resolver"
	"github.com/cwhitt/adventure-engine/pkg/telemetry"
	"github.com/cwhitt/adventure-engine/pkg/world"
)

// buildHandlers wires the verb dispatch table. Capabilities live on the
// object records; the handlers check them. No object carries behavior.
func (e *Engine) buildHandlers() map[string]handlerFunc {
	return map[string]handlerFunc{
		lexicon.VerbMove:       e.handleMove,
		lexicon.VerbLook:       e.handleLook,
		lexicon.VerbExamine:    e.handleExamine,
		lexicon.VerbTake:       e.handleTake,
		lexicon.VerbDrop:       e.handleDrop,
		lexicon.VerbOpen:       e.handleOpen,
		lexicon.VerbClose:      e.handleClose,
		lexicon.VerbPut:        e.handlePut,
		lexicon.VerbInventory:  e.handleInventory,
		lexicon.VerbLight:      e.handleLight,
		lexicon.VerbExtinguish: e.handleExtinguish,
		lexicon.VerbAttack:     e.handleAttack,
		lexicon.VerbGive:       e.handleGive,
		lexicon.VerbScore:      e.handleScore,
		lexicon.VerbWait:       e.handleWait,
	}
}

func fail(msgs ...string) CommandOutput {
	return CommandOutput{Messages: msgs, Success: false, Type: OutputError}
}

func succeed(msgs ...string) CommandOutput {
	return CommandOutput{Messages: msgs, Success: true, Type: OutputAction}
}

// roomContext builds the resolver context for objects reachable in the
// current room plus the inventory. In unlit darkness the room contributes
// nothing: its objects are hidden from the player.
func (e *Engine) roomContext() resolver.Context {
	ctx := resolver.Context{Inventory: e.world.InventoryObjects()}
	if !e.inDarkness() {
		ctx.Room = e.world.RoomObjects(e.world.Player.Room)
	}
	return ctx
}

// inventoryContext restricts resolution to carried objects.
func (e *Engine) inventoryContext() resolver.Context {
	return resolver.Context{Inventory: e.world.InventoryObjects()}
}

// resolveObject runs the resolver and drives the disambiguation and
// autocorrect protocols. ok=false means out is the final answer for this
// command: a cancelled interaction leaves state untouched and is not an
// error.
func (e *Engine) resolveObject(ctx context.Context, phrase string, rctx resolver.Context) (obj *world.GameObject, out CommandOutput, ok bool) {
	res := e.resolver.Resolve(phrase, rctx)

	if res.Resolved {
		// A sub-1.0 score means the match was fuzzy. Below the autocorrect
		// threshold the hit is too weak to offer; above it, confirm when an
		// autocorrect hook is installed.
		if res.Score < 1.0 {
			if res.Score < e.cfg.AutocorrectThreshold {
				return nil, fail(fmt.Sprintf("You don't see any %s here.", phrase)), false
			}
			if e.autocorrect != nil {
				accepted, err := e.confirmAutocorrect(ctx, phrase, res.Object, res.Score)
				if err != nil || !accepted {
					return nil, fail(fmt.Sprintf("You don't see any %s here.", phrase)), false
				}
			}
		}
		e.parser.SetLastReferenced(res.Object.Name)
		return res.Object, CommandOutput{}, true
	}

	if res.NeedsDisambiguation {
		return e.runDisambiguation(ctx, phrase, res.Candidates)
	}

	return nil, fail(fmt.Sprintf("You don't see any %s here.", phrase)), false
}

func (e *Engine) confirmAutocorrect(ctx context.Context, original string, obj *world.GameObject, confidence float64) (bool, error) {
	e.recorder.Record(telemetry.EventAutocorrectSuggested, map[string]interface{}{
		"original":   original,
		"suggestion": obj.Name,
		"confidence": confidence,
	})
	accepted, err := e.autocorrect(ctx, original, obj.Name, confidence)
	if err != nil {
		return false, err
	}
	if accepted {
		e.recorder.Record(telemetry.EventAutocorrectAccepted, map[string]interface{}{
			"original":   original,
			"suggestion": obj.Name,
		})
	} else {
		e.recorder.Record(telemetry.EventAutocorrectRejected, map[string]interface{}{
			"original":   original,
			"suggestion": obj.Name,
		})
	}
	return accepted, nil
}

// runDisambiguation suspends the in-flight command on the UI callback.
// No state is mutated while awaiting the answer, so cancellation leaves
// the world exactly as it was.
func (e *Engine) runDisambiguation(ctx context.Context, phrase string, candidates []resolver.Candidate) (*world.GameObject, CommandOutput, bool) {
	e.recorder.Record(telemetry.EventDisambiguationShown, map[string]interface{}{
		"phrase":     phrase,
		"candidates": len(candidates),
	})

	if e.disambiguate == nil {
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = c.Name
		}
		return nil, CommandOutput{
			Messages: []string{"Which do you mean: " + strings.Join(names, ", ") + "?"},
			Success:  false,
			Type:     OutputQuestion,
		}, false
	}

	selected, err := e.disambiguate(ctx, candidates, fmt.Sprintf("Which %s do you mean?", phrase))
	if err != nil || selected == nil {
		e.recorder.Record(telemetry.EventDisambiguationCancelled, map[string]interface{}{"phrase": phrase})
		return nil, CommandOutput{
			Messages: []string{"Never mind."},
			Success:  true,
			Type:     OutputInfo,
		}, false
	}

	e.recorder.Record(telemetry.EventDisambiguationSelected, map[string]interface{}{
		"phrase":    phrase,
		"object_id": selected.ObjectID,
	})
	obj, found := e.world.Object(selected.ObjectID)
	if !found {
		return nil, fail(fmt.Sprintf("You don't see any %s here.", phrase)), false
	}
	e.parser.SetLastReferenced(obj.Name)
	return obj, CommandOutput{}, true
}

func (e *Engine) handleMove(ctx context.Context, cmd command.ParsedCommand) CommandOutput {
	room := e.world.CurrentRoom()
	if room == nil {
		return fail("You are nowhere. That shouldn't happen.")
	}

	if blocker, blocked := e.actors.BlockerAt(room.ID); blocked {
		return fail(fmt.Sprintf("The %s fends you off with a menacing gesture.", blocker.Name))
	}

	dest, found := room.Exit(cmd.Direction)
	if !found {
		return fail("You can't go that way.")
	}

	e.world.Player.Room = dest
	next := e.world.Rooms[dest]
	firstVisit := !next.Visited
	next.Visited = true

	return CommandOutput{
		Messages: e.describeRoom(next, firstVisit),
		Success:  true,
		Type:     OutputAction,
	}
}

func (e *Engine) handleLook(ctx context.Context, cmd command.ParsedCommand) CommandOutput {
	if e.inDarkness() {
		return CommandOutput{
			Messages: []string{"It is pitch black. You are likely to be eaten by a grue."},
			Success:  true,
			Type:     OutputInfo,
		}
	}
	room := e.world.CurrentRoom()
	return CommandOutput{
		Messages: e.describeRoom(room, true),
		Success:  true,
		Type:     OutputAction,
	}
}

func (e *Engine) describeRoom(room *world.Room, full bool) []string {
	if room.Dark && !e.hasActiveLight() {
		return []string{"It is pitch black. You are likely to be eaten by a grue."}
	}

	msgs := []string{room.Name}
	if full || room.ShortDescription == "" {
		msgs = append(msgs, room.Description)
	} else {
		msgs = append(msgs, room.ShortDescription)
	}
	for _, id := range room.Objects {
		o, ok := e.world.Object(id)
		if !ok || !e.world.ObjectVisible(o) {
			continue
		}
		msgs = append(msgs, fmt.Sprintf("There is a %s here.", o.Name))
		if o.Properties.Container && o.Properties.Open && len(o.Properties.Contents) > 0 {
			msgs = append(msgs, e.describeContents(o))
		}
	}
	for _, a := range e.actorsInRoom(room.ID) {
		msgs = append(msgs, fmt.Sprintf("A %s is here.", a))
	}
	return msgs
}

func (e *Engine) actorsInRoom(roomID string) []string {
	var names []string
	for _, a := range e.actors.InRoom(roomID) {
		if a.IsConscious() {
			names = append(names, a.Name)
		} else {
			names = append(names, a.Name+" (unconscious)")
		}
	}
	return names
}

func (e *Engine) handleExamine(ctx context.Context, cmd command.ParsedCommand) CommandOutput {
	if e.inDarkness() {
		return fail("It's too dark to see anything.")
	}
	obj, out, ok := e.resolveObject(ctx, cmd.DirectObject, e.roomContext())
	if !ok {
		return out
	}

	msgs := []string{obj.Description}
	if obj.Description == "" {
		msgs = []string{fmt.Sprintf("You see nothing special about the %s.", obj.Name)}
	}
	if obj.Properties.Text != "" {
		msgs = append(msgs, obj.Properties.Text)
	}
	if obj.Properties.Container {
		if obj.Properties.Open {
			msgs = append(msgs, e.describeContents(obj))
		} else {
			msgs = append(msgs, fmt.Sprintf("The %s is closed.", obj.Name))
		}
	}
	return succeed(msgs...)
}

func (e *Engine) describeContents(container *world.GameObject) string {
	var names []string
	for _, id := range container.Properties.Contents {
		if o, ok := e.world.Object(id); ok && e.world.ObjectVisible(o) {
			names = append(names, o.Name)
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("The %s is empty.", container.Name)
	}
	return fmt.Sprintf("The %s contains: %s.", container.Name, strings.Join(names, ", "))
}

func (e *Engine) handleTake(ctx context.Context, cmd command.ParsedCommand) CommandOutput {
	if e.inDarkness() {
		return fail("It's too dark to see anything here.")
	}
	obj, out, ok := e.resolveObject(ctx, cmd.DirectObject, e.roomContext())
	if !ok {
		return out
	}

	if obj.Location == world.LocationPlayer {
		return fail(fmt.Sprintf("You're already carrying the %s.", obj.Name))
	}
	if !obj.Portable {
		return fail(fmt.Sprintf("You can't take the %s.", obj.Name))
	}
	if err := e.world.MoveObject(obj.ID, world.LocationPlayer); err != nil {
		return fail("You can't take that.")
	}
	return succeed(fmt.Sprintf("You take the %s.", obj.Name))
}

func (e *Engine) handleDrop(ctx context.Context, cmd command.ParsedCommand) CommandOutput {
	obj, out, ok := e.resolveObject(ctx, cmd.DirectObject, e.inventoryContext())
	if !ok {
		return out
	}
	if err := e.world.MoveObject(obj.ID, e.world.Player.Room); err != nil {
		return fail("You can't drop that here.")
	}
	return succeed(fmt.Sprintf("You drop the %s.", obj.Name))
}

func (e *Engine) handleOpen(ctx context.Context, cmd command.ParsedCommand) CommandOutput {
	if e.inDarkness() {
		return fail("It's too dark to see anything here.")
	}
	obj, out, ok := e.resolveObject(ctx, cmd.DirectObject, e.roomContext())
	if !ok {
		return out
	}

	if !obj.Properties.Openable {
		return fail(fmt.Sprintf("You can't open the %s.", obj.Name))
	}
	if obj.Properties.Locked {
		return fail(fmt.Sprintf("The %s is locked.", obj.Name))
	}
	if obj.Properties.Open {
		return fail(fmt.Sprintf("The %s is already open.", obj.Name))
	}

	obj.Properties.Open = true
	if obj.Properties.Container && len(obj.Properties.Contents) > 0 {
		return succeed(fmt.Sprintf("Opening the %s reveals %s.", obj.Name, e.contentNames(obj)))
	}
	return succeed(fmt.Sprintf("You open the %s.", obj.Name))
}

func (e *Engine) contentNames(container *world.GameObject) string {
	var names []string
	for _, id := range container.Properties.Contents {
		if o, ok := e.world.Object(id); ok && e.world.ObjectVisible(o) {
			names = append(names, "a "+o.Name)
		}
	}
	if len(names) == 0 {
		return "nothing"
	}
	return strings.Join(names, " and ")
}

func (e *Engine) handleClose(ctx context.Context, cmd command.ParsedCommand) CommandOutput {
	if e.inDarkness() {
		return fail("It's too dark to see anything here.")
	}
	obj, out, ok := e.resolveObject(ctx, cmd.DirectObject, e.roomContext())
	if !ok {
		return out
	}

	if !obj.Properties.Openable {
		return fail(fmt.Sprintf("You can't close the %s.", obj.Name))
	}
	if !obj.Properties.Open {
		return fail(fmt.Sprintf("The %s is already closed.", obj.Name))
	}
	obj.Properties.Open = false
	return succeed(fmt.Sprintf("You close the %s.", obj.Name))
}

func (e *Engine) handlePut(ctx context.Context, cmd command.ParsedCommand) CommandOutput {
	obj, out, ok := e.resolveObject(ctx, cmd.DirectObject, e.inventoryContext())
	if !ok {
		return out
	}
	container, out, ok := e.resolveObject(ctx, cmd.IndirectObject, e.roomContext())
	if !ok {
		return out
	}

	if !container.Properties.Container {
		return fail(fmt.Sprintf("You can't put anything in the %s.", container.Name))
	}
	if !container.Properties.Open {
		return fail(fmt.Sprintf("The %s is closed.", container.Name))
	}
	if container.Properties.Capacity > 0 && len(container.Properties.Contents) >= container.Properties.Capacity {
		return fail(fmt.Sprintf("The %s is full.", container.Name))
	}

	if err := e.world.MoveObject(obj.ID, container.ID); err != nil {
		return fail("It won't fit.")
	}

	msgs := []string{fmt.Sprintf("You put the %s in the %s.", obj.Name, container.Name)}

	// Depositing a treasure in the trophy container scores it, exactly
	// once per treasure.
	if container.Properties.Trophy && obj.Properties.Treasure && !e.scored[obj.ID] {
		e.scored[obj.ID] = true
		e.world.Player.Score += obj.Properties.Value
		msgs = append(msgs, fmt.Sprintf("Your score has gone up by %d points.", obj.Properties.Value))
		if e.allTreasuresScored() {
			e.status = StatusWon
			msgs = append(msgs, "All the treasures are accounted for. You have won!")
		}
	}
	return succeed(msgs...)
}

func (e *Engine) allTreasuresScored() bool {
	for _, o := range e.world.Objects {
		if o.Properties.Treasure && !e.scored[o.ID] {
			return false
		}
	}
	return true
}

func (e *Engine) handleInventory(ctx context.Context, cmd command.ParsedCommand) CommandOutput {
	objs := e.world.InventoryObjects()
	if len(objs) == 0 {
		return CommandOutput{Messages: []string{"You are empty-handed."}, Success: true, Type: OutputInfo}
	}
	msgs := []string{"You are carrying:"}
	for _, o := range objs {
		msgs = append(msgs, "  a "+o.Name)
	}
	return CommandOutput{Messages: msgs, Success: true, Type: OutputInfo}
}

func (e *Engine) handleLight(ctx context.Context, cmd command.ParsedCommand) CommandOutput {
	obj, out, ok := e.resolveObject(ctx, cmd.DirectObject, e.roomContext())
	if !ok {
		return out
	}
	if !obj.Properties.Lightable {
		return fail(fmt.Sprintf("You can't light the %s.", obj.Name))
	}
	if obj.Properties.Lit {
		return fail(fmt.Sprintf("The %s is already on.", obj.Name))
	}
	obj.Properties.Lit = true
	e.darknessTurns = 0

	msgs := []string{fmt.Sprintf("The %s is now on.", obj.Name)}
	room := e.world.CurrentRoom()
	if room != nil && room.Dark {
		msgs = append(msgs, e.describeRoom(room, true)...)
	}
	return succeed(msgs...)
}

func (e *Engine) handleExtinguish(ctx context.Context, cmd command.ParsedCommand) CommandOutput {
	obj, out, ok := e.resolveObject(ctx, cmd.DirectObject, e.roomContext())
	if !ok {
		return out
	}
	if !obj.Properties.Lightable || !obj.Properties.Lit {
		return fail(fmt.Sprintf("The %s isn't on.", obj.Name))
	}
	obj.Properties.Lit = false
	msgs := []string{fmt.Sprintf("The %s is now off.", obj.Name)}
	if e.inDarkness() {
		msgs = append(msgs, "It is now pitch black.")
	}
	return succeed(msgs...)
}

func (e *Engine) handleAttack(ctx context.Context, cmd command.ParsedCommand) CommandOutput {
	target, found := e.actors.FindByName(cmd.DirectObject)
	if !found || target.Location != e.world.Player.Room {
		return fail(fmt.Sprintf("You don't see any %s here.", cmd.DirectObject))
	}

	damage := 1
	if cmd.IndirectObject != "" {
		weapon, out, ok := e.resolveObject(ctx, cmd.IndirectObject, e.inventoryContext())
		if !ok {
			return out
		}
		if !weapon.Properties.Weapon {
			return fail(fmt.Sprintf("The %s makes a poor weapon.", weapon.Name))
		}
		damage = 2
	}

	msgs, counterattacked, err := e.actors.PlayerAttack(target.ID, damage, e.randFn(), e.randFn(), e.world)
	if err != nil {
		return fail("You can't attack that.")
	}

	if counterattacked {
		if e.world.Player.Flag("wounded") {
			e.world.Player.Alive = false
			e.status = StatusLost
			msgs = append(msgs, "The blow is too much for you.", "**** You have died ****")
			return CommandOutput{Messages: msgs, Success: false, Type: OutputDeath}
		}
		e.world.Player.SetFlag("wounded", true)
	}
	return succeed(msgs...)
}

func (e *Engine) handleGive(ctx context.Context, cmd command.ParsedCommand) CommandOutput {
	obj, out, ok := e.resolveObject(ctx, cmd.DirectObject, e.inventoryContext())
	if !ok {
		return out
	}

	target, found := e.actors.FindByName(cmd.IndirectObject)
	if !found || target.Location != e.world.Player.Room {
		return fail(fmt.Sprintf("You don't see any %s here.", cmd.IndirectObject))
	}

	accepted, msg, err := e.actors.OfferGift(target.ID, obj, e.world)
	if err != nil {
		return fail("Nothing happens.")
	}
	if !accepted {
		return fail(msg)
	}
	return succeed(msg)
}

func (e *Engine) handleScore(ctx context.Context, cmd command.ParsedCommand) CommandOutput {
	return CommandOutput{
		Messages: []string{fmt.Sprintf("Your score is %d, in %d moves.", e.world.Player.Score, e.world.Player.Moves)},
		Success:  true,
		Type:     OutputInfo,
	}
}

func (e *Engine) handleWait(ctx context.Context, cmd command.ParsedCommand) CommandOutput {
	msgs := []string{"Time passes."}
	msgs = append(msgs, e.actors.Tick(e.world)...)
	return succeed(msgs...)
}

func joinQuoted(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
