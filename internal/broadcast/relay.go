package broadcast

import (
	"context"

	"github.com/wildforge/zonecore/internal/core/event"
	"github.com/wildforge/zonecore/internal/zone"
)

// Relay subscribes every broadcast-worthy event type on an instance's
// bus and republishes it through a Broadcaster, tagged with that
// instance's key. One Relay per live instance.
type Relay struct {
	b   Broadcaster
	key zone.Key
}

// Attach wires a Relay for inst onto bus, returning it for symmetry with
// callers that want to hold a handle (the Go event.Bus has no
// Unsubscribe; a Relay lives as long as its instance does).
func Attach(bus *event.Bus, b Broadcaster, key zone.Key) *Relay {
	r := &Relay{b: b, key: key}

	event.Subscribe(bus, func(e event.EntityMoved) { r.publish("entity_moved", e) })
	event.Subscribe(bus, func(e event.EntityDeath) { r.publish("entity_death", e) })
	event.Subscribe(bus, func(e event.XPGain) { r.publish("xp_gain", e) })
	event.Subscribe(bus, func(e event.SpellEffect) { r.publish("spell_effect", e) })
	event.Subscribe(bus, func(e event.KillRewards) { r.publish("kill_rewards", e) })
	event.Subscribe(bus, func(e event.CorpseSpawn) { r.publish("corpse_spawn", e) })
	event.Subscribe(bus, func(e event.CorpseLootTaken) { r.publish("corpse_loot_taken", e) })
	event.Subscribe(bus, func(e event.BuffApplied) { r.publish("buff_applied", e) })
	event.Subscribe(bus, func(e event.BuffRemoved) { r.publish("buff_removed", e) })
	event.Subscribe(bus, func(e event.BuffTick) { r.publish("buff_tick", e) })

	return r
}

func (r *Relay) publish(kind string, payload any) {
	// Publish is rate-limited and logs and swallows errors; it runs
	// synchronously inside DispatchAll, so a slow Redis round-trip delays
	// the tick.
	_ = r.b.Publish(context.Background(), r.key, kind, payload)
}
