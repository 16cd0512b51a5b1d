package zone

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wildforge/zonecore/internal/config"
	"github.com/wildforge/zonecore/internal/data"
	"github.com/wildforge/zonecore/internal/errs"
	"github.com/wildforge/zonecore/internal/guid"
	"github.com/wildforge/zonecore/internal/persist"
	"github.com/wildforge/zonecore/internal/scripting"
	"github.com/wildforge/zonecore/internal/telemetry"
)

// Registry is the process-wide (kind, id) -> instance lookup (spec
// §4.7). Registration is cleaned up automatically when an instance's
// idle-shutdown timer expires.
type Registry struct {
	mu        sync.Mutex
	instances map[Key]*Instance

	cfg       config.ZoneConfig
	templates *data.CreatureTable
	spells    *data.SpellTable
	buffDefs  *data.BuffTable
	loot      *data.LootTable
	engine    *scripting.Engine
	guids     *guid.Registry
	log       *zap.Logger
	metrics   *telemetry.Metrics
	wal       *persist.WALRepo
}

// SetMetrics attaches a telemetry sink used for the live-zone gauge and
// idle-shutdown counter, and is propagated to every instance created
// afterward. nil disables instrumentation.
func (r *Registry) SetMetrics(m *telemetry.Metrics) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = m
}

// SetWAL attaches the write-ahead-log repo backing corpse loot-take
// durability, propagated to every instance created afterward. nil
// disables WAL writes (loot-take still applies, just without the
// crash-safety record).
func (r *Registry) SetWAL(w *persist.WALRepo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wal = w
}

// NewRegistry builds an empty registry over the shared static tables
// every instance it creates will reference.
func NewRegistry(cfg config.ZoneConfig, templates *data.CreatureTable, spells *data.SpellTable, buffDefs *data.BuffTable, loot *data.LootTable, engine *scripting.Engine, guids *guid.Registry, log *zap.Logger) *Registry {
	return &Registry{
		instances: make(map[Key]*Instance),
		cfg:       cfg,
		templates: templates,
		spells:    spells,
		buffDefs:  buffDefs,
		loot:      loot,
		engine:    engine,
		guids:     guids,
		log:       log,
	}
}

// Get returns the instance for key, if it has already been created.
func (r *Registry) Get(key Key) (*Instance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instances[key]
	return inst, ok
}

// GetOrCreate returns the instance for key, creating it (lazily, per
// spec §4.7) if it does not exist yet — e.g. on first player entry.
func (r *Registry) GetOrCreate(key Key) *Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inst, ok := r.instances[key]; ok {
		return inst
	}
	inst := New(key, r.cfg, r.templates, r.spells, r.buffDefs, r.engine, r.guids, r.loot, r.log)
	inst.SetMetrics(r.metrics)
	inst.SetWAL(r.wal)
	r.instances[key] = inst
	if r.metrics != nil {
		r.metrics.LiveZones.Set(float64(len(r.instances)))
	}
	return inst
}

// Remove unregisters key, e.g. once its idle-shutdown timer expires.
func (r *Registry) Remove(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, key)
	if r.metrics != nil {
		r.metrics.LiveZones.Set(float64(len(r.instances)))
	}
}

// CheckIdleShutdowns tears down every instance whose player count has
// been zero for longer than cfg.IdleShutdown, given the caller's current
// tick time. Adding a player before that deadline (PlayerCount() > 0)
// cancels the shutdown implicitly, since lastPlayerLeftMS only matters
// while the count stays at zero.
func (r *Registry) CheckIdleShutdowns(nowMS int64) []Key {
	r.mu.Lock()
	defer r.mu.Unlock()

	idleMS := r.cfg.IdleShutdown.Milliseconds()
	var expired []Key
	for key, inst := range r.instances {
		if inst.PlayerCount() > 0 {
			continue
		}
		if !inst.hasPlayerLeft {
			continue // never had a player yet (eager-created, still loading)
		}
		if nowMS-inst.lastPlayerLeftMS >= idleMS {
			expired = append(expired, key)
			delete(r.instances, key)
			if r.metrics != nil {
				r.metrics.IdleShutdowns.Inc()
			}
		}
	}
	if r.metrics != nil {
		r.metrics.LiveZones.Set(float64(len(r.instances)))
	}
	return expired
}

// Tick drives every live instance's own Tick once. Instances are
// independent (spec §5's single-worker-per-zone model); ticking them in
// sequence here is a placement choice for a single-process deployment,
// not a constraint the instances themselves impose.
func (r *Registry) Tick(nowMS int64) {
	r.mu.Lock()
	instances := make([]*Instance, 0, len(r.instances))
	for _, inst := range r.instances {
		instances = append(instances, inst)
	}
	r.mu.Unlock()

	for _, inst := range instances {
		inst.Tick(nowMS)
	}
}

// Lookup finds the instance (if any) that currently owns entity id, by
// scanning live instances. Intended for cross-zone operations (whispers,
// GM commands); the tick path never calls this.
func (r *Registry) Lookup(id guid.ID) (*Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inst := range r.instances {
		if _, ok := inst.Entity(id); ok {
			return inst, nil
		}
	}
	return nil, errs.New("zone.Registry.Lookup", errs.NotFound)
}
