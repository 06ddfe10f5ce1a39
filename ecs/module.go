package ecs

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultSimulationRate is the tick rate of Run, in ticks per second.
const DefaultSimulationRate = 60.0

// SystemModule owns the component type table, the event bus and every scene.
// Scenes are ticked by Update or Run while they are active.
type SystemModule struct {
	registry *ComponentRegistry
	events   *EventBus
	logger   zerolog.Logger
	workers  int

	mu             sync.RWMutex
	scenes         map[uuid.UUID]*EntityScene
	active         []*EntityScene
	inactive       []*EntityScene
	simulationRate float64
	tickChannel    <-chan time.Time
}

// NewSystemModule creates a module over registry. A nil registry gets a fresh one.
func NewSystemModule(registry *ComponentRegistry, opts ...Option) *SystemModule {
	if registry == nil {
		registry = NewComponentRegistry()
	}
	m := &SystemModule{
		registry:       registry,
		events:         NewEventBus(),
		logger:         log.Logger,
		workers:        1,
		scenes:         make(map[uuid.UUID]*EntityScene),
		simulationRate: DefaultSimulationRate,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry returns the component type table.
func (m *SystemModule) Registry() *ComponentRegistry {
	return m.registry
}

// Events returns the bus every scene publishes on.
func (m *SystemModule) Events() *EventBus {
	return m.events
}

// Logger returns the module logger.
func (m *SystemModule) Logger() *zerolog.Logger {
	return &m.logger
}

// GetComponentMask returns the mask bit of a registered component type.
func (m *SystemModule) GetComponentMask(typ ComponentTypeId) ComponentMask {
	return m.registry.Mask(typ)
}

// CreateScene creates an active scene. An id may be supplied; otherwise a
// random one is generated. Reusing the id of a live scene returns that scene.
func (m *SystemModule) CreateScene(name string, id ...uuid.UUID) *EntityScene {
	sceneId := uuid.New()
	if len(id) > 0 && id[0] != uuid.Nil {
		sceneId = id[0]
	}

	m.mu.Lock()
	if existing, ok := m.scenes[sceneId]; ok {
		m.mu.Unlock()
		m.logger.Warn().Str("scene_id", sceneId.String()).Msg("scene already exists")
		return existing
	}
	scene := newEntityScene(m, sceneId, name)
	m.scenes[sceneId] = scene
	m.active = append(m.active, scene)
	m.mu.Unlock()

	Publish(m.events, SceneCreated{Scene: scene})
	return scene
}

// GetScene returns the scene with the given id, or nil.
func (m *SystemModule) GetScene(id uuid.UUID) *EntityScene {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scenes[id]
}

// DestroyScene destroys every entity of the scene and forgets it.
func (m *SystemModule) DestroyScene(id uuid.UUID) {
	m.mu.Lock()
	scene, ok := m.scenes[id]
	if !ok {
		m.mu.Unlock()
		m.logger.Error().
			Err(eris.Wrapf(ErrSceneNotFound, "scene %s", id)).
			Msg("destroy scene")
		return
	}
	delete(m.scenes, id)
	m.active = removeScene(m.active, scene)
	m.inactive = removeScene(m.inactive, scene)
	m.mu.Unlock()

	Publish(m.events, SceneDestroying{SceneId: id, Scene: scene})
	scene.clear()
}

// ActivateScene makes a scene tick in Update and Run.
func (m *SystemModule) ActivateScene(id uuid.UUID) {
	m.setSceneActive(id, true)
}

// DeactivateScene stops a scene from ticking. Its entities are kept as they are.
func (m *SystemModule) DeactivateScene(id uuid.UUID) {
	m.setSceneActive(id, false)
}

func (m *SystemModule) setSceneActive(id uuid.UUID, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	scene, ok := m.scenes[id]
	if !ok {
		m.logger.Error().
			Err(eris.Wrapf(ErrSceneNotFound, "scene %s", id)).
			Bool("active", active).
			Msg("set scene active")
		return
	}
	m.active = removeScene(m.active, scene)
	m.inactive = removeScene(m.inactive, scene)
	if active {
		m.active = append(m.active, scene)
	} else {
		m.inactive = append(m.inactive, scene)
	}
}

// IsSceneActive reports whether the scene is in the active list.
func (m *SystemModule) IsSceneActive(id uuid.UUID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	scene, ok := m.scenes[id]
	return ok && slices.Contains(m.active, scene)
}

// ActiveScenes returns the active scenes in activation order.
func (m *SystemModule) ActiveScenes() []*EntityScene {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.active)
}

// InactiveScenes returns the inactive scenes in deactivation order.
func (m *SystemModule) InactiveScenes() []*EntityScene {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.inactive)
}

// SetSimulationRate changes the tick rate of Run. Non-positive rates are ignored.
func (m *SystemModule) SetSimulationRate(hz float64) {
	if hz <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.simulationRate = hz
}

// SimulationRate returns the tick rate of Run, in ticks per second.
func (m *SystemModule) SimulationRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.simulationRate
}

func (m *SystemModule) tickInterval() time.Duration {
	return time.Duration(float64(time.Second) / m.SimulationRate())
}

// Update ticks every active scene once.
func (m *SystemModule) Update(dt float64) {
	for _, scene := range m.ActiveScenes() {
		scene.Update(dt)
	}
}

// Run ticks the active scenes until ctx is cancelled, at the simulation rate or
// whenever the tick channel delivers.
func (m *SystemModule) Run(ctx context.Context) {
	m.mu.RLock()
	tickChannel := m.tickChannel
	m.mu.RUnlock()

	lastTime := time.Now()
	tick := func(now time.Time) {
		dt := now.Sub(lastTime).Seconds()
		lastTime = now
		m.Update(dt)
	}

	if tickChannel != nil {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-tickChannel:
				tick(now)
			}
		}
	}

	interval := m.tickInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			tick(now)
			if next := m.tickInterval(); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

// Clear destroys every scene.
func (m *SystemModule) Clear() {
	m.mu.RLock()
	ids := make([]uuid.UUID, 0, len(m.scenes))
	for _, scene := range m.active {
		ids = append(ids, scene.id)
	}
	for _, scene := range m.inactive {
		ids = append(ids, scene.id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		m.DestroyScene(id)
	}
}

func removeScene(list []*EntityScene, scene *EntityScene) []*EntityScene {
	if i := slices.Index(list, scene); i >= 0 {
		return slices.Delete(list, i, i+1)
	}
	return list
}
