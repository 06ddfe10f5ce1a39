package ecs_test

import (
	"bytes"
	"sync"

	"github.com/plus3/scenery/ecs"
	"github.com/rs/zerolog"
)

// hookLog records component hook calls in order.
type hookLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *hookLog) add(call string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *hookLog) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (l *hookLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = nil
}

// recorder logs every hook as "<label>.<hook>".
type recorder struct {
	ecs.BaseComponent
	log   *hookLog
	label string
}

func (r *recorder) OnLoad(*ecs.Entity) (bool, bool) {
	r.log.add(r.label + ".load")
	return true, false
}

func (r *recorder) OnActivate(*ecs.Entity)   { r.log.add(r.label + ".activate") }
func (r *recorder) OnDeactivate(*ecs.Entity) { r.log.add(r.label + ".deactivate") }
func (r *recorder) OnUnload(*ecs.Entity)     { r.log.add(r.label + ".unload") }

type Position struct {
	recorder
	X, Y float32
}

func (p *Position) Clone() ecs.Component {
	return &Position{recorder: recorder{log: p.log, label: p.label}, X: p.X, Y: p.Y}
}

type Velocity struct {
	recorder
	DX, DY float32
}

type Health struct {
	recorder
	Current, Max int
}

// Mesh loads asynchronously and becomes ready on pass ReadyOn.
type Mesh struct {
	recorder
	ReadyOn int
	passes  int
}

func (m *Mesh) OnLoad(*ecs.Entity) (bool, bool) {
	m.passes++
	m.log.add(m.label + ".load")
	return m.passes >= m.ReadyOn, true
}

// Broken fails to load synchronously.
type Broken struct {
	recorder
}

func (b *Broken) OnLoad(*ecs.Entity) (bool, bool) {
	b.log.add(b.label + ".load")
	return false, false
}

// Bare relies on BaseComponent's hooks.
type Bare struct {
	ecs.BaseComponent
}

func newPosition(log *hookLog, label string) *Position {
	return &Position{recorder: recorder{log: log, label: label}}
}

func newVelocity(log *hookLog, label string) *Velocity {
	return &Velocity{recorder: recorder{log: log, label: label}}
}

func newHealth(log *hookLog, label string) *Health {
	return &Health{recorder: recorder{log: log, label: label}, Current: 100, Max: 100}
}

func newTestRegistry() *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[*Position](registry, "Position")
	ecs.RegisterComponent[*Velocity](registry, "Velocity")
	ecs.RegisterComponent[*Health](registry, "Health")
	ecs.RegisterComponent[*Mesh](registry, "Mesh")
	ecs.RegisterComponent[*Broken](registry, "Broken")
	ecs.RegisterComponent[*Bare](registry, "Bare")
	return registry
}

// newTestModule returns a module whose logs go to the returned buffer.
func newTestModule(opts ...ecs.Option) (*ecs.SystemModule, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	opts = append([]ecs.Option{ecs.WithLogger(zerolog.New(&syncWriter{w: buf}))}, opts...)
	return ecs.NewSystemModule(newTestRegistry(), opts...), buf
}

func newTestScene(opts ...ecs.Option) (*ecs.EntityScene, *bytes.Buffer) {
	module, buf := newTestModule(opts...)
	return module.CreateScene("test"), buf
}

func typeOf[T ecs.Component](scene *ecs.EntityScene) ecs.ComponentTypeId {
	id, ok := ecs.TypeFor[T](scene.Module().Registry())
	if !ok {
		panic("component type not registered")
	}
	return id
}

// drain processes entity until its queue is empty or passes run out.
func drain(entity *ecs.Entity, passes int) int {
	for i := 1; i <= passes; i++ {
		if entity.ProcessComponents() {
			return i
		}
	}
	return passes
}

type syncWriter struct {
	mu sync.Mutex
	w  *bytes.Buffer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
