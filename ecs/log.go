package ecs

import (
	"github.com/rs/zerolog"
)

func (e *Entity) logError(err error) *zerolog.Event {
	return e.scene.logger().Error().
		Err(err).
		Uint64("entity_id", uint64(e.id)).
		Str("entity", e.Name())
}

func (e *Entity) logDebug() *zerolog.Event {
	return e.scene.logger().Debug().
		Uint64("entity_id", uint64(e.id)).
		Str("entity", e.Name())
}

func (s *EntityScene) logger() *zerolog.Logger {
	return &s.module.logger
}
