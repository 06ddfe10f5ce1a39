package debugui

import (
	"github.com/plus3/scenery/ecs"
)

// Window state for the built-in debug tools. Each tool is rendered by an
// ImguiItem created in SpawnDebugUI.

type SceneOutliner struct {
	cache              *OutlinerCache
	selectedEntityId   ecs.EntityId
	filterText         string
	maxEntitiesPerPage int
	currentPage        int
}

type ComponentInspector struct {
	selectedEntityId ecs.EntityId
}

type TypeViewer struct {
	cache          *TypeViewerCache
	selectedTypeId *ecs.ComponentTypeId
}

type PerformanceStats struct {
	historyFrames int
	frameHistory  []float32
	frameIndex    int
}

type QueryDebugger struct {
	selectedComponentTypes map[ecs.ComponentTypeId]bool
	query                  *ecs.Query
	scene                  *ecs.EntityScene
}
