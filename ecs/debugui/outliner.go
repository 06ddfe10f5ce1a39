package debugui

import (
	"fmt"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/scenery/ecs"
)

// OutlinerRow is one entity in depth-first hierarchy order.
type OutlinerRow struct {
	ID             ecs.EntityId
	Name           string
	Depth          int
	Active         bool // own flag
	Enabled        bool // active in hierarchy
	ComponentTypes []string
	Pending        int
}

type OutlinerCache struct {
	rows        []OutlinerRow
	lastVersion uint64
	valid       bool
}

func NewSceneOutliner(maxEntitiesPerPage int) *SceneOutliner {
	return &SceneOutliner{
		cache:              &OutlinerCache{},
		maxEntitiesPerPage: maxEntitiesPerPage,
	}
}

func (so *SceneOutliner) Render(scene *ecs.EntityScene) {
	if !imgui.BeginV("Scene Outliner", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	so.rebuildCacheIfNeeded(scene)

	imgui.Text(fmt.Sprintf("Scene: %s (%s)", scene.Name(), scene.Id()))
	imgui.InputTextWithHint("##search", "Search...", &so.filterText, imgui.InputTextFlagsNone, nil)
	imgui.SameLine()
	if imgui.Button("Clear Filter") {
		so.filterText = ""
		so.currentPage = 0
	}

	rows := so.getFilteredRows()

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsScrollY
	if imgui.BeginTableV("OutlinerTable", 4, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Entity")
		imgui.TableSetupColumn("Active")
		imgui.TableSetupColumn("Components")
		imgui.TableSetupColumn("Pending")
		imgui.TableHeadersRow()

		startIdx := so.currentPage * so.maxEntitiesPerPage
		endIdx := min(startIdx+so.maxEntitiesPerPage, len(rows))

		for i := startIdx; i < endIdx; i++ {
			row := rows[i]
			imgui.TableNextRow()

			imgui.TableNextColumn()
			isSelected := so.selectedEntityId == row.ID
			if imgui.SelectableBoolV(so.rowLabel(row), isSelected, imgui.SelectableFlagsNone, imgui.NewVec2(0, 0)) {
				so.selectedEntityId = row.ID
			}

			imgui.TableNextColumn()
			active := row.Active
			if imgui.Checkbox(fmt.Sprintf("##active%d", row.ID), &active) {
				scene.Commands().SetActive(row.ID, active)
			}
			if !row.Enabled {
				imgui.SameLine()
				imgui.TextDisabled("(inactive)")
			}

			imgui.TableNextColumn()
			imgui.Text(strings.Join(row.ComponentTypes, ", "))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", row.Pending))
		}

		imgui.EndTable()
	}

	if len(rows) > so.maxEntitiesPerPage {
		totalPages := (len(rows) + so.maxEntitiesPerPage - 1) / so.maxEntitiesPerPage
		imgui.Text(fmt.Sprintf("Page %d / %d (%d entities)", so.currentPage+1, totalPages, len(rows)))
		imgui.SameLine()
		if imgui.Button("Prev") && so.currentPage > 0 {
			so.currentPage--
		}
		imgui.SameLine()
		if imgui.Button("Next") && so.currentPage < totalPages-1 {
			so.currentPage++
		}
	} else {
		imgui.Text(fmt.Sprintf("Total: %d entities", len(rows)))
	}

	if so.selectedEntityId != ecs.InvalidEntityId && imgui.Button("Destroy Selected") {
		scene.Commands().DestroyEntity(so.selectedEntityId)
		so.selectedEntityId = ecs.InvalidEntityId
	}

	imgui.End()
}

func (so *SceneOutliner) rowLabel(row OutlinerRow) string {
	// filtered results are flat
	indent := ""
	if so.filterText == "" {
		indent = strings.Repeat("  ", row.Depth)
	}
	return fmt.Sprintf("%s%s##%d", indent, row.Name, row.ID)
}

func (so *SceneOutliner) rebuildCacheIfNeeded(scene *ecs.EntityScene) {
	version := scene.Version()
	if so.cache.valid && so.cache.lastVersion == version {
		return
	}
	so.cache.rows = buildOutlinerRows(scene)
	so.cache.lastVersion = version
	so.cache.valid = true
}

// buildOutlinerRows walks the hierarchy under the scene root depth-first.
// Active children are listed before inactive ones.
func buildOutlinerRows(scene *ecs.EntityScene) []OutlinerRow {
	rows := make([]OutlinerRow, 0, scene.EntityCount())
	var walk func(e *ecs.Entity, depth int)
	walk = func(e *ecs.Entity, depth int) {
		for _, child := range append(e.Children(), e.InactiveChildren()...) {
			infos := child.Components()
			names := make([]string, len(infos))
			for i, info := range infos {
				names[i] = info.Name
			}
			rows = append(rows, OutlinerRow{
				ID:             child.Id(),
				Name:           child.Name(),
				Depth:          depth,
				Active:         child.IsActive(),
				Enabled:        child.IsActiveInHierarchy(),
				ComponentTypes: names,
				Pending:        child.PendingCount(),
			})
			walk(child, depth+1)
		}
	}
	walk(scene.Root(), 0)
	return rows
}

func (so *SceneOutliner) getFilteredRows() []OutlinerRow {
	return filterOutlinerRows(so.cache.rows, so.filterText)
}

func filterOutlinerRows(rows []OutlinerRow, filterText string) []OutlinerRow {
	if filterText == "" {
		return rows
	}

	filtered := make([]OutlinerRow, 0, len(rows))
	filterLower := strings.ToLower(filterText)

	for _, row := range rows {
		idStr := fmt.Sprintf("%d", row.ID)
		nameStr := strings.ToLower(row.Name)
		componentsStr := strings.ToLower(strings.Join(row.ComponentTypes, " "))

		if !strings.Contains(idStr, filterLower) &&
			!strings.Contains(nameStr, filterLower) &&
			!strings.Contains(componentsStr, filterLower) {
			continue
		}

		filtered = append(filtered, row)
	}

	return filtered
}

func (so *SceneOutliner) GetSelectedEntity() ecs.EntityId {
	return so.selectedEntityId
}

// Select makes id the selected entity.
func (so *SceneOutliner) Select(id ecs.EntityId) {
	so.selectedEntityId = id
}
