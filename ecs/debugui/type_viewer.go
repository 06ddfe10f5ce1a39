package debugui

import (
	"fmt"
	"sort"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/scenery/ecs"
)

// TypeUsage counts the components of one registered type by lifecycle state.
type TypeUsage struct {
	ID       ecs.ComponentTypeId
	Name     string
	GoType   string
	Mask     ecs.ComponentMask
	Entities int
	Active   int
	Inactive int
	Pending  int
	Failed   int
}

type TypeViewerCache struct {
	types         []TypeUsage
	lastVersion   uint64
	valid         bool
	sortColumn    int
	sortAscending bool
}

func NewTypeViewer() *TypeViewer {
	return &TypeViewer{
		cache: &TypeViewerCache{
			sortColumn:    3,
			sortAscending: false,
		},
	}
}

// Render draws the registered types and returns the type clicked this frame, if any.
func (tv *TypeViewer) Render(scene *ecs.EntityScene) *ecs.ComponentTypeId {
	if !imgui.BeginV("Component Types", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return nil
	}

	tv.rebuildCacheIfNeeded(scene)

	maxEntityCount := 0
	for _, usage := range tv.cache.types {
		maxEntityCount = max(maxEntityCount, usage.Entities)
	}

	var clickedTypeId *ecs.ComponentTypeId

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("TypeTable", 7, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Id")
		imgui.TableSetupColumn("Name")
		imgui.TableSetupColumn("Go Type")
		imgui.TableSetupColumn("Entities")
		imgui.TableSetupColumn("Active")
		imgui.TableSetupColumn("Pending")
		imgui.TableSetupColumn("Failed")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			tv.cache.sortColumn = int(spec.ColumnIndex())
			tv.cache.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			tv.sortTypes()
			sortSpecs.SetSpecsDirty(false)
		}

		for _, usage := range tv.cache.types {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			isSelected := tv.selectedTypeId != nil && *tv.selectedTypeId == usage.ID
			if imgui.SelectableBoolV(fmt.Sprintf("%d", usage.ID), isSelected, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				id := usage.ID
				clickedTypeId = &id
				tv.selectedTypeId = &id
			}

			imgui.TableNextColumn()
			imgui.Text(usage.Name)

			imgui.TableNextColumn()
			imgui.Text(usage.GoType)

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", usage.Entities))
			if maxEntityCount > 0 {
				barWidth := float32(usage.Entities) / float32(maxEntityCount) * 80.0
				imgui.SameLine()
				drawList := imgui.WindowDrawList()
				pos := imgui.CursorScreenPos()
				color := imgui.ColorU32Vec4(imgui.NewVec4(0.2, 0.6, 0.8, 0.6))
				drawList.AddRectFilled(pos, imgui.NewVec2(pos.X+barWidth, pos.Y+10), color)
			}

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d / %d", usage.Active, usage.Inactive))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", usage.Pending))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", usage.Failed))
		}

		imgui.EndTable()
	}

	imgui.End()
	return clickedTypeId
}

func (tv *TypeViewer) rebuildCacheIfNeeded(scene *ecs.EntityScene) {
	version := scene.Version()
	if tv.cache.valid && tv.cache.lastVersion == version {
		return
	}
	tv.cache.types = collectTypeUsage(scene)
	tv.cache.lastVersion = version
	tv.cache.valid = true
	tv.sortTypes()
}

// collectTypeUsage counts attached components per registered type, in id order.
func collectTypeUsage(scene *ecs.EntityScene) []TypeUsage {
	registered := scene.Module().Registry().Types()
	usage := make([]TypeUsage, len(registered))
	index := make(map[ecs.ComponentTypeId]int, len(registered))
	for i, info := range registered {
		usage[i] = TypeUsage{
			ID:     info.Id,
			Name:   info.Name,
			GoType: info.Type.String(),
			Mask:   info.Mask,
		}
		index[info.Id] = i
	}

	for e := range scene.Entities() {
		for _, info := range e.Components() {
			i, ok := index[info.Type]
			if !ok {
				continue
			}
			u := &usage[i]
			u.Entities++
			switch {
			case info.State == ecs.StateActive:
				u.Active++
			case info.State == ecs.StateInactive:
				u.Inactive++
			case info.State == ecs.StateLoadFailed:
				u.Failed++
			case info.State.Pending():
				u.Pending++
			}
		}
	}
	return usage
}

func (tv *TypeViewer) sortTypes() {
	sort.SliceStable(tv.cache.types, func(i, j int) bool {
		a, b := tv.cache.types[i], tv.cache.types[j]
		var less bool

		switch tv.cache.sortColumn {
		case 0:
			less = a.ID < b.ID
		case 1:
			less = a.Name < b.Name
		case 2:
			less = a.GoType < b.GoType
		case 3:
			less = a.Entities < b.Entities
		case 4:
			less = a.Active < b.Active
		case 5:
			less = a.Pending < b.Pending
		case 6:
			less = a.Failed < b.Failed
		default:
			less = a.Entities < b.Entities
		}

		if !tv.cache.sortAscending {
			return !less
		}
		return less
	})
}
