package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/scenery/ecs"
)

const queryDebuggerMaxRows = 50

func NewQueryDebugger() *QueryDebugger {
	return &QueryDebugger{
		selectedComponentTypes: make(map[ecs.ComponentTypeId]bool),
	}
}

func (qd *QueryDebugger) Render(scene *ecs.EntityScene) {
	if !imgui.BeginV("Query Debugger", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	imgui.Text("Select Component Types:")
	imgui.Separator()

	if imgui.Button("Clear All") {
		qd.selectedComponentTypes = make(map[ecs.ComponentTypeId]bool)
	}

	for _, info := range scene.Module().Registry().Types() {
		selected := qd.selectedComponentTypes[info.Id]
		if imgui.Checkbox(info.Name, &selected) {
			qd.Toggle(info.Id, selected)
		}
	}

	imgui.Separator()

	mask := qd.SelectedMask()
	if mask.IsEmpty() {
		imgui.Text("No component types selected")
		imgui.End()
		return
	}

	query := qd.Query(scene)
	imgui.Text(fmt.Sprintf("Mask: %s", mask))
	imgui.Text(fmt.Sprintf("Matching Entities: %d", query.Count()))

	if imgui.TreeNodeStr("Entities") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("QueryEntityTable", 3, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("Entity ID")
			imgui.TableSetupColumn("Name")
			imgui.TableSetupColumn("Mask")
			imgui.TableHeadersRow()

			rows := 0
			for e := range query.Iter() {
				if rows == queryDebuggerMaxRows {
					break
				}
				rows++
				imgui.TableNextRow()

				imgui.TableSetColumnIndex(0)
				imgui.Text(fmt.Sprintf("%d", e.Id()))

				imgui.TableSetColumnIndex(1)
				imgui.Text(e.Name())

				imgui.TableSetColumnIndex(2)
				imgui.Text(e.ComponentMask().String())
			}

			imgui.EndTable()
		}
		imgui.TreePop()
	}

	imgui.End()
}

// Toggle adds or removes typ from the selection.
func (qd *QueryDebugger) Toggle(typ ecs.ComponentTypeId, selected bool) {
	if selected {
		qd.selectedComponentTypes[typ] = true
	} else {
		delete(qd.selectedComponentTypes, typ)
	}
}

// SelectedMask returns the mask of the selected component types.
func (qd *QueryDebugger) SelectedMask() ecs.ComponentMask {
	var mask ecs.ComponentMask
	for typ := range qd.selectedComponentTypes {
		mask = mask.Set(typ)
	}
	return mask
}

// Query returns a query over scene for the selected mask, re-initialized when
// the selection or the scene changes.
func (qd *QueryDebugger) Query(scene *ecs.EntityScene) *ecs.Query {
	mask := qd.SelectedMask()
	if qd.query == nil {
		qd.query = ecs.NewQuery(scene, mask)
		qd.scene = scene
	} else if qd.query.Mask() != mask || qd.scene != scene {
		qd.query.Init(scene, mask)
		qd.scene = scene
	}
	return qd.query
}
