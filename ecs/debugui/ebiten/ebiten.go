// Package ebiten provides Dear ImGui backend integration for the Ebiten game engine.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/scenery/ecs"
)

// ImguiBackend wraps the Ebiten-specific Dear ImGui backend implementation.
// Use this to integrate Dear ImGui rendering into Ebiten game loops.
type ImguiBackend struct {
	*ebitenbackend.EbitenBackend
}

// Game implements ebiten.Game for a SystemModule. Every Ebiten update opens an
// ImGui frame, ticks the active scenes once and closes the frame, so ImguiItem
// render callbacks deferred by debugui.ImguiSystem draw inside it.
type Game struct {
	Module  *ecs.SystemModule
	Backend ImguiBackend
	// DrawScene draws game content below the ImGui overlay.
	DrawScene func(screen *ebiten.Image)
}

// NewGame creates a Game driving module with a fresh backend window.
func NewGame(module *ecs.SystemModule, title string, width, height int) *Game {
	backend := ebitenbackend.NewEbitenBackend()
	backend.CreateWindow(title, width, height)
	return &Game{
		Module:  module,
		Backend: ImguiBackend{EbitenBackend: backend},
	}
}

func (g *Game) Update() error {
	// Ebiten owns the tick, so the module runs one update per Ebiten frame
	g.Backend.BeginFrame()
	g.Module.Update(1.0 / float64(ebiten.TPS()))
	g.Backend.EndFrame()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.DrawScene != nil {
		g.DrawScene(screen)
	}
	g.Backend.Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.Backend.Layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}
