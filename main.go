package main

import (
	"embed"
	"flag"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"

	notesApp "blocknotes/internal/app"
	"blocknotes/internal/service"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	mcpMode := flag.Bool("mcp", false, "run as a stdio MCP server instead of the desktop app")
	flag.Parse()
	if *mcpMode {
		notesApp.ServeMCP()
		return
	}

	app := notesApp.New()

	// macOS needs an Edit menu for Cmd+C/V/X/A to reach the WebView
	appMenu := menu.NewMenu()
	appMenu.Append(menu.EditMenu())

	err := wails.Run(&options.App{
		Title:     "Blocknotes",
		Width:     service.DefaultWindowSize.Width,
		Height:    service.DefaultWindowSize.Height,
		MinWidth:  service.MinWindowSize.Width,
		MinHeight: service.MinWindowSize.Height,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 255, G: 255, B: 255, A: 1},
		Menu:             appMenu,
		OnStartup:        app.Startup,
		OnShutdown:       app.Shutdown,
		Bind: []interface{}{
			app,
		},
		Mac: &mac.Options{
			TitleBar: &mac.TitleBar{
				TitlebarAppearsTransparent: true,
				HideTitle:                  true,
				FullSizeContent:            true,
			},
			About: &mac.AboutInfo{
				Title:   "Blocknotes",
				Message: "Block-based notes",
			},
		},
	})

	if err != nil {
		println("Error:", err.Error())
	}
}
