package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"blocknotes/internal/editor"
)

// imagePicker opens the native file dialog for image blocks.
type imagePicker struct {
	ctx context.Context
}

func (p *imagePicker) PickImage(_ context.Context) (*editor.PickedFile, error) {
	path, err := wailsRuntime.OpenFileDialog(p.ctx, wailsRuntime.OpenDialogOptions{
		Title: "Select Image",
		Filters: []wailsRuntime.FileFilter{
			{DisplayName: "Images", Pattern: "*.png;*.jpg;*.jpeg;*.gif;*.webp;*.svg"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open dialog: %w", err)
	}
	if path == "" {
		return nil, nil
	}
	return openPicked(path)
}

func openPicked(path string) (*editor.PickedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return &editor.PickedFile{Name: filepath.Base(path), Data: f}, nil
}
