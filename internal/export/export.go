// Package export shares or saves the rendered Super Chat image.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/blacktop/superchat/internal/superchat"
	"github.com/charmbracelet/log"
)

const (
	CanonicalURL = "https://superchat.uzimaru.com"
	FileName     = "superChat.png"
	MIMEType     = "image/png"
)

// ErrBusy is returned when an export is already running.
var ErrBusy = errors.New("export already in progress")

type Strategy string

const (
	// StrategyPost renders with the multipart POST, icon included.
	StrategyPost Strategy = "post"
	// StrategyGet downloads the share URL directly.
	StrategyGet Strategy = "get"
)

type File struct {
	Name string
	Type string
	Data []byte
}

type ShareData struct {
	URL   string
	Files []File
}

// Sharer hands an image to the platform's share facility.
type Sharer interface {
	Share(ctx context.Context, data ShareData) error
}

// Renderer produces images for the export.
type Renderer interface {
	Render(ctx context.Context, p superchat.Params) (*superchat.Image, error)
	Fetch(ctx context.Context, p superchat.Params) (*superchat.Image, error)
}

type Config struct {
	Renderer     Renderer
	Sharer       Sharer // nil when sharing isn't available
	OutputFolder string
	Strategy     Strategy
	Logger       *log.Logger
}

// Result describes what the export did.
type Result struct {
	Shared bool
	Path   string
}

type Exporter struct {
	cfg  Config
	busy atomic.Bool
}

func New(cfg Config) *Exporter {
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyPost
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Exporter{cfg: cfg}
}

// CanShare is fixed at construction.
func (e *Exporter) CanShare() bool { return e.cfg.Sharer != nil }

// Run exports p once. Share failures (including the user backing out) are
// logged and reported as a result with Shared unset rather than an error.
func (e *Exporter) Run(ctx context.Context, p superchat.Params) (Result, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return Result{}, ErrBusy
	}
	defer e.busy.Store(false)

	if e.CanShare() {
		img, err := e.cfg.Renderer.Render(ctx, p)
		if err != nil {
			return Result{}, fmt.Errorf("error rendering image: %w", err)
		}
		err = e.cfg.Sharer.Share(ctx, ShareData{
			URL:   CanonicalURL,
			Files: []File{{Name: FileName, Type: MIMEType, Data: img.Data}},
		})
		if err != nil {
			e.cfg.Logger.Warn("Share failed", "err", err)
			return Result{}, nil
		}
		return Result{Shared: true, Path: filepath.Join(e.cfg.OutputFolder, FileName)}, nil
	}

	var (
		img *superchat.Image
		err error
	)
	switch e.cfg.Strategy {
	case StrategyGet:
		img, err = e.cfg.Renderer.Fetch(ctx, p)
	default:
		img, err = e.cfg.Renderer.Render(ctx, p)
	}
	if err != nil {
		return Result{}, fmt.Errorf("error rendering image: %w", err)
	}
	path, err := saveImage(e.cfg.OutputFolder, FileName, img.Data)
	if err != nil {
		return Result{}, err
	}
	e.cfg.Logger.Info("Image saved", "path", path)
	return Result{Path: path}, nil
}

func saveImage(folder, name string, data []byte) (string, error) {
	filename := name
	if folder != "" {
		if err := os.MkdirAll(folder, 0755); err != nil {
			return "", fmt.Errorf("error creating output folder: %w", err)
		}
		filename = filepath.Join(folder, name)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("error saving image: %w", err)
	}
	return filename, nil
}
