package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/OCAP2/mapshim/internal/bitmap"
	"github.com/OCAP2/mapshim/internal/collection"
	"github.com/OCAP2/mapshim/internal/config"
	"github.com/OCAP2/mapshim/internal/dispatcher"
	"github.com/OCAP2/mapshim/internal/logging"
	"github.com/OCAP2/mapshim/internal/looper"
	"github.com/OCAP2/mapshim/internal/markup"
	"github.com/OCAP2/mapshim/internal/remote"
	"github.com/OCAP2/mapshim/internal/render"
)

const pollInterval = 20 * time.Millisecond

// dumpMap counts redraw requests. It is only touched on the owner goroutine.
type dumpMap struct {
	redraws int
}

func (m *dumpMap) UpdateMap(redraw bool) {
	if redraw {
		m.redraws++
	}
}

type dumpIcon struct {
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	HotspotX  float32 `json:"hotspotX"`
	HotspotY  float32 `json:"hotspotY"`
	Billboard bool    `json:"billboard"`
}

type dumpItem struct {
	UID         string    `json:"uid"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Icon        *dumpIcon `json:"icon,omitempty"`
}

type dump struct {
	Markers int        `json:"markers"`
	Redraws int        `json:"redraws"`
	Pending int        `json:"pendingIcons"`
	Items   []dumpItem `json:"items"`
}

func run(ctx context.Context, opts options, file string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	input, err := readMarkerFile(file)
	if err != nil {
		return err
	}

	config.SetDefaults()
	if opts.configDir != "" {
		if err := config.Load(opts.configDir); err != nil {
			return err
		}
	}

	level := config.GetString("logLevel")
	format := config.GetString("logFormat")
	if opts.jsonLogs {
		format = "json"
	}

	var logOut io.Writer
	if opts.logFile {
		f, err := openLogFile(config.GetString("logsDir"))
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}

	lm := logging.NewSlogManager()
	lm.Setup(stderr, logOut, level, config.GetString("fileLogLevel"), format)
	logger := lm.Logger()

	var ownerLog looper.Logger = logger
	var remoteLog dispatcher.Logger = logger
	if strings.EqualFold(format, "json") {
		ownerLog = logging.NewJSONLogger(stderr, level, "looper")
		remoteLog = logging.NewJSONLogger(stderr, level, "remote")
	}

	l, err := looper.New(ownerLog, config.GetLooperConfig().QueueSize)
	if err != nil {
		return fmt.Errorf("creating looper: %w", err)
	}
	loopCtx, stop := context.WithCancel(context.Background())
	defer stop()
	go l.Run(loopCtx)
	defer l.Quit()

	iconsCfg, err := config.GetIconsConfig()
	if err != nil {
		return err
	}
	if opts.assetsDir != "" {
		iconsCfg.AssetsDir = opts.assetsDir
	}
	loader := bitmap.NewLoader(iconsCfg, nil, l, logger)
	defer loader.Close()

	m := &dumpMap{}
	var c *collection.Collection
	var markers []*markup.Marker
	var cerr error
	err = l.Sync(ctx, func() {
		c, cerr = collection.New(loader, m, logger)
		if cerr != nil {
			return
		}
		for _, entry := range input.Markers {
			markers = append(markers, c.AddMarker(entry.options()))
		}
	})
	if err != nil {
		return fmt.Errorf("loading markers: %w", err)
	}
	if cerr != nil {
		return fmt.Errorf("creating collection: %w", cerr)
	}

	for i, entry := range input.Markers {
		if len(entry.Edits) == 0 {
			continue
		}
		stub, err := remote.NewStub(markers[i], l, remoteLog)
		if err != nil {
			return err
		}
		p := remote.NewProxy(stub)
		for _, e := range entry.Edits {
			if err := applyEdit(ctx, p, e); err != nil {
				return fmt.Errorf("marker %d: %w", i, err)
			}
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	pending, err := waitSettled(waitCtx, l, c)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		logger.Warn("Icons still loading after timeout", "pending", pending, "timeout", opts.timeout)
	}

	var out dump
	err = l.Sync(ctx, func() {
		// visibility edits do not notify
		c.Invalidate()
		c.Flush()
		out = snapshot(c, m)
	})
	if err != nil {
		return fmt.Errorf("reading layer: %w", err)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func openLogFile(logsDir string) (*os.File, error) {
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("creating logs dir: %w", err)
	}
	name := logging.LogFilePath(logsDir, "markerdump", time.Now())
	f, err := os.OpenFile(filepath.Clean(name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// waitSettled polls the owner until no icon is decoding. Each poll flushes
// first so queued markers have started their decodes. It returns the number
// still pending when ctx ends first.
func waitSettled(ctx context.Context, l *looper.Looper, c *collection.Collection) (int, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		var pending int
		if err := l.Sync(ctx, func() {
			c.Flush()
			pending = c.Loading()
		}); err != nil {
			return pending, err
		}
		if pending == 0 {
			return 0, nil
		}
		select {
		case <-ctx.Done():
			return pending, ctx.Err()
		case <-ticker.C:
		}
	}
}

func applyEdit(ctx context.Context, p *remote.Proxy, e markerEdit) error {
	if e.Title != nil {
		if err := p.SetTitle(ctx, *e.Title); err != nil {
			return err
		}
	}
	if e.Snippet != nil {
		if err := p.SetSnippet(ctx, *e.Snippet); err != nil {
			return err
		}
	}
	if e.Position != nil {
		if err := p.SetPosition(ctx, *e.Position); err != nil {
			return err
		}
	}
	if e.Icon != nil {
		icon, err := e.Icon.descriptor()
		if err != nil {
			return err
		}
		if err := p.SetIcon(ctx, &icon); err != nil {
			return err
		}
	}
	if e.Visible != nil {
		if err := p.SetVisible(ctx, *e.Visible); err != nil {
			return err
		}
	}
	if e.Rotation != nil {
		if err := p.SetRotation(ctx, *e.Rotation); err != nil {
			return err
		}
	}
	if e.Alpha != nil {
		if err := p.SetAlpha(ctx, *e.Alpha); err != nil {
			return err
		}
	}
	if e.Remove {
		return p.Remove(ctx)
	}
	return nil
}

// snapshot must run on the owner goroutine.
func snapshot(c *collection.Collection, m *dumpMap) dump {
	out := dump{
		Markers: c.Len(),
		Redraws: m.redraws,
		Pending: c.Loading(),
		Items:   []dumpItem{},
	}
	for _, item := range c.Layer().Items() {
		out.Items = append(out.Items, toDumpItem(item))
	}
	return out
}

func toDumpItem(item *render.MarkerItem) dumpItem {
	pos := item.GeoPoint.LatLng()
	d := dumpItem{
		UID:         item.UID,
		Title:       item.Title,
		Description: item.Description,
		Lat:         pos.Latitude,
		Lng:         pos.Longitude,
	}
	if xy, ok := item.GeoPoint.Project().XY(); ok {
		d.X, d.Y = xy.X, xy.Y
	}
	if sym := item.Marker; sym != nil && sym.Bitmap != nil {
		b := sym.Bitmap.Bounds()
		d.Icon = &dumpIcon{
			Width:     b.Dx(),
			Height:    b.Dy(),
			HotspotX:  sym.Hotspot.X,
			HotspotY:  sym.Hotspot.Y,
			Billboard: sym.Billboard,
		}
	}
	return d
}

