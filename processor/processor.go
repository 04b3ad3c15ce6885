package processor

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cshum/magick"
	"github.com/cshum/magick/engine/gomagick"
	"github.com/cshum/magick/magickpath"
	"github.com/cshum/magick/optimizer"
	"github.com/cshum/magick/web"
)

// ErrMaxOpsExceeded the path carries more ops than allowed
var ErrMaxOpsExceeded = web.NewError("maximum ops exceeded", http.StatusBadRequest)

// Processor applies operation paths with magick
type Processor struct {
	Magick        *magick.Magick
	Engine        magick.Engine
	Ops           OpMap
	Logger        *zap.Logger
	Debug         bool
	MaxWidth      int
	MaxHeight     int
	MaxResolution int
	MaxOps        int
	MaxFrames     int
	Optimize      bool
	DisableOps    []string
	Observer      magick.Observer

	optimizer  *optimizer.ImageOptimizer
	disableOps map[string]bool
	lock       sync.Mutex
	count      int
}

// NewProcessor create Processor
func NewProcessor(options ...Option) *Processor {
	p := &Processor{
		Ops:        defaultOps(),
		Logger:     zap.NewNop(),
		MaxOps:     10,
		disableOps: map[string]bool{},
	}
	for _, option := range options {
		option(p)
	}
	for _, name := range p.DisableOps {
		p.disableOps[name] = true
	}
	return p
}

// Startup implements web.Processor interface
func (p *Processor) Startup(_ context.Context) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.count++
	if p.count > 1 {
		return nil
	}
	if p.Magick == nil {
		if p.Engine == nil {
			p.Engine = gomagick.New(
				gomagick.WithLogger(p.Logger),
				gomagick.WithMaxFrames(p.MaxFrames),
			)
		}
		p.Magick = magick.New(p.Engine,
			magick.WithLogger(p.Logger),
			magick.WithDebug(p.Debug),
			magick.WithMaxWidth(p.MaxWidth),
			magick.WithMaxHeight(p.MaxHeight),
			magick.WithMaxArea(int64(p.MaxResolution)),
			magick.WithObserver(p.Observer),
			magick.WithWarningHandler(func(w *magick.Exception) {
				p.Logger.Warn("warning",
					zap.Int("severity", int(w.Severity)), zap.String("message", w.Error()))
			}),
		)
	}
	if p.Optimize {
		p.optimizer = optimizer.New(p.Magick,
			optimizer.WithLogger(p.Logger),
			optimizer.WithIgnoreUnsupportedFormats(true),
		)
	}
	if p.Debug {
		p.Logger.Debug("processor",
			zap.String("engine", p.Magick.Engine.Name()),
			zap.Int("max_width", p.MaxWidth),
			zap.Int("max_height", p.MaxHeight),
			zap.Int("max_resolution", p.MaxResolution),
			zap.Int("max_ops", p.MaxOps),
			zap.Strings("disable_ops", p.DisableOps),
			zap.Bool("optimize", p.Optimize),
		)
	}
	return nil
}

// Shutdown implements web.Processor interface
func (p *Processor) Shutdown(_ context.Context) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.count > 0 {
		p.count--
	}
	return nil
}

// Metadata image metadata of the meta endpoint
type Metadata struct {
	Format      string   `json:"format"`
	ContentType string   `json:"content_type"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Frames      int      `json:"frames"`
	HasAlpha    bool     `json:"has_alpha"`
	ColorSpace  string   `json:"color_space"`
	Quality     int      `json:"quality,omitempty"`
	Profiles    []string `json:"profiles,omitempty"`
}

// Process implements web.Processor interface
func (p *Processor) Process(
	ctx context.Context, blob *web.Blob, params magickpath.Params, load web.LoadFunc,
) (*web.Blob, error) {
	if blob == nil || blob.IsEmpty() {
		return nil, web.ErrPass
	}
	if params.Meta && len(params.Ops) == 0 && blob.BlobType() == web.BlobTypeJSON {
		return blob, nil
	}
	buf, err := blob.ReadAll()
	if err != nil {
		return nil, err
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	c, err := p.Magick.ReadCollection(buf)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	if err = p.apply(ctx, c, params, load); err != nil {
		return nil, err
	}
	first := c.At(0)
	if params.Meta {
		return web.NewBlobFromJSONMarshal(p.metadata(c)), nil
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	f := first.Settings().Format
	if f == magick.FormatUnknown {
		f = first.Format()
	}
	if f == magick.FormatUnknown {
		f = magick.FormatJPEG
	}
	var out []byte
	if info, ok := p.Magick.FormatInfo(f); c.Len() > 1 && ok && info.SupportsMultipleFrames {
		out, err = c.ToBytes(f)
	} else {
		out, err = first.ToBytes(f)
	}
	if err != nil {
		return nil, err
	}
	if p.optimizer != nil {
		if res, ok, e := p.optimizer.LosslessCompress(out); e != nil {
			p.Logger.Warn("optimize", zap.Error(e))
		} else if ok {
			out = res
		}
	}
	return web.NewBlobFromBytes(out), nil
}

func (p *Processor) apply(ctx context.Context, c *magick.Collection, params magickpath.Params, load web.LoadFunc) error {
	if p.MaxOps > 0 && len(params.Ops) > p.MaxOps {
		return ErrMaxOpsExceeded
	}
	for _, op := range params.Ops {
		name := strings.ToLower(op.Name)
		fn, ok := p.Ops[name]
		if !ok || p.disableOps[name] {
			p.Logger.Debug("op unsupported", zap.String("name", op.Name))
			return web.ErrInvalid
		}
		args := splitArgs(op.Args)
		if p.Debug {
			p.Logger.Debug("op", zap.String("name", name), zap.Strings("args", args))
		}
		if err := p.applyFrames(ctx, c, name, fn, load, args); err != nil {
			return err
		}
	}
	return nil
}

// applyFrames runs fn on every frame, images loaded by fn are shared across frames
func (p *Processor) applyFrames(
	ctx context.Context, c *magick.Collection, name string, fn OpFunc, load web.LoadFunc, args []string,
) error {
	scope := &opScope{}
	defer scope.close()
	ctx = context.WithValue(ctx, opScopeKey{}, scope)
	for i, img := range c.Images() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, img, load, args...); err != nil {
			p.Logger.Debug("op error", zap.String("name", name), zap.Int("frame", i), zap.Error(err))
			return err
		}
	}
	return nil
}

type opScopeKey struct{}

// opScope images decoded once per op
type opScope struct {
	images map[string]*magick.Image
}

func (s *opScope) close() {
	for _, img := range s.images {
		img.Close()
	}
	s.images = nil
}

// scopedImage returns the image of key decoded by fn, cached for the
// current op. release closes the image when no op scope is present.
func scopedImage(
	ctx context.Context, key string, fn func() (*magick.Image, error),
) (img *magick.Image, release func(), err error) {
	scope, _ := ctx.Value(opScopeKey{}).(*opScope)
	if scope == nil {
		if img, err = fn(); err != nil {
			return nil, nil, err
		}
		return img, img.Close, nil
	}
	if img = scope.images[key]; img != nil {
		return img, func() {}, nil
	}
	if img, err = fn(); err != nil {
		return nil, nil, err
	}
	if scope.images == nil {
		scope.images = map[string]*magick.Image{}
	}
	scope.images[key] = img
	return img, func() {}, nil
}

func (p *Processor) metadata(c *magick.Collection) *Metadata {
	img := c.At(0)
	f := img.Settings().Format
	if f == magick.FormatUnknown {
		f = img.Format()
	}
	m := &Metadata{
		Format:     strings.ToLower(string(f)),
		Width:      img.Width(),
		Height:     img.Height(),
		Frames:     c.Len(),
		HasAlpha:   img.HasAlpha(),
		ColorSpace: img.ColorSpace().String(),
		Quality:    img.Settings().Quality,
		Profiles:   img.ProfileNames(),
	}
	if info, ok := p.Magick.FormatInfo(f); ok {
		m.ContentType = info.MimeType
	}
	return m
}
