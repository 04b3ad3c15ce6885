package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/cshum/magick/magickpath"
)

// Version magick web version
const Version = "0.1.0"

// Loader load image from source
type Loader interface {
	Get(r *http.Request, key string) (*Blob, error)
}

// Storage load and save image
type Storage interface {
	Get(r *http.Request, key string) (*Blob, error)
	Put(ctx context.Context, key string, blob *Blob) error
	Delete(ctx context.Context, key string) error
	Stat(ctx context.Context, key string) (*Stat, error)
}

// LoadFunc load function for Processor
type LoadFunc func(image string) (*Blob, error)

// Processor process image blob by the path operations
type Processor interface {
	Startup(ctx context.Context) error
	Process(ctx context.Context, blob *Blob, p magickpath.Params, load LoadFunc) (*Blob, error)
	Shutdown(ctx context.Context) error
}

// Web image script HTTP handler
type Web struct {
	Unsafe                bool
	Signer                magickpath.Signer
	StorageHasher         magickpath.StorageHasher
	ResultStorageHasher   magickpath.ResultStorageHasher
	BasePathRedirect      string
	Loaders               []Loader
	Storages              []Storage
	ResultStorages        []Storage
	Processors            []Processor
	RequestTimeout        time.Duration
	LoadTimeout           time.Duration
	SaveTimeout           time.Duration
	ProcessTimeout        time.Duration
	CacheHeaderTTL        time.Duration
	CacheHeaderSWR        time.Duration
	ProcessConcurrency    int64
	ModifiedTimeCheck     bool
	DisableErrorBody      bool
	DisableParamsEndpoint bool
	Logger                *zap.Logger
	Debug                 bool

	g             singleflight.Group
	sema          *semaphore.Weighted
	resultLoaders []Loader
}

// New create new Web
func New(options ...Option) *Web {
	app := &Web{
		Logger:         zap.NewNop(),
		RequestTimeout: time.Second * 30,
		LoadTimeout:    time.Second * 20,
		SaveTimeout:    time.Second * 20,
		ProcessTimeout: time.Second * 20,
		CacheHeaderTTL: time.Hour * 24 * 7,
		CacheHeaderSWR: time.Hour * 24,
	}
	for _, option := range options {
		option(app)
	}
	if app.ProcessConcurrency > 0 {
		app.sema = semaphore.NewWeighted(app.ProcessConcurrency)
	}
	if app.Signer == nil {
		app.Signer = magickpath.NewDefaultSigner("")
	}
	app.resultLoaders = loaderSlice(app.ResultStorages)
	app.Loaders = append(loaderSlice(app.Storages), app.Loaders...)
	if app.Debug {
		app.debugLog()
	}
	return app
}

// Startup Web startup lifecycle
func (app *Web) Startup(ctx context.Context) (err error) {
	for _, processor := range app.Processors {
		if err = processor.Startup(ctx); err != nil {
			return
		}
	}
	return
}

// Shutdown Web shutdown lifecycle
func (app *Web) Shutdown(ctx context.Context) (err error) {
	for _, processor := range app.Processors {
		if err = processor.Shutdown(ctx); err != nil {
			return
		}
	}
	return
}

// ServeHTTP implements http.Handler for magick operations
func (app *Web) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		resJSON(w, http.StatusMethodNotAllowed, ErrMethodNotAllowed)
		return
	}
	path := r.URL.EscapedPath()
	if path == "/" || path == "" {
		if app.BasePathRedirect == "" {
			resJSON(w, http.StatusOK, json.RawMessage(fmt.Sprintf(
				`{"magick":{"version":"%s"}}`, Version,
			)))
		} else {
			http.Redirect(w, r, app.BasePathRedirect, http.StatusTemporaryRedirect)
		}
		return
	}
	p := magickpath.Parse(path)
	if p.Params {
		if !app.DisableParamsEndpoint {
			resJSONIndent(w, p)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
		return
	}
	blob, err := app.Do(r, p)
	if err == nil && blob != nil {
		err = blob.Err()
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		e := WrapError(err)
		if app.DisableErrorBody {
			w.WriteHeader(e.Code)
			return
		}
		resJSON(w, e.Code, e)
		return
	}
	if isEmpty(blob) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", blob.ContentType())
	if blob.Stat != nil && !blob.Stat.ModifiedTime.IsZero() {
		modTime := blob.Stat.ModifiedTime.UTC().Truncate(time.Second)
		w.Header().Set("Last-Modified", modTime.Format(http.TimeFormat))
		if since, e := http.ParseTime(r.Header.Get("If-Modified-Since")); e == nil && !modTime.After(since) {
			setCacheHeaders(w, app.CacheHeaderTTL, app.CacheHeaderSWR)
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	reader, size, err := blob.NewReader()
	if err != nil {
		w.WriteHeader(WrapError(err).Code)
		return
	}
	setCacheHeaders(w, app.CacheHeaderTTL, app.CacheHeaderSWR)
	app.writeBody(w, r, http.StatusOK, reader, size)
}

func (app *Web) writeBody(w http.ResponseWriter, r *http.Request, status int, reader io.ReadCloser, size int64) {
	defer func() {
		_ = reader.Close()
	}()
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_, _ = io.Copy(w, reader)
	}
}

// storageKey key of the source image in storages
func (app *Web) storageKey(image string) string {
	if app.StorageHasher != nil {
		return app.StorageHasher.Hash(image)
	}
	return image
}

// ResultKey key of the processed result in result storages
func (app *Web) ResultKey(p magickpath.Params) string {
	if app.ResultStorageHasher != nil {
		return app.ResultStorageHasher.HashResult(p)
	}
	if p.Path == "" {
		return magickpath.GeneratePath(p)
	}
	return p.Path
}

// Do executes magick operations
func (app *Web) Do(r *http.Request, p magickpath.Params) (blob *Blob, err error) {
	var ctx = withDefer(r.Context())
	var cancel func()
	if app.RequestTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, app.RequestTimeout)
		contextDefer(ctx, cancel)
	}
	r = r.WithContext(ctx)
	if !(app.Unsafe && p.Unsafe) && app.Signer != nil && app.Signer.Sign(p.Path) != p.Hash {
		err = ErrSignatureMismatch
		if app.Debug {
			app.Logger.Debug("sign-mismatch", zap.Any("params", p), zap.String("expected", app.Signer.Sign(p.Path)))
		}
		return
	}
	if p.Image == "" {
		return nil, ErrInvalid
	}
	resultKey := app.ResultKey(p)
	load := func(image string) (*Blob, error) {
		return app.loadStorage(r, image)
	}
	return app.suppress(ctx, "res:"+resultKey, func(ctx context.Context) (*Blob, error) {
		if blob := app.loadResult(r.WithContext(ctx), resultKey, p.Image); blob != nil {
			return blob, nil
		}
		if app.sema != nil {
			if err := app.sema.Acquire(ctx, 1); err != nil {
				app.Logger.Debug("acquire", zap.Error(err))
				return nil, err
			}
			defer app.sema.Release(1)
		}
		blob, err := app.loadStorage(r.WithContext(ctx), p.Image)
		if err != nil {
			app.Logger.Debug("load", zap.Any("params", p), zap.Error(err))
			return blob, err
		}
		if isEmpty(blob) {
			return blob, ErrNotFound
		}
		var cancel func()
		if app.ProcessTimeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, app.ProcessTimeout)
			contextDefer(ctx, cancel)
		}
		for _, processor := range app.Processors {
			b, e := processor.Process(ctx, blob, p, load)
			if b != nil && e == nil {
				e = b.Err()
			}
			if e == nil {
				blob = b
				err = nil
				if app.Debug {
					app.Logger.Debug("processed", zap.Any("params", p))
				}
				break
			}
			if errors.Is(e, ErrPass) {
				if !isEmpty(b) {
					// pass to next processor
					blob = b
				}
				if app.Debug {
					app.Logger.Debug("process", zap.Any("params", p), zap.Error(e))
				}
				continue
			}
			err = e
			app.Logger.Warn("process", zap.Any("params", p), zap.Error(err))
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
		}
		if err == nil && len(app.ResultStorages) > 0 {
			app.save(ctx, nil, app.ResultStorages, resultKey, blob)
		}
		return blob, err
	})
}

func (app *Web) loadStorage(r *http.Request, image string) (*Blob, error) {
	key := app.storageKey(image)
	return app.suppress(r.Context(), "img:"+key, func(ctx context.Context) (blob *Blob, err error) {
		var origin Storage
		r = r.WithContext(ctx)
		blob, origin, err = app.load(r, app.Loaders, image, key)
		if err != nil || isEmpty(blob) {
			return
		}
		if err = blob.Err(); err != nil {
			return
		}
		if len(app.Storages) > 0 {
			app.save(ctx, origin, app.Storages, key, blob)
		}
		return
	})
}

// loadResult cached result, nil if missing or older than the source
// when ModifiedTimeCheck is set
func (app *Web) loadResult(r *http.Request, resultKey, image string) *Blob {
	ctx := r.Context()
	blob, origin, err := app.load(r, app.resultLoaders, resultKey, resultKey)
	if err != nil || isEmpty(blob) {
		return nil
	}
	if !app.ModifiedTimeCheck || origin == nil {
		return blob
	}
	resStat, err := origin.Stat(ctx, resultKey)
	if err != nil || resStat == nil {
		return nil
	}
	sourceStat, err := app.storageStat(ctx, app.storageKey(image))
	if err != nil || sourceStat == nil {
		return nil
	}
	if resStat.ModifiedTime.Before(sourceStat.ModifiedTime) {
		return nil
	}
	return blob
}

// load from loaders in order, storages get the hashed key
func (app *Web) load(
	r *http.Request, loaders []Loader, image, key string,
) (blob *Blob, origin Storage, err error) {
	if len(loaders) == 0 {
		return
	}
	var ctx = r.Context()
	var cancel func()
	if app.LoadTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, app.LoadTimeout)
		contextDefer(ctx, cancel)
		r = r.WithContext(ctx)
	}
	for _, loader := range loaders {
		storage, _ := loader.(Storage)
		k := image
		if storage != nil {
			k = key
		}
		b, e := loader.Get(r, k)
		if b != nil && e == nil {
			e = b.Err()
		}
		if e == nil && !isEmpty(b) {
			blob = b
			err = nil
			origin = storage
			break
		}
		if e == nil {
			e = ErrPass
		}
		err = e
	}
	if errors.Is(err, ErrPass) {
		// pass till the end means not found
		err = ErrNotFound
	}
	if app.Debug {
		if err == nil {
			app.Logger.Debug("loaded", zap.String("key", key))
		} else {
			app.Logger.Debug("load", zap.String("key", key), zap.Error(err))
		}
	}
	return
}

func (app *Web) storageStat(ctx context.Context, key string) (stat *Stat, err error) {
	for _, storage := range app.Storages {
		if stat, err = storage.Stat(ctx, key); stat != nil && err == nil {
			return
		}
	}
	return
}

func (app *Web) save(
	ctx context.Context, origin Storage, storages []Storage, key string, blob *Blob,
) {
	if app.SaveTimeout > 0 {
		var cancel func()
		ctx, cancel = context.WithTimeout(ctx, app.SaveTimeout)
		defer cancel()
	}
	var wg sync.WaitGroup
	for _, storage := range storages {
		if storage == origin {
			// loaded from the same store, no need save again
			if app.Debug {
				app.Logger.Debug("skip-save", zap.String("key", key))
			}
			continue
		}
		wg.Add(1)
		go func(storage Storage) {
			defer wg.Done()
			if err := storage.Put(ctx, key, blob); err != nil {
				app.Logger.Warn("save", zap.String("key", key), zap.Error(err))
			} else if app.Debug {
				app.Logger.Debug("saved", zap.String("key", key))
			}
		}(storage)
	}
	wg.Wait()
}

type suppressKey struct {
	Key string
}

func (app *Web) suppress(
	ctx context.Context,
	key string, fn func(ctx context.Context) (*Blob, error),
) (blob *Blob, err error) {
	if app.Debug {
		app.Logger.Debug("suppress", zap.String("key", key))
	}
	if isAcquired, ok := ctx.Value(suppressKey{key}).(bool); ok && isAcquired {
		// resolve deadlock
		return fn(ctx)
	}
	isCanceled := false
	ch := app.g.DoChan(key, func() (v any, err error) {
		v, err = fn(context.WithValue(ctx, suppressKey{key}, true))
		if errors.Is(err, context.Canceled) {
			app.g.Forget(key)
			isCanceled = true
		}
		return v, err
	})
	select {
	case res := <-ch:
		if !isCanceled && errors.Is(res.Err, context.Canceled) {
			// resolve canceled
			return app.suppress(ctx, key, fn)
		}
		if res.Val != nil {
			return res.Val.(*Blob), res.Err
		}
		return nil, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (app *Web) debugLog() {
	var loaders, storages, resultStorages, processors []string
	for _, v := range app.Loaders {
		loaders = append(loaders, getType(v))
	}
	for _, v := range app.Storages {
		storages = append(storages, getType(v))
	}
	for _, v := range app.Processors {
		processors = append(processors, getType(v))
	}
	for _, v := range app.ResultStorages {
		resultStorages = append(resultStorages, getType(v))
	}
	app.Logger.Debug("magick",
		zap.String("version", Version),
		zap.Bool("unsafe", app.Unsafe),
		zap.Duration("request_timeout", app.RequestTimeout),
		zap.Duration("load_timeout", app.LoadTimeout),
		zap.Duration("process_timeout", app.ProcessTimeout),
		zap.Duration("save_timeout", app.SaveTimeout),
		zap.Int64("process_concurrency", app.ProcessConcurrency),
		zap.Duration("cache_header_ttl", app.CacheHeaderTTL),
		zap.Bool("modified_time_check", app.ModifiedTimeCheck),
		zap.Strings("loaders", loaders),
		zap.Strings("storages", storages),
		zap.Strings("result_storages", resultStorages),
		zap.Strings("processors", processors),
	)
}

func setCacheHeaders(w http.ResponseWriter, ttl, swr time.Duration) {
	expires := time.Now().Add(ttl)

	w.Header().Set("Expires", strings.Replace(expires.UTC().Format(time.RFC1123), "UTC", "GMT", -1))
	w.Header().Set("Cache-Control", getCacheControl(ttl, swr))
}

func getCacheControl(ttl, swr time.Duration) string {
	if ttl == 0 {
		return "private, no-cache, no-store, must-revalidate"
	}
	var ttlSec = int64(ttl.Seconds())
	var val = fmt.Sprintf("public, s-maxage=%d, max-age=%d, no-transform", ttlSec, ttlSec)
	if swr > 0 && swr < ttl {
		val += fmt.Sprintf(", stale-while-revalidate=%d", int64(swr.Seconds()))
	}
	return val
}

func resJSON(w http.ResponseWriter, status int, v any) {
	buf, _ := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(buf)))
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

func resJSONIndent(w http.ResponseWriter, v any) {
	buf, _ := json.MarshalIndent(v, "", "  ")
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(buf)))
	_, _ = w.Write(buf)
}

func getType(v any) string {
	if t := reflect.TypeOf(v); t.Kind() == reflect.Ptr {
		return t.Elem().Name()
	} else {
		return t.Name()
	}
}

func loaderSlice(storages []Storage) (loaders []Loader) {
	for _, storage := range storages {
		loaders = append(loaders, storage)
	}
	return
}
