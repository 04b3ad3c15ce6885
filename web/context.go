package web

import (
	"context"
	"sync"
)

type deferKey struct{}

type deferRef struct {
	funcs []func()
	l     sync.Mutex
}

func (r *deferRef) add(fn func()) {
	r.l.Lock()
	r.funcs = append(r.funcs, fn)
	r.l.Unlock()
}

func (r *deferRef) call() {
	r.l.Lock()
	for _, fn := range r.funcs {
		fn()
	}
	r.funcs = nil
	r.l.Unlock()
}

// withDefer context running deferred funcs once it is done
func withDefer(ctx context.Context) context.Context {
	r := &deferRef{}
	ctx = context.WithValue(ctx, deferKey{}, r)
	go func() {
		<-ctx.Done()
		r.call()
	}()
	return ctx
}

// contextDefer adds fn to be called at the end of request,
// fn is called immediately outside of a defer context
func contextDefer(ctx context.Context, fn func()) {
	if r, ok := ctx.Value(deferKey{}).(*deferRef); ok {
		r.add(fn)
		return
	}
	fn()
}
