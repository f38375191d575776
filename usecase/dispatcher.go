package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrUnknownCommand = errors.New("command handler not registered")

type Handler[Req, Res any] func(ctx context.Context, req Req) (Res, error)

// Dispatcher routes named commands to typed handlers. Registering a name
// twice replaces the earlier handler.
type Dispatcher[Req, Res any] struct {
	mu       sync.RWMutex
	handlers map[string]Handler[Req, Res]
}

func NewDispatcher[Req, Res any]() *Dispatcher[Req, Res] {
	return &Dispatcher[Req, Res]{handlers: make(map[string]Handler[Req, Res])}
}

func (d *Dispatcher[Req, Res]) Register(name string, handler Handler[Req, Res]) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = handler
}

func (d *Dispatcher[Req, Res]) Has(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[name]
	return ok
}

// Names lists registered commands in sorted order.
func (d *Dispatcher[Req, Res]) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d *Dispatcher[Req, Res]) Execute(ctx context.Context, name string, req Req) (Res, error) {
	d.mu.RLock()
	handler, ok := d.handlers[name]
	d.mu.RUnlock()
	if !ok {
		var zero Res
		return zero, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return handler(ctx, req)
}
