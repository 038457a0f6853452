// Package core wires the engine together: the service lifecycle registry
// and the composition root selecting provider, store and pipelines.
package core

import (
	"context"
)

// Interface is the lifecycle contract every long-running service obeys.
type Interface interface {
	Start(ctx context.Context) error
	Stop()
}

// Registry starts and stops services in registration order.
type Registry struct {
	services []Interface
}

func NewRegistry() *Registry {
	return &Registry{
		services: make([]Interface, 0),
	}
}

// Register appends a service. Order matters: dependencies first.
func (r *Registry) Register(service Interface) {
	r.services = append(r.services, service)
}

// StartAll starts every registered service, failing fast on the first
// error.
func (r *Registry) StartAll(ctx context.Context) error {
	for _, service := range r.services {
		if err := service.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// StopAll stops all services in reverse registration order.
func (r *Registry) StopAll() {
	for i := len(r.services) - 1; i >= 0; i-- {
		r.services[i].Stop()
	}
}
