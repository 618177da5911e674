package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Sentinel-Gate/awaymail/internal/domain/gate"
	"github.com/Sentinel-Gate/awaymail/pkg/xmpp"
)

// ErrInterceptorExists is returned by Register when the name is taken.
var ErrInterceptorExists = errors.New("interceptor already registered")

type registration struct {
	name        string
	interceptor gate.MessageInterceptor
}

// DispatchService hands every in-flight message to the registered
// interceptors, in registration order.
type DispatchService struct {
	mu           sync.RWMutex
	interceptors []registration
	logger       *slog.Logger
}

// NewDispatchService creates a dispatcher with no interceptors.
func NewDispatchService(logger *slog.Logger) *DispatchService {
	return &DispatchService{logger: logger}
}

// Register adds an interceptor under name.
func (s *DispatchService) Register(name string, interceptor gate.MessageInterceptor) error {
	if name == "" {
		return errors.New("interceptor name is required")
	}
	if interceptor == nil {
		return fmt.Errorf("interceptor %q is nil", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.interceptors {
		if r.name == name {
			return fmt.Errorf("%w: %s", ErrInterceptorExists, name)
		}
	}
	s.interceptors = append(s.interceptors, registration{name: name, interceptor: interceptor})
	s.logger.Info("interceptor registered", "name", name)
	return nil
}

// Deregister removes the interceptor registered under name.
// Returns false if there was none.
func (s *DispatchService) Deregister(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.interceptors {
		if r.name == name {
			s.interceptors = append(s.interceptors[:i:i], s.interceptors[i+1:]...)
			s.logger.Info("interceptor deregistered", "name", name)
			return true
		}
	}
	return false
}

// Names returns the registered interceptor names in dispatch order.
func (s *DispatchService) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.interceptors))
	for i, r := range s.interceptors {
		names[i] = r.name
	}
	return names
}

// Dispatch runs msg through every interceptor. The first error rejects the
// message and stops dispatch. Interceptors run without the registry lock
// held, so one may deregister itself.
func (s *DispatchService) Dispatch(ctx context.Context, msg *xmpp.Message, processed, read bool) error {
	s.mu.RLock()
	regs := make([]registration, len(s.interceptors))
	copy(regs, s.interceptors)
	s.mu.RUnlock()

	for _, r := range regs {
		if err := r.interceptor.Intercept(ctx, msg, processed, read); err != nil {
			s.logger.Debug("message rejected by interceptor",
				"interceptor", r.name,
				"id", msg.ID,
				"error", err,
			)
			return fmt.Errorf("interceptor %s: %w", r.name, err)
		}
	}
	return nil
}
