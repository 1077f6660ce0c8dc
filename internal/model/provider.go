package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"resume_filter/internal/logging"
)

var (
	ErrUnsupportedModel = errors.New("unsupported model")
	ErrModelLoad        = errors.New("model load failed")
	ErrClosed           = errors.New("model provider closed")
)

type Device string

const (
	DeviceCUDA Device = "cuda"
	DeviceCPU  Device = "cpu"
)

// Backend turns text into a causal-LM loss (natural-log perplexity).
type Backend interface {
	Score(ctx context.Context, text string, maxLength int) (float64, error)
}

// ConcurrencyReporter is implemented by backends that can say whether they
// tolerate concurrent Score calls. Backends that don't implement it are
// serialized per handle.
type ConcurrencyReporter interface {
	ConcurrentSafe() bool
}

// Loader constructs a ready backend for an artifact on a device.
type Loader interface {
	Load(ctx context.Context, artifact string, device Device) (Backend, error)
}

type LoaderFunc func(ctx context.Context, artifact string, device Device) (Backend, error)

func (f LoaderFunc) Load(ctx context.Context, artifact string, device Device) (Backend, error) {
	return f(ctx, artifact, device)
}

var supportedModels = map[string]string{
	"kogpt2": "skt/kogpt2-base-v2",
	"gpt2":   "openai-community/gpt2",
}

// Supported returns the allow-listed model identifiers.
func Supported() []string {
	out := make([]string, 0, len(supportedModels))
	for id := range supportedModels {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// IsSupported reports whether id is on the allow-list.
func IsSupported(id string) bool {
	_, ok := supportedModels[id]
	return ok
}

type Handle struct {
	ID       string
	Artifact string
	Device   Device

	backend Backend
	serial  bool
	mu      sync.Mutex
}

func (h *Handle) Score(ctx context.Context, text string, maxLength int) (float64, error) {
	if h.serial {
		h.mu.Lock()
		defer h.mu.Unlock()
	}
	return h.backend.Score(ctx, text, maxLength)
}

type Provider struct {
	loader Loader
	probe  func() bool
	forced Device
	logger logging.Logger
	onLoad func(modelID string, err error)

	mu      sync.RWMutex
	handles map[string]*Handle
	closed  bool
	group   singleflight.Group
}

type Option func(*Provider)

// WithDeviceProbe replaces the accelerator probe.
func WithDeviceProbe(probe func() bool) Option {
	return func(p *Provider) { p.probe = probe }
}

// WithDevice pins the device; "" or "auto" keeps probing.
func WithDevice(d string) Option {
	return func(p *Provider) {
		switch Device(strings.ToLower(strings.TrimSpace(d))) {
		case DeviceCUDA:
			p.forced = DeviceCUDA
		case DeviceCPU:
			p.forced = DeviceCPU
		default:
			p.forced = ""
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// WithLoadHook is called after every load attempt.
func WithLoadHook(fn func(modelID string, err error)) Option {
	return func(p *Provider) { p.onLoad = fn }
}

func NewProvider(loader Loader, opts ...Option) *Provider {
	p := &Provider{
		loader:  loader,
		probe:   acceleratorPresent,
		handles: map[string]*Handle{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Acquire returns the handle for modelID, loading it on first use. Concurrent
// first use loads once; load failures are not cached.
func (p *Provider) Acquire(ctx context.Context, modelID string) (*Handle, error) {
	artifact, ok := supportedModels[modelID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedModel, modelID)
	}
	if h, err := p.cached(modelID); h != nil || err != nil {
		return h, err
	}

	v, err, _ := p.group.Do(modelID, func() (any, error) {
		if h, err := p.cached(modelID); h != nil || err != nil {
			return h, err
		}
		h, err := p.load(ctx, modelID, artifact)
		if p.onLoad != nil {
			p.onLoad(modelID, err)
		}
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.closed {
			closeBackend(h.backend)
			return nil, ErrClosed
		}
		p.handles[modelID] = h
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

func (p *Provider) cached(modelID string) (*Handle, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrClosed
	}
	return p.handles[modelID], nil
}

func (p *Provider) load(ctx context.Context, modelID, artifact string) (h *Handle, err error) {
	device := p.selectDevice()
	logging.Log(p.logger, "INFO", "MODEL", "loading model", fmt.Sprintf("model=%s artifact=%s device=%s", modelID, artifact, device))

	defer func() {
		if r := recover(); r != nil {
			h = nil
			err = fmt.Errorf("%w: %s: panic: %v", ErrModelLoad, modelID, r)
		}
		if err != nil {
			logging.Log(p.logger, "RISK", "MODEL", "model load failed", err.Error())
		}
	}()

	if p.loader == nil {
		return nil, fmt.Errorf("%w: %s: no loader configured", ErrModelLoad, modelID)
	}
	backend, err := p.loader.Load(ctx, artifact, device)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelLoad, modelID, err)
	}
	if backend == nil {
		return nil, fmt.Errorf("%w: %s: loader returned no backend", ErrModelLoad, modelID)
	}

	serial := true
	if r, ok := backend.(ConcurrencyReporter); ok {
		serial = !r.ConcurrentSafe()
	}
	logging.Log(p.logger, "INFO", "MODEL", "model ready", fmt.Sprintf("model=%s device=%s serialized=%t", modelID, device, serial))
	return &Handle{
		ID:       modelID,
		Artifact: artifact,
		Device:   device,
		backend:  backend,
		serial:   serial,
	}, nil
}

func (p *Provider) selectDevice() Device {
	if p.forced != "" {
		return p.forced
	}
	if p.probe != nil && p.probe() {
		return DeviceCUDA
	}
	return DeviceCPU
}

// DeviceOf reports the compute device a handle was loaded on.
func (p *Provider) DeviceOf(h *Handle) Device {
	if h == nil {
		return ""
	}
	return h.Device
}

// Close tears down every cached handle. Acquire fails afterwards.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	var errs []error
	for id, h := range p.handles {
		if err := closeBackend(h.backend); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", id, err))
		}
	}
	p.handles = map[string]*Handle{}
	return errors.Join(errs...)
}

func closeBackend(b Backend) error {
	if c, ok := b.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func acceleratorPresent() bool {
	for _, p := range []string{"/dev/nvidiactl", "/dev/nvidia0"} {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}
