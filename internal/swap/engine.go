// Package swap implements the zone swap engine: it resolves garments to the
// body zones they cover, copies those zones between two characters, keeps a
// bounded swap history and can reverse any active swap.
package swap

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/threadshift/internal/model"
	"github.com/ppiankov/threadshift/internal/zone"
)

// Version is the engine version reported in status snapshots.
const Version = "1.0.0"

var (
	// ErrNotInitialized is returned by operations that require Initialize.
	ErrNotInitialized = errors.New("swap engine not initialized")
	// ErrSwapNotFound is returned when reversing an id that is not active.
	ErrSwapNotFound = errors.New("swap not found")
	// ErrNoZones is returned when a garment covers no zones.
	ErrNoZones = errors.New("garment covers no zones")
	// ErrValidationFailed wraps the validator's rejection of a swap pair.
	ErrValidationFailed = errors.New("swap validation failed")
	// ErrInvalidCharacter is returned for nil characters or body maps.
	ErrInvalidCharacter = errors.New("invalid character")
)

// ZoneMapper resolves a garment type to the zones it covers.
type ZoneMapper interface {
	ZonesForGarmentType(garmentType string) []string
}

// Validator is the pre-swap gate consulted when auto-validation is on.
type Validator interface {
	ValidateSwap(source, target model.BodyMap, zones []string) error
}

// ReciprocalRequest carries what the mirror-direction step needs: the
// target's zone records as they were before the primary swap overwrote them.
type ReciprocalRequest struct {
	SwapID    string
	Source    *model.Character
	Target    *model.Character
	Zones     []string
	Displaced map[string]any
	Garment   model.Garment
}

// Reciprocator performs the mirror-direction step of a bidirectional swap.
type Reciprocator interface {
	HandleReciprocal(ctx context.Context, req ReciprocalRequest) error
}

// Emitter publishes named notifications.
type Emitter interface {
	Emit(name string, payload any)
}

// Option configures an Engine.
type Option func(*Engine)

// WithMapper attaches a zone lookup table.
func WithMapper(m ZoneMapper) Option {
	return func(e *Engine) { e.mapper = m }
}

// WithValidator attaches the pre-swap validator.
func WithValidator(v Validator) Option {
	return func(e *Engine) { e.validator = v }
}

// WithReciprocator attaches the bidirectional swap handler.
func WithReciprocator(r Reciprocator) Option {
	return func(e *Engine) { e.reciprocator = r }
}

// WithEmitter attaches the event surface.
func WithEmitter(em Emitter) Option {
	return func(e *Engine) { e.emitter = em }
}

// WithLogger sets the logger. Nil keeps the no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithSettings replaces the default settings.
func WithSettings(s Settings) Option {
	return func(e *Engine) { e.settings = s.normalized() }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// entry is an active swap plus the pre-swap zone records of both sides,
// which is everything reversal needs.
type entry struct {
	record  *model.SwapRecord
	source  *model.Character
	target  *model.Character
	before  snapshot
	applied []string
}

// Engine holds swap state. All methods are safe for concurrent use;
// notifications are emitted after the internal lock is released.
type Engine struct {
	mu          sync.Mutex
	initialized bool
	settings    Settings
	active      map[string]*entry
	history     []*model.SwapRecord

	mapper       ZoneMapper
	validator    Validator
	reciprocator Reciprocator
	emitter      Emitter
	log          *zap.Logger
	now          func() time.Time

	// resolved at Initialize: the attached mapper or the built-in table
	lookup ZoneMapper
}

// New creates an engine. It is not usable for swaps until Initialize.
func New(opts ...Option) *Engine {
	e := &Engine{
		settings: DefaultSettings(),
		active:   make(map[string]*entry),
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Initialize resolves collaborators and marks the engine ready. Calling it
// again is a no-op that returns the current status.
func (e *Engine) Initialize() Status {
	e.mu.Lock()
	if !e.initialized {
		e.lookup = e.mapper
		if e.lookup == nil {
			e.lookup = defaultMapper{}
		}
		e.initialized = true
		e.log.Info("swap engine initialized",
			zap.String("version", Version),
			zap.Bool("mapper", e.mapper != nil),
			zap.Bool("validator", e.validator != nil),
			zap.Bool("reciprocal", e.reciprocator != nil))
	}
	e.mu.Unlock()
	return e.Status()
}

// AttachReciprocator sets the bidirectional handler after construction.
// The orchestrator itself depends on the engine, so it is usually attached
// once both exist.
func (e *Engine) AttachReciprocator(r Reciprocator) {
	e.mu.Lock()
	e.reciprocator = r
	e.mu.Unlock()
}

// AttachValidator sets or clears the pre-swap validator.
func (e *Engine) AttachValidator(v Validator) {
	e.mu.Lock()
	e.validator = v
	e.mu.Unlock()
}

// Initialized reports whether Initialize has run since the last Shutdown.
func (e *Engine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// Version returns the engine version.
func (e *Engine) Version() string { return Version }

// Status is a read-only snapshot of engine state.
type Status struct {
	Version         string   `json:"version"`
	Initialized     bool     `json:"initialized"`
	ActiveSwaps     int      `json:"active_swaps"`
	HistoryLength   int      `json:"history_length"`
	Settings        Settings `json:"settings"`
	HasMapper       bool     `json:"has_mapper"`
	HasValidator    bool     `json:"has_validator"`
	HasReciprocator bool     `json:"has_reciprocator"`
}

// Status returns a snapshot. It has no side effects.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		Version:         Version,
		Initialized:     e.initialized,
		ActiveSwaps:     len(e.active),
		HistoryLength:   len(e.history),
		Settings:        e.settings,
		HasMapper:       e.mapper != nil,
		HasValidator:    e.validator != nil,
		HasReciprocator: e.reciprocator != nil,
	}
}

// Shutdown clears active swaps and history and marks the engine
// uninitialized. Settings are kept.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	e.active = make(map[string]*entry)
	e.history = nil
	e.initialized = false
	e.mu.Unlock()
	e.log.Info("swap engine shut down")
}

func (e *Engine) emit(name string, payload any) {
	if e.emitter != nil {
		e.emitter.Emit(name, payload)
	}
}

// defaultMapper serves lookups from the built-in table when no mapper is
// attached.
type defaultMapper struct{}

func (defaultMapper) ZonesForGarmentType(t string) []string {
	return zone.ZonesForGarmentType(t)
}
