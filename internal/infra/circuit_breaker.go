package infra

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Circuit breaker del relay SMTP. Cuando el relay acumula fallas
// consecutivas el breaker abre y los envíos fallan rápido sin tocar la red;
// tras OpenTimeout se permite un envío de prueba (half-open) y recién con
// SuccessThreshold éxitos seguidos vuelve a cerrar. El worker de
// notificaciones y el cron de redrive consultan State() para no drenar
// colas contra un relay caído.

// CBState es el estado actual del breaker.
type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

var cbStateNames = map[CBState]string{
	CBClosed:   "closed",
	CBOpen:     "open",
	CBHalfOpen: "half-open",
}

func (s CBState) String() string {
	if n, ok := cbStateNames[s]; ok {
		return n
	}
	return "unknown"
}

// ErrCircuitOpen se devuelve cuando Execute se invoca con el breaker abierto.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig parametriza umbrales y espera. Los ceros toman los
// valores de DefaultCBConfig.
type CircuitBreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	OpenTimeout      time.Duration
}

// DefaultCBConfig devuelve los umbrales usados en producción para SMTP.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      60 * time.Second,
	}
}

// CircuitBreaker implementa el patrón con transiciones thread-safe.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu         sync.Mutex
	state      CBState
	fallas     int
	exitos     int
	ultimaFall time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCBConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return &CircuitBreaker{cfg: cfg, state: CBClosed}
}

// State devuelve el estado actual, promoviendo open → half-open si ya pasó
// el timeout de espera.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == CBOpen && time.Since(cb.ultimaFall) >= cb.cfg.OpenTimeout {
		cb.transitionLocked(CBHalfOpen)
	}
	return cb.state
}

// Execute corre fn a través del breaker. Con el breaker abierto no ejecuta
// fn y devuelve ErrCircuitOpen de inmediato.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if cb.State() == CBOpen {
		return ErrCircuitOpen
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.registrarFallaLocked()
		return err
	}
	cb.registrarExitoLocked()
	return nil
}

func (cb *CircuitBreaker) registrarFallaLocked() {
	cb.fallas++
	cb.ultimaFall = time.Now()

	switch cb.state {
	case CBClosed:
		if cb.fallas >= cb.cfg.FailureThreshold {
			cb.transitionLocked(CBOpen)
		}
	case CBHalfOpen:
		// El probe falló: reabrir y esperar otro ciclo completo.
		cb.transitionLocked(CBOpen)
	}
}

func (cb *CircuitBreaker) registrarExitoLocked() {
	switch cb.state {
	case CBClosed:
		cb.fallas = 0
	case CBHalfOpen:
		cb.exitos++
		if cb.exitos >= cb.cfg.SuccessThreshold {
			cb.transitionLocked(CBClosed)
		}
	}
}

func (cb *CircuitBreaker) transitionLocked(next CBState) {
	prev := cb.state
	cb.state = next
	cb.fallas = 0
	cb.exitos = 0
	if next == CBOpen {
		log.Warn().Str("from", prev.String()).Msg("circuit breaker SMTP abierto")
	} else if prev == CBOpen || prev == CBHalfOpen {
		log.Info().Str("from", prev.String()).Str("to", next.String()).Msg("circuit breaker SMTP cambió de estado")
	}
}
