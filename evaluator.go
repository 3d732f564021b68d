package health

import (
	"strings"
)

const (
	// DefaultServiceName is reported when no service name is supplied.
	DefaultServiceName = "TypeScript Clean Architecture"
	// UnknownServiceName replaces a supplied name that is blank.
	UnknownServiceName = "Unknown Service"
)

// Evaluator computes health reports and readiness from an injected uptime
// source and clock. It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	uptime      UptimeSource
	clock       Clock
	defaultName string
}

type EvaluatorOption func(*Evaluator)

func WithUptimeSource(src UptimeSource) EvaluatorOption {
	return func(e *Evaluator) {
		e.uptime = src
	}
}

func WithClock(clock Clock) EvaluatorOption {
	return func(e *Evaluator) {
		e.clock = clock
	}
}

// WithDefaultServiceName changes the name used by HealthStatus. A blank
// default makes HealthStatus report unhealthy.
func WithDefaultServiceName(name string) EvaluatorOption {
	return func(e *Evaluator) {
		e.defaultName = name
	}
}

func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		clock:       SystemClock,
		defaultName: DefaultServiceName,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.uptime == nil {
		e.uptime = NewProcessUptime()
	}

	return e
}

// HealthStatus evaluates health with no service name supplied, falling back
// to the evaluator's default name.
func (e *Evaluator) HealthStatus() Report {
	return e.evaluate(e.defaultName)
}

// HealthStatusFor evaluates health for an explicitly supplied service name.
// A name that is empty after trimming yields an unhealthy report for
// UnknownServiceName.
func (e *Evaluator) HealthStatusFor(serviceName string) Report {
	return e.evaluate(serviceName)
}

func (e *Evaluator) evaluate(serviceName string) Report {
	name := strings.TrimSpace(serviceName)

	if name == "" {
		return Report{
			Status:    HealthStatusUnhealthy,
			Timestamp: e.clock.Now(),
			Uptime:    e.uptime.Uptime(),
			Service:   UnknownServiceName,
		}
	}

	return Report{
		Status:    HealthStatusHealthy,
		Timestamp: e.clock.Now(),
		Uptime:    e.uptime.Uptime(),
		Service:   name,
	}
}

// IsReady reports whether the uptime reading is strictly positive.
func (e *Evaluator) IsReady() bool {
	return readyAt(e.uptime.Uptime())
}

// Readiness takes a single uptime reading and returns it together with the
// readiness verdict IsReady would derive from it.
func (e *Evaluator) Readiness() (bool, float64) {
	uptime := e.uptime.Uptime()
	return readyAt(uptime), uptime
}

func readyAt(uptime float64) bool {
	return uptime > 0
}

// Uptime exposes the evaluator's current uptime reading.
func (e *Evaluator) Uptime() float64 {
	return e.uptime.Uptime()
}

// DefaultName is the name HealthStatus evaluates.
func (e *Evaluator) DefaultName() string {
	return e.defaultName
}

func (e *Evaluator) Clock() Clock {
	return e.clock
}

var defaultEvaluator = NewEvaluator()

func GetHealthStatus() Report {
	return defaultEvaluator.HealthStatus()
}

func GetHealthStatusFor(serviceName string) Report {
	return defaultEvaluator.HealthStatusFor(serviceName)
}

func IsServiceReady() bool {
	return defaultEvaluator.IsReady()
}
