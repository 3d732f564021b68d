package health

import (
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// Clock supplies the current wall-clock time.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock reads time.Now.
var SystemClock Clock = systemClock{}

// UptimeSource reports the seconds elapsed since process start.
type UptimeSource interface {
	Uptime() float64
}

type UptimeFunc func() float64

func (f UptimeFunc) Uptime() float64 {
	return f()
}

// StaticUptime always reports the same reading.
type StaticUptime float64

func (s StaticUptime) Uptime() float64 {
	return float64(s)
}

// ProcessUptime measures uptime from the creation time the OS reports for
// the current process. If the OS cannot be queried the construction time of
// the ProcessUptime is used instead.
//
// On Linux the reported creation time is derived from the whole-second boot
// time, so it can be off by up to about a second. A creation time later than
// the construction instant is clamped to it, which keeps uptime from going
// negative right after startup.
type ProcessUptime struct {
	clock      Clock
	createTime func() (int64, error)

	once  sync.Once
	start time.Time
	// fallback is recorded eagerly so that it predates the first reading.
	fallback time.Time
}

func NewProcessUptime() *ProcessUptime {
	return newProcessUptime(int32(os.Getpid()), SystemClock)
}

func newProcessUptime(pid int32, clock Clock) *ProcessUptime {
	p := &ProcessUptime{
		clock:    clock,
		fallback: clock.Now(),
	}
	p.createTime = func() (int64, error) {
		proc, err := process.NewProcess(pid)
		if err != nil {
			return 0, err
		}
		return proc.CreateTime()
	}
	return p
}

// StartTime returns the resolved process start time.
func (p *ProcessUptime) StartTime() time.Time {
	p.once.Do(func() {
		p.start = p.fallback

		createdMs, err := p.createTime()
		if err != nil || createdMs <= 0 {
			return
		}
		if created := time.UnixMilli(createdMs); created.Before(p.fallback) {
			p.start = created
		}
	})

	return p.start
}

func (p *ProcessUptime) Uptime() float64 {
	return p.clock.Now().Sub(p.StartTime()).Seconds()
}

// SinceUptime reports the seconds elapsed since a fixed start instant.
type SinceUptime struct {
	Start time.Time
	Clock Clock
}

func (s SinceUptime) Uptime() float64 {
	clock := s.Clock
	if clock == nil {
		clock = SystemClock
	}
	return clock.Now().Sub(s.Start).Seconds()
}
