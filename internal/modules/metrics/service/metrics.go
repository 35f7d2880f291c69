package service

type Counter interface {
	Inc()
}

type Gauge interface {
	Set(float64)
}

type Metrics struct {
	OrdersPlaced        Counter
	OrdersFailed        Counter
	StopLossSet         Counter
	TrailingSet         Counter
	PositionsClosed     Counter
	InvariantViolations Counter
	TransientErrors     Counter
	OpenerCycles        Counter
	MonitorCycles       Counter
	ParamApplies        Counter

	TrackedPositions      Gauge
	InstrumentsConfigured Gauge
}

type noop struct{}

func (noop) Inc()        {}
func (noop) Set(float64) {}

func NewNoop() *Metrics {
	n := noop{}
	return &Metrics{
		OrdersPlaced:          n,
		OrdersFailed:          n,
		StopLossSet:           n,
		TrailingSet:           n,
		PositionsClosed:       n,
		InvariantViolations:   n,
		TransientErrors:       n,
		OpenerCycles:          n,
		MonitorCycles:         n,
		ParamApplies:          n,
		TrackedPositions:      n,
		InstrumentsConfigured: n,
	}
}
