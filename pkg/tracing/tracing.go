// Package tracing настраивает jaeger как глобальный opentracing-трейсер.
// Без вызова InitTracer остаётся noop-трейсер, спаны клиента биржи ничего не стоят.
package tracing

import (
	"net"
	"strconv"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	jCfg "github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-lib/metrics"

	"hedge_bot/pkg/logger"
)

var (
	serviceName = "default"
)

func SetServiceName(newName string) string {
	oldName := serviceName
	serviceName = newName

	return oldName
}

// Config: адрес jaeger-agent (UDP).
type Config struct {
	Host string
	Port int
}

func (c Config) AgentAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// InitTracer ставит глобальный jaeger-трейсер. Спаны вызовов биржи берут его через opentracing.
func InitTracer(conf Config) (opentracing.Tracer, func(), error) {
	cfg := &jCfg.Configuration{
		ServiceName: serviceName,
		Sampler: &jCfg.SamplerConfig{
			Type:  "const",
			Param: 1,
		},
		Reporter: &jCfg.ReporterConfig{
			LogSpans:           false,
			LocalAgentHostPort: conf.AgentAddr(),
		},
	}

	tracer, closer, err := cfg.NewTracer(
		jCfg.Metrics(metrics.NullFactory),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "jaeger tracer")
	}

	opentracing.SetGlobalTracer(tracer)
	return tracer, func() {
		if err := closer.Close(); err != nil {
			logger.Error("Error closing Jaeger tracer: %v", err)
		}
	}, nil
}
