package mq

import (
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("internal/storage/mq")

// kafkaHooks traces every produced and consumed record. The global provider
// and propagator delegate to whatever telemetry.InitTracer installs later.
func kafkaHooks() []kgo.Hook {
	k := kotel.NewKotel(kotel.WithTracer(kotel.NewTracer(
		kotel.TracerProvider(otel.GetTracerProvider()),
		kotel.TracerPropagator(otel.GetTextMapPropagator()),
	)))
	return k.Hooks()
}

func clientOpts(clientID string, autoCreateTopics bool) []kgo.Opt {
	opts := []kgo.Opt{
		kgo.ClientID(clientID),
		kgo.WithHooks(kafkaHooks()...),
	}
	if autoCreateTopics {
		opts = append(opts, kgo.AllowAutoTopicCreation())
	}
	return opts
}
