// Package telemetry provides OpenTelemetry tracing for nautwatch.
//
// # Overview
//
// Spans cover the registration pipeline (registrar.register) and each
// tracking API call (tracker.find, tracker.create). They are exported over
// OTLP to a collector. Metrics are exposed separately by the status server
// in Prometheus format.
//
// # Usage
//
//	tel, err := telemetry.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(ctx)
//
// New installs the tracer provider and W3C propagators globally, so
// packages obtain tracers with otel.Tracer.
//
// # Configuration
//
//	telemetry:
//	  enabled: true
//	  endpoint: "localhost:4317"
//	  protocol: grpc          # or http/protobuf
//	  sample_rate: 1.0
//
// # Error Handling
//
// Telemetry failures do not stop the daemon. If an exporter cannot be
// created, the instance is marked degraded and spans are dropped.
//
// # Testing
//
// Use TestTelemetry for tests:
//
//	tt := telemetry.NewTestTelemetry(t)
//	// exercise code that starts spans
//	tt.AssertSpanExists(t, "registrar.register")
package telemetry
