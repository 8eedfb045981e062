package telemetry

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/protobuf/proto"

	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
)

// otlpExporter posts finished spans to an OTLP/HTTP collector endpoint
// as protobuf. It carries just enough of the OTLP mapping for this
// module's spans: name, timing, attributes, and status.
type otlpExporter struct {
	endpoint    string
	serviceName string
	version     string
	client      *http.Client
}

var _ sdktrace.SpanExporter = (*otlpExporter)(nil)

func newOTLPExporter(endpoint, serviceName, version string) *otlpExporter {
	return &otlpExporter{
		endpoint:    endpoint,
		serviceName: serviceName,
		version:     version,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// ExportSpans marshals the spans into one ExportTraceServiceRequest and
// posts it to the collector.
func (e *otlpExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	if len(spans) == 0 {
		return nil
	}

	pbSpans := make([]*tracepb.Span, 0, len(spans))
	for _, s := range spans {
		pbSpans = append(pbSpans, toPBSpan(s))
	}

	req := &coltracepb.ExportTraceServiceRequest{
		ResourceSpans: []*tracepb.ResourceSpans{{
			Resource: &resourcepb.Resource{
				Attributes: []*commonpb.KeyValue{
					stringKV("service.name", e.serviceName),
					stringKV("service.version", e.version),
				},
			},
			ScopeSpans: []*tracepb.ScopeSpans{{
				Scope: &commonpb.InstrumentationScope{Name: tracerName},
				Spans: pbSpans,
			}},
		}},
	}

	body, err := proto.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal spans: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/x-protobuf")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to export spans: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("collector rejected spans: %s", resp.Status)
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter.
func (e *otlpExporter) Shutdown(ctx context.Context) error {
	return nil
}

// toPBSpan maps one finished span to its OTLP representation.
func toPBSpan(s sdktrace.ReadOnlySpan) *tracepb.Span {
	sc := s.SpanContext()
	tid := sc.TraceID()
	sid := sc.SpanID()

	pb := &tracepb.Span{
		TraceId:           tid[:],
		SpanId:            sid[:],
		Name:              s.Name(),
		Kind:              tracepb.Span_SPAN_KIND_INTERNAL,
		StartTimeUnixNano: uint64(s.StartTime().UnixNano()),
		EndTimeUnixNano:   uint64(s.EndTime().UnixNano()),
	}

	if psc := s.Parent(); psc.IsValid() {
		pid := psc.SpanID()
		pb.ParentSpanId = pid[:]
	}

	for _, kv := range s.Attributes() {
		pb.Attributes = append(pb.Attributes, stringKV(string(kv.Key), kv.Value.Emit()))
	}

	switch s.Status().Code {
	case codes.Ok:
		pb.Status = &tracepb.Status{Code: tracepb.Status_STATUS_CODE_OK}
	case codes.Error:
		pb.Status = &tracepb.Status{
			Code:    tracepb.Status_STATUS_CODE_ERROR,
			Message: s.Status().Description,
		}
	}

	return pb
}

// stringKV builds an OTLP string attribute.
func stringKV(key, value string) *commonpb.KeyValue {
	return &commonpb.KeyValue{
		Key: key,
		Value: &commonpb.AnyValue{
			Value: &commonpb.AnyValue_StringValue{StringValue: value},
		},
	}
}
