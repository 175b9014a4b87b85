package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// OperationKey is the gin context key under which handlers publish the EWS
// operation they served.
const OperationKey = "ews.operation"

func NewMetricMiddleware(meter metric.Meter) gin.HandlerFunc {
	durationHistogram, _ := meter.Int64Histogram(
		"http.server.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("The latency of HTTP requests."),
	)

	requestCounter, _ := meter.Int64Counter(
		"http.server.requests_total",
		metric.WithDescription("The total number of HTTP requests."),
	)

	// Faults are served with non 2xx statuses.
	faultCounter, _ := meter.Int64Counter(
		"ews.mock.faults_total",
		metric.WithDescription("The total number of SOAP faults returned."),
	)

	requestSizeHistogram, _ := meter.Int64Histogram(
		"http.server.request_size_bytes",
		metric.WithUnit("bytes"),
		metric.WithDescription("The size of HTTP requests in bytes."),
	)

	responseSizeHistogram, _ := meter.Int64Histogram(
		"http.server.response_size_bytes",
		metric.WithUnit("bytes"),
		metric.WithDescription("The size of HTTP responses in bytes."),
	)

	return func(c *gin.Context) {
		startTime := time.Now()
		requestSize := c.Request.ContentLength

		c.Next()

		ctx := c.Request.Context()
		statusCode := c.Writer.Status()
		attributes := metric.WithAttributes(
			semconv.HTTPRouteKey.String(c.FullPath()),
			semconv.HTTPMethodKey.String(c.Request.Method),
			semconv.HTTPStatusCodeKey.Int(statusCode),
			attribute.String(OperationKey, c.GetString(OperationKey)),
		)

		durationHistogram.Record(ctx, time.Since(startTime).Milliseconds(), attributes)
		requestCounter.Add(ctx, 1, attributes)
		if requestSize >= 0 {
			requestSizeHistogram.Record(ctx, requestSize, attributes)
		}
		if size := c.Writer.Size(); size >= 0 {
			responseSizeHistogram.Record(ctx, int64(size), attributes)
		}
		if statusCode >= 400 {
			faultCounter.Add(ctx, 1, attributes)
		}
	}
}
