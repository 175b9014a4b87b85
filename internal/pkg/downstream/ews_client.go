package downstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ewsclient/ews"
	"ewsclient/internal/pkg/config"
	errs "ewsclient/internal/pkg/downstream/error_handling"
	"ewsclient/internal/pkg/log_messages"
	"ewsclient/internal/pkg/logger"
	"ewsclient/internal/pkg/otel"
	"ewsclient/soap"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	contentType           = "text/xml; charset=utf-8"
	clientRequestIDHeader = "client-request-id"
)

// Span attribute keys.
const (
	attrOperation          = "ews.operation"
	attrClientRequestID    = "ews.client_request_id"
	attrFaultCode          = "ews.fault_code"
	attrResponseCode       = "ews.response_code"
	attrBackOffMS          = "ews.back_off_ms"
	attrBackOffRemainingMS = "ews.back_off_remaining_ms"
)

// ErrBackOffActive is returned without contacting the server while a back-off
// requested by an earlier fault is still running.
var ErrBackOffActive = errors.New("EWS endpoint back-off is active")

// BackOffTracker keeps server back-off hints per endpoint.
type BackOffTracker interface {
	Record(ctx context.Context, endpoint string, d time.Duration) error
	Remaining(ctx context.Context, endpoint string) (time.Duration, error)
}

// EWSAPI is the operation surface callers depend on.
type EWSAPI interface {
	GetFolder(ctx context.Context, op ews.GetFolder) (*ews.GetFolderResponse, error)
	DeleteFolder(ctx context.Context, op ews.DeleteFolder) (*ews.DeleteFolderResponse, error)
	GetItem(ctx context.Context, op ews.GetItem) (*ews.GetItemResponse, error)
	MoveItem(ctx context.Context, op ews.MoveItem) (*ews.MoveItemResponse, error)
	SyncFolderItems(ctx context.Context, op ews.SyncFolderItems) (*ews.SyncFolderItemsResponse, error)
}

var _ EWSAPI = (*Client)(nil)

type Client struct {
	URL        string
	apiKey     string
	userAgent  string
	httpClient *http.Client
	backOff    BackOffTracker
}

// NewClient builds a client for cfg.URL. backOff may be nil, in which case
// server back-off hints are only logged.
func NewClient(cfg config.EWSConfig, backOff BackOffTracker) *Client {
	return &Client{
		URL:       cfg.URL,
		apiKey:    cfg.APIKey,
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		backOff: backOff,
	}
}

func (c *Client) GetFolder(ctx context.Context, op ews.GetFolder) (*ews.GetFolderResponse, error) {
	return Execute[ews.GetFolderResponse](ctx, c, op)
}

func (c *Client) DeleteFolder(ctx context.Context, op ews.DeleteFolder) (*ews.DeleteFolderResponse, error) {
	return Execute[ews.DeleteFolderResponse](ctx, c, op)
}

func (c *Client) GetItem(ctx context.Context, op ews.GetItem) (*ews.GetItemResponse, error) {
	return Execute[ews.GetItemResponse](ctx, c, op)
}

func (c *Client) MoveItem(ctx context.Context, op ews.MoveItem) (*ews.MoveItemResponse, error) {
	return Execute[ews.MoveItemResponse](ctx, c, op)
}

func (c *Client) SyncFolderItems(ctx context.Context, op ews.SyncFolderItems) (*ews.SyncFolderItemsResponse, error) {
	return Execute[ews.SyncFolderItemsResponse](ctx, c, op)
}

// Execute posts op to the endpoint and decodes the response as R. A SOAP
// fault is returned as a soap.Error of kind KindRequestFault; its back-off
// hint, if any, is recorded before returning. Nothing is retried.
func Execute[R ews.OperationResponse](ctx context.Context, c *Client, op ews.Operation) (*R, error) {
	operation := op.BodyName().Local
	ctx, span := otel.GetTracer().Start(ctx, "EWS "+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(attrOperation, operation),
			semconv.HTTPURLKey.String(c.URL),
		),
	)
	defer span.End()

	result, err := execute[R](ctx, c, op, operation)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

func execute[R ews.OperationResponse](ctx context.Context, c *Client, op ews.Operation, operation string) (*R, error) {
	span := trace.SpanFromContext(ctx)
	requestID := logger.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = logger.WithRequestID(ctx, requestID)
	}
	span.SetAttributes(attribute.String(attrClientRequestID, requestID))

	if err := c.checkBackOff(ctx, operation); err != nil {
		return nil, err
	}

	payload, err := soap.Envelope[ews.Operation]{Body: op}.MarshalDocument()
	if err != nil {
		logger.CtxError(ctx, "failed to build EWS request document", err, zap.String("operation", operation))
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		logger.CtxError(ctx, "failed to build EWS request", err)
		return nil, errs.NewEWSError(fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set(clientRequestIDHeader, requestID)
	httpReq.Header.Set("return-client-request-id", "true")
	if c.apiKey != "" {
		httpReq.Header.Set("x-api-key", c.apiKey)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	otel.Propagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	logger.CtxInfo(ctx, log_messages.SendingEWSRequest,
		zap.String("operation", operation),
		zap.String("url", c.URL),
	)
	logger.CtxDebug(ctx, "EWS request body", zap.ByteString("body", payload))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.CtxError(ctx, "failed to send EWS request", err, zap.String("url", c.URL))
		return nil, errs.NewEWSError(fmt.Errorf("failed to send request: %w", err), -1)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.CtxError(ctx, "failed to close EWS response body", cerr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.CtxError(ctx, "failed to read EWS response body", err)
		return nil, errs.NewEWSError(fmt.Errorf("read response: %w", err), resp.StatusCode)
	}
	span.SetAttributes(semconv.HTTPStatusCodeKey.Int(resp.StatusCode))
	logger.CtxInfo(ctx, log_messages.ReceivedEWSResponse,
		zap.String("operation", operation),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
	)

	env, err := soap.DecodeEnvelope[R](body)
	if err == nil {
		if msgErr := ews.FirstError(env.Body); msgErr != nil {
			logger.CtxWarn(ctx, "EWS response contains failed messages",
				zap.String("operation", operation), zap.Error(msgErr))
		}
		result := env.Body
		return &result, nil
	}

	if fault, ok := soap.AsFault(err); ok {
		c.handleFault(ctx, operation, fault)
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		ewsErr := errs.NewEWSError(fmt.Errorf(log_messages.ErrorNonSuccessStatusCode+": %w", resp.StatusCode, err), resp.StatusCode)
		ewsErr.Body = body
		logger.CtxError(ctx, "EWS request failed", ewsErr, zap.String("operation", operation))
		return nil, ewsErr
	}

	logger.CtxError(ctx, "failed to decode EWS response", err, zap.String("operation", operation))
	return nil, err
}

func (c *Client) checkBackOff(ctx context.Context, operation string) error {
	if c.backOff == nil {
		return nil
	}
	remaining, err := c.backOff.Remaining(ctx, c.URL)
	if err != nil {
		// Redis trouble must not block EWS traffic.
		logger.CtxWarn(ctx, log_messages.FailedReadingBackOff, zap.Error(err))
		return nil
	}
	if remaining > 0 {
		trace.SpanFromContext(ctx).SetAttributes(attribute.Int64(attrBackOffRemainingMS, remaining.Milliseconds()))
		logger.CtxWarn(ctx, log_messages.EWSBackOffActive,
			zap.String("operation", operation),
			zap.Duration("remaining", remaining),
		)
		return fmt.Errorf("%w: %s remaining", ErrBackOffActive, remaining)
	}
	return nil
}

func (c *Client) handleFault(ctx context.Context, operation string, fault *soap.Fault) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String(attrFaultCode, fault.FaultCode),
		attribute.String(attrResponseCode, fault.ResponseCode()),
	)
	logger.CtxWarn(ctx, log_messages.EWSRequestFault,
		zap.String("operation", operation),
		zap.String("fault_code", fault.FaultCode),
		zap.String("response_code", fault.ResponseCode()),
		zap.String("fault_string", fault.FaultString),
	)

	delay, ok := fault.BackOff()
	if !ok {
		return
	}
	span.SetAttributes(attribute.Int64(attrBackOffMS, delay.Milliseconds()))
	if c.backOff == nil {
		return
	}
	if err := c.backOff.Record(ctx, c.URL, delay); err != nil {
		logger.CtxError(ctx, log_messages.FailedRecordingBackOff, err)
		return
	}
	logger.CtxInfo(ctx, log_messages.EWSBackOffRecorded, zap.Duration("back_off", delay))
}
