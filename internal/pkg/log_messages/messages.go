package log_messages

const (
	ServerStartFailure         = "failed to start server"
	ServerShutdown             = "Shutting down server..."
	ServerExiting              = "Server exiting"
	FailedLoadingConfiguration = "Failed to load configuration"
	CleanupStarted             = "Starting cleanup of resources..."
	CleanupCompleted           = "All resources cleaned up successfully"
	TracingDisabled            = "OTLP collector not configured, tracing disabled"
	OTLPConnectionError        = "OTLP connection error"

	// SOAP envelope handling
	UnexpectedFaultElement   = "encountered unexpected element in soap:Fault"
	UnexpectedDetailElement  = "encountered unrecognized element in soap:Fault detail"
	InvalidBackOffHint       = "ignoring malformed BackOffMilliseconds hint"
	ResponseNotEnvelope      = "response is not a SOAP envelope"
	FaultMissingMandatory    = "soap:Fault is missing faultcode or faultstring"
	BodyPayloadMissing       = "soap:Body contains no payload element"
	BodyPayloadNameMismatch  = "unexpected payload element %q in soap:Body, expected %q"
	UnsupportedCharset       = "unsupported document encoding %q"
	InvalidUTF8Span          = "element content is not valid UTF-8"
	FailedSerializingPayload = "failed to serialize %s payload: %w"

	// EWS transport
	SendingEWSRequest         = "Sending EWS request"
	ReceivedEWSResponse       = "Received EWS response"
	EWSRequestFault           = "EWS request returned a fault"
	EWSBackOffActive          = "EWS endpoint back-off is still active"
	EWSBackOffRecorded        = "Recorded EWS back-off hint"
	FailedRecordingBackOff    = "Failed to record EWS back-off hint"
	FailedReadingBackOff      = "Failed to read EWS back-off state"
	ErrorNonSuccessStatusCode = "EWS endpoint returned status %d"

	// Mock endpoint
	MockUnknownOperation = "mock endpoint received unsupported operation"
	MockRequestRejected  = "mock endpoint rejected request body"
)
