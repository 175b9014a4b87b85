package soap

import (
	"errors"
	"fmt"
)

// Kind classifies a failure of the envelope layer.
type Kind string

const (
	// KindSerialize means a payload could not be rendered as XML.
	KindSerialize Kind = "SOAP_SERIALIZE"
	// KindDeserialize means a well-formed document did not match the expected payload.
	KindDeserialize Kind = "SOAP_DESERIALIZE"
	// KindXML means the document was not well-formed XML or not decodable text.
	KindXML Kind = "SOAP_XML"
	// KindUnexpectedResponse means Envelope/Body or a mandatory fault field was missing.
	KindUnexpectedResponse Kind = "SOAP_UNEXPECTED_RESPONSE"
	// KindRequestFault means the server answered with a soap:Fault.
	KindRequestFault Kind = "SOAP_REQUEST_FAULT"
)

var kindMessages = map[Kind]string{
	KindSerialize:          "failed to serialize structure as XML",
	KindDeserialize:        "failed to deserialize structure from XML",
	KindXML:                "error manipulating XML data",
	KindUnexpectedResponse: "response was not in the expected shape",
	KindRequestFault:       "request resulted in a SOAP fault",
}

// Sentinels for errors.Is comparisons; they match any *Error of the same Kind.
var (
	ErrSerialize          = &Error{Kind: KindSerialize}
	ErrDeserialize        = &Error{Kind: KindDeserialize}
	ErrXML                = &Error{Kind: KindXML}
	ErrUnexpectedResponse = &Error{Kind: KindUnexpectedResponse}
	ErrRequestFault       = &Error{Kind: KindRequestFault}
)

// Error is returned by every fallible operation of this package.
type Error struct {
	Kind    Kind
	Message string
	Err     error

	// Document holds the raw response for KindUnexpectedResponse.
	Document []byte
	// Fault holds the decoded fault for KindRequestFault.
	Fault *Fault
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = kindMessages[e.Kind]
	}
	if e.Fault != nil {
		msg = fmt.Sprintf("%s: %s: %s", msg, e.Fault.FaultCode, e.Fault.FaultString)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// ErrorCode returns the machine readable kind.
func (e *Error) ErrorCode() string {
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// AsFault returns the fault carried by err, if err is a request fault.
func AsFault(err error) (*Fault, bool) {
	var soapErr *Error
	if errors.As(err, &soapErr) && soapErr.Kind == KindRequestFault && soapErr.Fault != nil {
		return soapErr.Fault, true
	}
	return nil, false
}

func serializeError(err error) error {
	return &Error{Kind: KindSerialize, Err: err}
}

func deserializeError(err error) error {
	return &Error{Kind: KindDeserialize, Err: err}
}

func xmlError(err error) error {
	var soapErr *Error
	if errors.As(err, &soapErr) {
		return err
	}
	return &Error{Kind: KindXML, Err: err}
}

func unexpectedResponse(document []byte, message string) error {
	raw := make([]byte, len(document))
	copy(raw, document)
	return &Error{Kind: KindUnexpectedResponse, Message: message, Document: raw}
}

func requestFault(fault *Fault) error {
	return &Error{Kind: KindRequestFault, Fault: fault}
}
