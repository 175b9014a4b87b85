// Package ews holds the request and response payloads of the Exchange Web
// Services operations supported by this client.
package ews

import (
	"encoding/xml"
	"fmt"

	"ewsclient/soap"
)

const MessagesNamespace = "http://schemas.microsoft.com/exchange/services/2006/messages"

// Operation is a request payload. Only types of this package implement it.
type Operation interface {
	soap.Payload
	isOperation()
}

// OperationResponse is a response payload. Only types of this package
// implement it.
type OperationResponse interface {
	soap.Payload
	// Messages returns the per-entity response messages in document order.
	Messages() []ResponseMessage
	isOperationResponse()
}

func messagesName(local string) xml.Name {
	return xml.Name{Space: MessagesNamespace, Local: local}
}

// ResponseClass is the outcome of one entity within a request.
type ResponseClass string

const (
	ResponseClassSuccess ResponseClass = "Success"
	ResponseClassWarning ResponseClass = "Warning"
	ResponseClassError   ResponseClass = "Error"
)

// UnmarshalXMLAttr rejects values outside the documented set.
func (c *ResponseClass) UnmarshalXMLAttr(attr xml.Attr) error {
	switch ResponseClass(attr.Value) {
	case ResponseClassSuccess, ResponseClassWarning, ResponseClassError:
		*c = ResponseClass(attr.Value)
		return nil
	default:
		return fmt.Errorf("ews: unknown ResponseClass %q", attr.Value)
	}
}

// ResponseMessage carries the fields shared by every *ResponseMessage element.
type ResponseMessage struct {
	ResponseClass ResponseClass `xml:"ResponseClass,attr"`
	ResponseCode  string        `xml:"ResponseCode,omitempty"`
	MessageText   string        `xml:"MessageText,omitempty"`
}

// Err returns a *ResponseError when the message reports an error.
func (m ResponseMessage) Err() error {
	if m.ResponseClass != ResponseClassError {
		return nil
	}
	return &ResponseError{Code: m.ResponseCode, Text: m.MessageText}
}

// ResponseError is an entity level failure inside an otherwise successful
// response document.
type ResponseError struct {
	Code string
	Text string
}

func (e *ResponseError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("ews: %s", e.Code)
	}
	return fmt.Sprintf("ews: %s: %s", e.Code, e.Text)
}

// FirstError returns the error of the first failed response message, if any.
func FirstError(resp OperationResponse) error {
	for _, m := range resp.Messages() {
		if err := m.Err(); err != nil {
			return err
		}
	}
	return nil
}
