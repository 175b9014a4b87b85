package soap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"ewsclient/internal/pkg/log_messages"
)

const (
	SOAPNamespace   = "http://schemas.xmlsoap.org/soap/envelope/"
	TypesNamespace  = "http://schemas.microsoft.com/exchange/services/2006/types"
	ErrorsNamespace = "http://schemas.microsoft.com/exchange/services/2006/errors"
)

// Payload is implemented by anything that can sit directly inside soap:Body.
// BodyName must not depend on the receiver's contents, it is called on zero
// values when decoding. The interface stays open so that *Fault and test
// payloads can use it; the EWS operation catalog is sealed in package ews,
// whose Operation and OperationResponse carry unexported marker methods.
type Payload interface {
	BodyName() xml.Name
}

// Envelope pairs a body payload with the SOAP document around it.
type Envelope[B Payload] struct {
	Body B
}

// MarshalDocument renders the complete request document, XML declaration
// included. The "soap" and "t" prefixes are declared on the root element.
func (env Envelope[B]) MarshalDocument() ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)

	envelope := xml.StartElement{
		Name: xml.Name{Local: "soap:Envelope"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns:soap"}, Value: SOAPNamespace},
			{Name: xml.Name{Local: "xmlns:t"}, Value: TypesNamespace},
		},
	}
	body := xml.StartElement{Name: xml.Name{Local: "soap:Body"}}

	if err := enc.EncodeToken(xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="utf-8"`)}); err != nil {
		return nil, xmlError(err)
	}
	if err := enc.EncodeToken(envelope); err != nil {
		return nil, xmlError(err)
	}
	if err := enc.EncodeToken(body); err != nil {
		return nil, xmlError(err)
	}
	if err := enc.EncodeElement(env.Body, xml.StartElement{Name: env.Body.BodyName()}); err != nil {
		return nil, serializeError(fmt.Errorf(log_messages.FailedSerializingPayload, env.Body.BodyName().Local, err))
	}
	if err := enc.EncodeToken(body.End()); err != nil {
		return nil, xmlError(err)
	}
	if err := enc.EncodeToken(envelope.End()); err != nil {
		return nil, xmlError(err)
	}
	if err := enc.Flush(); err != nil {
		return nil, xmlError(err)
	}
	return buf.Bytes(), nil
}

// DecodeEnvelope decodes a response document. A soap:Fault in the body is
// always reported as a KindRequestFault error and B is never decoded in that
// case. Otherwise the first element of the body must be named B.BodyName()
// and is decoded strictly into B.
func DecodeEnvelope[B Payload](document []byte) (*Envelope[B], error) {
	fault, err := ExtractFault(document)
	if err != nil {
		return nil, err
	}
	if fault != nil {
		return nil, requestFault(fault)
	}

	doc, err := toUTF8(document)
	if err != nil {
		return nil, err
	}
	dec := newSpanReader(doc, 0, len(doc)).dec

	payloadStart, err := seekPayload(dec)
	if err != nil {
		return nil, err
	}

	var env Envelope[B]
	expected := env.Body.BodyName()
	if !sameElement(expected, payloadStart.Name) {
		return nil, &Error{
			Kind:    KindDeserialize,
			Message: fmt.Sprintf(log_messages.BodyPayloadNameMismatch, payloadStart.Name.Local, localPart(expected.Local)),
		}
	}
	if err := dec.DecodeElement(&env.Body, &payloadStart); err != nil {
		var syntaxErr *xml.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, xmlError(err)
		}
		return nil, deserializeError(err)
	}
	return &env, nil
}

// seekPayload positions dec just after the start tag of the first element
// inside Envelope/Body. soap:Header and any other envelope siblings are
// skipped.
func seekPayload(dec *xml.Decoder) (xml.StartElement, error) {
	inBody := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return xml.StartElement{}, &Error{Kind: KindDeserialize, Message: log_messages.BodyPayloadMissing}
		}
		if err != nil {
			return xml.StartElement{}, xmlError(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case inBody:
				return t.Copy(), nil
			case t.Name.Local == "Envelope":
			case t.Name.Local == "Body":
				inBody = true
			default:
				if err := dec.Skip(); err != nil {
					return xml.StartElement{}, xmlError(err)
				}
			}
		case xml.EndElement:
			if inBody {
				return xml.StartElement{}, &Error{Kind: KindDeserialize, Message: log_messages.BodyPayloadMissing}
			}
		}
	}
}

// sameElement compares local names, and namespaces when both sides carry one.
// Prefixed names used for encoding ("t:Folder") match on their local part.
func sameElement(expected, actual xml.Name) bool {
	if localPart(expected.Local) != actual.Local {
		return false
	}
	return expected.Space == "" || actual.Space == "" || expected.Space == actual.Space
}

func localPart(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}
