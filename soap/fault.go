package soap

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"ewsclient/internal/pkg/log_messages"
	"ewsclient/internal/pkg/logger"

	"go.uber.org/zap"
)

// Fault is a soap:Fault returned in place of a response payload.
type Fault struct {
	// FaultCode is kept as the literal QName text, e.g. "a:ErrorServerBusy".
	FaultCode   string
	FaultString string
	// FaultActor is nil when the server did not send one.
	FaultActor *string
	Detail     *FaultDetail
}

// FaultDetail is the vendor specific content of soap:Fault/detail.
// ResponseCode and Message are nil when absent and point to "" when the
// element was sent empty.
type FaultDetail struct {
	ResponseCode *string
	Message      *string
	MessageXML   *MessageXML
	// Content is the raw detail XML, captured the first time an unrecognized
	// child is met. It is never overwritten afterwards.
	Content string
}

// MessageXML holds the diagnostic payload of a fault detail.
type MessageXML struct {
	// Content is the inner XML of MessageXml, verbatim.
	Content string
	// BackOffMilliseconds is the server's suggested retry delay, if any.
	BackOffMilliseconds *uint64
}

// BackOff returns the server supplied retry delay carried by the fault.
func (f *Fault) BackOff() (time.Duration, bool) {
	if f == nil || f.Detail == nil || f.Detail.MessageXML == nil || f.Detail.MessageXML.BackOffMilliseconds == nil {
		return 0, false
	}
	return time.Duration(*f.Detail.MessageXML.BackOffMilliseconds) * time.Millisecond, true
}

// ResponseCode returns detail/ResponseCode, or the local part of faultcode
// when the detail is absent.
func (f *Fault) ResponseCode() string {
	if f == nil {
		return ""
	}
	if f.Detail != nil && f.Detail.ResponseCode != nil && *f.Detail.ResponseCode != "" {
		return *f.Detail.ResponseCode
	}
	if i := strings.LastIndexByte(f.FaultCode, ':'); i >= 0 {
		return f.FaultCode[i+1:]
	}
	return f.FaultCode
}

// ExtractFault looks for Envelope/Body/Fault without decoding anything else.
// It returns (nil, nil) when the body holds no fault.
func ExtractFault(document []byte) (*Fault, error) {
	body, err := locateBody(document)
	if err != nil {
		return nil, err
	}
	faultReader, err := body.locate("Fault")
	if err != nil {
		return nil, err
	}
	if faultReader == nil {
		return nil, nil
	}
	return parseFault(document, faultReader)
}

// BodyPayloadName returns the name of the first element inside soap:Body.
func BodyPayloadName(document []byte) (xml.Name, error) {
	body, err := locateBody(document)
	if err != nil {
		return xml.Name{}, err
	}
	start, child, err := body.nextChild()
	if err != nil {
		return xml.Name{}, err
	}
	if child == nil {
		return xml.Name{}, unexpectedResponse(document, log_messages.BodyPayloadMissing)
	}
	return start.Name, nil
}

func locateBody(document []byte) (*spanReader, error) {
	reader, err := newDocumentReader(document)
	if err != nil {
		return nil, err
	}
	envelope, err := reader.locate("Envelope")
	if err != nil {
		return nil, err
	}
	if envelope == nil {
		return nil, unexpectedResponse(document, log_messages.ResponseNotEnvelope)
	}
	body, err := envelope.locate("Body")
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, unexpectedResponse(document, log_messages.ResponseNotEnvelope)
	}
	return body, nil
}

func parseFault(document []byte, reader *spanReader) (*Fault, error) {
	var (
		fault                 Fault
		hasCode, hasFaultText bool
	)

	for {
		start, child, err := reader.nextChild()
		if err != nil {
			return nil, err
		}
		if child == nil {
			break
		}

		switch start.Name.Local {
		case "faultcode":
			if fault.FaultCode, err = child.leafText(); err != nil {
				return nil, err
			}
			hasCode = true
		case "faultstring":
			if fault.FaultString, err = child.leafText(); err != nil {
				return nil, err
			}
			hasFaultText = true
		case "faultactor":
			if fault.FaultActor, err = optionalLeaf(child); err != nil {
				return nil, err
			}
		case "detail":
			if fault.Detail, err = parseDetail(child); err != nil {
				return nil, err
			}
		default:
			// The server is breaking the SOAP 1.1 fault shape. Not fatal.
			logger.Warn(log_messages.UnexpectedFaultElement, zap.String("element", start.Name.Local))
		}
	}

	if !hasCode || !hasFaultText {
		return nil, unexpectedResponse(document, log_messages.FaultMissingMandatory)
	}
	return &fault, nil
}

func parseDetail(reader *spanReader) (*FaultDetail, error) {
	detail := &FaultDetail{}
	captured := false

	for {
		start, child, err := reader.nextChild()
		if err != nil {
			return nil, err
		}
		if child == nil {
			return detail, nil
		}

		switch start.Name.Local {
		case "ResponseCode":
			if detail.ResponseCode, err = optionalLeaf(child); err != nil {
				return nil, err
			}
		case "Message":
			if detail.Message, err = optionalLeaf(child); err != nil {
				return nil, err
			}
		case "MessageXml":
			if detail.MessageXML, err = parseMessageXML(child); err != nil {
				return nil, err
			}
		default:
			if captured {
				continue
			}
			logger.Debug(log_messages.UnexpectedDetailElement, zap.String("element", start.Name.Local))
			if detail.Content, err = reader.text(); err != nil {
				return nil, err
			}
			captured = true
		}
	}
}

func parseMessageXML(reader *spanReader) (*MessageXML, error) {
	content, err := reader.text()
	if err != nil {
		return nil, err
	}
	messageXML := &MessageXML{Content: content}

	for {
		tok, err := reader.dec.Token()
		if err != nil {
			if err == io.EOF {
				return messageXML, nil
			}
			return nil, xmlError(err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "Value" || !isBackOffValue(start) {
			continue
		}

		value, err := reader.scope()
		if err != nil {
			return nil, err
		}
		text, err := value.leafText()
		if err != nil {
			return nil, err
		}
		ms, err := strconv.ParseUint(strings.TrimSpace(text), 10, 64)
		if err != nil {
			logger.Warn(log_messages.InvalidBackOffHint, zap.String("value", text))
			continue
		}
		messageXML.BackOffMilliseconds = &ms
		return messageXML, nil
	}
}

func optionalLeaf(reader *spanReader) (*string, error) {
	text, err := reader.leafText()
	if err != nil {
		return nil, err
	}
	return &text, nil
}

func isBackOffValue(start xml.StartElement) bool {
	for _, attr := range start.Attr {
		if attr.Name.Local == "Name" && attr.Value == "BackOffMilliseconds" {
			return true
		}
	}
	return false
}

// MarshalXML writes the fault as a SOAP 1.1 soap:Fault element, so that
// Envelope[*Fault] renders a complete fault document.
func (f *Fault) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.EncodeElement(f.FaultCode, xml.StartElement{Name: xml.Name{Local: "faultcode"}}); err != nil {
		return err
	}
	if err := e.EncodeElement(f.FaultString, xml.StartElement{Name: xml.Name{Local: "faultstring"}}); err != nil {
		return err
	}
	if f.FaultActor != nil {
		if err := e.EncodeElement(*f.FaultActor, xml.StartElement{Name: xml.Name{Local: "faultactor"}}); err != nil {
			return err
		}
	}
	if f.Detail != nil {
		if err := f.Detail.marshal(e); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// BodyName places the fault directly inside soap:Body.
func (f *Fault) BodyName() xml.Name {
	return xml.Name{Local: "soap:Fault"}
}

func (d *FaultDetail) marshal(e *xml.Encoder) error {
	start := xml.StartElement{Name: xml.Name{Local: "detail"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	errorsNS := []xml.Attr{{Name: xml.Name{Local: "xmlns:e"}, Value: ErrorsNamespace}}
	if d.ResponseCode != nil {
		if err := e.EncodeElement(*d.ResponseCode, xml.StartElement{Name: xml.Name{Local: "e:ResponseCode"}, Attr: errorsNS}); err != nil {
			return err
		}
	}
	if d.Message != nil {
		if err := e.EncodeElement(*d.Message, xml.StartElement{Name: xml.Name{Local: "e:Message"}, Attr: errorsNS}); err != nil {
			return err
		}
	}
	if d.MessageXML != nil {
		content := d.MessageXML.Content
		if content == "" && d.MessageXML.BackOffMilliseconds != nil {
			content = fmt.Sprintf(`<t:Value Name="BackOffMilliseconds">%d</t:Value>`, *d.MessageXML.BackOffMilliseconds)
		}
		raw := struct {
			Inner string `xml:",innerxml"`
		}{Inner: content}
		if err := e.EncodeElement(raw, xml.StartElement{Name: xml.Name{Local: "t:MessageXml"}}); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}
