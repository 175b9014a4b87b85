package soap

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMessagesNamespace = "urn:test:messages"

type ping struct {
	Target string   `xml:"t:Target"`
	Tags   []string `xml:"t:Tags>t:Tag"`
}

func (ping) BodyName() xml.Name {
	return xml.Name{Space: testMessagesNamespace, Local: "Ping"}
}

type pingResponse struct {
	Message string `xml:"Message"`
	Count   int    `xml:"Count"`
}

func (pingResponse) BodyName() xml.Name {
	return xml.Name{Space: testMessagesNamespace, Local: "PingResponse"}
}

type brokenPayload struct {
	Channel chan int
}

func (brokenPayload) BodyName() xml.Name {
	return xml.Name{Local: "Broken"}
}

func responseDocument(body string) []byte {
	return []byte(`<?xml version="1.0" encoding="utf-8"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Header><h:ServerVersionInfo xmlns:h="http://schemas.microsoft.com/exchange/services/2006/types" MajorVersion="15"/></s:Header><s:Body>` +
		body + `</s:Body></s:Envelope>`)
}

func TestEnvelope_MarshalDocument(t *testing.T) {
	doc, err := Envelope[ping]{Body: ping{Target: "mailbox", Tags: []string{"a", "b"}}}.MarshalDocument()
	require.NoError(t, err)

	expected := `<?xml version="1.0" encoding="utf-8"?>` +
		`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/" xmlns:t="http://schemas.microsoft.com/exchange/services/2006/types">` +
		`<soap:Body><Ping xmlns="urn:test:messages"><t:Target>mailbox</t:Target><t:Tags><t:Tag>a</t:Tag><t:Tag>b</t:Tag></t:Tags></Ping></soap:Body>` +
		`</soap:Envelope>`
	assert.Equal(t, expected, string(doc))
}

func TestEnvelope_MarshalDocumentSerializeError(t *testing.T) {
	_, err := Envelope[brokenPayload]{Body: brokenPayload{Channel: make(chan int)}}.MarshalDocument()
	require.ErrorIs(t, err, ErrSerialize)
	assert.Contains(t, err.Error(), "Broken")
}

func TestEnvelope_EncodedDocumentHasNoFault(t *testing.T) {
	payloads := []ping{
		{},
		{Target: "x"},
		{Target: "<Fault>&</Fault>", Tags: []string{"Fault", "soap:Fault"}},
	}
	for _, p := range payloads {
		doc, err := Envelope[ping]{Body: p}.MarshalDocument()
		require.NoError(t, err)

		fault, err := ExtractFault(doc)
		require.NoError(t, err)
		assert.Nil(t, fault)

		name, err := BodyPayloadName(doc)
		require.NoError(t, err)
		assert.Equal(t, xml.Name{Space: testMessagesNamespace, Local: "Ping"}, name)
	}
}

func TestDecodeEnvelope_TypedResponse(t *testing.T) {
	doc := responseDocument(`<m:PingResponse xmlns:m="urn:test:messages"><m:Message>pong</m:Message><m:Count>3</m:Count></m:PingResponse>`)

	env, err := DecodeEnvelope[pingResponse](doc)
	require.NoError(t, err)
	require.NotNil(t, env)
	assert.Equal(t, pingResponse{Message: "pong", Count: 3}, env.Body)
}

func TestDecodeEnvelope_FaultTakesPrecedence(t *testing.T) {
	tests := map[string][]byte{
		"fault only":               []byte(serverBusyFault),
		"fault with response":      responseDocument(`<m:PingResponse xmlns:m="urn:test:messages"><m:Message>pong</m:Message></m:PingResponse><s:Fault><faultcode>a:ErrorServerBusy</faultcode><faultstring>busy</faultstring></s:Fault>`),
		"fault before bad payload": responseDocument(`<s:Fault><faultcode>a:ErrorServerBusy</faultcode><faultstring>busy</faultstring></s:Fault><m:PingResponse xmlns:m="urn:test:messages"><m:Count>NaN</m:Count></m:PingResponse>`),
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			env, err := DecodeEnvelope[pingResponse](doc)
			assert.Nil(t, env)
			require.ErrorIs(t, err, ErrRequestFault)
			assert.NotErrorIs(t, err, ErrDeserialize)

			fault, ok := AsFault(err)
			require.True(t, ok)
			assert.Equal(t, "a:ErrorServerBusy", fault.FaultCode)
		})
	}
}

func TestDecodeEnvelope_SchemaValidationFault(t *testing.T) {
	_, err := DecodeEnvelope[pingResponse]([]byte(schemaValidationFault))
	fault, ok := AsFault(err)
	require.True(t, ok)
	assert.Nil(t, fault.FaultActor)
	require.NotNil(t, fault.Detail)
	assert.Equal(t, strPtr("ErrorSchemaValidation"), fault.Detail.ResponseCode)
	require.NotNil(t, fault.Detail.MessageXML)
	assert.Nil(t, fault.Detail.MessageXML.BackOffMilliseconds)
}

func TestDecodeEnvelope_MissingBody(t *testing.T) {
	doc := []byte(`<?xml version="1.0" encoding="utf-8"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Header/></s:Envelope>`)
	_, err := DecodeEnvelope[pingResponse](doc)
	require.ErrorIs(t, err, ErrUnexpectedResponse)

	var soapErr *Error
	require.ErrorAs(t, err, &soapErr)
	assert.Equal(t, doc, soapErr.Document)
	assert.Equal(t, string(KindUnexpectedResponse), soapErr.ErrorCode())
}

func TestDecodeEnvelope_DeserializeErrors(t *testing.T) {
	tests := map[string][]byte{
		"wrong payload":   responseDocument(`<m:OtherResponse xmlns:m="urn:test:messages"/>`),
		"wrong namespace": responseDocument(`<m:PingResponse xmlns:m="urn:other"/>`),
		"bad field":       responseDocument(`<m:PingResponse xmlns:m="urn:test:messages"><m:Count>many</m:Count></m:PingResponse>`),
		"empty body":      responseDocument(``),
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeEnvelope[pingResponse](doc)
			assert.ErrorIs(t, err, ErrDeserialize)
		})
	}
}

func TestDecodeEnvelope_MalformedXML(t *testing.T) {
	doc := responseDocument(`<m:PingResponse xmlns:m="urn:test:messages"><m:Message>pong</m:PingResponse>`)
	_, err := DecodeEnvelope[pingResponse](doc)
	assert.ErrorIs(t, err, ErrXML)
}

func TestDecodeEnvelope_DeclaredCharset(t *testing.T) {
	doc := []byte("<?xml version=\"1.0\" encoding=\"windows-1252\"?><s:Envelope xmlns:s=\"http://schemas.xmlsoap.org/soap/envelope/\"><s:Body>" +
		"<PingResponse xmlns=\"urn:test:messages\"><Message>na\xefve</Message></PingResponse></s:Body></s:Envelope>")
	env, err := DecodeEnvelope[pingResponse](doc)
	require.NoError(t, err)
	assert.Equal(t, "naïve", env.Body.Message)
}

func TestError_Messages(t *testing.T) {
	cause := errors.New("boom")

	err := serializeError(cause)
	assert.Equal(t, "failed to serialize structure as XML: boom", err.Error())
	assert.ErrorIs(t, err, cause)

	faultErr := requestFault(&Fault{FaultCode: "a:ErrorServerBusy", FaultString: "busy"})
	assert.Equal(t, "request resulted in a SOAP fault: a:ErrorServerBusy: busy", faultErr.Error())

	wrapped := fmt.Errorf("get folder: %w", faultErr)
	assert.ErrorIs(t, wrapped, ErrRequestFault)
	fault, ok := AsFault(wrapped)
	require.True(t, ok)
	assert.Equal(t, "busy", fault.FaultString)

	_, ok = AsFault(deserializeError(cause))
	assert.False(t, ok)
	_, ok = AsFault(cause)
	assert.False(t, ok)
}

func TestError_XMLErrorKeepsExistingKind(t *testing.T) {
	inner := unexpectedResponse([]byte("<a/>"), "missing")
	assert.Same(t, inner, xmlError(inner))

	err := xmlError(&xml.SyntaxError{Msg: "unexpected EOF", Line: 1})
	assert.ErrorIs(t, err, ErrXML)
	assert.True(t, strings.HasPrefix(err.Error(), "error manipulating XML data"))
}

func TestError_UnexpectedResponseCopiesDocument(t *testing.T) {
	doc := []byte("<nope/>")
	err := unexpectedResponse(doc, "missing")
	doc[1] = 'X'

	var soapErr *Error
	require.ErrorAs(t, err, &soapErr)
	assert.Equal(t, []byte("<nope/>"), soapErr.Document)
	assert.Equal(t, "missing", soapErr.Error())
}
