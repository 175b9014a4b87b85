package soap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"ewsclient/internal/pkg/log_messages"

	"golang.org/x/net/html/charset"
)

// spanReader walks the tokens of doc[start:end]. Child readers share doc and
// are scoped to the content of one element; the bytes are only copied when a
// span is turned into a string.
type spanReader struct {
	doc   []byte
	start int
	end   int
	dec   *xml.Decoder
}

// newDocumentReader returns a reader over a whole response. A document
// declaring a non UTF-8 encoding is transcoded once up front so that all span
// offsets refer to UTF-8 bytes.
func newDocumentReader(document []byte) (*spanReader, error) {
	doc, err := toUTF8(document)
	if err != nil {
		return nil, err
	}
	return newSpanReader(doc, 0, len(doc)), nil
}

func newSpanReader(doc []byte, start, end int) *spanReader {
	dec := xml.NewDecoder(bytes.NewReader(doc[start:end]))
	// Content is UTF-8 by the time it reaches the tokenizer.
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	return &spanReader{doc: doc, start: start, end: end, dec: dec}
}

// locate skips ahead to the next element named localName at any depth and
// returns a reader over its content. A nil reader means the span ended first.
func (r *spanReader) locate(localName string) (*spanReader, error) {
	for {
		tok, err := r.dec.Token()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, xmlError(err)
		}
		if start, ok := tok.(xml.StartElement); ok && start.Name.Local == localName {
			return r.scope()
		}
	}
}

// nextChild returns the next element start together with a reader over its
// content. Since each child is skipped in full, repeated calls enumerate the
// direct children of the span.
func (r *spanReader) nextChild() (xml.StartElement, *spanReader, error) {
	for {
		tok, err := r.dec.Token()
		if err == io.EOF {
			return xml.StartElement{}, nil, nil
		}
		if err != nil {
			return xml.StartElement{}, nil, xmlError(err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			child, err := r.scope()
			if err != nil {
				return xml.StartElement{}, nil, err
			}
			return start.Copy(), child, nil
		}
	}
}

// scope must be called right after a StartElement has been read. It
// fast-forwards past the matching end tag and returns a reader over the bytes
// in between.
func (r *spanReader) scope() (*spanReader, error) {
	contentStart := r.start + int(r.dec.InputOffset())
	if err := r.dec.Skip(); err != nil {
		return nil, xmlError(err)
	}
	consumed := r.start + int(r.dec.InputOffset())

	// The end tag is the last '<' of what Skip consumed. Self-closing
	// elements consume nothing and yield an empty span.
	contentEnd := contentStart
	if i := bytes.LastIndexByte(r.doc[contentStart:consumed], '<'); i >= 0 {
		contentEnd = contentStart + i
	}
	return newSpanReader(r.doc, contentStart, contentEnd), nil
}

// text returns the raw span as a string.
func (r *spanReader) text() (string, error) {
	span := r.doc[r.start:r.end]
	if !utf8.Valid(span) {
		return "", &Error{Kind: KindXML, Message: log_messages.InvalidUTF8Span}
	}
	return string(span), nil
}

// leafText returns the character data of the span with entities resolved.
// It uses a fresh tokenizer so the receiver's position is untouched.
func (r *spanReader) leafText() (string, error) {
	if _, err := r.text(); err != nil {
		return "", err
	}
	inner := newSpanReader(r.doc, r.start, r.end)
	var sb strings.Builder
	for {
		tok, err := inner.dec.Token()
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return "", xmlError(err)
		}
		if data, ok := tok.(xml.CharData); ok {
			sb.Write(data)
		}
	}
}

// toUTF8 honours the encoding named in the XML declaration.
func toUTF8(document []byte) ([]byte, error) {
	label := declaredEncoding(document)
	if label == "" || strings.EqualFold(label, "utf-8") || strings.EqualFold(label, "utf8") {
		return document, nil
	}
	enc, _ := charset.Lookup(label)
	if enc == nil {
		return nil, &Error{Kind: KindXML, Message: fmt.Sprintf(log_messages.UnsupportedCharset, label)}
	}
	converted, err := enc.NewDecoder().Bytes(document)
	if err != nil {
		return nil, xmlError(err)
	}
	return converted, nil
}

// declaredEncoding extracts the encoding pseudo-attribute of a leading
// <?xml ...?> declaration.
func declaredEncoding(document []byte) string {
	doc := bytes.TrimLeft(document, "\xef\xbb\xbf \t\r\n")
	if !bytes.HasPrefix(doc, []byte("<?xml")) {
		return ""
	}
	end := bytes.Index(doc, []byte("?>"))
	if end < 0 {
		return ""
	}
	decl := string(doc[len("<?xml"):end])
	idx := strings.Index(decl, "encoding")
	if idx < 0 {
		return ""
	}
	rest := strings.TrimLeft(decl[idx+len("encoding"):], " \t\r\n")
	if !strings.HasPrefix(rest, "=") {
		return ""
	}
	rest = strings.TrimLeft(rest[1:], " \t\r\n")
	if rest == "" || (rest[0] != '"' && rest[0] != '\'') {
		return ""
	}
	quote := rest[0]
	rest = rest[1:]
	if closing := strings.IndexByte(rest, quote); closing >= 0 {
		return rest[:closing]
	}
	return ""
}
