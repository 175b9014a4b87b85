package handlers

import (
	"encoding/xml"
	"net/http"

	"ewsclient/ews"
	"ewsclient/internal/app/middleware"
	"ewsclient/internal/pkg/config"
	"ewsclient/internal/pkg/log_messages"
	"ewsclient/internal/pkg/logger"
	"ewsclient/soap"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// MockFaultHeader forces the mock to answer with a canned fault.
	MockFaultHeader = "X-Mock-Fault"

	MockFaultServerBusy       = "ServerBusy"
	MockFaultSchemaValidation = "SchemaValidation"

	xmlContentType = "text/xml; charset=utf-8"
)

// EWSMockHandler answers EWS requests with canned documents so the client can
// be exercised without an Exchange server.
type EWSMockHandler struct {
	backOffMilliseconds uint64
}

func NewEWSMockHandler(cfg config.MockConfig) *EWSMockHandler {
	return &EWSMockHandler{backOffMilliseconds: cfg.BackOffMilliseconds}
}

func (h *EWSMockHandler) Exchange(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := c.GetRawData()
	if err != nil {
		logger.CtxError(ctx, log_messages.MockRequestRejected, err)
		writeFault(c, http.StatusBadRequest, invalidRequestFault("The request body could not be read."))
		return
	}

	operation, err := soap.BodyPayloadName(body)
	if err != nil {
		logger.CtxWarn(ctx, log_messages.MockRequestRejected, zap.Error(err))
		writeFault(c, http.StatusBadRequest, invalidRequestFault("The request is not a valid SOAP envelope."))
		return
	}

	switch c.GetHeader(MockFaultHeader) {
	case MockFaultServerBusy:
		writeFault(c, http.StatusInternalServerError, serverBusyFault(h.backOffMilliseconds))
		return
	case MockFaultSchemaValidation:
		writeFault(c, http.StatusInternalServerError, schemaValidationFault())
		return
	}

	c.Set(middleware.OperationKey, operation.Local)
	logger.CtxInfo(ctx, "mock endpoint serving operation", zap.String("operation", operation.Local))

	switch operation.Local {
	case "GetFolder":
		writeEnvelope(c, ews.GetFolderResponse{ResponseMessages: []ews.GetFolderResponseMessage{{
			ResponseMessage: successMessage(),
			Folders:         ews.Folders{Folders: []ews.Folder{inboxFolder()}},
		}}})
	case "DeleteFolder":
		writeEnvelope(c, ews.DeleteFolderResponse{ResponseMessages: []ews.DeleteFolderResponseMessage{{
			ResponseMessage: successMessage(),
		}}})
	case "GetItem":
		writeEnvelope(c, ews.GetItemResponse{ResponseMessages: []ews.GetItemResponseMessage{{
			ResponseMessage: successMessage(),
			Items:           ews.Items{Items: []ews.Item{sampleMessage("AAMkAGI2TG93AAA=")}},
		}}})
	case "MoveItem":
		writeEnvelope(c, ews.MoveItemResponse{ResponseMessages: []ews.MoveItemResponseMessage{{
			ResponseMessage: successMessage(),
			Items:           ews.Items{Items: []ews.Item{sampleMessage("AAMkAGI2TG94AAA=")}},
		}}})
	case "SyncFolderItems":
		writeEnvelope(c, ews.SyncFolderItemsResponse{ResponseMessages: []ews.SyncFolderItemsResponseMessage{{
			ResponseMessage:         successMessage(),
			SyncState:               "H4sIAAAAAAAEAO29B2AcSZYlJi9tynt/SvVK1+B0EQ==",
			IncludesLastItemInRange: true,
			Changes:                 sampleChanges(),
		}}})
	default:
		logger.CtxWarn(ctx, log_messages.MockUnknownOperation, zap.String("operation", operation.Local))
		writeFault(c, http.StatusInternalServerError, invalidRequestFault("The request is invalid."))
	}
}

func writeEnvelope[B soap.Payload](c *gin.Context, body B) {
	doc, err := soap.Envelope[B]{Body: body}.MarshalDocument()
	if err != nil {
		logger.CtxError(c.Request.Context(), "mock endpoint failed to render response", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, xmlContentType, doc)
}

func writeFault(c *gin.Context, status int, fault *soap.Fault) {
	doc, err := soap.Envelope[*soap.Fault]{Body: fault}.MarshalDocument()
	if err != nil {
		logger.CtxError(c.Request.Context(), "mock endpoint failed to render fault", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(status, xmlContentType, doc)
}

func successMessage() ews.ResponseMessage {
	return ews.ResponseMessage{ResponseClass: ews.ResponseClassSuccess, ResponseCode: "NoError"}
}

func inboxFolder() ews.Folder {
	total, children, unread := uint32(2), uint32(0), uint32(1)
	return ews.Folder{
		XMLName:          xml.Name{Local: "t:Folder"},
		FolderID:         ews.FolderID{ID: "AQMkADAwATM0MDAAMS1iNTcwLWI2NTEtMDACLTAwCgAuAAAD", ChangeKey: "AQAAABYAAAAA"},
		FolderClass:      "IPF.Note",
		DisplayName:      "Inbox",
		TotalCount:       &total,
		ChildFolderCount: &children,
		UnreadCount:      &unread,
	}
}

func sampleMessage(id string) ews.Item {
	return ews.Item{
		XMLName:   xml.Name{Local: "t:Message"},
		ItemID:    &ews.ItemID{ID: id, ChangeKey: "CQAAABYAAAAA"},
		ItemClass: "IPM.Note",
		Subject:   "Welcome to the mock mailbox",
	}
}

// sampleChanges returns one change of every kind.
func sampleChanges() ews.Changes {
	return ews.Changes{Changes: []ews.Change{
		{Kind: ews.ChangeCreate, Item: itemPtr(sampleMessage("AAMkAGI2TG95AAA="))},
		{Kind: ews.ChangeUpdate, Item: itemPtr(sampleMessage("AAMkAGI2TG93AAA="))},
		{Kind: ews.ChangeDelete, ItemID: &ews.ItemID{ID: "AAMkAGI2TG90AAA="}},
		{Kind: ews.ChangeReadFlagChange, ItemID: &ews.ItemID{ID: "AAMkAGI2TG91AAA="}, IsRead: true},
	}}
}

func itemPtr(item ews.Item) *ews.Item {
	return &item
}

func stringPtr(s string) *string {
	return &s
}

func fault(code, text string, detail *soap.FaultDetail) *soap.Fault {
	return &soap.Fault{FaultCode: "a:" + code, FaultString: text, Detail: detail}
}

func invalidRequestFault(text string) *soap.Fault {
	return fault("ErrorInvalidRequest", text, &soap.FaultDetail{
		ResponseCode: stringPtr("ErrorInvalidRequest"),
		Message:      stringPtr(text),
	})
}

func serverBusyFault(backOffMilliseconds uint64) *soap.Fault {
	const text = "The server cannot service this request right now. Try again later."
	return fault("ErrorServerBusy", text, &soap.FaultDetail{
		ResponseCode: stringPtr("ErrorServerBusy"),
		Message:      stringPtr(text),
		MessageXML:   &soap.MessageXML{BackOffMilliseconds: &backOffMilliseconds},
	})
}

func schemaValidationFault() *soap.Fault {
	return fault("ErrorSchemaValidation", "The request failed schema validation.", &soap.FaultDetail{
		ResponseCode: stringPtr("ErrorSchemaValidation"),
		Message:      stringPtr("The request failed schema validation."),
		MessageXML: &soap.MessageXML{
			Content: `<t:LineNumber>1</t:LineNumber><t:LinePosition>1</t:LinePosition><t:Violation>Mock schema violation.</t:Violation>`,
		},
	})
}
