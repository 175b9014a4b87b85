package ews

import "encoding/xml"

// GetItem requests one or more items.
type GetItem struct {
	ItemShape ItemShape    `xml:"ItemShape"`
	ItemIDs   []BaseItemID `xml:"ItemIds>ItemId"`
}

func (GetItem) BodyName() xml.Name { return messagesName("GetItem") }

func (GetItem) isOperation() {}

type GetItemResponse struct {
	ResponseMessages []GetItemResponseMessage `xml:"ResponseMessages>GetItemResponseMessage"`
}

type GetItemResponseMessage struct {
	ResponseMessage
	Items Items `xml:"Items"`
}

func (GetItemResponse) BodyName() xml.Name { return messagesName("GetItemResponse") }

func (r GetItemResponse) Messages() []ResponseMessage {
	messages := make([]ResponseMessage, 0, len(r.ResponseMessages))
	for _, m := range r.ResponseMessages {
		messages = append(messages, m.ResponseMessage)
	}
	return messages
}

func (GetItemResponse) isOperationResponse() {}
