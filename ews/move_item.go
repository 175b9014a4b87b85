package ews

import "encoding/xml"

// MoveItem moves items into another folder.
type MoveItem struct {
	ToFolderID BaseFolderID `xml:"ToFolderId>FolderId"`
	ItemIDs    []BaseItemID `xml:"ItemIds>ItemId"`
}

func (MoveItem) BodyName() xml.Name { return messagesName("MoveItem") }

func (MoveItem) isOperation() {}

// MoveItemResponse lists the moved items under their new identifiers.
type MoveItemResponse struct {
	ResponseMessages []MoveItemResponseMessage `xml:"ResponseMessages>MoveItemResponseMessage"`
}

type MoveItemResponseMessage struct {
	ResponseMessage
	Items Items `xml:"Items"`
}

func (MoveItemResponse) BodyName() xml.Name { return messagesName("MoveItemResponse") }

func (r MoveItemResponse) Messages() []ResponseMessage {
	messages := make([]ResponseMessage, 0, len(r.ResponseMessages))
	for _, m := range r.ResponseMessages {
		messages = append(messages, m.ResponseMessage)
	}
	return messages
}

func (MoveItemResponse) isOperationResponse() {}
