package ews

import "encoding/xml"

// DeleteType controls how a folder or item is removed.
type DeleteType string

const (
	DeleteTypeHardDelete         DeleteType = "HardDelete"
	DeleteTypeSoftDelete         DeleteType = "SoftDelete"
	DeleteTypeMoveToDeletedItems DeleteType = "MoveToDeletedItems"
)

// DeleteFolder removes one or more folders.
type DeleteFolder struct {
	DeleteType DeleteType     `xml:"DeleteType,attr"`
	FolderIDs  []BaseFolderID `xml:"FolderIds>FolderId"`
}

func (DeleteFolder) BodyName() xml.Name { return messagesName("DeleteFolder") }

func (DeleteFolder) isOperation() {}

type DeleteFolderResponse struct {
	ResponseMessages []DeleteFolderResponseMessage `xml:"ResponseMessages>DeleteFolderResponseMessage"`
}

type DeleteFolderResponseMessage struct {
	ResponseMessage
}

func (DeleteFolderResponse) BodyName() xml.Name { return messagesName("DeleteFolderResponse") }

func (r DeleteFolderResponse) Messages() []ResponseMessage {
	messages := make([]ResponseMessage, 0, len(r.ResponseMessages))
	for _, m := range r.ResponseMessages {
		messages = append(messages, m.ResponseMessage)
	}
	return messages
}

func (DeleteFolderResponse) isOperationResponse() {}
