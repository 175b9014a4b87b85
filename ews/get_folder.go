package ews

import "encoding/xml"

// GetFolder requests information on one or more folders.
type GetFolder struct {
	FolderShape FolderShape    `xml:"FolderShape"`
	FolderIDs   []BaseFolderID `xml:"FolderIds>FolderId"`
}

func (GetFolder) BodyName() xml.Name { return messagesName("GetFolder") }

func (GetFolder) isOperation() {}

type GetFolderResponse struct {
	ResponseMessages []GetFolderResponseMessage `xml:"ResponseMessages>GetFolderResponseMessage"`
}

type GetFolderResponseMessage struct {
	ResponseMessage
	Folders Folders `xml:"Folders"`
}

func (GetFolderResponse) BodyName() xml.Name { return messagesName("GetFolderResponse") }

func (r GetFolderResponse) Messages() []ResponseMessage {
	messages := make([]ResponseMessage, 0, len(r.ResponseMessages))
	for _, m := range r.ResponseMessages {
		messages = append(messages, m.ResponseMessage)
	}
	return messages
}

func (GetFolderResponse) isOperationResponse() {}
