package ews

import (
	"encoding/xml"
	"fmt"
)

// SyncScope selects whether folder associated items are synchronized too.
type SyncScope string

const (
	SyncScopeNormalItems              SyncScope = "NormalItems"
	SyncScopeNormalAndAssociatedItems SyncScope = "NormalAndAssociatedItems"
)

// SyncFolderItems requests the item changes of a folder since SyncState.
// An empty SyncState starts from scratch.
type SyncFolderItems struct {
	ItemShape          ItemShape    `xml:"ItemShape"`
	SyncFolderID       BaseFolderID `xml:"SyncFolderId>FolderId"`
	SyncState          string       `xml:"SyncState,omitempty"`
	Ignore             *IgnoreItems `xml:"Ignore"`
	MaxChangesReturned uint16       `xml:"MaxChangesReturned"`
	SyncScope          SyncScope    `xml:"SyncScope,omitempty"`
}

// IgnoreItems lists items whose changes must not be reported.
type IgnoreItems struct {
	ItemIDs []BaseItemID `xml:"ItemId"`
}

func (SyncFolderItems) BodyName() xml.Name { return messagesName("SyncFolderItems") }

func (SyncFolderItems) isOperation() {}

type SyncFolderItemsResponse struct {
	ResponseMessages []SyncFolderItemsResponseMessage `xml:"ResponseMessages>SyncFolderItemsResponseMessage"`
}

type SyncFolderItemsResponseMessage struct {
	ResponseMessage
	SyncState               string  `xml:"SyncState"`
	IncludesLastItemInRange bool    `xml:"IncludesLastItemInRange"`
	Changes                 Changes `xml:"Changes"`
}

func (SyncFolderItemsResponse) BodyName() xml.Name { return messagesName("SyncFolderItemsResponse") }

func (r SyncFolderItemsResponse) Messages() []ResponseMessage {
	messages := make([]ResponseMessage, 0, len(r.ResponseMessages))
	for _, m := range r.ResponseMessages {
		messages = append(messages, m.ResponseMessage)
	}
	return messages
}

func (SyncFolderItemsResponse) isOperationResponse() {}

type ChangeKind string

const (
	ChangeCreate         ChangeKind = "Create"
	ChangeUpdate         ChangeKind = "Update"
	ChangeDelete         ChangeKind = "Delete"
	ChangeReadFlagChange ChangeKind = "ReadFlagChange"
)

// Change is one entry of a synchronization batch. Create and Update carry
// Item; Delete and ReadFlagChange carry ItemID, the latter also IsRead.
type Change struct {
	Kind   ChangeKind
	Item   *Item
	ItemID *ItemID
	IsRead bool
}

type Changes struct {
	Changes []Change
}

// UnmarshalXML rejects change kinds it does not know and changes missing
// their mandatory content.
func (c *Changes) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			change, err := decodeChange(d, t)
			if err != nil {
				return err
			}
			c.Changes = append(c.Changes, change)
		case xml.EndElement:
			return nil
		}
	}
}

func decodeChange(d *xml.Decoder, start xml.StartElement) (Change, error) {
	kind := ChangeKind(start.Name.Local)
	switch kind {
	case ChangeCreate, ChangeUpdate:
		var v struct {
			Items []Item `xml:",any"`
		}
		if err := d.DecodeElement(&v, &start); err != nil {
			return Change{}, err
		}
		if len(v.Items) != 1 {
			return Change{}, fmt.Errorf("ews: %s change holds %d items, want 1", kind, len(v.Items))
		}
		return Change{Kind: kind, Item: &v.Items[0]}, nil
	case ChangeDelete:
		var v struct {
			ItemID *ItemID `xml:"ItemId"`
		}
		if err := d.DecodeElement(&v, &start); err != nil {
			return Change{}, err
		}
		if v.ItemID == nil {
			return Change{}, fmt.Errorf("ews: %s change without ItemId", kind)
		}
		return Change{Kind: kind, ItemID: v.ItemID}, nil
	case ChangeReadFlagChange:
		var v struct {
			ItemID *ItemID `xml:"ItemId"`
			IsRead *bool   `xml:"IsRead"`
		}
		if err := d.DecodeElement(&v, &start); err != nil {
			return Change{}, err
		}
		if v.ItemID == nil || v.IsRead == nil {
			return Change{}, fmt.Errorf("ews: %s change without ItemId or IsRead", kind)
		}
		return Change{Kind: kind, ItemID: v.ItemID, IsRead: *v.IsRead}, nil
	default:
		return Change{}, fmt.Errorf("ews: unknown change kind %q", start.Name.Local)
	}
}

func (c Changes) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, change := range c.Changes {
		if err := encodeChange(e, change); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

func encodeChange(e *xml.Encoder, change Change) error {
	start := xml.StartElement{Name: xml.Name{Local: "t:" + string(change.Kind)}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	switch change.Kind {
	case ChangeCreate, ChangeUpdate:
		if change.Item == nil {
			return fmt.Errorf("ews: %s change without item", change.Kind)
		}
		if err := e.EncodeElement(change.Item, xml.StartElement{Name: change.Item.XMLName}); err != nil {
			return err
		}
	case ChangeDelete, ChangeReadFlagChange:
		if change.ItemID == nil {
			return fmt.Errorf("ews: %s change without item id", change.Kind)
		}
		if err := e.EncodeElement(change.ItemID, xml.StartElement{Name: xml.Name{Local: "t:ItemId"}}); err != nil {
			return err
		}
		if change.Kind == ChangeReadFlagChange {
			if err := e.EncodeElement(change.IsRead, xml.StartElement{Name: xml.Name{Local: "t:IsRead"}}); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("ews: unknown change kind %q", change.Kind)
	}
	return e.EncodeToken(start.End())
}
