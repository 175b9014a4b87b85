package ews

import (
	"encoding/xml"
	"fmt"
)

// BaseShape selects the base set of properties returned for a folder or item.
type BaseShape string

const (
	BaseShapeIDOnly        BaseShape = "IdOnly"
	BaseShapeDefault       BaseShape = "Default"
	BaseShapeAllProperties BaseShape = "AllProperties"
)

// MarshalText renders an unset shape as Default.
func (s BaseShape) MarshalText() ([]byte, error) {
	if s == "" {
		return []byte(BaseShapeDefault), nil
	}
	return []byte(s), nil
}

type FolderShape struct {
	BaseShape BaseShape `xml:"t:BaseShape"`
}

type ItemShape struct {
	BaseShape BaseShape `xml:"t:BaseShape"`
}

// FolderID is the identifier of a folder as returned by the server.
type FolderID struct {
	ID        string `xml:"Id,attr"`
	ChangeKey string `xml:"ChangeKey,attr,omitempty"`
}

// BaseFolderID selects a folder in a request, either by identifier or by its
// well-known name. Build it with FolderByID or DistinguishedFolder.
type BaseFolderID struct {
	XMLName xml.Name
	FolderID
}

func FolderByID(id, changeKey string) BaseFolderID {
	return BaseFolderID{XMLName: xml.Name{Local: "t:FolderId"}, FolderID: FolderID{ID: id, ChangeKey: changeKey}}
}

// DistinguishedFolder references a folder by name, e.g. "inbox" or "junkemail".
func DistinguishedFolder(name string) BaseFolderID {
	return BaseFolderID{XMLName: xml.Name{Local: "t:DistinguishedFolderId"}, FolderID: FolderID{ID: name}}
}

// ItemID is the identifier of an item as returned by the server.
type ItemID struct {
	ID        string `xml:"Id,attr"`
	ChangeKey string `xml:"ChangeKey,attr,omitempty"`
}

// BaseItemID selects an item in a request. Build it with ItemByID.
type BaseItemID struct {
	XMLName xml.Name
	ItemID
}

func ItemByID(id, changeKey string) BaseItemID {
	return BaseItemID{XMLName: xml.Name{Local: "t:ItemId"}, ItemID: ItemID{ID: id, ChangeKey: changeKey}}
}

var folderKinds = map[string]bool{
	"Folder":         true,
	"CalendarFolder": true,
	"ContactsFolder": true,
	"SearchFolder":   true,
	"TasksFolder":    true,
}

// Folder is any of the folder elements. XMLName.Local holds the kind.
type Folder struct {
	XMLName          xml.Name
	FolderID         FolderID  `xml:"FolderId"`
	ParentFolderID   *FolderID `xml:"ParentFolderId"`
	FolderClass      string    `xml:"FolderClass,omitempty"`
	DisplayName      string    `xml:"DisplayName,omitempty"`
	TotalCount       *uint32   `xml:"TotalCount"`
	ChildFolderCount *uint32   `xml:"ChildFolderCount"`
	UnreadCount      *uint32   `xml:"UnreadCount"`
}

func (f Folder) Kind() string {
	return f.XMLName.Local
}

type Folders struct {
	Folders []Folder `xml:",any"`
}

// UnmarshalXML fails on folder kinds it does not know.
func (f *Folders) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if !folderKinds[t.Name.Local] {
				return fmt.Errorf("ews: unknown folder kind %q", t.Name.Local)
			}
			var folder Folder
			if err := d.DecodeElement(&folder, &t); err != nil {
				return err
			}
			f.Folders = append(f.Folders, folder)
		case xml.EndElement:
			return nil
		}
	}
}

// Item is any of the item elements (Message, CalendarItem, Contact...).
// Only the properties common to all kinds are decoded.
type Item struct {
	XMLName        xml.Name
	ItemID         *ItemID   `xml:"ItemId"`
	ParentFolderID *FolderID `xml:"ParentFolderId"`
	ItemClass      string    `xml:"ItemClass,omitempty"`
	Subject        string    `xml:"Subject,omitempty"`
}

func (i Item) Kind() string {
	return i.XMLName.Local
}

type Items struct {
	Items []Item `xml:",any"`
}
