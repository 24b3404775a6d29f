package models

import (
	"github.com/lib/pq"
)

// FeedItem is one catalog entry extracted from a feed upload. Column names are shared
// with data written by earlier versions of the service and must not change.
type FeedItem struct {
	ID                  int            `gorm:"column:id;primaryKey;autoIncrement"       json:"id,omitempty"`
	FeedUploadID        int            `gorm:"column:feed_upload_id;not null;index"     json:"feed_upload_id"`
	FeedItemID          string         `gorm:"column:feed_item_id;not null"             json:"feed_item_id"`
	Title               string         `gorm:"column:title;not null"                    json:"title"`
	Description         string         `gorm:"column:description;not null"              json:"description"`
	Link                string         `gorm:"column:link;not null"                     json:"link"`
	ImageLink           *string        `gorm:"column:image_link"                        json:"image_link,omitempty"`
	AdditionalImageLink pq.StringArray `gorm:"column:additional_image_link;type:text[]" json:"additional_image_link,omitempty"`
	Price               *string        `gorm:"column:price"                             json:"price,omitempty"`
	Condition           *string        `gorm:"column:condition"                         json:"condition,omitempty"`
	Availability        *string        `gorm:"column:availability"                      json:"availability,omitempty"`
	Brand               *string        `gorm:"column:brand"                             json:"brand,omitempty"`
	GTIN                *string        `gorm:"column:gtin"                              json:"gtin,omitempty"`
	ItemGroupID         *string        `gorm:"column:item_group_id"                     json:"item_group_id,omitempty"`
	SalePrice           *string        `gorm:"column:sale_price"                        json:"sale_price,omitempty"`
}

func (FeedItem) TableName() string {
	return "feed_items"
}

// ImageIDs returns the primary image followed by the additional images.
func (i *FeedItem) ImageIDs() []string {
	ids := make([]string, 0, 1+len(i.AdditionalImageLink))
	if i.ImageLink != nil {
		ids = append(ids, *i.ImageLink)
	}
	return append(ids, i.AdditionalImageLink...)
}
