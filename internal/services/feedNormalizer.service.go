package services

import (
	"bytes"
	"encoding/xml"
	"errors"
	"feedloader/internal/models"
	"fmt"
	"io"
	"strings"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/lib/pq"
	"golang.org/x/net/html/charset"
)

// GoogleMerchantNamespace is the namespace bound to the g: prefix in merchant feeds.
const GoogleMerchantNamespace = "http://base.google.com/ns/1.0"

// xmlElement keeps the raw prefix next to the resolved namespace. RSS fields match only
// unprefixed elements, so dc:title or atom:link never collide with title or link.
type xmlElement struct {
	name     xml.Name
	prefix   string
	text     strings.Builder
	children []*xmlElement
	// namespaces holds the prefix bindings in scope for this element.
	namespaces map[string]string
}

func (e *xmlElement) is(local string) bool {
	return e.prefix == "" && e.name.Local == local
}

func (e *xmlElement) isGoogle(local string) bool {
	return e.prefix != "" && e.name.Local == local && isGoogleSpace(e.name.Space)
}

func (e *xmlElement) child(local string) *xmlElement {
	for _, c := range e.children {
		if c.is(local) {
			return c
		}
	}
	return nil
}

// isGoogleSpace accepts the declared namespace URL and a literal g prefix left undeclared.
func isGoogleSpace(space string) bool {
	return space == GoogleMerchantNamespace || space == "g"
}

type itemField struct {
	tag      string
	local    string
	google   bool
	required bool
	list     bool
	assign   func(item *models.FeedItem, values []string)
}

func optional(values []string) *string {
	if len(values) == 0 || values[0] == "" {
		return nil
	}
	return &values[0]
}

// Field order is validation order.
var itemFields = []itemField{
	{tag: "g:id", local: "id", google: true, required: true, assign: func(i *models.FeedItem, v []string) { i.FeedItemID = v[0] }},
	{tag: "title", local: "title", required: true, assign: func(i *models.FeedItem, v []string) { i.Title = v[0] }},
	{tag: "description", local: "description", required: true, assign: func(i *models.FeedItem, v []string) { i.Description = v[0] }},
	{tag: "link", local: "link", required: true, assign: func(i *models.FeedItem, v []string) { i.Link = v[0] }},
	{tag: "g:image_link", local: "image_link", google: true, assign: func(i *models.FeedItem, v []string) { i.ImageLink = optional(v) }},
	{tag: "g:additional_image_link", local: "additional_image_link", google: true, list: true, assign: func(i *models.FeedItem, v []string) {
		if len(v) > 0 {
			i.AdditionalImageLink = pq.StringArray(v)
		}
	}},
	{tag: "g:price", local: "price", google: true, assign: func(i *models.FeedItem, v []string) { i.Price = optional(v) }},
	{tag: "g:condition", local: "condition", google: true, assign: func(i *models.FeedItem, v []string) { i.Condition = optional(v) }},
	{tag: "g:availability", local: "availability", google: true, assign: func(i *models.FeedItem, v []string) { i.Availability = optional(v) }},
	{tag: "g:brand", local: "brand", google: true, assign: func(i *models.FeedItem, v []string) { i.Brand = optional(v) }},
	{tag: "g:gtin", local: "gtin", google: true, assign: func(i *models.FeedItem, v []string) { i.GTIN = optional(v) }},
	{tag: "g:item_group_id", local: "item_group_id", google: true, assign: func(i *models.FeedItem, v []string) { i.ItemGroupID = optional(v) }},
	{tag: "g:sale_price", local: "sale_price", google: true, assign: func(i *models.FeedItem, v []string) { i.SalePrice = optional(v) }},
}

func (f itemField) matches(e *xmlElement) bool {
	if f.google {
		return e.isGoogle(f.local)
	}
	return e.is(f.local)
}

// FeedNormalizer turns an RSS merchant feed into unattached item records.
type FeedNormalizer struct {
	log logger.Logger
}

func NewFeedNormalizer() *FeedNormalizer {
	return &FeedNormalizer{
		log: logger.New("FeedNormalizer"),
	}
}

// Normalize reads rss > channel > item in document order. It fails with *ParsingError on a
// malformed document, a missing item list, or the first item lacking a required field.
func (n *FeedNormalizer) Normalize(document []byte) ([]models.FeedItem, error) {
	log := n.log.Function("Normalize")

	root, err := parseDocument(document)
	if err != nil {
		return nil, &ParsingError{Reason: ParsingReasonMalformed, Err: err}
	}

	itemElements, err := locateItems(root)
	if err != nil {
		return nil, err
	}

	items := make([]models.FeedItem, 0, len(itemElements))
	for idx, element := range itemElements {
		item, err := normalizeItem(element, idx+1)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	log.Debug("Normalized feed document", "items", len(items))
	return items, nil
}

func parseDocument(document []byte) (*xmlElement, error) {
	if len(bytes.TrimSpace(document)) == 0 {
		return nil, errors.New("empty document")
	}

	decoder := xml.NewDecoder(bytes.NewReader(document))
	decoder.CharsetReader = charset.NewReaderLabel

	var root *xmlElement
	var stack []*xmlElement

	for {
		// RawToken keeps prefixes as written; element nesting is checked here instead.
		token, err := decoder.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			var parent *xmlElement
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			} else if root != nil {
				return nil, fmt.Errorf("unexpected element <%s> after document element", t.Name.Local)
			}

			element := newXMLElement(t, parent)
			if parent == nil {
				root = element
			} else {
				parent.children = append(parent.children, element)
			}
			stack = append(stack, element)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected end element </%s>", rawName(t.Name))
			}
			open := stack[len(stack)-1]
			if open.prefix != t.Name.Space || open.name.Local != t.Name.Local {
				return nil, fmt.Errorf(
					"element <%s> closed by </%s>",
					rawName(xml.Name{Space: open.prefix, Local: open.name.Local}),
					rawName(t.Name),
				)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			} else if len(bytes.TrimSpace(t)) > 0 {
				return nil, errors.New("text outside document element")
			}
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("unexpected end of document inside <%s>", stack[len(stack)-1].name.Local)
	}

	if root == nil {
		return nil, errors.New("no document element")
	}

	return root, nil
}

// newXMLElement resolves the element prefix against the bindings in scope. An undeclared
// prefix resolves to itself.
func newXMLElement(start xml.StartElement, parent *xmlElement) *xmlElement {
	namespaces := map[string]string{}
	if parent != nil {
		namespaces = parent.namespaces
	}

	declared := false
	for _, attr := range start.Attr {
		if attr.Name.Space != "xmlns" {
			continue
		}
		if !declared {
			scoped := make(map[string]string, len(namespaces)+1)
			for prefix, space := range namespaces {
				scoped[prefix] = space
			}
			namespaces = scoped
			declared = true
		}
		namespaces[attr.Name.Local] = attr.Value
	}

	space := start.Name.Space
	if bound, ok := namespaces[space]; ok && space != "" {
		space = bound
	}

	return &xmlElement{
		name:       xml.Name{Space: space, Local: start.Name.Local},
		prefix:     start.Name.Space,
		namespaces: namespaces,
	}
}

func rawName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

func locateItems(root *xmlElement) ([]*xmlElement, error) {
	if !root.is("rss") {
		return nil, &ParsingError{
			Reason: ParsingReasonMissingItems,
			Err:    fmt.Errorf("unexpected root element <%s>", root.name.Local),
		}
	}

	channel := root.child("channel")
	if channel == nil {
		return nil, &ParsingError{Reason: ParsingReasonMissingItems, Err: errors.New("no channel element")}
	}

	var items []*xmlElement
	for _, c := range channel.children {
		if c.is("item") {
			items = append(items, c)
		}
	}

	if len(items) == 0 {
		return nil, &ParsingError{Reason: ParsingReasonMissingItems, Err: errors.New("no item elements")}
	}

	return items, nil
}

func normalizeItem(element *xmlElement, position int) (models.FeedItem, error) {
	var item models.FeedItem

	for _, field := range itemFields {
		var values []string
		for _, c := range element.children {
			if !field.matches(c) {
				continue
			}
			value := strings.TrimSpace(c.text.String())
			if field.list && value == "" {
				continue
			}
			values = append(values, value)
		}

		if !field.list && len(values) > 1 {
			return models.FeedItem{}, &ParsingError{
				Reason: ParsingReasonInvalidField,
				Field:  field.tag,
				Item:   position,
				Err:    fmt.Errorf("expected a single value, found %d", len(values)),
			}
		}

		if field.required && (len(values) == 0 || values[0] == "") {
			return models.FeedItem{}, &ParsingError{
				Reason: ParsingReasonInvalidField,
				Field:  field.tag,
				Item:   position,
			}
		}

		field.assign(&item, values)
	}

	return item, nil
}
