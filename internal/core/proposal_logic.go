package core

import (
	"errors"
	"fmt"
	"strings"
)

// SuggestedLine is one order line proposed by the intake assistant, named rather than keyed.
type SuggestedLine struct {
	Category    string `json:"category" jsonschema_description:"Product category name copied exactly from the provided category list, or empty if unknown"`
	ProductName string `json:"product_name" jsonschema_description:"Free-text product name as the customer described it"`
	Color       string `json:"color" jsonschema_description:"Color name copied exactly from the provided color list, or empty"`
	Size        string `json:"size" jsonschema_description:"Size name copied exactly from the provided size list, or empty"`
	Quantity    string `json:"quantity" jsonschema_description:"Quantity as a plain decimal string, e.g. '2'"`
	UnitPrice   string `json:"unit_price" jsonschema_description:"Unit price in the order currency as a plain decimal string, or empty if not stated"`
}

// DraftSuggestion is the structured output of the intake assistant. It only ever
// fills the in-progress draft; the user reviews and saves it like any other order.
type DraftSuggestion struct {
	IsClarificationRequest bool            `json:"is_clarification_request" jsonschema_description:"Set to true ONLY if the text does not describe any orderable item."`
	Clarification          string          `json:"clarification" jsonschema_description:"Question for the user when is_clarification_request is true, otherwise empty."`
	CustomerName           string          `json:"customer_name" jsonschema_description:"Customer name if stated, otherwise empty"`
	Phone                  string          `json:"phone" jsonschema_description:"Customer phone if stated, otherwise empty"`
	Address                string          `json:"address" jsonschema_description:"Delivery address if stated, otherwise empty"`
	Currency               string          `json:"currency" jsonschema_description:"One of USD, KHR, RMB if stated, otherwise empty"`
	Lines                  []SuggestedLine `json:"lines" jsonschema_description:"Order lines described in the text"`
}

// Normalize cleans up model output.
func (s *DraftSuggestion) Normalize() {
	trimAll(&s.Clarification, &s.CustomerName, &s.Phone, &s.Address, &s.Currency)
	s.Currency = strings.ToUpper(s.Currency)
	if !Currency(s.Currency).Valid() {
		s.Currency = ""
	}

	lines := s.Lines[:0]
	for _, l := range s.Lines {
		trimAll(&l.Category, &l.ProductName, &l.Color, &l.Size, &l.Quantity, &l.UnitPrice)
		if strings.EqualFold(l.Quantity, "null") {
			l.Quantity = ""
		}
		if strings.EqualFold(l.UnitPrice, "null") {
			l.UnitPrice = ""
		}
		if l.ProductName == "" {
			continue
		}
		lines = append(lines, l)
	}
	s.Lines = lines
}

// Validate checks that the suggestion is either a usable set of lines or a question.
func (s *DraftSuggestion) Validate() error {
	if s.IsClarificationRequest {
		if s.Clarification == "" {
			return errors.New("clarification request without a question")
		}
		return nil
	}
	if len(s.Lines) == 0 {
		return errors.New("suggestion contains no order lines")
	}
	for i, l := range s.Lines {
		if l.Quantity != "" && Num(l.Quantity).IsNegative() {
			return fmt.Errorf("line %d: negative quantity %q", i+1, l.Quantity)
		}
	}
	return nil
}

// Apply appends the suggested lines to d, resolving names against lists, and fills
// header fields that are still blank. It returns notes about names it could not resolve.
func (s *DraftSuggestion) Apply(d *OrderDraft, lists *ReferenceLists) []string {
	var notes []string

	fill := func(dst *string, v string) {
		if strings.TrimSpace(*dst) == "" && v != "" {
			*dst = v
		}
	}
	fill(&d.Header.CustomerName, s.CustomerName)
	fill(&d.Header.Phone, s.Phone)
	fill(&d.Header.Address, s.Address)
	if s.Currency != "" {
		d.Header.Currency = s.Currency
	}

	resolve := func(t RefTable, name, label string, line int) string {
		if name == "" {
			return ""
		}
		id := IDByName(lists.List(t), name)
		if id.IsZero() {
			notes = append(notes, fmt.Sprintf("line %d: unknown %s %q", line, label, name))
		}
		return id.String()
	}

	for _, l := range s.Lines {
		n := d.Len() + 1
		category := resolve(TableCategories, l.Category, "category", n)
		if category == "" {
			category = d.DefaultCategory.String()
		}
		d.Append(LineItem{
			CategoryID:  category,
			ProductName: l.ProductName,
			ColorID:     resolve(TableColors, l.Color, "color", n),
			SizeID:      resolve(TableSizes, l.Size, "size", n),
			Qty:         l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}
	return notes
}

// IDByName finds a row by case-insensitive name.
func IDByName(items []RefItem, name string) ID {
	name = strings.TrimSpace(name)
	for _, it := range items {
		if strings.EqualFold(it.Name, name) {
			return it.ID
		}
	}
	return ""
}
