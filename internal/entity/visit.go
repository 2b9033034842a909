package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Headers maps a request header name to its values. A header with a single
// value is stored as a plain string, a repeated header as a list.
type Headers map[string][]string

func (h Headers) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(h))
	for name, values := range h {
		if len(values) == 1 {
			doc[name] = values[0]
			continue
		}
		doc[name] = values
	}
	return json.Marshal(doc)
}

func (h *Headers) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	out := make(Headers, len(doc))
	for name, raw := range doc {
		var single string
		if err := json.Unmarshal(raw, &single); err == nil {
			out[name] = []string{single}
			continue
		}

		var multi []string
		if err := json.Unmarshal(raw, &multi); err != nil {
			return fmt.Errorf("header %q: %w", name, err)
		}
		out[name] = multi
	}

	*h = out
	return nil
}

// Visit records a single resolution of a short link.
type Visit struct {
	Item
	ShortCode      string              // ShortCode is the code that was resolved.
	RequestHeaders Headers             // RequestHeaders are the headers of the resolving request.
	RequestQueries map[string][]string // RequestQueries are the query parameters of the resolving request.

	urlID uuid.UUID
}

// NewVisit returns an empty visit record bound to the Visit collection.
func NewVisit() *Visit {
	return &Visit{Item: Item{collection: CollectionVisit}}
}

// SetCollection accepts only the Visit collection.
func (v *Visit) SetCollection(c Collection) error {
	return v.setCollection(c, CollectionVisit)
}

// URLID returns the id of the URL record this visit belongs to.
func (v *Visit) URLID() uuid.UUID {
	return v.urlID
}

func (v *Visit) SetURLID(id uuid.UUID) error {
	if id == uuid.Nil {
		return &ValidationError{Field: "urlId", Reason: "url id must not be empty"}
	}
	v.urlID = id
	return nil
}

// PartitionKey returns the collection name. All visits share one partition.
func (v *Visit) PartitionKey() string {
	return CollectionVisit.String()
}

func (v *Visit) LookupCode() string {
	return v.ShortCode
}

type visitDocument struct {
	ID             uuid.UUID           `json:"id"`
	Collection     Collection          `json:"collection"`
	URLID          uuid.UUID           `json:"urlId"`
	ShortCode      string              `json:"shortCode"`
	DateGenerated  time.Time           `json:"dateGenerated"`
	RequestHeaders Headers             `json:"requestHeaders"`
	RequestQueries map[string][]string `json:"requestQueries"`
}

func (v *Visit) MarshalJSON() ([]byte, error) {
	switch {
	case v.id == uuid.Nil:
		return nil, &SerializationError{Field: "id"}
	case !v.collection.Valid():
		return nil, &SerializationError{Field: "collection"}
	case v.urlID == uuid.Nil:
		return nil, &SerializationError{Field: "urlId"}
	case v.ShortCode == "":
		return nil, &SerializationError{Field: "shortCode"}
	case v.dateGenerated.IsZero():
		return nil, &SerializationError{Field: "dateGenerated"}
	}

	headers := v.RequestHeaders
	if headers == nil {
		headers = Headers{}
	}
	queries := v.RequestQueries
	if queries == nil {
		queries = map[string][]string{}
	}

	return json.Marshal(visitDocument{
		ID:             v.id,
		Collection:     v.collection,
		URLID:          v.urlID,
		ShortCode:      v.ShortCode,
		DateGenerated:  v.dateGenerated,
		RequestHeaders: headers,
		RequestQueries: queries,
	})
}

func (v *Visit) UnmarshalJSON(data []byte) error {
	var doc visitDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	switch {
	case doc.ID == uuid.Nil:
		return &SerializationError{Field: "id"}
	case doc.Collection == CollectionNone:
		return &SerializationError{Field: "collection"}
	case doc.URLID == uuid.Nil:
		return &SerializationError{Field: "urlId"}
	case doc.ShortCode == "":
		return &SerializationError{Field: "shortCode"}
	case doc.DateGenerated.IsZero():
		return &SerializationError{Field: "dateGenerated"}
	}

	if doc.Collection != CollectionVisit {
		return &ValidationError{Field: "collection", Reason: "visit record must belong to the Visit collection"}
	}

	var out Visit
	if err := out.SetID(doc.ID); err != nil {
		return err
	}
	if err := out.SetCollection(doc.Collection); err != nil {
		return err
	}
	if err := out.SetURLID(doc.URLID); err != nil {
		return err
	}
	if err := out.SetDateGenerated(doc.DateGenerated); err != nil {
		return err
	}

	out.ShortCode = doc.ShortCode
	out.RequestHeaders = doc.RequestHeaders
	out.RequestQueries = doc.RequestQueries

	*v = out
	return nil
}
