// Package entity defines the records persisted by the short-link service and
// the errors shared across layers. Both records live in one partitioned
// document store and are told apart by their collection.
package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Collection discriminates the record kinds stored side by side.
type Collection int

const (
	CollectionNone Collection = iota
	CollectionURL
	CollectionVisit
)

func (c Collection) String() string {
	switch c {
	case CollectionURL:
		return "Url"
	case CollectionVisit:
		return "Visit"
	default:
		return "None"
	}
}

// Valid reports whether c names a storable collection.
func (c Collection) Valid() bool {
	return c == CollectionURL || c == CollectionVisit
}

func (c Collection) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, &ValidationError{Field: "collection", Reason: "collection is not set"}
	}
	return []byte(c.String()), nil
}

func (c *Collection) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Url":
		*c = CollectionURL
	case "Visit":
		*c = CollectionVisit
	default:
		return &ValidationError{Field: "collection", Reason: fmt.Sprintf("unknown collection %q", text)}
	}
	return nil
}

// Document is the store-facing view of a record.
type Document interface {
	json.Marshaler
	ID() uuid.UUID
	Collection() Collection
	PartitionKey() string
	LookupCode() string
	DateGenerated() time.Time
}

// Item holds the fields shared by every stored record. Setters reject values
// that would leave the record in an invalid state.
type Item struct {
	id            uuid.UUID
	collection    Collection
	dateGenerated time.Time
}

func (i *Item) ID() uuid.UUID {
	return i.id
}

func (i *Item) SetID(id uuid.UUID) error {
	if id == uuid.Nil {
		return &ValidationError{Field: "id", Reason: "id must not be empty"}
	}
	i.id = id
	return nil
}

func (i *Item) Collection() Collection {
	return i.collection
}

// setCollection assigns c when it is a known collection equal to want.
func (i *Item) setCollection(c, want Collection) error {
	if !c.Valid() {
		return &ValidationError{Field: "collection", Reason: "collection must be set"}
	}
	if c != want {
		return &ValidationError{Field: "collection", Reason: fmt.Sprintf("record must belong to the %s collection", want)}
	}
	i.collection = c
	return nil
}

func (i *Item) DateGenerated() time.Time {
	return i.dateGenerated
}

func (i *Item) SetDateGenerated(t time.Time) error {
	if t.IsZero() {
		return &ValidationError{Field: "dateGenerated", Reason: "date must not be empty"}
	}
	i.dateGenerated = t
	return nil
}
