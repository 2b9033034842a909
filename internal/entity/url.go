package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// URL represents a shortened URL.
type URL struct {
	Item
	ShortCode   string   // ShortCode is the code that resolves to OriginalURL.
	OriginalURL string   // OriginalURL is the absolute URL the short code resolves to.
	Shortened   string   // Shortened is the public short link. It is derived and never persisted.
	Title       string   // Title is an optional display title.
	Description string   // Description is an optional display description.
	Owner       string   // Owner is the principal that created the URL. It is the partition key.
	CoOwners    []string // CoOwners are additional principals allowed to manage the URL.
	HitCount    int64    // HitCount is the number of times the short link was resolved.

	dateUpdated time.Time
}

// NewURL returns an empty URL record bound to the Url collection.
func NewURL() *URL {
	return &URL{Item: Item{collection: CollectionURL}}
}

// SetCollection accepts only the Url collection.
func (u *URL) SetCollection(c Collection) error {
	return u.setCollection(c, CollectionURL)
}

func (u *URL) DateUpdated() time.Time {
	return u.dateUpdated
}

func (u *URL) SetDateUpdated(t time.Time) error {
	if t.IsZero() {
		return &ValidationError{Field: "dateUpdated", Reason: "date must not be empty"}
	}
	u.dateUpdated = t
	return nil
}

// AddHit increments the hit counter in memory.
func (u *URL) AddHit() {
	u.HitCount++
}

func (u *URL) PartitionKey() string {
	return u.Owner
}

func (u *URL) LookupCode() string {
	return u.ShortCode
}

type urlDocument struct {
	ID            uuid.UUID  `json:"id"`
	Collection    Collection `json:"collection"`
	ShortCode     string     `json:"shortCode"`
	OriginalURL   string     `json:"originalUrl"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Owner         string     `json:"owner"`
	CoOwners      []string   `json:"coOwners"`
	DateGenerated time.Time  `json:"dateGenerated"`
	DateUpdated   time.Time  `json:"dateUpdated"`
	HitCount      int64      `json:"hitCount"`
}

func (u *URL) MarshalJSON() ([]byte, error) {
	switch {
	case u.id == uuid.Nil:
		return nil, &SerializationError{Field: "id"}
	case !u.collection.Valid():
		return nil, &SerializationError{Field: "collection"}
	case u.ShortCode == "":
		return nil, &SerializationError{Field: "shortCode"}
	case u.OriginalURL == "":
		return nil, &SerializationError{Field: "originalUrl"}
	case u.Owner == "":
		return nil, &SerializationError{Field: "owner"}
	case u.dateGenerated.IsZero():
		return nil, &SerializationError{Field: "dateGenerated"}
	case u.dateUpdated.IsZero():
		return nil, &SerializationError{Field: "dateUpdated"}
	}

	coOwners := u.CoOwners
	if coOwners == nil {
		coOwners = []string{}
	}

	return json.Marshal(urlDocument{
		ID:            u.id,
		Collection:    u.collection,
		ShortCode:     u.ShortCode,
		OriginalURL:   u.OriginalURL,
		Title:         u.Title,
		Description:   u.Description,
		Owner:         u.Owner,
		CoOwners:      coOwners,
		DateGenerated: u.dateGenerated,
		DateUpdated:   u.dateUpdated,
		HitCount:      u.HitCount,
	})
}

func (u *URL) UnmarshalJSON(data []byte) error {
	var doc urlDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	switch {
	case doc.ID == uuid.Nil:
		return &SerializationError{Field: "id"}
	case doc.Collection == CollectionNone:
		return &SerializationError{Field: "collection"}
	case doc.ShortCode == "":
		return &SerializationError{Field: "shortCode"}
	case doc.OriginalURL == "":
		return &SerializationError{Field: "originalUrl"}
	case doc.Owner == "":
		return &SerializationError{Field: "owner"}
	case doc.DateGenerated.IsZero():
		return &SerializationError{Field: "dateGenerated"}
	case doc.DateUpdated.IsZero():
		return &SerializationError{Field: "dateUpdated"}
	}

	if doc.Collection != CollectionURL {
		return &ValidationError{Field: "collection", Reason: "url record must belong to the Url collection"}
	}
	if doc.HitCount < 0 {
		return &ValidationError{Field: "hitCount", Reason: "hit count must not be negative"}
	}

	var out URL
	if err := out.SetID(doc.ID); err != nil {
		return err
	}
	if err := out.SetCollection(doc.Collection); err != nil {
		return err
	}
	if err := out.SetDateGenerated(doc.DateGenerated); err != nil {
		return err
	}
	if err := out.SetDateUpdated(doc.DateUpdated); err != nil {
		return err
	}

	out.ShortCode = doc.ShortCode
	out.OriginalURL = doc.OriginalURL
	out.Title = doc.Title
	out.Description = doc.Description
	out.Owner = doc.Owner
	out.CoOwners = doc.CoOwners
	out.HitCount = doc.HitCount

	*u = out
	return nil
}
