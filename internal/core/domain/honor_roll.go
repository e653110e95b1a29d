package domain

import (
	"fmt"
	"time"

	"github.com/oapi-codegen/nullable"
)

// HonorRollType distinguishes the two honor rolls.
type HonorRollType string

const (
	HonorRollGC  HonorRollType = "GC"  // Grand Chancellor
	HonorRollGLC HonorRollType = "GLC" // Grand Lady Chancellor
)

func (t HonorRollType) Valid() bool { return t == HonorRollGC || t == HonorRollGLC }

// HonorRollEntry records one Grand Chancellor term.
type HonorRollEntry struct {
	ID          string        `json:"id" bson:"_id"`
	LastName    string        `json:"lastName" bson:"lastName"`
	FirstName   string        `json:"firstName" bson:"firstName"`
	MiddleName  string        `json:"middleName" bson:"middleName"`
	Year        string        `json:"year" bson:"year"`
	Term        string        `json:"term" bson:"term"`
	Type        HonorRollType `json:"type" bson:"type"`
	DateCreated time.Time     `json:"dateCreated" bson:"dateCreated"`
	DateUpdated time.Time     `json:"dateUpdated" bson:"dateUpdated"`
}

func (h HonorRollEntry) EntityID() string { return h.ID }

func (h *HonorRollEntry) Stamp(id string, now time.Time) {
	h.ID, h.DateCreated, h.DateUpdated = id, now, now
}

func (h HonorRollEntry) LastUpdated() time.Time { return h.DateUpdated }

func (h HonorRollEntry) UpdatedField() string { return updatedAtField }

func (h HonorRollEntry) Validate() error {
	if !h.Type.Valid() {
		return fmt.Errorf("%w: honor roll type %q", ErrInvalidInput, h.Type)
	}
	return nil
}

type HonorRollPatch struct {
	LastName   nullable.Nullable[string]        `json:"lastName"`
	FirstName  nullable.Nullable[string]        `json:"firstName"`
	MiddleName nullable.Nullable[string]        `json:"middleName"`
	Year       nullable.Nullable[string]        `json:"year"`
	Term       nullable.Nullable[string]        `json:"term"`
	Type       nullable.Nullable[HonorRollType] `json:"type"`
}

func (p HonorRollPatch) Fields() (map[string]any, error) {
	f := fieldSet{}
	f.text("lastName", p.LastName)
	f.text("firstName", p.FirstName)
	f.text("middleName", p.MiddleName)
	f.text("year", p.Year)
	f.text("term", p.Term)
	if err := enumField(f, "type", p.Type, HonorRollType.Valid); err != nil {
		return nil, err
	}
	return f, nil
}
