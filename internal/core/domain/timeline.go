package domain

import (
	"fmt"
	"time"

	"github.com/oapi-codegen/nullable"
)

type TimelineCategory string

const (
	CategoryFraternity TimelineCategory = "Fraternity"
	CategorySorority   TimelineCategory = "Sorority"
)

func (c TimelineCategory) Valid() bool {
	return c == CategoryFraternity || c == CategorySorority
}

// TimelineEvent is an entry in the chapter history. It carries a creation
// time only.
type TimelineEvent struct {
	ID          string           `json:"id" bson:"_id"`
	Year        string           `json:"year" bson:"year"`
	Date        string           `json:"date" bson:"date"` // display string, e.g. "March 3, 1963"
	Title       string           `json:"title" bson:"title"`
	Description string           `json:"description" bson:"description"`
	Category    TimelineCategory `json:"category" bson:"category"`
	DateCreated time.Time        `json:"dateCreated" bson:"dateCreated"`
}

func (e TimelineEvent) EntityID() string { return e.ID }

func (e *TimelineEvent) Stamp(id string, now time.Time) {
	e.ID, e.DateCreated = id, now
}

func (e TimelineEvent) LastUpdated() time.Time { return time.Time{} }

func (e TimelineEvent) UpdatedField() string { return "" }

func (e TimelineEvent) Validate() error {
	if !e.Category.Valid() {
		return fmt.Errorf("%w: timeline category %q", ErrInvalidInput, e.Category)
	}
	return nil
}

type TimelinePatch struct {
	Year        nullable.Nullable[string]           `json:"year"`
	Date        nullable.Nullable[string]           `json:"date"`
	Title       nullable.Nullable[string]           `json:"title"`
	Description nullable.Nullable[string]           `json:"description"`
	Category    nullable.Nullable[TimelineCategory] `json:"category"`
}

func (p TimelinePatch) Fields() (map[string]any, error) {
	f := fieldSet{}
	f.text("year", p.Year)
	f.text("date", p.Date)
	f.text("title", p.Title)
	f.text("description", p.Description)
	if err := enumField(f, "category", p.Category, TimelineCategory.Valid); err != nil {
		return nil, err
	}
	return f, nil
}
