package domain

import (
	"fmt"
	"time"

	"github.com/oapi-codegen/nullable"
)

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

func (g Gender) Valid() bool { return g == GenderMale || g == GenderFemale }

// Semester marks the half of the academic year a member was admitted in.
type Semester string

const (
	SemesterA Semester = "A"
	SemesterB Semester = "B"
)

func (s Semester) Valid() bool { return s == SemesterA || s == SemesterB }

const updatedAtField = "dateUpdated"

// Member is a chapter member on the roster.
type Member struct {
	ID          string    `json:"id" bson:"_id"`
	LastName    string    `json:"lastName" bson:"lastName"`
	FirstName   string    `json:"firstName" bson:"firstName"`
	MiddleName  string    `json:"middleName" bson:"middleName"`
	Gender      Gender    `json:"gender" bson:"gender"`
	BatchYear   string    `json:"batchYear" bson:"batchYear"`
	BatchName   string    `json:"batchName" bson:"batchName"`
	IDNumber    string    `json:"idNumber" bson:"idNumber"`
	Semester    Semester  `json:"semester" bson:"semester"`
	Chapter     string    `json:"chapter" bson:"chapter"`
	School      string    `json:"school" bson:"school"`
	DateCreated time.Time `json:"dateCreated" bson:"dateCreated"`
	DateUpdated time.Time `json:"dateUpdated" bson:"dateUpdated"`
}

func (m Member) EntityID() string { return m.ID }

func (m *Member) Stamp(id string, now time.Time) {
	m.ID, m.DateCreated, m.DateUpdated = id, now, now
}

func (m Member) LastUpdated() time.Time { return m.DateUpdated }

func (m Member) UpdatedField() string { return updatedAtField }

func (m Member) Validate() error {
	if !m.Gender.Valid() {
		return fmt.Errorf("%w: gender %q", ErrInvalidInput, m.Gender)
	}
	// Semester is optional on older records.
	if m.Semester != "" && !m.Semester.Valid() {
		return fmt.Errorf("%w: semester %q", ErrInvalidInput, m.Semester)
	}
	return nil
}

type MemberPatch struct {
	LastName   nullable.Nullable[string]   `json:"lastName"`
	FirstName  nullable.Nullable[string]   `json:"firstName"`
	MiddleName nullable.Nullable[string]   `json:"middleName"`
	Gender     nullable.Nullable[Gender]   `json:"gender"`
	BatchYear  nullable.Nullable[string]   `json:"batchYear"`
	BatchName  nullable.Nullable[string]   `json:"batchName"`
	IDNumber   nullable.Nullable[string]   `json:"idNumber"`
	Semester   nullable.Nullable[Semester] `json:"semester"`
	Chapter    nullable.Nullable[string]   `json:"chapter"`
	School     nullable.Nullable[string]   `json:"school"`
}

func (p MemberPatch) Fields() (map[string]any, error) {
	f := fieldSet{}
	f.text("lastName", p.LastName)
	f.text("firstName", p.FirstName)
	f.text("middleName", p.MiddleName)
	f.text("batchYear", p.BatchYear)
	f.text("batchName", p.BatchName)
	f.text("idNumber", p.IDNumber)
	f.text("chapter", p.Chapter)
	f.text("school", p.School)
	if err := enumField(f, "gender", p.Gender, Gender.Valid); err != nil {
		return nil, err
	}
	if err := enumField(f, "semester", p.Semester, Semester.Valid); err != nil {
		return nil, err
	}
	return f, nil
}

// Organizer is a founding or supporting organizer of the chapter.
type Organizer struct {
	ID          string    `json:"id" bson:"_id"`
	LastName    string    `json:"lastName" bson:"lastName"`
	FirstName   string    `json:"firstName" bson:"firstName"`
	MiddleName  string    `json:"middleName" bson:"middleName"`
	BatchYear   string    `json:"batchYear" bson:"batchYear"`
	IDNumber    string    `json:"idNumber" bson:"idNumber"`
	Chapter     string    `json:"chapter" bson:"chapter"`
	School      string    `json:"school" bson:"school"`
	DateCreated time.Time `json:"dateCreated" bson:"dateCreated"`
	DateUpdated time.Time `json:"dateUpdated" bson:"dateUpdated"`
}

func (o Organizer) EntityID() string { return o.ID }

func (o *Organizer) Stamp(id string, now time.Time) {
	o.ID, o.DateCreated, o.DateUpdated = id, now, now
}

func (o Organizer) LastUpdated() time.Time { return o.DateUpdated }

func (o Organizer) UpdatedField() string { return updatedAtField }

func (o Organizer) Validate() error { return nil }

type OrganizerPatch struct {
	LastName   nullable.Nullable[string] `json:"lastName"`
	FirstName  nullable.Nullable[string] `json:"firstName"`
	MiddleName nullable.Nullable[string] `json:"middleName"`
	BatchYear  nullable.Nullable[string] `json:"batchYear"`
	IDNumber   nullable.Nullable[string] `json:"idNumber"`
	Chapter    nullable.Nullable[string] `json:"chapter"`
	School     nullable.Nullable[string] `json:"school"`
}

func (p OrganizerPatch) Fields() (map[string]any, error) {
	f := fieldSet{}
	f.text("lastName", p.LastName)
	f.text("firstName", p.FirstName)
	f.text("middleName", p.MiddleName)
	f.text("batchYear", p.BatchYear)
	f.text("idNumber", p.IDNumber)
	f.text("chapter", p.Chapter)
	f.text("school", p.School)
	return f, nil
}

// Affiliate is a member of an affiliated fraternity or sorority chapter.
// Gender drives the fraternity/sorority grouping.
type Affiliate struct {
	ID          string    `json:"id" bson:"_id"`
	LastName    string    `json:"lastName" bson:"lastName"`
	FirstName   string    `json:"firstName" bson:"firstName"`
	MiddleName  string    `json:"middleName" bson:"middleName"`
	Gender      Gender    `json:"gender" bson:"gender"`
	BatchYear   string    `json:"batchYear" bson:"batchYear"`
	IDNumber    string    `json:"idNumber" bson:"idNumber"`
	Chapter     string    `json:"chapter" bson:"chapter"`
	School      string    `json:"school" bson:"school"`
	DateCreated time.Time `json:"dateCreated" bson:"dateCreated"`
	DateUpdated time.Time `json:"dateUpdated" bson:"dateUpdated"`
}

func (a Affiliate) EntityID() string { return a.ID }

func (a *Affiliate) Stamp(id string, now time.Time) {
	a.ID, a.DateCreated, a.DateUpdated = id, now, now
}

func (a Affiliate) LastUpdated() time.Time { return a.DateUpdated }

func (a Affiliate) UpdatedField() string { return updatedAtField }

func (a Affiliate) Validate() error {
	if !a.Gender.Valid() {
		return fmt.Errorf("%w: gender %q", ErrInvalidInput, a.Gender)
	}
	return nil
}

type AffiliatePatch struct {
	LastName   nullable.Nullable[string] `json:"lastName"`
	FirstName  nullable.Nullable[string] `json:"firstName"`
	MiddleName nullable.Nullable[string] `json:"middleName"`
	Gender     nullable.Nullable[Gender] `json:"gender"`
	BatchYear  nullable.Nullable[string] `json:"batchYear"`
	IDNumber   nullable.Nullable[string] `json:"idNumber"`
	Chapter    nullable.Nullable[string] `json:"chapter"`
	School     nullable.Nullable[string] `json:"school"`
}

func (p AffiliatePatch) Fields() (map[string]any, error) {
	f := fieldSet{}
	f.text("lastName", p.LastName)
	f.text("firstName", p.FirstName)
	f.text("middleName", p.MiddleName)
	f.text("batchYear", p.BatchYear)
	f.text("idNumber", p.IDNumber)
	f.text("chapter", p.Chapter)
	f.text("school", p.School)
	if err := enumField(f, "gender", p.Gender, Gender.Valid); err != nil {
		return nil, err
	}
	return f, nil
}
