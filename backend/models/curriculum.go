package models

import "gorm.io/gorm"

type Subject struct {
	gorm.Model
	Name  string `gorm:"unique;not null"`
	Code  string `gorm:"unique;not null"`
	Units []Unit
}

// Unit is the top-level curriculum grouping (also called chapter). The extra
// name columns all feed the auto-mapper's candidate matching.
type Unit struct {
	gorm.Model
	SubjectID   uint   `gorm:"index;not null"`
	Name        string `gorm:"not null"`
	Code        string
	ShortName   string
	DisplayName string
	Sequence    int
	Topics      []Topic
}

type Topic struct {
	gorm.Model
	UnitID    uint   `gorm:"index;not null"`
	Name      string `gorm:"not null"`
	Sequence  int
	Subtopics []Subtopic
}

type Subtopic struct {
	gorm.Model
	TopicID  uint   `gorm:"index;not null"`
	Name     string `gorm:"not null"`
	Sequence int
}

type Paper struct {
	gorm.Model
	SubjectID uint   `gorm:"index;not null"`
	Code      string `gorm:"unique;not null"`
	Title     string
	Year      int
	Subject   Subject
}
