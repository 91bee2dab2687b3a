package academics

import (
	"fmt"
	"time"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/resource"
	"github.com/trezcool/masomo-admin/core/user"
)

type ExamStatus string

const (
	ExamScheduled ExamStatus = "scheduled"
	ExamOngoing   ExamStatus = "ongoing"
	ExamCompleted ExamStatus = "completed"
	ExamCancelled ExamStatus = "cancelled"
)

var ExamStatuses = []ExamStatus{ExamScheduled, ExamOngoing, ExamCompleted, ExamCancelled}

func (s ExamStatus) Variant() resource.Variant {
	switch s {
	case ExamScheduled:
		return resource.VariantInfo
	case ExamOngoing:
		return resource.VariantWarning
	case ExamCompleted:
		return resource.VariantSuccess
	case ExamCancelled:
		return resource.VariantDanger
	}
	panic(fmt.Sprintf("unknown exam status %q", string(s)))
}

func (s *ExamStatus) UnmarshalText(text []byte) error {
	v, err := resource.ParseEnum(string(text), ExamStatuses...)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type Exam struct {
	resource.Base
	SectionID string     `db:"section_id" json:"section_id" validate:"required,uuid"`
	Subject   string     `db:"subject" json:"subject" validate:"required,notblank"`
	Term      string     `db:"term" json:"term" validate:"required,oneof=T1 T2 T3"`
	StartsAt  time.Time  `db:"starts_at" json:"starts_at" validate:"required"`
	EndsAt    time.Time  `db:"ends_at" json:"ends_at" validate:"required,gtfield=StartsAt"`
	MaxScore  float64    `db:"max_score" json:"max_score" validate:"gt=0"`
	Status    ExamStatus `db:"status" json:"status" validate:"required"`
}

var Exams = &resource.Descriptor[Exam]{
	Schema: resource.Schema{
		Name:  "exams",
		Title: "Exams",
		Columns: []resource.Column{
			{Name: "section_id", Kind: resource.KindString, Filterable: true},
			{Name: "subject", Kind: resource.KindString, Filterable: true, Searchable: true, Sortable: true},
			{Name: "term", Kind: resource.KindString, Filterable: true, Sortable: true},
			{Name: "starts_at", Kind: resource.KindTime, Filterable: true, Sortable: true},
			{Name: "ends_at", Kind: resource.KindTime, Filterable: true, Sortable: true},
			{Name: "max_score", Kind: resource.KindFloat, Sortable: true},
			resource.EnumColumn("status", ExamStatuses...),
		},
		DefaultOrdering: []core.DBOrdering{{Field: "starts_at", Ascending: false}},
		WriteRoles:      append([]string{user.RoleTeacher}, user.AdminRoles...),
	},
	New: func() Exam { return Exam{Term: "T1", MaxScore: 20, Status: ExamScheduled} },
}
