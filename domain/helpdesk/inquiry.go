package helpdesk

import (
	"fmt"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/resource"
	"github.com/trezcool/masomo-admin/core/user"
)

type InquiryStatus string

const (
	InquiryNew       InquiryStatus = "new"
	InquiryContacted InquiryStatus = "contacted"
	InquiryEnrolled  InquiryStatus = "enrolled"
	InquiryRejected  InquiryStatus = "rejected"
)

var InquiryStatuses = []InquiryStatus{InquiryNew, InquiryContacted, InquiryEnrolled, InquiryRejected}

func (s InquiryStatus) Variant() resource.Variant {
	switch s {
	case InquiryNew:
		return resource.VariantInfo
	case InquiryContacted:
		return resource.VariantWarning
	case InquiryEnrolled:
		return resource.VariantSuccess
	case InquiryRejected:
		return resource.VariantDanger
	}
	panic(fmt.Sprintf("unknown inquiry status %q", string(s)))
}

func (s *InquiryStatus) UnmarshalText(text []byte) error {
	v, err := resource.ParseEnum(string(text), InquiryStatuses...)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Inquiry is an admission inquiry from a prospective student or their parent.
type Inquiry struct {
	resource.Base
	Name       string        `db:"name" json:"name" validate:"required,notblank"`
	Email      null.String   `db:"email" json:"email" validate:"omitempty,email"`
	Phone      null.String   `db:"phone" json:"phone"`
	Grade      int           `db:"grade" json:"grade" validate:"min=1,max=13"`
	Message    string        `db:"message" json:"message"`
	FollowUpAt null.Time     `db:"follow_up_at" json:"follow_up_at"`
	Status     InquiryStatus `db:"status" json:"status" validate:"required"`
}

var Inquiries = &resource.Descriptor[Inquiry]{
	Schema: resource.Schema{
		Name:  "inquiries",
		Title: "Inquiries",
		Columns: []resource.Column{
			{Name: "name", Kind: resource.KindString, Searchable: true, Sortable: true},
			{Name: "email", Kind: resource.KindString, Nullable: true, Searchable: true},
			{Name: "phone", Kind: resource.KindString, Nullable: true, Searchable: true},
			{Name: "grade", Kind: resource.KindInt, Filterable: true, Sortable: true},
			{Name: "message", Kind: resource.KindString},
			{Name: "follow_up_at", Kind: resource.KindTime, Nullable: true, Filterable: true, Sortable: true, Patchable: true},
			resource.EnumColumn("status", InquiryStatuses...),
		},
		DefaultOrdering: []core.DBOrdering{{Field: "created_at", Ascending: false}},
		WriteRoles:      append([]string{user.RoleSupport}, user.AdminRoles...),
	},
	New: func() Inquiry { return Inquiry{Grade: 1, Status: InquiryNew} },
}
