// Package catalog wires every resource of the admin panel to its storage.
package catalog

import (
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/resource"
	"github.com/trezcool/masomo-admin/core/user"
	"github.com/trezcool/masomo-admin/domain/academics"
	"github.com/trezcool/masomo-admin/domain/finance"
	"github.com/trezcool/masomo-admin/domain/helpdesk"
	"github.com/trezcool/masomo-admin/domain/hostel"
	"github.com/trezcool/masomo-admin/domain/library"
	"github.com/trezcool/masomo-admin/domain/transport"
	dummydb "github.com/trezcool/masomo-admin/storage/database/dummy"
	sqlxrepos "github.com/trezcool/masomo-admin/storage/database/sqlx"
)

// Backend is the storage of the repositories: SQL when set, in-memory otherwise.
type Backend struct {
	SQL   *sqlx.DB
	Dummy *dummydb.DB
}

func repository[E resource.Entity](b Backend, schema *resource.Schema) resource.Repository[E] {
	if b.SQL != nil {
		return sqlxrepos.NewResourceRepository[E](b.SQL, schema)
	}
	return dummydb.NewResourceRepository[E](b.Dummy, schema)
}

// UserRepository returns the user repository of the backend.
func (b Backend) UserRepository() user.Repository {
	if b.SQL != nil {
		return sqlxrepos.NewUserRepository(b.SQL)
	}
	return dummydb.NewUserRepository(b.Dummy)
}

type Catalog struct {
	Schools   *resource.Service[academics.School, *academics.School]
	Sections  *resource.Service[academics.Section, *academics.Section]
	Exams     *resource.Service[academics.Exam, *academics.Exam]
	Invoices  *resource.Service[finance.Invoice, *finance.Invoice]
	Tickets   *resource.Service[helpdesk.Ticket, *helpdesk.Ticket]
	Inquiries *resource.Service[helpdesk.Inquiry, *helpdesk.Inquiry]
	Vehicles  *resource.Service[transport.Vehicle, *transport.Vehicle]
	Routes    *resource.Service[transport.Route, *transport.Route]
	Rooms     *resource.Service[hostel.Room, *hostel.Room]
	Books     *resource.Service[library.Book, *library.Book]

	endpoints map[string]resource.Endpoint
}

func service[E resource.Entity, P resource.EntityPtr[E]](b Backend, desc *resource.Descriptor[E], opts resource.Options) *resource.Service[E, P] {
	return resource.NewService[E, P](desc, repository[E](b, &desc.Schema), opts)
}

// New builds the services of every resource and registers their custom actions.
func New(b Backend, mailSvc core.EmailService, opts resource.Options) *Catalog {
	c := &Catalog{
		Schools:   service[academics.School, *academics.School](b, academics.Schools, opts),
		Sections:  service[academics.Section, *academics.Section](b, academics.Sections, opts),
		Exams:     service[academics.Exam, *academics.Exam](b, academics.Exams, opts),
		Invoices:  service[finance.Invoice, *finance.Invoice](b, finance.Invoices, opts),
		Tickets:   service[helpdesk.Ticket, *helpdesk.Ticket](b, helpdesk.Tickets, opts),
		Inquiries: service[helpdesk.Inquiry, *helpdesk.Inquiry](b, helpdesk.Inquiries, opts),
		Vehicles:  service[transport.Vehicle, *transport.Vehicle](b, transport.Vehicles, opts),
		Routes:    service[transport.Route, *transport.Route](b, transport.Routes, opts),
		Rooms:     service[hostel.Room, *hostel.Room](b, hostel.Rooms, opts),
		Books:     service[library.Book, *library.Book](b, library.Books, opts),
	}
	c.Invoices.RegisterAction("remind", finance.Remind(mailSvc))
	c.Tickets.RegisterAction("assign", helpdesk.Assign(mailSvc))

	c.endpoints = make(map[string]resource.Endpoint)
	for _, ep := range []resource.Endpoint{
		resource.NewEndpoint(c.Schools),
		resource.NewEndpoint(c.Sections),
		resource.NewEndpoint(c.Exams),
		resource.NewEndpoint(c.Invoices),
		resource.NewEndpoint(c.Tickets),
		resource.NewEndpoint(c.Inquiries),
		resource.NewEndpoint(c.Vehicles),
		resource.NewEndpoint(c.Routes),
		resource.NewEndpoint(c.Rooms),
		resource.NewEndpoint(c.Books),
	} {
		c.endpoints[ep.Schema().Name] = ep
	}
	return c
}

// Endpoint returns the endpoint of the resource name.
func (c *Catalog) Endpoint(name string) (resource.Endpoint, bool) {
	ep, ok := c.endpoints[name]
	return ep, ok
}

// Names returns the resource names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.endpoints))
	for name := range c.endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
