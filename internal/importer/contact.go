package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/johnwards/crmimport/internal/domain"
	"github.com/johnwards/crmimport/internal/normalize"
	"github.com/johnwards/crmimport/internal/store"
)

const maxNameLength = 254

func (imp *Importer) importContact(ctx context.Context, run *runState, row Row) (outcome, error) {
	// TODO: Sugar IDs are 36 character UUIDs. Confirm with the export owners
	// whether IDs outside 30..40 characters should be filtered as well; only
	// rows without an ID are filtered for now.
	if run.sugar && row.Get(colSugarID) == "" {
		return outcomeFiltered, nil
	}

	attrs := MapFields(row, ContactFields)
	for _, attr := range []string{AttrFirstName, AttrLastName} {
		if v, ok := attrs[attr]; ok {
			attrs[attr] = normalize.Truncate(v, maxNameLength)
		}
	}
	first, last := attrs[AttrFirstName], attrs[AttrLastName]
	if first == "" && last == "" {
		return skipRow(errMissingName, slog.LevelWarn, "no first or last name for contact", attrs[AttrImportID])
	}

	contact, err := imp.resolveContact(ctx, run.tenantID, attrs)
	if err != nil {
		if errors.Is(err, store.ErrMultipleResults) {
			return skipRow(errAmbiguousMatch, slog.LevelWarn, "multiple contacts match name", first+" "+last)
		}
		return outcomeFailed, err
	}
	created := contact.ID == 0
	applyContact(contact, attrs)
	contact.Gender = genderFromSalutation(row.Get(colSalutation))

	assignee, err := imp.resolveAssignee(ctx, run, row.Get(colAssignedUserName))
	if err != nil {
		return outcomeFailed, err
	}
	if assignee != nil {
		contact.AssignedToID = assignee
	}

	if err := imp.store.Contacts.Save(ctx, contact); err != nil {
		if errors.Is(err, store.ErrDataConstraint) {
			return outcomeSkipped, &rowError{
				kind:  errDataError,
				level: slog.LevelError,
				msg:   "could not save contact",
				value: first + " " + last,
				err:   err,
			}
		}
		return outcomeFailed, fmt.Errorf("save contact: %w", err)
	}

	owner := domain.ContactOwner(contact)
	steps := []func() error{
		func() error {
			return imp.upsertAddress(ctx, run, owner, domain.AddressVisiting,
				row.Get(colPrimaryStreet), row.Get(colPrimaryPostalCode), row.Get(colPrimaryCity), row.Get(colPrimaryCountry))
		},
		func() error {
			return imp.upsertAddress(ctx, run, owner, domain.AddressShipping,
				row.Get(colAlternateStreet), row.Get(colAlternatePostalCode), row.Get(colAlternateCity), row.Get(colAlternateCountry))
		},
		func() error { return imp.upsertEmails(ctx, run, owner, row) },
		func() error { return imp.upsertPhone(ctx, run, owner, domain.PhoneWork, nil, row.Get(colOfficePhone)) },
		func() error { return imp.upsertPhone(ctx, run, owner, domain.PhoneWork, nil, row.Get(colOtherPhone)) },
		func() error { return imp.upsertPhone(ctx, run, owner, domain.PhoneMobile, nil, row.Get(colMobilePhone)) },
		func() error { return imp.upsertPhone(ctx, run, owner, domain.PhoneOther, subtype(domain.PhoneSubtypeFax), row.Get(colFax)) },
		func() error { return imp.upsertPhone(ctx, run, owner, domain.PhoneOther, subtype(domain.PhoneSubtypeHome), row.Get(colHomePhone)) },
		func() error { return imp.upsertSocial(ctx, run, owner, domain.SocialTwitter, row.Get(colTwitter)) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return outcomeFailed, err
		}
	}

	if created {
		return outcomeCreated, nil
	}
	return outcomeUpdated, nil
}

// resolveContact finds the contact a row describes: by import ID first,
// then by first and last name when both are given. A name matching more
// than one contact returns store.ErrMultipleResults.
func (imp *Importer) resolveContact(ctx context.Context, tenantID int64, attrs map[string]string) (*domain.Contact, error) {
	if importID := attrs[AttrImportID]; importID != "" {
		c, err := imp.store.Contacts.GetByImportID(ctx, tenantID, importID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	first, last := attrs[AttrFirstName], attrs[AttrLastName]
	if first != "" && last != "" {
		c, err := imp.store.Contacts.FindByName(ctx, tenantID, first, last)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	return &domain.Contact{TenantID: tenantID}, nil
}

func genderFromSalutation(s string) domain.Gender {
	switch s {
	case "Mr.", "Dhr.", "mr.":
		return domain.GenderMale
	case "Ms.", "Mrs.":
		return domain.GenderFemale
	}
	return domain.GenderUnknown
}
