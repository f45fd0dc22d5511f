package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/johnwards/crmimport/internal/domain"
	"github.com/johnwards/crmimport/internal/store"
)

func (imp *Importer) importAccount(ctx context.Context, run *runState, row Row) (outcome, error) {
	attrs := MapFields(row, AccountFields)
	if attrs[AttrName] == "" {
		return skipRow(errMissingName, slog.LevelWarn, "no name for account", attrs[AttrImportID])
	}

	account, err := imp.resolveAccount(ctx, run.tenantID, attrs)
	if err != nil {
		return outcomeFailed, err
	}
	created := account.ID == 0
	applyAccount(account, attrs)

	assignee, err := imp.resolveAssignee(ctx, run, row.Get(colAssignedUserName))
	if err != nil {
		return outcomeFailed, err
	}
	if assignee != nil {
		account.AssignedToID = assignee
	}

	if err := imp.store.Accounts.Save(ctx, account); err != nil {
		if errors.Is(err, store.ErrDataConstraint) {
			return outcomeSkipped, &rowError{
				kind:  errDataError,
				level: slog.LevelError,
				msg:   "could not save account",
				value: account.Name,
				err:   err,
			}
		}
		return outcomeFailed, fmt.Errorf("save account: %w", err)
	}

	owner := domain.AccountOwner(account)
	steps := []func() error{
		func() error {
			return imp.upsertAddress(ctx, run, owner, domain.AddressVisiting,
				row.Get(colBillingStreet), row.Get(colBillingPostalCode), row.Get(colBillingCity), row.Get(colBillingCountry))
		},
		func() error {
			return imp.upsertAddress(ctx, run, owner, domain.AddressShipping,
				row.Get(colShippingStreet), row.Get(colShippingPostalCode), row.Get(colShippingCity), row.Get(colShippingCountry))
		},
		func() error { return imp.upsertEmails(ctx, run, owner, row) },
		func() error { return imp.upsertPhone(ctx, run, owner, domain.PhoneWork, nil, row.Get(colOfficePhone)) },
		func() error { return imp.upsertPhone(ctx, run, owner, domain.PhoneWork, nil, row.Get(colAlternatePhone)) },
		func() error { return imp.upsertPhone(ctx, run, owner, domain.PhoneOther, subtype(domain.PhoneSubtypeFax), row.Get(colFax)) },
		func() error { return imp.upsertWebsite(ctx, run, account, row.Get(colWebsite)) },
		func() error { return imp.upsertSocial(ctx, run, owner, domain.SocialLinkedIn, row.Get(colLinkedIn)) },
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

// resolveAccount finds the account a row describes: by import ID first,
// then by exact name. It returns a new unsaved account when neither
// matches.
func (imp *Importer) resolveAccount(ctx context.Context, tenantID int64, attrs map[string]string) (*domain.Account, error) {
	if importID := attrs[AttrImportID]; importID != "" {
		a, err := imp.store.Accounts.GetByImportID(ctx, tenantID, importID)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	a, err := imp.store.Accounts.FindByName(ctx, tenantID, attrs[AttrName])
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return &domain.Account{TenantID: tenantID}, nil
}
