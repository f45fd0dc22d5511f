package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/johnwards/crmimport/internal/domain"
	"github.com/johnwards/crmimport/internal/store"
)

const (
	minValueLength    = 3
	maxUsernameLength = 100
	emptyWebsite      = "http://"
)

func subtype(s string) *string { return &s }

// upsertEmails stores the primary email address and every address of the
// semicolon separated non-primary column.
func (imp *Importer) upsertEmails(ctx context.Context, run *runState, owner domain.Owner, row Row) error {
	if err := imp.upsertEmail(ctx, run, owner, row.Get(colEmail), true); err != nil {
		return err
	}

	extra := row.Get(colNonPrimaryEmails)
	if extra == "" {
		return nil
	}
	for _, address := range strings.Split(extra, ";") {
		if err := imp.upsertEmail(ctx, run, owner, strings.TrimSpace(address), false); err != nil {
			return err
		}
	}
	return nil
}

func (imp *Importer) upsertEmail(ctx context.Context, run *runState, owner domain.Owner, address string, primary bool) error {
	if utf8.RuneCountInString(address) < minValueLength {
		return nil
	}

	e := domain.EmailAddress{EmailAddress: address, IsPrimary: primary}
	exists, err := imp.store.Related.EmailExists(ctx, owner, e)
	if err != nil || exists {
		return err
	}
	if err := imp.store.Related.CreateEmail(ctx, owner, &e); err != nil {
		return imp.skipRelated(run, "email address", address, err)
	}
	imp.metrics.Related("email", "created")
	return nil
}

// upsertPhone stores a phone number as entered. otherType is only set for
// PhoneOther numbers.
func (imp *Importer) upsertPhone(ctx context.Context, run *runState, owner domain.Owner, typ string, otherType *string, raw string) error {
	if utf8.RuneCountInString(raw) < minValueLength {
		return nil
	}

	p := domain.PhoneNumber{Type: typ, OtherType: otherType, RawInput: raw}
	exists, err := imp.store.Related.PhoneExists(ctx, owner, p)
	if err != nil || exists {
		return err
	}
	if err := imp.store.Related.CreatePhone(ctx, owner, &p); err != nil {
		return imp.skipRelated(run, "phone number", raw, err)
	}
	imp.metrics.Related("phone", "created")
	return nil
}

// upsertSocial stores a profile on a social network. Usernames are stored
// without their leading slash.
func (imp *Importer) upsertSocial(ctx context.Context, run *runState, owner domain.Owner, network, username string) error {
	if username == "" || utf8.RuneCountInString(username) >= maxUsernameLength {
		return nil
	}
	username = strings.TrimPrefix(username, "/")
	if username == "" {
		return nil
	}

	exists, err := imp.store.Related.SocialExists(ctx, owner, network, username)
	if err != nil || exists {
		return err
	}
	sm := &domain.SocialMedia{Name: network, Username: username}
	if err := imp.store.Related.CreateSocial(ctx, owner, sm); err != nil {
		return imp.skipRelated(run, "social media", username, err)
	}
	imp.metrics.Related("social", "created")
	return nil
}

// upsertWebsite stores the primary website of an account unless the
// account already has it.
func (imp *Importer) upsertWebsite(ctx context.Context, run *runState, account *domain.Account, url string) error {
	if utf8.RuneCountInString(url) < minValueLength || url == emptyWebsite {
		return nil
	}

	w := domain.Website{TenantID: account.TenantID, AccountID: account.ID, Website: url, IsPrimary: true}
	_, err := imp.store.Related.FindWebsite(ctx, w)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("find website: %w", err)
	}
	if err := imp.store.Related.CreateWebsite(ctx, &w); err != nil {
		return imp.skipRelated(run, "website", url, err)
	}
	imp.metrics.Related("website", "created")
	return nil
}
