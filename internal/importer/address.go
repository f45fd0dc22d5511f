package importer

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/johnwards/crmimport/internal/domain"
	"github.com/johnwards/crmimport/internal/normalize"
	"github.com/johnwards/crmimport/internal/store"
)

const (
	// street_number is a 16-bit column; numbers from here up are dropped.
	maxStreetNumber  = 32766
	maxPostalCodeLen = 10
)

// upsertAddress stores one address of owner. An address with the same
// street and city is updated in place; otherwise a new one is created.
// Nothing happens unless both the street line and the city are given.
func (imp *Importer) upsertAddress(ctx context.Context, run *runState, owner domain.Owner, typ, line, postalCode, city, country string) error {
	if line == "" || city == "" {
		return nil
	}

	street, number, complement := normalize.ParseStreet(line)

	var streetNumber *int
	if n, err := strconv.Atoi(number); err == nil && n < maxStreetNumber {
		streetNumber = &n
	}

	postalCode = normalize.Truncate(postalCode, maxPostalCodeLen)

	var countryCode *string
	if country != "" {
		code := normalize.Country(country)
		if code == "" {
			run.log.Warn("unrecognized country dropped", "country", country, "owner", owner.Kind, "owner_id", owner.ID)
		}
		countryCode = &code
	}

	_, err := imp.store.Related.FindAddress(ctx, owner, street, city)
	switch {
	case err == nil:
		_, err = imp.store.Related.UpdateAddresses(ctx, owner, street, city, store.AddressPatch{
			Type:         typ,
			StreetNumber: streetNumber,
			Complement:   complement,
			PostalCode:   postalCode,
			Country:      countryCode,
		})
		if err != nil {
			return imp.skipRelated(run, "address", line, err)
		}
		imp.metrics.Related("address", "updated")
		return nil

	case errors.Is(err, store.ErrNotFound):
		a := &domain.Address{
			Type:         typ,
			Street:       street,
			StreetNumber: streetNumber,
			Complement:   complement,
			PostalCode:   postalCode,
			City:         city,
		}
		if countryCode != nil {
			a.Country = *countryCode
		}
		if err := imp.store.Related.CreateAddress(ctx, owner, a); err != nil {
			return imp.skipRelated(run, "address", line, err)
		}
		imp.metrics.Related("address", "created")
		return nil

	default:
		return fmt.Errorf("find address: %w", err)
	}
}

// skipRelated turns a constraint failure on a related record into a
// warning so the rest of the row is still imported. Other errors are
// returned unchanged.
func (imp *Importer) skipRelated(run *runState, kind, value string, err error) error {
	if !errors.Is(err, store.ErrDataConstraint) {
		return err
	}
	run.log.Warn("could not store "+kind, "value", value, "error", err)
	return nil
}
