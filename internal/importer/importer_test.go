package importer_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/johnwards/crmimport/internal/config"
	"github.com/johnwards/crmimport/internal/domain"
	"github.com/johnwards/crmimport/internal/importer"
	"github.com/johnwards/crmimport/internal/metrics"
	"github.com/johnwards/crmimport/internal/store"
	"github.com/johnwards/crmimport/internal/testhelpers"
)

type harness struct {
	store   *store.Store
	imp     *importer.Importer
	logs    *bytes.Buffer
	metrics *metrics.ImportMetrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	s := store.New(testhelpers.NewMigratedDB(t))
	logs := &bytes.Buffer{}
	m := metrics.New()
	imp := importer.New(s,
		importer.WithLogger(slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))),
		importer.WithMetrics(m),
		importer.WithGC(false),
	)
	return &harness{store: s, imp: imp, logs: logs, metrics: m}
}

// csvOf writes rows as a fully quoted CSV file. The header is the sorted
// union of all row keys.
func csvOf(t *testing.T, rows ...map[string]string) io.Reader {
	t.Helper()

	var header []string
	for _, row := range rows {
		for k := range row {
			if !slices.Contains(header, k) {
				header = append(header, k)
			}
		}
	}
	slices.Sort(header)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for _, row := range rows {
		record := make([]string, len(header))
		for i, h := range header {
			record[i] = row[h]
		}
		if err := w.Write(record); err != nil {
			t.Fatalf("write record: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	return &buf
}

func (h *harness) run(t *testing.T, model importer.Model, tenantID int64, users config.UserMapping, rows ...map[string]string) *importer.Result {
	t.Helper()

	res, err := h.imp.Run(context.Background(), importer.Request{
		Model:    model,
		TenantID: tenantID,
		Source:   csvOf(t, rows...),
		FileName: "export.csv",
		Users:    users,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return res
}

func (h *harness) account(t *testing.T, tenantID int64, importID string) *domain.Account {
	t.Helper()
	a, err := h.store.Accounts.GetByImportID(context.Background(), tenantID, importID)
	if err != nil {
		t.Fatalf("get account %s: %v", importID, err)
	}
	return a
}

func (h *harness) contact(t *testing.T, tenantID int64, importID string) *domain.Contact {
	t.Helper()
	c, err := h.store.Contacts.GetByImportID(context.Background(), tenantID, importID)
	if err != nil {
		t.Fatalf("get contact %s: %v", importID, err)
	}
	return c
}

func (h *harness) errorTypes(t *testing.T, importID int64) []string {
	t.Helper()
	errs, err := h.store.Imports.GetErrors(context.Background(), importID)
	if err != nil {
		t.Fatalf("get errors: %v", err)
	}
	var types []string
	for _, e := range errs {
		types = append(types, e.ErrorType)
	}
	return types
}

func TestParseModel(t *testing.T) {
	for in, want := range map[string]importer.Model{
		"account":  importer.ModelAccounts,
		"accounts": importer.ModelAccounts,
		"contact":  importer.ModelContacts,
		"contacts": importer.ModelContacts,
	} {
		got, err := importer.ParseModel(in)
		if err != nil {
			t.Errorf("ParseModel(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseModel(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := importer.ParseModel("deals"); !errors.Is(err, importer.ErrUnknownModel) {
		t.Errorf("expected ErrUnknownModel, got %v", err)
	}
}

func TestRunRejectsUnknownModelAndTenant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.imp.Run(ctx, importer.Request{Model: "deals", TenantID: testhelpers.TenantA, Source: strings.NewReader("")})
	if !errors.Is(err, importer.ErrUnknownModel) {
		t.Errorf("expected ErrUnknownModel, got %v", err)
	}

	_, err = h.imp.Run(ctx, importer.Request{Model: importer.ModelAccounts, TenantID: 99, Source: strings.NewReader("")})
	if !errors.Is(err, importer.ErrUnknownTenant) {
		t.Errorf("expected ErrUnknownTenant, got %v", err)
	}
}

func TestReimportUpdatesAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.run(t, importer.ModelAccounts, testhelpers.TenantA, nil,
		map[string]string{"ID": "a-1", "Name": "Acme"})
	if first.Created != 1 {
		t.Fatalf("first run created = %d, want 1", first.Created)
	}

	second := h.run(t, importer.ModelAccounts, testhelpers.TenantA, nil,
		map[string]string{"ID": "a-1", "Name": "Acme BV", "KvK": "12345678"})
	if second.Created != 0 || second.Updated != 1 {
		t.Errorf("second run created/updated = %d/%d, want 0/1", second.Created, second.Updated)
	}

	n, err := h.store.Accounts.Count(ctx, testhelpers.TenantA)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("accounts = %d, want 1", n)
	}

	a := h.account(t, testhelpers.TenantA, "a-1")
	if a.Name != "Acme BV" {
		t.Errorf("name = %q, want Acme BV", a.Name)
	}
	if a.CocNumber == nil || *a.CocNumber != "12345678" {
		t.Errorf("cocnumber = %v, want 12345678", a.CocNumber)
	}
}

func TestAccountMatchedByName(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	existing := &domain.Account{TenantID: testhelpers.TenantA, Name: "Acme"}
	if err := h.store.Accounts.Save(ctx, existing); err != nil {
		t.Fatalf("save: %v", err)
	}

	res := h.run(t, importer.ModelAccounts, testhelpers.TenantA, nil,
		map[string]string{"ID": "a-9", "Name": "Acme"})
	if res.Updated != 1 {
		t.Errorf("updated = %d, want 1", res.Updated)
	}
	if a := h.account(t, testhelpers.TenantA, "a-9"); a.ID != existing.ID {
		t.Errorf("ID = %d, want %d", a.ID, existing.ID)
	}
}

func TestAccountWithoutImportID(t *testing.T) {
	h := newHarness(t)

	res := h.run(t, importer.ModelAccounts, testhelpers.TenantA, nil,
		map[string]string{"Name": "Acme"}, map[string]string{"Name": "Acme"})
	if res.Created != 1 || res.Updated != 1 {
		t.Errorf("created/updated = %d/%d, want 1/1", res.Created, res.Updated)
	}
}

func TestAccountWithoutNameIsSkipped(t *testing.T) {
	h := newHarness(t)

	res := h.run(t, importer.ModelAccounts, testhelpers.TenantA, nil,
		map[string]string{"ID": "a-1", "Name": "", "Description": "no name"})
	if res.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", res.Skipped)
	}
	if got := h.errorTypes(t, res.ImportID); !slices.Equal(got, []string{"MISSING_NAME"}) {
		t.Errorf("errors = %v, want [MISSING_NAME]", got)
	}
	if !strings.Contains(h.logs.String(), "no name for account") {
		t.Errorf("missing warning in logs:\n%s", h.logs)
	}
}

func TestDataErrorSkipsRowAndContinues(t *testing.T) {
	h := newHarness(t)

	res := h.run(t, importer.ModelAccounts, testhelpers.TenantA, nil,
		map[string]string{"ID": "a-1", "Name": strings.Repeat("x", 300)},
		map[string]string{"ID": "a-2", "Name": "Acme"},
	)
	if res.Skipped != 1 || res.Created != 1 {
		t.Errorf("skipped/created = %d/%d, want 1/1", res.Skipped, res.Created)
	}
	if got := h.errorTypes(t, res.ImportID); !slices.Equal(got, []string{"DATA_ERROR"}) {
		t.Errorf("errors = %v, want [DATA_ERROR]", got)
	}
	if !strings.Contains(h.logs.String(), "level=ERROR") {
		t.Errorf("expected error level log:\n%s", h.logs)
	}
}

func TestAddressUpdatesButOtherRecordsAreNotDuplicated(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	row := map[string]string{
		"ID":                  "a-1",
		"Name":                "Acme",
		"Billing Street":      "Kerkstraat 12",
		"Billing Postal Code": "1000 AA",
		"Billing City":        "Amsterdam",
		"Email Address":       "info@acme.nl",
		"Office Phone":        "020-1234567",
		"Twitter":             "acme",
		"Website":             "www.acme.nl",
	}
	h.run(t, importer.ModelAccounts, testhelpers.TenantA, nil, row)

	row["Billing Postal Code"] = "1011 AB"
	h.run(t, importer.ModelAccounts, testhelpers.TenantA, nil, row)

	a := h.account(t, testhelpers.TenantA, "a-1")
	owner := domain.AccountOwner(a)

	addresses, err := h.store.Related.Addresses(ctx, owner)
	if err != nil {
		t.Fatalf("addresses: %v", err)
	}
	if len(addresses) != 1 {
		t.Fatalf("addresses = %d, want 1", len(addresses))
	}
	if addresses[0].PostalCode != "1011 AB" {
		t.Errorf("postal code = %q, want 1011 AB", addresses[0].PostalCode)
	}
	if addresses[0].Type != domain.AddressVisiting {
		t.Errorf("type = %q, want visiting", addresses[0].Type)
	}

	emails, err := h.store.Related.EmailAddresses(ctx, owner)
	if err != nil {
		t.Fatalf("emails: %v", err)
	}
	phones, err := h.store.Related.PhoneNumbers(ctx, owner)
	if err != nil {
		t.Fatalf("phones: %v", err)
	}
	social, err := h.store.Related.SocialMedia(ctx, owner)
	if err != nil {
		t.Fatalf("social: %v", err)
	}
	websites, err := h.store.Related.Websites(ctx, testhelpers.TenantA, a.ID)
	if err != nil {
		t.Fatalf("websites: %v", err)
	}
	for name, n := range map[string]int{
		"emails":   len(emails),
		"phones":   len(phones),
		"social":   len(social),
		"websites": len(websites),
	} {
		if n != 1 {
			t.Errorf("%s = %d, want 1", name, n)
		}
	}
}

func TestStreetNumberBoundary(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.run(t, importer.ModelAccounts, testhelpers.TenantA, nil,
		map[string]string{"ID": "a-1", "Name": "Low", "Billing Street": "Kerkstraat 32765", "Billing City": "Utrecht"},
		map[string]string{"ID": "a-2", "Name": "High", "Billing Street": "Kerkstraat 32766", "Billing City": "Utrecht"},
	)

	tests := []struct {
		importID string
		want     *int
	}{
		{"a-1", intPtr(32765)},
		{"a-2", nil},
	}
	for _, tt := range tests {
		addresses, err := h.store.Related.Addresses(ctx, domain.AccountOwner(h.account(t, testhelpers.TenantA, tt.importID)))
		if err != nil {
			t.Fatalf("addresses: %v", err)
		}
		if len(addresses) != 1 {
			t.Fatalf("%s: addresses = %d, want 1", tt.importID, len(addresses))
		}
		got := addresses[0].StreetNumber
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("%s: street number = %d, want unset", tt.importID, *got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Errorf("%s: street number = %v, want %d", tt.importID, got, *tt.want)
		}
		if addresses[0].Street != "Kerkstraat" {
			t.Errorf("%s: street = %q, want Kerkstraat", tt.importID, addresses[0].Street)
		}
	}
}

func intPtr(n int) *int { return &n }

func TestCountryNormalization(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.run(t, importer.ModelAccounts, testhelpers.TenantA, nil,
		map[string]string{
			"ID": "a-1", "Name": "Acme",
			"Billing Street": "Kerkstraat 1", "Billing City": "Utrecht", "Billing Country": " nederland ",
			"Shipping Street": "Hoofdweg 2", "Shipping City": "Nowhere", "Shipping Country": "Narnia",
		},
	)

	addresses, err := h.store.Related.Addresses(ctx, domain.AccountOwner(h.account(t, testhelpers.TenantA, "a-1")))
	if err != nil {
		t.Fatalf("addresses: %v", err)
	}
	if len(addresses) != 2 {
		t.Fatalf("addresses = %d, want 2", len(addresses))
	}
	if addresses[0].Country != "NL" {
		t.Errorf("billing country = %q, want NL", addresses[0].Country)
	}
	if addresses[1].Country != "" {
		t.Errorf("shipping country = %q, want empty", addresses[1].Country)
	}
	if addresses[1].Type != domain.AddressShipping {
		t.Errorf("type = %q, want shipping", addresses[1].Type)
	}
}

func TestAddressNeedsStreetAndCity(t *testing.T) {
	h := newHarness(t)

	h.run(t, importer.ModelAccounts, testhelpers.TenantA, nil,
		map[string]string{"ID": "a-1", "Name": "Acme", "Billing Street": "Kerkstraat 1", "Billing City": ""})

	addresses, err := h.store.Related.Addresses(context.Background(), domain.AccountOwner(h.account(t, testhelpers.TenantA, "a-1")))
	if err != nil {
		t.Fatalf("addresses: %v", err)
	}
	if len(addresses) != 0 {
		t.Errorf("addresses = %d, want 0", len(addresses))
	}
}

func TestPostalCodeIsTruncated(t *testing.T) {
	h := newHarness(t)

	h.run(t, importer.ModelAccounts, testhelpers.TenantA, nil,
		map[string]string{"ID": "a-1", "Name": "Acme", "Billing Street": "Kerkstraat 1", "Billing City": "Utrecht",
			"Billing Postal Code": "1234 AB UTRECHT"})

	addresses, err := h.store.Related.Addresses(context.Background(), domain.AccountOwner(h.account(t, testhelpers.TenantA, "a-1")))
	if err != nil {
		t.Fatalf("addresses: %v", err)
	}
	if len(addresses) != 1 || addresses[0].PostalCode != "1234 AB UT" {
		t.Errorf("addresses = %+v, want postal code 1234 AB UT", addresses)
	}
}

func TestContactWithOnlyLastName(t *testing.T) {
	h := newHarness(t)

	res := h.run(t, importer.ModelContacts, testhelpers.TenantA, nil,
		map[string]string{"ID": "c-1", "First Name": "", "Last Name": "Jansen", "Salutation": ""})
	if res.Created != 1 {
		t.Fatalf("created = %d, want 1", res.Created)
	}

	c := h.contact(t, testhelpers.TenantA, "c-1")
	if c.LastName == nil || *c.LastName != "Jansen" {
		t.Errorf("last name = %v, want Jansen", c.LastName)
	}
	if c.FirstName != nil {
		t.Errorf("first name = %q, want nil", *c.FirstName)
	}
	if c.Gender != domain.GenderUnknown {
		t.Errorf("gender = %d, want %d", c.Gender, domain.GenderUnknown)
	}
}

func TestContactGenderFromSalutation(t *testing.T) {
	h := newHarness(t)

	h.run(t, importer.ModelContacts, testhelpers.TenantA, nil,
		map[string]string{"ID": "c-1", "Last Name": "Jansen", "Salutation": "Dhr."},
		map[string]string{"ID": "c-2", "Last Name": "Bakker", "Salutation": "Mrs."},
		map[string]string{"ID": "c-3", "Last Name": "Smit", "Salutation": "Dr."},
	)

	for importID, want := range map[string]domain.Gender{
		"c-1": domain.GenderMale,
		"c-2": domain.GenderFemale,
		"c-3": domain.GenderUnknown,
	} {
		if got := h.contact(t, testhelpers.TenantA, importID).Gender; got != want {
			t.Errorf("%s: gender = %d, want %d", importID, got, want)
		}
	}
}

func TestContactNamesAreTruncated(t *testing.T) {
	h := newHarness(t)

	h.run(t, importer.ModelContacts, testhelpers.TenantA, nil,
		map[string]string{"ID": "c-1", "First Name": strings.Repeat("é", 300), "Last Name": "Jansen"})

	c := h.contact(t, testhelpers.TenantA, "c-1")
	if c.FirstName == nil || len([]rune(*c.FirstName)) != 254 {
		t.Errorf("first name length = %d, want 254", len([]rune(*c.FirstName)))
	}
}

func TestContactWithoutNameIsSkipped(t *testing.T) {
	h := newHarness(t)

	res := h.run(t, importer.ModelContacts, testhelpers.TenantA, nil,
		map[string]string{"ID": "c-1", "First Name": "", "Last Name": "", "Description": "x"})
	if res.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", res.Skipped)
	}
	if !strings.Contains(h.logs.String(), "no first or last name for contact") {
		t.Errorf("missing warning in logs:\n%s", h.logs)
	}
}

func TestAmbiguousContactIsSkipped(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for range 2 {
		c := &domain.Contact{TenantID: testhelpers.TenantA, FirstName: ptr("Jan"), LastName: ptr("Jansen")}
		if err := h.store.Contacts.Save(ctx, c); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	res := h.run(t, importer.ModelContacts, testhelpers.TenantA, nil,
		map[string]string{"ID": "c-1", "First Name": "Jan", "Last Name": "Jansen"})
	if res.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", res.Skipped)
	}
	if got := h.errorTypes(t, res.ImportID); !slices.Equal(got, []string{"AMBIGUOUS_MATCH"}) {
		t.Errorf("errors = %v, want [AMBIGUOUS_MATCH]", got)
	}

	n, err := h.store.Contacts.Count(ctx, testhelpers.TenantA)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("contacts = %d, want 2", n)
	}
}

func ptr(s string) *string { return &s }

func TestSugarFilterSkipsContactsWithoutID(t *testing.T) {
	h := newHarness(t)

	res, err := h.imp.Run(context.Background(), importer.Request{
		Model:    importer.ModelContacts,
		TenantID: testhelpers.TenantA,
		Source: csvOf(t,
			map[string]string{"ID": "", "First Name": "Jan", "Last Name": "Jansen"},
			map[string]string{"ID": "c-2", "First Name": "Piet", "Last Name": "Bakker"},
		),
		Sugar: true,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Filtered != 1 || res.Created != 1 {
		t.Errorf("filtered/created = %d/%d, want 1/1", res.Filtered, res.Created)
	}
	if got := h.errorTypes(t, res.ImportID); len(got) != 0 {
		t.Errorf("filtered rows recorded as errors: %v", got)
	}
}

func TestContactRelatedRecords(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.run(t, importer.ModelContacts, testhelpers.TenantA, nil, map[string]string{
		"ID":                  "c-1",
		"Last Name":           "Jansen",
		"Primary Street":      "Kerkstraat 1",
		"Primary City":        "Utrecht",
		"Alternate Street":    "Hoofdweg 2",
		"Alternate City":      "Zeist",
		"Email Address":       "jan@example.com",
		"Non Primary E-mails": "jan@work.example; j@x;;",
		"Office Phone":        "030-1234567",
		"Other Phone":         "030-7654321",
		"Mobile Phone":        "06-12345678",
		"Fax":                 "030-1111111",
		"Home Phone":          "030-2222222",
		"Twitter":             "/jansen",
	})

	owner := domain.ContactOwner(h.contact(t, testhelpers.TenantA, "c-1"))

	addresses, err := h.store.Related.Addresses(ctx, owner)
	if err != nil {
		t.Fatalf("addresses: %v", err)
	}
	if len(addresses) != 2 || addresses[0].Type != domain.AddressVisiting || addresses[1].Type != domain.AddressShipping {
		t.Errorf("addresses = %+v", addresses)
	}

	emails, err := h.store.Related.EmailAddresses(ctx, owner)
	if err != nil {
		t.Fatalf("emails: %v", err)
	}
	if len(emails) != 3 {
		t.Fatalf("emails = %d, want 3", len(emails))
	}
	if !emails[0].IsPrimary || emails[0].EmailAddress != "jan@example.com" {
		t.Errorf("primary email = %+v", emails[0])
	}
	if emails[1].IsPrimary || emails[1].EmailAddress != "jan@work.example" {
		t.Errorf("second email = %+v", emails[1])
	}

	phones, err := h.store.Related.PhoneNumbers(ctx, owner)
	if err != nil {
		t.Fatalf("phones: %v", err)
	}
	var kinds []string
	for _, p := range phones {
		k := p.Type
		if p.OtherType != nil {
			k += "/" + *p.OtherType
		}
		kinds = append(kinds, k)
	}
	want := []string{"work", "work", "mobile", "other/fax", "other/home"}
	if !slices.Equal(kinds, want) {
		t.Errorf("phone kinds = %v, want %v", kinds, want)
	}

	social, err := h.store.Related.SocialMedia(ctx, owner)
	if err != nil {
		t.Fatalf("social: %v", err)
	}
	if len(social) != 1 || social[0].Name != domain.SocialTwitter || social[0].Username != "jansen" {
		t.Errorf("social = %+v", social)
	}
}

func TestSocialUsernameLeadingSlash(t *testing.T) {
	h := newHarness(t)

	h.run(t, importer.ModelAccounts, testhelpers.TenantA, nil,
		map[string]string{"ID": "a-1", "Name": "Acme", "LinkedIn": "/someuser", "Twitter": "/"})

	social, err := h.store.Related.SocialMedia(context.Background(), domain.AccountOwner(h.account(t, testhelpers.TenantA, "a-1")))
	if err != nil {
		t.Fatalf("social: %v", err)
	}
	if len(social) != 1 {
		t.Fatalf("social = %d, want 1", len(social))
	}
	if social[0].Name != domain.SocialLinkedIn || social[0].Username != "someuser" {
		t.Errorf("social = %+v, want linkedin/someuser", social[0])
	}
}

func TestWebsitePlaceholderIsIgnored(t *testing.T) {
	h := newHarness(t)

	h.run(t, importer.ModelAccounts, testhelpers.TenantA, nil,
		map[string]string{"ID": "a-1", "Name": "Acme", "Website": "http://"},
		map[string]string{"ID": "a-2", "Name": "Beta", "Website": "ab"},
	)

	for _, importID := range []string{"a-1", "a-2"} {
		websites, err := h.store.Related.Websites(context.Background(), testhelpers.TenantA, h.account(t, testhelpers.TenantA, importID).ID)
		if err != nil {
			t.Fatalf("websites: %v", err)
		}
		if len(websites) != 0 {
			t.Errorf("%s: websites = %d, want 0", importID, len(websites))
		}
	}
}

func TestUnmappedAssigneeWarnsOnce(t *testing.T) {
	h := newHarness(t)

	h.run(t, importer.ModelAccounts, testhelpers.TenantA, config.UserMapping{"jan": "jan@example.com"},
		map[string]string{"ID": "a-1", "Name": "One", "Assigned User Name": "piet"},
		map[string]string{"ID": "a-2", "Name": "Two", "Assigned User Name": "piet"},
		map[string]string{"ID": "a-3", "Name": "Three", "Assigned User Name": "piet"},
	)

	if n := strings.Count(h.logs.String(), "assignee does not have a user mapping"); n != 1 {
		t.Errorf("warnings = %d, want 1\n%s", n, h.logs)
	}
	if got := testutil.ToFloat64(h.metrics.UnresolvedAssigneesTotal); got != 1 {
		t.Errorf("unresolved assignees = %v, want 1", got)
	}
}

func TestMissingAssigneeUserWarnsOnce(t *testing.T) {
	h := newHarness(t)

	h.run(t, importer.ModelAccounts, testhelpers.TenantA, config.UserMapping{"piet": "piet@example.com"},
		map[string]string{"ID": "a-1", "Name": "One", "Assigned User Name": "piet"},
		map[string]string{"ID": "a-2", "Name": "Two", "Assigned User Name": "piet"},
	)

	if n := strings.Count(h.logs.String(), "assignee does not exist as a user"); n != 1 {
		t.Errorf("warnings = %d, want 1\n%s", n, h.logs)
	}
	if a := h.account(t, testhelpers.TenantA, "a-1"); a.AssignedToID != nil {
		t.Errorf("assigned to = %d, want unset", *a.AssignedToID)
	}
}

func TestAssigneeIsResolvedWithinTenant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	userA, err := h.store.Users.Create(ctx, testhelpers.TenantA, "jan@example.com", "Jan", "Jansen")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := h.store.Users.Create(ctx, testhelpers.TenantB, "piet@example.com", "Piet", "Bakker"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	users := config.UserMapping{"jan": "jan@example.com", "piet": "piet@example.com"}

	h.run(t, importer.ModelAccounts, testhelpers.TenantA, users,
		map[string]string{"ID": "a-1", "Name": "One", "Assigned User Name": "jan"},
		map[string]string{"ID": "a-2", "Name": "Two", "Assigned User Name": "piet"},
	)
	h.run(t, importer.ModelContacts, testhelpers.TenantA, users,
		map[string]string{"ID": "c-1", "Last Name": "Jansen", "Assigned User Name": "jan"},
	)

	if a := h.account(t, testhelpers.TenantA, "a-1"); a.AssignedToID == nil || *a.AssignedToID != userA.ID {
		t.Errorf("a-1 assigned to = %v, want %d", a.AssignedToID, userA.ID)
	}
	if a := h.account(t, testhelpers.TenantA, "a-2"); a.AssignedToID != nil {
		t.Errorf("a-2 assigned across tenants to %d", *a.AssignedToID)
	}
	if c := h.contact(t, testhelpers.TenantA, "c-1"); c.AssignedToID == nil || *c.AssignedToID != userA.ID {
		t.Errorf("c-1 assigned to = %v, want %d", c.AssignedToID, userA.ID)
	}
}

func TestTenantsAreIsolated(t *testing.T) {
	h := newHarness(t)

	row := map[string]string{"ID": "a-1", "Name": "Acme"}
	h.run(t, importer.ModelAccounts, testhelpers.TenantA, nil, row)
	res := h.run(t, importer.ModelAccounts, testhelpers.TenantB, nil, row)
	if res.Created != 1 {
		t.Errorf("created in tenant B = %d, want 1", res.Created)
	}

	a := h.account(t, testhelpers.TenantA, "a-1")
	b := h.account(t, testhelpers.TenantB, "a-1")
	if a.ID == b.ID {
		t.Error("tenants share an account")
	}
}

func TestRunLedger(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res := h.run(t, importer.ModelAccounts, testhelpers.TenantA, nil,
		map[string]string{"ID": "a-1", "Name": "Acme"},
		map[string]string{"ID": "a-2", "Name": ""},
	)
	if res.RunID == "" {
		t.Error("run ID is empty")
	}
	if res.Rows != 2 {
		t.Errorf("rows = %d, want 2", res.Rows)
	}

	imp, err := h.store.Imports.Get(ctx, res.ImportID)
	if err != nil {
		t.Fatalf("get import: %v", err)
	}
	if imp.State != store.ImportDone {
		t.Errorf("state = %q, want %q", imp.State, store.ImportDone)
	}
	if imp.RunID != res.RunID || imp.Model != "accounts" || imp.FileName != "export.csv" {
		t.Errorf("import = %+v", imp)
	}

	var meta importer.Result
	if err := json.Unmarshal(imp.Metadata, &meta); err != nil {
		t.Fatalf("unmarshal metadata: %v", err)
	}
	if meta.Created != 1 || meta.Skipped != 1 {
		t.Errorf("metadata = %+v", meta)
	}

	errs, err := h.store.Imports.GetErrors(ctx, res.ImportID)
	if err != nil {
		t.Fatalf("get errors: %v", err)
	}
	if len(errs) != 1 || errs[0].LineNumber != 3 {
		t.Errorf("errors = %+v, want one on line 3", errs)
	}

	logs := h.logs.String()
	for _, msg := range []string{"importing accounts started", "importing accounts finished", "run_id=" + res.RunID} {
		if !strings.Contains(logs, msg) {
			t.Errorf("logs missing %q:\n%s", msg, logs)
		}
	}

	if got := testutil.ToFloat64(h.metrics.RowsTotal.WithLabelValues("accounts", "created")); got != 1 {
		t.Errorf("rows created metric = %v, want 1", got)
	}
}

type cancelingReader struct {
	r      io.Reader
	cancel context.CancelFunc
}

func (c *cancelingReader) Read(p []byte) (int, error) {
	c.cancel()
	return c.r.Read(p)
}

func TestRunCanceled(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res, err := h.imp.Run(ctx, importer.Request{
		Model:    importer.ModelAccounts,
		TenantID: testhelpers.TenantA,
		Source:   &cancelingReader{r: csvOf(t, map[string]string{"ID": "a-1", "Name": "Acme"}), cancel: cancel},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res == nil || res.Rows != 0 {
		t.Fatalf("result = %+v, want no rows", res)
	}

	imp, err := h.store.Imports.Get(context.Background(), res.ImportID)
	if err != nil {
		t.Fatalf("get import: %v", err)
	}
	if imp.State != store.ImportCanceled {
		t.Errorf("state = %q, want %q", imp.State, store.ImportCanceled)
	}
}

func TestEmptyAssigneeIsNotLookedUp(t *testing.T) {
	h := newHarness(t)

	// A mapping for the empty name would warn if the empty cell were looked up.
	h.run(t, importer.ModelAccounts, testhelpers.TenantA, config.UserMapping{"": "nobody@example.com"},
		map[string]string{"ID": "a-1", "Name": "Acme", "Assigned User Name": ""})

	if strings.Contains(h.logs.String(), "assignee") {
		t.Errorf("unexpected assignee log:\n%s", h.logs)
	}
	if got := testutil.ToFloat64(h.metrics.UnresolvedAssigneesTotal); got != 0 {
		t.Errorf("unresolved assignees = %v, want 0", got)
	}
	if a := h.account(t, testhelpers.TenantA, "a-1"); a.AssignedToID != nil {
		t.Errorf("assigned to = %d, want unset", *a.AssignedToID)
	}
}

func TestRelatedValueLengthBounds(t *testing.T) {
	tests := []struct {
		name      string
		row       map[string]string
		emails    int
		phones    int
		usernames []string
	}{
		{
			name:   "two characters are dropped",
			row:    map[string]string{"Email Address": "ab", "Non Primary E-mails": "cd", "Office Phone": "12"},
			emails: 0,
			phones: 0,
		},
		{
			name:   "three characters are kept",
			row:    map[string]string{"Email Address": "abc", "Non Primary E-mails": "cde", "Office Phone": "123"},
			emails: 2,
			phones: 1,
		},
		{
			name:      "username of 99 characters is kept",
			row:       map[string]string{"Twitter": strings.Repeat("t", 99)},
			usernames: []string{strings.Repeat("t", 99)},
		},
		{
			name: "username of 100 characters is dropped",
			row:  map[string]string{"Twitter": strings.Repeat("t", 100)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()

			row := map[string]string{"ID": "a-1", "Name": "Acme"}
			for k, v := range tt.row {
				row[k] = v
			}
			h.run(t, importer.ModelAccounts, testhelpers.TenantA, nil, row)
			owner := domain.AccountOwner(h.account(t, testhelpers.TenantA, "a-1"))

			emails, err := h.store.Related.EmailAddresses(ctx, owner)
			if err != nil {
				t.Fatalf("emails: %v", err)
			}
			if len(emails) != tt.emails {
				t.Errorf("emails = %d, want %d", len(emails), tt.emails)
			}

			phones, err := h.store.Related.PhoneNumbers(ctx, owner)
			if err != nil {
				t.Fatalf("phones: %v", err)
			}
			if len(phones) != tt.phones {
				t.Errorf("phones = %d, want %d", len(phones), tt.phones)
			}

			social, err := h.store.Related.SocialMedia(ctx, owner)
			if err != nil {
				t.Fatalf("social: %v", err)
			}
			var usernames []string
			for _, sm := range social {
				usernames = append(usernames, sm.Username)
			}
			if !slices.Equal(usernames, tt.usernames) {
				t.Errorf("usernames = %v, want %v", usernames, tt.usernames)
			}
		})
	}
}

func TestReimportCountry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	row := map[string]string{
		"ID": "a-1", "Name": "Acme",
		"Billing Street": "Kerkstraat 12", "Billing City": "Utrecht", "Billing Country": "Nederland",
	}

	tests := []struct {
		country string
		want    string
	}{
		{"Nederland", "NL"},
		{"", "NL"},
		{"Nederlandse Antillen", "AN"},
		{"AN", "AN"},
		{"Narnia", ""},
	}
	for _, tt := range tests {
		row["Billing Country"] = tt.country
		h.run(t, importer.ModelAccounts, testhelpers.TenantA, nil, row)

		addresses, err := h.store.Related.Addresses(ctx, domain.AccountOwner(h.account(t, testhelpers.TenantA, "a-1")))
		if err != nil {
			t.Fatalf("addresses: %v", err)
		}
		if len(addresses) != 1 {
			t.Fatalf("country %q: addresses = %d, want 1", tt.country, len(addresses))
		}
		if addresses[0].Country != tt.want {
			t.Errorf("country %q: stored = %q, want %q", tt.country, addresses[0].Country, tt.want)
		}
		if n := addresses[0].StreetNumber; n == nil || *n != 12 {
			t.Errorf("country %q: street number = %v, want 12", tt.country, n)
		}
	}

	var warned bool
	for _, line := range strings.Split(h.logs.String(), "\n") {
		if strings.Contains(line, "unrecognized country dropped") {
			warned = strings.Contains(line, "level=WARN") && strings.Contains(line, "country=Narnia")
		}
	}
	if !warned {
		t.Errorf("no warning for unrecognized country:\n%s", h.logs)
	}
}
