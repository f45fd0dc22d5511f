package importer

import (
	"github.com/johnwards/crmimport/internal/domain"
)

// Field maps a CSV column onto an entity attribute. A nil Column marks an
// attribute that has no source column yet.
type Field struct {
	Attribute string
	Column    *string
}

func column(name string) *string { return &name }

// Entity attributes filled from CSV columns.
const (
	AttrImportID          = "import_id"
	AttrCustomerID        = "customer_id"
	AttrName              = "name"
	AttrFlatName          = "flatname"
	AttrStatus            = "status"
	AttrCompanySize       = "company_size"
	AttrLogo              = "logo"
	AttrDescription       = "description"
	AttrLegalEntity       = "legalentity"
	AttrTaxNumber         = "taxnumber"
	AttrBankAccountNumber = "bankaccountnumber"
	AttrCocNumber         = "cocnumber"
	AttrIBAN              = "iban"
	AttrBIC               = "bic"

	AttrFirstName   = "first_name"
	AttrPreposition = "preposition"
	AttrLastName    = "last_name"
	AttrGender      = "gender"
	AttrTitle       = "title"
	AttrPicture     = "picture"
	AttrSalutation  = "salutation"
)

// AccountFields is the column table for Sugar account exports.
var AccountFields = []Field{
	{AttrCustomerID, column("VoIPGRID ID")},
	{AttrName, column("Name")},
	{AttrFlatName, nil},
	{AttrStatus, nil},
	{AttrCompanySize, nil},
	{AttrLogo, nil},
	{AttrDescription, column("Description")},
	{AttrLegalEntity, nil},
	{AttrTaxNumber, nil},
	{AttrBankAccountNumber, nil},
	{AttrCocNumber, column("KvK")},
	{AttrIBAN, nil},
	{AttrBIC, nil},
	{AttrImportID, column("ID")},
}

// ContactFields is the column table for Sugar contact exports. Gender is
// derived from the Salutation column separately.
var ContactFields = []Field{
	{AttrImportID, column("ID")},
	{AttrFirstName, column("First Name")},
	{AttrPreposition, nil},
	{AttrLastName, column("Last Name")},
	{AttrGender, nil},
	{AttrTitle, nil},
	{AttrStatus, nil},
	{AttrPicture, nil},
	{AttrDescription, column("Description")},
	{AttrSalutation, nil},
}

// Source columns that feed related records.
const (
	colBillingStreet      = "Billing Street"
	colBillingPostalCode  = "Billing Postal Code"
	colBillingCity        = "Billing City"
	colBillingCountry     = "Billing Country"
	colShippingStreet     = "Shipping Street"
	colShippingPostalCode = "Shipping Postal Code"
	colShippingCity       = "Shipping City"
	colShippingCountry    = "Shipping Country"

	colPrimaryStreet       = "Primary Street"
	colPrimaryPostalCode   = "Primary Postal Code"
	colPrimaryCity         = "Primary City"
	colPrimaryCountry      = "Primary Country"
	colAlternateStreet     = "Alternate Street"
	colAlternatePostalCode = "Alternate Postal Code"
	colAlternateCity       = "Alternate City"
	colAlternateCountry    = "Alternate Country"

	colEmail            = "Email Address"
	colNonPrimaryEmails = "Non Primary E-mails"
	colOfficePhone      = "Office Phone"
	colAlternatePhone   = "Alternate Phone"
	colOtherPhone       = "Other Phone"
	colMobilePhone      = "Mobile Phone"
	colHomePhone        = "Home Phone"
	colFax              = "Fax"
	colWebsite          = "Website"
	colLinkedIn         = "LinkedIn"
	colTwitter          = "Twitter"
	colAssignedUserName = "Assigned User Name"
	colSalutation       = "Salutation"
	colSugarID          = "ID"
)

// MapFields returns attribute values for every mapped column that is
// present in row and not empty.
func MapFields(row Row, fields []Field) map[string]string {
	attrs := make(map[string]string)
	for _, f := range fields {
		if f.Column == nil {
			continue
		}
		if v := row.Get(*f.Column); v != "" {
			attrs[f.Attribute] = v
		}
	}
	return attrs
}

func applyAccount(a *domain.Account, attrs map[string]string) {
	for attr, v := range attrs {
		switch attr {
		case AttrImportID:
			a.ImportID = &v
		case AttrCustomerID:
			a.CustomerID = &v
		case AttrName:
			a.Name = v
		case AttrFlatName:
			a.FlatName = &v
		case AttrStatus:
			a.Status = &v
		case AttrCompanySize:
			a.CompanySize = &v
		case AttrLogo:
			a.Logo = &v
		case AttrDescription:
			a.Description = &v
		case AttrLegalEntity:
			a.LegalEntity = &v
		case AttrTaxNumber:
			a.TaxNumber = &v
		case AttrBankAccountNumber:
			a.BankAccountNumber = &v
		case AttrCocNumber:
			a.CocNumber = &v
		case AttrIBAN:
			a.IBAN = &v
		case AttrBIC:
			a.BIC = &v
		}
	}
}

func applyContact(c *domain.Contact, attrs map[string]string) {
	for attr, v := range attrs {
		switch attr {
		case AttrImportID:
			c.ImportID = &v
		case AttrFirstName:
			c.FirstName = &v
		case AttrPreposition:
			c.Preposition = &v
		case AttrLastName:
			c.LastName = &v
		case AttrTitle:
			c.Title = &v
		case AttrStatus:
			c.Status = &v
		case AttrPicture:
			c.Picture = &v
		case AttrDescription:
			c.Description = &v
		case AttrSalutation:
			c.Salutation = &v
		}
	}
}
