package domain

// OwnerKind names the parent table a related record hangs off.
type OwnerKind string

const (
	OwnerAccount OwnerKind = "account"
	OwnerContact OwnerKind = "contact"
)

// Owner identifies the single parent entity of a related record.
type Owner struct {
	Kind     OwnerKind
	ID       int64
	TenantID int64
}

// AccountOwner returns the Owner for an account.
func AccountOwner(a *Account) Owner {
	return Owner{Kind: OwnerAccount, ID: a.ID, TenantID: a.TenantID}
}

// ContactOwner returns the Owner for a contact.
func ContactOwner(c *Contact) Owner {
	return Owner{Kind: OwnerContact, ID: c.ID, TenantID: c.TenantID}
}

// Address types.
const (
	AddressVisiting = "visiting"
	AddressShipping = "shipping"
	AddressHome     = "home"
)

// Address is a postal address owned by an account or contact.
type Address struct {
	ID           int64  `json:"id"`
	TenantID     int64  `json:"tenantId"`
	Type         string `json:"type"`
	Street       string `json:"street"`
	StreetNumber *int   `json:"streetNumber,omitempty"`
	Complement   string `json:"complement"`
	PostalCode   string `json:"postalCode"`
	City         string `json:"city"`
	Country      string `json:"country"`
}

// EmailAddress is an email address owned by an account or contact.
type EmailAddress struct {
	ID           int64  `json:"id"`
	TenantID     int64  `json:"tenantId"`
	EmailAddress string `json:"emailAddress"`
	IsPrimary    bool   `json:"isPrimary"`
}

// Phone types and subtypes.
const (
	PhoneWork   = "work"
	PhoneMobile = "mobile"
	PhoneOther  = "other"

	PhoneSubtypeFax  = "fax"
	PhoneSubtypeHome = "home"
)

// PhoneNumber keeps the raw, unformatted input of a phone number.
type PhoneNumber struct {
	ID        int64   `json:"id"`
	TenantID  int64   `json:"tenantId"`
	Type      string  `json:"type"`
	OtherType *string `json:"otherType,omitempty"`
	RawInput  string  `json:"rawInput"`
}

// Social networks.
const (
	SocialTwitter  = "twitter"
	SocialLinkedIn = "linkedin"
)

// SocialMedia is a profile on a social network.
type SocialMedia struct {
	ID       int64  `json:"id"`
	TenantID int64  `json:"tenantId"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Website belongs to an account only.
type Website struct {
	ID        int64  `json:"id"`
	TenantID  int64  `json:"tenantId"`
	AccountID int64  `json:"accountId"`
	Website   string `json:"website"`
	IsPrimary bool   `json:"isPrimary"`
}
