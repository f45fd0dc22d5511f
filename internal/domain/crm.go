package domain

// Tenant is the isolation boundary every CRM record belongs to.
type Tenant struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

// User is an internal user account records can be assigned to.
type User struct {
	ID        int64  `json:"id"`
	TenantID  int64  `json:"tenantId"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	IsActive  bool   `json:"isActive"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Account represents a company in the CRM.
type Account struct {
	ID                int64   `json:"id"`
	TenantID          int64   `json:"tenantId"`
	ImportID          *string `json:"importId,omitempty"`
	CustomerID        *string `json:"customerId,omitempty"`
	Name              string  `json:"name"`
	FlatName          *string `json:"flatname,omitempty"`
	Status            *string `json:"status,omitempty"`
	CompanySize       *string `json:"companySize,omitempty"`
	Logo              *string `json:"logo,omitempty"`
	Description       *string `json:"description,omitempty"`
	LegalEntity       *string `json:"legalentity,omitempty"`
	TaxNumber         *string `json:"taxnumber,omitempty"`
	BankAccountNumber *string `json:"bankaccountnumber,omitempty"`
	CocNumber         *string `json:"cocnumber,omitempty"`
	IBAN              *string `json:"iban,omitempty"`
	BIC               *string `json:"bic,omitempty"`
	AssignedToID      *int64  `json:"assignedToId,omitempty"`
	CreatedAt         string  `json:"createdAt"`
	UpdatedAt         string  `json:"updatedAt"`
}

// Contact represents a person in the CRM.
type Contact struct {
	ID           int64   `json:"id"`
	TenantID     int64   `json:"tenantId"`
	ImportID     *string `json:"importId,omitempty"`
	FirstName    *string `json:"firstName,omitempty"`
	Preposition  *string `json:"preposition,omitempty"`
	LastName     *string `json:"lastName,omitempty"`
	Gender       Gender  `json:"gender"`
	Title        *string `json:"title,omitempty"`
	Status       *string `json:"status,omitempty"`
	Picture      *string `json:"picture,omitempty"`
	Description  *string `json:"description,omitempty"`
	Salutation   *string `json:"salutation,omitempty"`
	AssignedToID *int64  `json:"assignedToId,omitempty"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

// Gender codes as stored on a contact.
type Gender int

const (
	GenderUnknown Gender = 0
	GenderMale    Gender = 1
	GenderFemale  Gender = 2
)
