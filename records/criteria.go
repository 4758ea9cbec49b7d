package records

// Criteria identifies the single record an update targets. Each Kind has
// exactly one Criteria type.
type Criteria interface {
	Kind() Kind
	// CompanyName is the exact name of the owning company.
	CompanyName() string
	// Missing returns the name of the first required field that is empty.
	Missing() string
}

// PersonCriteria finds an authorized person by name within a company.
type PersonCriteria struct {
	Company    string `json:"company_name"`
	PersonName string `json:"person_name"`
}

func (c PersonCriteria) Kind() Kind          { return KindAuthorizedPerson }
func (c PersonCriteria) CompanyName() string { return c.Company }

func (c PersonCriteria) Missing() string {
	switch {
	case c.Company == "":
		return "company_name"
	case c.PersonName == "":
		return "person_name"
	}
	return ""
}

// AccountCriteria finds a payment account within a company by account
// number, else holder, else bank name.
type AccountCriteria struct {
	Company       string `json:"company_name"`
	AccountNumber string `json:"account_number,omitempty"`
	AccountHolder string `json:"account_holder,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
}

func (c AccountCriteria) Kind() Kind          { return KindPaymentAccount }
func (c AccountCriteria) CompanyName() string { return c.Company }

func (c AccountCriteria) Missing() string {
	switch {
	case c.Company == "":
		return "company_name"
	case c.AccountNumber == "" && c.AccountHolder == "" && c.BankName == "":
		return "account_number"
	}
	return ""
}

// SealCriteria addresses the most recent seal of a company.
type SealCriteria struct {
	Company string `json:"company_name"`
}

func (c SealCriteria) Kind() Kind          { return KindOfficialSeal }
func (c SealCriteria) CompanyName() string { return c.Company }

func (c SealCriteria) Missing() string {
	if c.Company == "" {
		return "company_name"
	}
	return ""
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch interface {
	Kind() Kind
	// Empty reports whether the patch changes nothing.
	Empty() bool
}

// PersonPatch changes an authorized person.
type PersonPatch struct {
	Name              *string `json:"name,omitempty"`
	Email             *string `json:"email,omitempty"`
	PhoneNumber       *string `json:"phone_number,omitempty"`
	Position          *string `json:"position,omitempty"`
	CanSign           *bool   `json:"can_sign,omitempty"`
	CanApprovePayment *bool   `json:"can_approve_payment,omitempty"`
}

func (p PersonPatch) Kind() Kind { return KindAuthorizedPerson }

func (p PersonPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.PhoneNumber == nil &&
		p.Position == nil && p.CanSign == nil && p.CanApprovePayment == nil
}

// Apply copies set fields onto v.
func (p PersonPatch) Apply(v *AuthorizedPerson) {
	setString(&v.Name, p.Name)
	setString(&v.Email, p.Email)
	setString(&v.PhoneNumber, p.PhoneNumber)
	setString(&v.Position, p.Position)
	setBool(&v.CanSign, p.CanSign)
	setBool(&v.CanApprovePayment, p.CanApprovePayment)
}

// AccountPatch changes a payment account.
type AccountPatch struct {
	BankName      *string `json:"bank_name,omitempty"`
	AccountNumber *string `json:"account_number,omitempty"`
	AccountHolder *string `json:"account_holder,omitempty"`
	Purpose       *string `json:"purpose,omitempty"`
}

func (p AccountPatch) Kind() Kind { return KindPaymentAccount }

func (p AccountPatch) Empty() bool {
	return p.BankName == nil && p.AccountNumber == nil && p.AccountHolder == nil && p.Purpose == nil
}

// Apply copies set fields onto v.
func (p AccountPatch) Apply(v *PaymentAccount) {
	setString(&v.BankName, p.BankName)
	setString(&v.AccountNumber, p.AccountNumber)
	setString(&v.AccountHolder, p.AccountHolder)
	setString(&v.Purpose, p.Purpose)
}

// SealPatch changes an official seal.
type SealPatch struct {
	SealImagePath *string `json:"seal_image_path,omitempty"`
	Description   *string `json:"description,omitempty"`
}

func (p SealPatch) Kind() Kind { return KindOfficialSeal }

func (p SealPatch) Empty() bool {
	return p.SealImagePath == nil && p.Description == nil
}

// Apply copies set fields onto v.
func (p SealPatch) Apply(v *OfficialSeal) {
	setString(&v.SealImagePath, p.SealImagePath)
	setString(&v.Description, p.Description)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// Ptr returns a pointer to v. Convenient for building patches.
func Ptr[T any](v T) *T {
	return &v
}
