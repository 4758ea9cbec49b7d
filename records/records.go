package records

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("records: not found")

// Kind names the entity an update targets.
type Kind string

const (
	KindAuthorizedPerson Kind = "authorized_person"
	KindPaymentAccount   Kind = "payment_account"
	KindOfficialSeal     Kind = "official_seal"
)

// Kinds returns every Kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindAuthorizedPerson, KindPaymentAccount, KindOfficialSeal}
}

// ParseKind validates s as a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("records: unknown kind %q", s)
}

// Label returns the Korean display name used in reply messages.
func (k Kind) Label() string {
	switch k {
	case KindAuthorizedPerson:
		return "수권자"
	case KindPaymentAccount:
		return "결제 계좌"
	case KindOfficialSeal:
		return "인감"
	default:
		return string(k)
	}
}

// NormalizeName trims s and converts it to Unicode NFC.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Company is a customer company.
type Company struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	BusinessNumber string    `json:"business_number,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// AuthorizedPerson may sign or approve payments on behalf of a company.
type AuthorizedPerson struct {
	ID                int64     `json:"id"`
	CompanyID         int64     `json:"company_id"`
	Name              string    `json:"name"`
	Email             string    `json:"email,omitempty"`
	PhoneNumber       string    `json:"phone_number,omitempty"`
	Position          string    `json:"position,omitempty"`
	CanSign           bool      `json:"can_sign"`
	CanApprovePayment bool      `json:"can_approve_payment"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// PaymentAccount is a bank account a company pays from or into.
type PaymentAccount struct {
	ID            int64     `json:"id"`
	CompanyID     int64     `json:"company_id"`
	BankName      string    `json:"bank_name"`
	AccountNumber string    `json:"account_number"`
	AccountHolder string    `json:"account_holder"`
	Purpose       string    `json:"purpose,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OfficialSeal is a registered company seal image.
type OfficialSeal struct {
	ID            int64     `json:"id"`
	CompanyID     int64     `json:"company_id"`
	SealImagePath string    `json:"seal_image_path"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
