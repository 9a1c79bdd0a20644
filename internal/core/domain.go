package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusPending  InvoiceStatus = "pending"
	StatusApproved InvoiceStatus = "approved"
)

type (
	InvoiceStatus string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Invoice is a single expense record owned by exactly one user.
	// ID and CreatedAt are server-assigned on create.
	Invoice struct {
		ID          string
		UserID      string
		VendorName  string
		Amount      Money
		InvoiceDate Date
		Status      InvoiceStatus
		ImageURL    string
		CreatedAt   time.Time
	}

	// UserProfile is the session projection of a user account.
	UserProfile struct {
		ID       string
		Email    string
		FullName string
	}
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyVendor    = errors.New("empty vendor name")
	ErrEmptyUserID    = errors.New("missing owner id")
	ErrInvalidStatus  = errors.New("invalid status")
	ErrInvalidDate    = errors.New("invalid invoice date")
	ErrRecordNotFound = errors.New("record not found")
)

func (s InvoiceStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved:
		return true
	default:
		return false
	}
}

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses the ISO form used by the review form (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// ISO returns the date in the 2006-01-02 form used by forms and storage.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

func (i Invoice) Validate() error {
	if strings.TrimSpace(i.UserID) == "" {
		return ErrEmptyUserID
	}
	if len(strings.TrimSpace(i.VendorName)) == 0 {
		return ErrEmptyVendor
	}
	if len(i.VendorName) > 200 {
		return errors.New("vendor name too long (max 200 characters)")
	}
	if !i.Status.IsValid() {
		return ErrInvalidStatus
	}
	if err := i.InvoiceDate.Validate(); err != nil {
		return err
	}
	return nil
}
