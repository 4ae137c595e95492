// Package bills defines the metadata that identifies where a utility bill
// document belongs and the pure path builder for the remote folder tree.
package bills

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Accepted calendar range for the document year.
const (
	MinYear = 2000
	MaxYear = 2100
)

// PDFExtension is the only accepted document extension.
const PDFExtension = ".pdf"

var (
	ErrUnknownMonth        = errors.New("unknown month")
	ErrUnknownCompany      = errors.New("unknown company")
	ErrUnknownDocumentType = errors.New("unknown document type")
	ErrYearOutOfRange      = fmt.Errorf("year must be between %d and %d", MinYear, MaxYear)
	ErrInvalidYear         = errors.New("year is not a number")
)

// Month is a calendar month, January == 1.
type Month int

const (
	January Month = iota + 1
	February
	March
	April
	May
	June
	July
	August
	September
	October
	November
	December
)

var monthNames = [...]string{
	"", "January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Months lists every month in calendar order.
func Months() []Month {
	out := make([]Month, 0, 12)
	for m := January; m <= December; m++ {
		out = append(out, m)
	}
	return out
}

// Valid reports whether m is one of the twelve months.
func (m Month) Valid() bool { return m >= January && m <= December }

func (m Month) String() string {
	if !m.Valid() {
		return "Month(" + strconv.Itoa(int(m)) + ")"
	}
	return monthNames[m]
}

// ParseMonthOrdinal parses "1".."12".
func ParseMonthOrdinal(s string) (Month, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !Month(n).Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMonth, s)
	}
	return Month(n), nil
}

// Company is a utility provider. The string value is its canonical name,
// which is also the folder name on remote storage.
type Company string

const (
	PowerCo          Company = "PowerCo"
	CityWater        Company = "City_Water"
	GasService       Company = "Gas_Service"
	HeatNetwork      Company = "Heat_Network"
	InternetProvider Company = "Internet_Provider"
	WasteManagement  Company = "Waste_Management"
)

var companies = []Company{PowerCo, CityWater, GasService, HeatNetwork, InternetProvider, WasteManagement}

// Companies lists every known company in display order.
func Companies() []Company { return append([]Company(nil), companies...) }

// ParseCompany matches the canonical name exactly.
func ParseCompany(s string) (Company, error) {
	for _, c := range companies {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCompany, s)
}

// DisplayName is the canonical name with underscores shown as spaces.
func (c Company) DisplayName() string { return strings.ReplaceAll(string(c), "_", " ") }

// DocumentType distinguishes the two kinds of bill documents.
type DocumentType string

const (
	Invoice DocumentType = "Invoice"
	Receipt DocumentType = "Receipt"
)

// DocumentTypes lists both document types.
func DocumentTypes() []DocumentType { return []DocumentType{Invoice, Receipt} }

// ParseDocumentType matches the canonical name exactly.
func ParseDocumentType(s string) (DocumentType, error) {
	switch DocumentType(s) {
	case Invoice, Receipt:
		return DocumentType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDocumentType, s)
}

// FileName is the fixed remote file name for the document type. The
// uploaded file's own name never influences it.
func (d DocumentType) FileName() string {
	return string(d) + PDFExtension
}

// ParseYear parses manually entered year text and enforces the range.
func ParseYear(s string) (int, error) {
	y, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrInvalidYear
	}
	if err := ValidateYear(y); err != nil {
		return 0, err
	}
	return y, nil
}

// ValidateYear checks y against [MinYear, MaxYear].
func ValidateYear(y int) error {
	if y < MinYear || y > MaxYear {
		return ErrYearOutOfRange
	}
	return nil
}

// PresetYears returns the quick-pick years around current. They always fall
// inside the accepted range for any current year in [MinYear+1, MaxYear-1].
func PresetYears(current int) []int {
	return []int{current - 1, current, current + 1}
}

// IsPDF reports whether name has a .pdf extension, ignoring case.
func IsPDF(name string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(name)), PDFExtension)
}

// Metadata is filled one field at a time while the user answers prompts.
type Metadata struct {
	Year         int
	Month        Month
	Company      Company
	DocumentType DocumentType
}

// Complete reports whether every field is set to a valid value.
func (m Metadata) Complete() bool {
	if ValidateYear(m.Year) != nil || !m.Month.Valid() {
		return false
	}
	if _, err := ParseCompany(string(m.Company)); err != nil {
		return false
	}
	_, err := ParseDocumentType(string(m.DocumentType))
	return err == nil
}
