package flow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/billbot/internal/bills"
)

// Callback payload prefixes and fixed values carried by inline buttons.
const (
	prefixYear      = "year_"
	ManualYear      = "manual_year"
	prefixMonth     = "month_"
	prefixCompany   = "company_"
	prefixDocType   = "doctype_"
	prefixOverwrite = "overwrite_"
	OverwriteYes    = "overwrite_yes"
	prefixCancel    = "cancel_"
	CancelUpload    = "cancel_upload"
	CancelOverwrite = "cancel_overwrite"
)

// CallbackPrefixes lists every prefix the flow understands, for routing.
var CallbackPrefixes = []string{prefixYear, ManualYear, prefixMonth, prefixCompany, prefixDocType, prefixOverwrite, prefixCancel}

// ErrUnrecognizedCallback marks payloads that match no known variant.
var ErrUnrecognizedCallback = errors.New("unrecognized callback")

// CallbackKind tags the parsed callback variant.
type CallbackKind int

const (
	CallbackUnknown CallbackKind = iota
	CallbackYear
	CallbackManualYear
	CallbackMonth
	CallbackCompany
	CallbackDocumentType
	CallbackOverwrite
	CallbackCancel
)

func (k CallbackKind) String() string {
	switch k {
	case CallbackYear:
		return "year"
	case CallbackManualYear:
		return "manual_year"
	case CallbackMonth:
		return "month"
	case CallbackCompany:
		return "company"
	case CallbackDocumentType:
		return "doctype"
	case CallbackOverwrite:
		return "overwrite"
	case CallbackCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Callback is a parsed button payload. Only the field matching Kind is set.
type Callback struct {
	Kind         CallbackKind
	Year         int
	Month        bills.Month
	Company      bills.Company
	DocumentType bills.DocumentType
	// Reason is the informational suffix of a cancel payload.
	Reason string
}

// ParseCallback decodes a button payload. Unknown or malformed payloads
// return ErrUnrecognizedCallback.
func ParseCallback(data string) (Callback, error) {
	switch {
	case data == ManualYear:
		return Callback{Kind: CallbackManualYear}, nil
	case data == OverwriteYes:
		return Callback{Kind: CallbackOverwrite}, nil
	case strings.HasPrefix(data, prefixCancel):
		return Callback{Kind: CallbackCancel, Reason: strings.TrimPrefix(data, prefixCancel)}, nil
	case strings.HasPrefix(data, prefixYear):
		y, err := strconv.Atoi(strings.TrimPrefix(data, prefixYear))
		if err != nil {
			return Callback{}, unrecognized(data, err)
		}
		if err := bills.ValidateYear(y); err != nil {
			return Callback{}, unrecognized(data, err)
		}
		return Callback{Kind: CallbackYear, Year: y}, nil
	case strings.HasPrefix(data, prefixMonth):
		m, err := bills.ParseMonthOrdinal(strings.TrimPrefix(data, prefixMonth))
		if err != nil {
			return Callback{}, unrecognized(data, err)
		}
		return Callback{Kind: CallbackMonth, Month: m}, nil
	case strings.HasPrefix(data, prefixCompany):
		c, err := bills.ParseCompany(strings.TrimPrefix(data, prefixCompany))
		if err != nil {
			return Callback{}, unrecognized(data, err)
		}
		return Callback{Kind: CallbackCompany, Company: c}, nil
	case strings.HasPrefix(data, prefixDocType):
		d, err := bills.ParseDocumentType(strings.TrimPrefix(data, prefixDocType))
		if err != nil {
			return Callback{}, unrecognized(data, err)
		}
		return Callback{Kind: CallbackDocumentType, DocumentType: d}, nil
	}
	return Callback{}, unrecognized(data, nil)
}

func unrecognized(data string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w %q: %w", ErrUnrecognizedCallback, data, cause)
	}
	return fmt.Errorf("%w %q", ErrUnrecognizedCallback, data)
}

// Payload builders for the buttons the flow offers.

func YearData(y int) string                        { return prefixYear + strconv.Itoa(y) }
func MonthData(m bills.Month) string               { return prefixMonth + strconv.Itoa(int(m)) }
func CompanyData(c bills.Company) string           { return prefixCompany + string(c) }
func DocumentTypeData(d bills.DocumentType) string { return prefixDocType + string(d) }
