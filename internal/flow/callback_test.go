package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/billbot/internal/bills"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data string
		want Callback
	}{
		{"year_2024", Callback{Kind: CallbackYear, Year: 2024}},
		{"manual_year", Callback{Kind: CallbackManualYear}},
		{"month_12", Callback{Kind: CallbackMonth, Month: bills.December}},
		{"company_Heat_Network", Callback{Kind: CallbackCompany, Company: bills.HeatNetwork}},
		{"doctype_Invoice", Callback{Kind: CallbackDocumentType, DocumentType: bills.Invoice}},
		{"overwrite_yes", Callback{Kind: CallbackOverwrite}},
		{"cancel_upload", Callback{Kind: CallbackCancel, Reason: "upload"}},
		{"cancel_", Callback{Kind: CallbackCancel}},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, err := ParseCallback(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCallbackUnrecognized(t *testing.T) {
	for _, data := range []string{"", "year_", "year_abc", "year_1999", "month_0", "company_Nope", "doctype_Contract", "overwrite_no", "something"} {
		t.Run(data, func(t *testing.T) {
			got, err := ParseCallback(data)
			assert.ErrorIs(t, err, ErrUnrecognizedCallback)
			assert.Equal(t, CallbackUnknown, got.Kind)
		})
	}
}

func TestPayloadBuildersRoundTrip(t *testing.T) {
	for _, m := range bills.Months() {
		cb, err := ParseCallback(MonthData(m))
		require.NoError(t, err)
		assert.Equal(t, m, cb.Month)
	}
	for _, c := range bills.Companies() {
		cb, err := ParseCallback(CompanyData(c))
		require.NoError(t, err)
		assert.Equal(t, c, cb.Company)
	}
	for _, d := range bills.DocumentTypes() {
		cb, err := ParseCallback(DocumentTypeData(d))
		require.NoError(t, err)
		assert.Equal(t, d, cb.DocumentType)
	}
	for _, data := range []string{ManualYear, OverwriteYes, CancelUpload, CancelOverwrite} {
		_, err := ParseCallback(data)
		assert.NoError(t, err, data)
	}
}
