package flow

import (
	"strconv"

	"github.com/m3rciful/billbot/internal/bills"
)

const monthsPerRow = 3

func yearChoices(current int) [][]Choice {
	var rows [][]Choice
	for _, y := range bills.PresetYears(current) {
		rows = append(rows, []Choice{{Label: strconv.Itoa(y), Data: YearData(y)}})
	}
	return append(rows, []Choice{{Label: "Enter manually", Data: ManualYear}})
}

func monthChoices() [][]Choice {
	var rows [][]Choice
	var row []Choice
	for _, m := range bills.Months() {
		row = append(row, Choice{Label: m.String(), Data: MonthData(m)})
		if len(row) == monthsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

func companyChoices() [][]Choice {
	var rows [][]Choice
	for _, c := range bills.Companies() {
		rows = append(rows, []Choice{{Label: c.DisplayName(), Data: CompanyData(c)}})
	}
	return rows
}

func documentTypeChoices() [][]Choice {
	var rows [][]Choice
	for _, d := range bills.DocumentTypes() {
		rows = append(rows, []Choice{{Label: string(d), Data: DocumentTypeData(d)}})
	}
	return rows
}

func cancelUploadChoices() [][]Choice {
	return [][]Choice{{{Label: "Cancel upload", Data: CancelUpload}}}
}

func overwriteChoices() [][]Choice {
	return [][]Choice{
		{{Label: "Overwrite", Data: OverwriteYes}},
		{{Label: "Cancel", Data: CancelOverwrite}},
	}
}
