// internal/output/excel.go

// Package output renders aggregated results into shareable formats.
package output

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/ofertaradar/ofertaradar/internal/deals"
)

const dealsSheet = "Melhores Ofertas"

var excelHeader = []string{"Ranking", "Produto", "Preço", "Fonte", "Link", "Link Carrinho"}

// WriteExcel renders one result as a spreadsheet with the offers ranked by
// price, cheapest first. Sources that produced no offer are omitted.
func WriteExcel(w io.Writer, result deals.Result) error {
	file := excelize.NewFile()
	defer file.Close()

	index, err := file.NewSheet(dealsSheet)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	file.SetActiveSheet(index)
	if err := file.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	if err := writeHeader(file); err != nil {
		return err
	}

	offers := rankedOffers(result)
	priceStyle, err := file.NewStyle(&excelize.Style{
		CustomNumFmt: strPtr(`"R$" #,##0.00`),
	})
	if err != nil {
		return fmt.Errorf("creating price style: %w", err)
	}

	for i, offer := range offers {
		row := i + 2
		cells := []interface{}{i + 1, offer.Name, offer.Price, string(offer.Source), offer.Link, offer.CartLink}
		for col, value := range cells {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := file.SetCellValue(dealsSheet, cell, value); err != nil {
				return fmt.Errorf("writing cell %s: %w", cell, err)
			}
		}
		priceCell, _ := excelize.CoordinatesToCellName(3, row)
		if err := file.SetCellStyle(dealsSheet, priceCell, priceCell, priceStyle); err != nil {
			return fmt.Errorf("styling price cell: %w", err)
		}
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeHeader(file *excelize.File) error {
	headerStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	for col, title := range excelHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(dealsSheet, cell, title); err != nil {
			return fmt.Errorf("writing header cell %s: %w", cell, err)
		}
	}

	lastCell, _ := excelize.CoordinatesToCellName(len(excelHeader), 1)
	if err := file.SetCellStyle(dealsSheet, "A1", lastCell, headerStyle); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	widths := []float64{10, 60, 14, 18, 50, 50}
	for col, width := range widths {
		name, _ := excelize.ColumnNumberToName(col + 1)
		if err := file.SetColWidth(dealsSheet, name, name, width); err != nil {
			return fmt.Errorf("setting column width: %w", err)
		}
	}
	return nil
}

// rankedOffers returns the non-sentinel per-source deals sorted by price
// ascending, source id breaking ties.
func rankedOffers(result deals.Result) []deals.BestDeal {
	var offers []deals.BestDeal
	for _, deal := range result.PerSource {
		if deal.IsSentinel() {
			continue
		}
		offers = append(offers, deal)
	}

	sort.Slice(offers, func(i, j int) bool {
		if offers[i].Price != offers[j].Price {
			return offers[i].Price < offers[j].Price
		}
		return offers[i].Source < offers[j].Source
	})
	return offers
}

func strPtr(s string) *string {
	return &s
}
