package stock

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteInventoryCSV writes the inventory with the columns shown on screen.
func WriteInventoryCSV(w io.Writer, rows []InventoryRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Désignation", "Quantité", "Domaine activité", "Groupe d'article"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{row.Designation, strconv.Itoa(int(row.Quantite)), row.CategoryName, row.TypeName}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
