package fileimport

import (
	"bytes"

	"github.com/xuri/excelize/v2"
)

// readWorkbook returns the rows of the first sheet. Trailing empty cells are
// already omitted by excelize, which keeps ragged rows ragged.
func readWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, formatError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyInput
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, formatError(err)
	}
	return rows, nil
}
