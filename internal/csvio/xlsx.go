package csvio

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

func (r *Reader) firstSheet(f *excelize.File) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", errors.New("xlsx bez arkuszy")
	}
	return sheets[0], nil
}

func (r *Reader) readXLSXHeader() error {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return fmt.Errorf("otwarcie xlsx: %w", err)
	}
	defer f.Close()

	sheet, err := r.firstSheet(f)
	if err != nil {
		return err
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		return err
	}
	defer rows.Close()

	if !rows.Next() {
		return ErrEmptyFile
	}
	if r.opts.HasHeader {
		cols, err := rows.Columns()
		if err != nil {
			return err
		}
		r.header = trimAll(cols)
	}
	return nil
}

func (r *Reader) scanXLSX(yield func(Row, error) bool) error {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return fmt.Errorf("otwarcie xlsx: %w", err)
	}
	defer f.Close()

	sheet, err := r.firstSheet(f)
	if err != nil {
		return err
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		return err
	}
	defer rows.Close()

	line := 0
	skipHeader := r.opts.HasHeader
	for rows.Next() {
		line++
		cols, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("wiersz %d: %w", line, err)
		}
		if skipHeader {
			skipHeader = false
			continue
		}
		fields := trimAll(cols)
		if isBlank(fields) {
			continue
		}
		if !yield(r.row(line, fields), nil) {
			return nil
		}
	}
	return rows.Error()
}
