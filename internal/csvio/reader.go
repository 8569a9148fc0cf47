// Package csvio czyta pliki CSV/XLSX z katalogiem: wykrywa kodowanie i separator,
// zwraca wiersze z numerem linii i przycina pola.
package csvio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const sampleSize = 64 << 10

var ErrEmptyFile = errors.New("pusty plik")

type Options struct {
	Delimiter  string   // puste = wykrywanie z linii nagłówka
	Encoding   Encoding // puste = autodetekcja
	MinColumns int      // krótsze wiersze mają Short=true
	HasHeader  bool
	TempDir    string // katalog na kopię po transkodowaniu; puste = os.TempDir()
}

type Row struct {
	Line   int // numer linii w pliku (od 1)
	Fields []string
	Short  bool
}

type Reader struct {
	path     string
	opts     Options
	xlsx     bool
	encoding Encoding
	delim    rune
	header   []string
}

// Open sprawdza plik, rozpoznaje kodowanie, separator i czyta nagłówek.
// Same wiersze czyta dopiero Rows().
func Open(path string, opts Options) (*Reader, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%s: to katalog, nie plik", path)
	}

	r := &Reader{path: path, opts: opts}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		r.xlsx = true
		r.encoding = UTF8
		return r, r.readXLSXHeader()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sample := make([]byte, sampleSize)
	n, err := io.ReadFull(f, sample)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("odczyt próbki: %w", err)
	}
	sample = sample[:n]
	if len(bytes.TrimSpace(bytes.TrimPrefix(sample, utf8BOM))) == 0 {
		return nil, ErrEmptyFile
	}
	var carry []byte
	if n == sampleSize {
		full := sample
		sample = trimPartialRune(full)
		carry = full[len(sample):]
	}

	r.encoding = opts.Encoding
	if r.encoding == "" {
		r.encoding = DetectEncoding(sample)
		// próbka w UTF-8 nie przesądza o reszcie pliku (np. ASCII, a cp1251 dalej)
		if r.encoding == UTF8 && n == sampleSize {
			if r.encoding, err = detectRest(f, carry); err != nil {
				return nil, fmt.Errorf("odczyt pliku: %w", err)
			}
		}
	}
	text := bytes.TrimPrefix(sample, utf8BOM)
	if enc := r.encoding.lookup(); enc != nil {
		if text, err = enc.NewDecoder().Bytes(text); err != nil {
			return nil, fmt.Errorf("dekodowanie %s: %w", r.encoding, err)
		}
	}

	firstLine := string(text)
	if i := strings.IndexByte(firstLine, '\n'); i >= 0 {
		firstLine = firstLine[:i]
	}
	firstLine = strings.TrimRight(firstLine, "\r")

	if opts.Delimiter != "" {
		r.delim, _ = utf8.DecodeRuneInString(opts.Delimiter)
	} else {
		r.delim = SniffDelimiter(firstLine)
	}

	if opts.HasHeader {
		cr := newCSV(strings.NewReader(firstLine), r.delim)
		rec, err := cr.Read()
		if err != nil {
			return nil, fmt.Errorf("nagłówek: %w", err)
		}
		r.header = trimAll(rec)
	}
	return r, nil
}

// detectRest czyta resztę pliku paczkami; pierwsza paczka, która nie jest
// poprawnym UTF-8, rozstrzyga o kodowaniu całego pliku.
func detectRest(rd io.Reader, carry []byte) (Encoding, error) {
	buf := make([]byte, sampleSize)
	pending := append([]byte(nil), carry...)
	for {
		n, err := io.ReadFull(rd, buf)
		eof := errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
		if err != nil && !eof {
			return "", err
		}

		chunk := make([]byte, 0, len(pending)+n)
		chunk = append(chunk, pending...)
		chunk = append(chunk, buf[:n]...)
		pending = nil
		if !eof {
			keep := trimPartialRune(chunk)
			pending = append(pending, chunk[len(keep):]...)
			chunk = keep
		}

		if !utf8.Valid(chunk) {
			return DetectEncoding(chunk), nil
		}
		if eof {
			return UTF8, nil
		}
	}
}

func (r *Reader) Header() []string   { return r.header }
func (r *Reader) Encoding() Encoding { return r.encoding }
func (r *Reader) Delimiter() rune    { return r.delim }
func (r *Reader) Path() string       { return r.path }

// Rows zwraca wiersze danych (bez nagłówka). Każde wywołanie czyta plik od nowa.
// Błąd odczytu kończy iterację jako ostatnia para (Row{}, err).
func (r *Reader) Rows() iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		var err error
		if r.xlsx {
			err = r.scanXLSX(yield)
		} else {
			err = r.scanCSV(yield)
		}
		if err != nil {
			yield(Row{}, err)
		}
	}
}

func (r *Reader) scanCSV(yield func(Row, error) bool) error {
	src, cleanup, err := r.source()
	if err != nil {
		return err
	}
	defer cleanup()

	br := bufio.NewReader(src)
	if b, _ := br.Peek(len(utf8BOM)); bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := newCSV(br, r.delim)
	skipHeader := r.opts.HasHeader
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("odczyt CSV: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if skipHeader {
			skipHeader = false
			continue
		}
		fields := trimAll(rec)
		if isBlank(fields) {
			continue
		}
		if !yield(r.row(line, fields), nil) {
			return nil
		}
	}
}

// source otwiera plik; dla kodowań innych niż UTF-8 przepisuje go do prywatnej
// kopii tymczasowej w UTF-8, usuwanej przez cleanup.
func (r *Reader) source() (io.Reader, func(), error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, nil, err
	}
	enc := r.encoding.lookup()
	if enc == nil {
		return f, func() { _ = f.Close() }, nil
	}
	defer f.Close()

	tmp, err := os.CreateTemp(r.opts.TempDir, "catalog-import-*.csv")
	if err != nil {
		return nil, nil, fmt.Errorf("plik tymczasowy: %w", err)
	}
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}
	if _, err := io.Copy(tmp, enc.NewDecoder().Reader(f)); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("transkodowanie %s: %w", r.encoding, err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, nil, err
	}
	return tmp, cleanup, nil
}

func (r *Reader) row(line int, fields []string) Row {
	return Row{Line: line, Fields: fields, Short: len(fields) < r.opts.MinColumns}
}

// SniffDelimiter wybiera najczęstszy z ; , \t poza cudzysłowami; remis lub brak = ';'.
func SniffDelimiter(line string) rune {
	counts := map[rune]int{}
	inQuotes := false
	for _, c := range line {
		switch c {
		case '"':
			inQuotes = !inQuotes
		case ';', ',', '\t':
			if !inQuotes {
				counts[c]++
			}
		}
	}
	best := ';'
	for _, c := range []rune{',', '\t'} {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}

func newCSV(src io.Reader, delim rune) *csv.Reader {
	cr := csv.NewReader(src)
	cr.Comma = delim
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	return cr
}

func trimAll(rec []string) []string {
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	return rec
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}
