// Package sequence validates submitted nucleotide sequences and extracts
// them from uploaded files.
package sequence

import (
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// MinLength is the shortest sequence the predictor accepts.
const MinLength = 10

var validSequence = regexp.MustCompile(`^[ACGTU]+$`)

var (
	ErrEmpty       = errors.New("no sequence provided")
	ErrInvalidChar = errors.New("invalid characters in sequence, only A, C, G, T, U are allowed")
	ErrTooShort    = errors.New("sequence too short, minimum length is 10 nucleotides")
	ErrNoSequences = errors.New("no valid sequences found in uploaded file")
)

// Normalize upper-cases a raw sequence and strips whitespace.
func Normalize(seq string) string {
	return strings.ToUpper(strings.Join(strings.Fields(seq), ""))
}

// Validate checks the restricted alphabet and minimum length of an already
// normalized sequence.
func Validate(seq string) error {
	if seq == "" {
		return ErrEmpty
	}
	if !validSequence.MatchString(seq) {
		return ErrInvalidChar
	}
	if len(seq) < MinLength {
		return ErrTooShort
	}
	return nil
}

// FromUpload extracts the first valid sequence from an uploaded file.
// FASTA variants and CSV files with a "sequence" column are supported.
func FromUpload(content []byte, fileName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))

	var seqs []string
	var err error
	switch ext {
	case ".csv":
		seqs, err = parseCSV(string(content))
	case ".fasta", ".fna", ".ffn", ".faa":
		seqs = parseFASTA(string(content))
	default:
		return "", fmt.Errorf("unsupported file type: %s", ext)
	}
	if err != nil {
		return "", err
	}
	if len(seqs) == 0 {
		return "", ErrNoSequences
	}
	return seqs[0], nil
}

func parseFASTA(content string) []string {
	var seqs []string
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		seq := Normalize(strings.Join(current, ""))
		if validSequence.MatchString(seq) {
			seqs = append(seqs, seq)
		}
		current = nil
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, ">") {
			flush()
			continue
		}
		if line != "" {
			current = append(current, line)
		}
	}
	flush()
	return seqs
}

func parseCSV(content string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	col := -1
	for i, name := range records[0] {
		if strings.EqualFold(strings.TrimSpace(name), "sequence") {
			col = i
			break
		}
	}
	if col == -1 {
		return nil, errors.New(`csv file has no "sequence" column`)
	}

	var seqs []string
	for _, row := range records[1:] {
		if col >= len(row) {
			continue
		}
		seq := Normalize(row[col])
		if seq != "" && validSequence.MatchString(seq) {
			seqs = append(seqs, seq)
		}
	}
	return seqs, nil
}
