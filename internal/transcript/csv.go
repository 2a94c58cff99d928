package transcript

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

var csvHeader = []string{"segment_idx", "word_idx", "word", "start_sec", "end_sec"}

// LoadCSV reads word-level transcript tokens from a CSV file. Rows with
// non-numeric timestamps are skipped rather than failing the load; a
// missing file yields an empty token list.
func LoadCSV(path string) ([]Token, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	var tokens []Token
	for i, rec := range records {
		if i == 0 || len(rec) < 5 {
			// header or short row
			continue
		}

		startSec, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			continue
		}
		endSec, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			continue
		}

		segmentIdx, _ := strconv.Atoi(rec[0])
		wordIdx, _ := strconv.Atoi(rec[1])

		tokens = append(tokens, Token{
			SegmentIdx: segmentIdx,
			WordIdx:    wordIdx,
			Word:       rec[2],
			StartSec:   startSec,
			EndSec:     endSec,
		})
	}

	return tokens, nil
}

// SaveCSV writes tokens with a header row, one word per line.
func SaveCSV(tokens []Token, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create transcript directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create transcript file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, tok := range tokens {
		rec := []string{
			strconv.Itoa(tok.SegmentIdx),
			strconv.Itoa(tok.WordIdx),
			tok.Word,
			strconv.FormatFloat(tok.StartSec, 'f', 3, 64),
			strconv.FormatFloat(tok.EndSec, 'f', 3, 64),
		}
		if err := writer.Write(rec); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
