// Package maxset tracks the words with the highest number of distinct
// letters seen so far, together with how often each of them occurred.
package maxset

import (
	"fmt"
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/letterscan/pkg/errors"
)

// Score returns the number of distinct letters in word. Only lowercase
// ASCII letters are accepted.
func Score(word string) (int, error) {
	var seen uint32
	for i := 0; i < len(word); i++ {
		c := word[i]
		if c < 'a' || c > 'z' {
			return 0, fmt.Errorf("%w: byte %q at offset %d in %q", apperrors.ErrInvalidWord, c, i, word)
		}
		seen |= 1 << (c - 'a')
	}
	count := 0
	for ; seen != 0; seen &= seen - 1 {
		count++
	}
	return count, nil
}

// WordRecord is a word tied for the maximum score and its occurrence count.
type WordRecord struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Report is the final, immutable view of a MaxSet.
type Report struct {
	Records    []WordRecord `json:"records"`
	MaxScore   int          `json:"max_score"`
	TotalWords int64        `json:"total_words"`
	Distinct   int          `json:"distinct"`
	Resets     int64        `json:"resets"`
}

// MaxSet holds the distinct words whose score equals the highest score seen.
// It has a single owner and no locking.
type MaxSet struct {
	maxScore   int
	records    map[string]int
	totalWords int64
	resets     int64
}

func New() *MaxSet {
	return &MaxSet{
		records: make(map[string]int),
	}
}

// Ingest applies one word and returns its score. A word scoring below the
// current maximum only counts towards the total; a higher score replaces
// every record. Invalid words are rejected before any state changes.
func (m *MaxSet) Ingest(word string) (int, error) {
	if word == "" {
		return 0, fmt.Errorf("%w: empty word", apperrors.ErrInvalidWord)
	}
	score, err := Score(word)
	if err != nil {
		return 0, err
	}
	m.totalWords++

	switch {
	case score < m.maxScore:
	case score > m.maxScore:
		clear(m.records)
		m.records[word] = 1
		m.maxScore = score
		m.resets++
	default:
		m.records[word]++
	}
	return score, nil
}

func (m *MaxSet) MaxScore() int {
	return m.maxScore
}

func (m *MaxSet) TotalWords() int64 {
	return m.totalWords
}

func (m *MaxSet) Len() int {
	return len(m.records)
}

// Finalize returns the records in ascending word order plus summary
// statistics. The set is left untouched.
func (m *MaxSet) Finalize() Report {
	records := make([]WordRecord, 0, len(m.records))
	for word, count := range m.records {
		records = append(records, WordRecord{Word: word, Count: count})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Word < records[j].Word
	})
	return Report{
		Records:    records,
		MaxScore:   m.maxScore,
		TotalWords: m.totalWords,
		Distinct:   len(records),
		Resets:     m.resets,
	}
}
