// Package bank loads the vocabulary file, initializes IRT parameters, and
// serves the in-memory item index used by selection and reporting.
package bank

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/smilepat/vocab-cat-engine/internal/models"
)

// VocabRecord is one raw row of the vocabulary file before parameter
// initialization.
type VocabRecord struct {
	Word             string
	MeaningKo        string
	DefinitionEn     string
	POS              string
	Topic            string
	CEFR             string
	Curriculum       string
	FreqRank         int
	GSE              float64
	Lexile           string
	EducationalValue int
	Oxford3000       string
	Synonyms         []string
	Antonyms         []string
	WordFamily       []string
	Sentences        []string
	Collocations     []string
}

// transparentLoanwords lists lemmas whose Korean meaning is a phonetic
// transliteration. Their meaning-recall questions carry no information for
// Korean speakers, so they are discounted and redirected at render time.
var transparentLoanwords = map[string]bool{}

func init() {
	for _, w := range []string{
		"banana", "barbecue", "buffet", "cafe", "cake", "caramel", "cereal",
		"cheese", "chocolate", "cocktail", "coffee", "cookie", "dessert",
		"juice", "ketchup", "lemon", "mayonnaise", "muffin", "mustard",
		"orange", "pasta", "pizza", "salad", "sandwich", "steak", "syrup",
		"tomato", "vitamin", "waffle", "yogurt",
		"algorithm", "antenna", "battery", "bluetooth", "cable", "camera",
		"computer", "dashboard", "database", "desktop", "digital", "hardware",
		"helicopter", "internet", "keyboard", "laptop", "laser", "monitor",
		"motor", "neon", "network", "radar", "radio", "robot", "sensor",
		"server", "smartphone", "software", "tablet", "video",
		"apartment", "asphalt", "bus", "cabin", "campus", "cement", "concrete",
		"elevator", "escalator", "garage", "hotel", "lobby", "ramp", "resort",
		"spa", "taxi", "tent", "tile", "tower", "tunnel",
		"ballet", "concert", "drama", "festival", "golf", "guitar", "jazz",
		"marathon", "opera", "penguin", "piano", "pool", "rocket", "tennis",
		"album", "belt", "bench", "bonus", "chart", "coupon", "crystal",
		"diamond", "icon", "image", "jacket", "logo", "mask", "menu",
		"partner", "pattern", "pedal", "plastic", "premium", "project",
		"receipt", "scarf", "slogan", "sofa", "style", "system",
		"team", "ticket", "trend", "vest", "virus",
	} {
		transparentLoanwords[w] = true
	}
}

// IsTransparentLoanword reports whether a lemma is a phonetic loanword.
func IsTransparentLoanword(word string) bool {
	return transparentLoanwords[strings.ToLower(word)]
}

// LoadVocabFile reads the vocabulary CSV at path. Columns are resolved by
// header name; rows missing a word or Korean meaning are skipped.
func LoadVocabFile(path string) ([]VocabRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab file: %w", err)
	}
	defer f.Close()
	return ParseVocab(f)
}

// ParseVocab parses vocabulary rows from CSV data.
func ParseVocab(r io.Reader) ([]VocabRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read vocab header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []VocabRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read vocab row: %w", err)
		}

		word := field(row, "word")
		meaningKo := field(row, "meaning_ko")
		if word == "" || meaningKo == "" {
			continue
		}

		rec := VocabRecord{
			Word:         word,
			MeaningKo:    meaningKo,
			DefinitionEn: field(row, "definition_en"),
			POS:          strings.ToLower(field(row, "pos")),
			Topic:        primaryTopic(field(row, "topic")),
			CEFR:         strings.ToUpper(field(row, "cefr")),
			Curriculum:   field(row, "kr_curriculum"),
			FreqRank:     parseInt(field(row, "freq_rank")),
			GSE:          parseFloat(field(row, "gse")),
			Lexile:       field(row, "lexile"),
			Oxford3000:   field(row, "oxford3000"),
			Synonyms:     parsePipeList(field(row, "synonym")),
			Antonyms:     parsePipeList(field(row, "antonym")),
			WordFamily:   parsePipeList(field(row, "word_family")),
			Collocations: parsePipeList(field(row, "collocation")),
		}
		rec.EducationalValue = parseInt(field(row, "educational_value"))
		for _, s := range []string{field(row, "sentence_1"), field(row, "sentence_2")} {
			if s != "" {
				rec.Sentences = append(rec.Sentences, s)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// primaryTopic keeps the first tag of a comma- or pipe-separated topic field.
func primaryTopic(raw string) string {
	if raw == "" {
		return ""
	}
	t := strings.SplitN(raw, ",", 2)[0]
	t = strings.SplitN(t, "|", 2)[0]
	return strings.ToLower(strings.TrimSpace(t))
}

func parsePipeList(raw string) []string {
	if raw == "" || raw == "N/A" {
		return nil
	}
	parts := strings.Split(raw, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func trimLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func parseInt(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func parseFloat(raw string) float64 {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseLexileMidpoint extracts the midpoint of a Lexile range like
// "600L-700L" or a single value like "800L".
func parseLexileMidpoint(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "N/A" {
		return 0, false
	}
	clean := strings.ReplaceAll(strings.ToUpper(raw), "L", "")
	if lo, hi, ok := strings.Cut(clean, "-"); ok {
		a, err1 := strconv.ParseFloat(strings.TrimSpace(lo), 64)
		b, err2 := strconv.ParseFloat(strings.TrimSpace(hi), 64)
		if err1 != nil || err2 != nil {
			return 0, false
		}
		return (a + b) / 2.0, true
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// mapCurriculum folds the Korean curriculum tags into the band enum.
func mapCurriculum(raw string) models.CurriculumBand {
	switch strings.TrimSpace(raw) {
	case "초등", "elementary":
		return models.CurriculumElementary
	case "중등", "middle":
		return models.CurriculumMiddle
	case "고등", "high":
		return models.CurriculumHigh
	default:
		return models.CurriculumCSAT
	}
}

func mapCEFR(raw string) models.CEFRBand {
	switch raw {
	case "A1", "A2", "B1", "B2", "C1":
		return models.CEFRBand(raw)
	default:
		return models.CEFRB1
	}
}
