package etl

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"bitbucket.org/mmdatafocus/resto_backend/utils"
	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// sentinels exported spreadsheets use for "no value"
var naSentinels = map[string]bool{
	"":     true,
	"none": true,
	"null": true,
	"#n/a": true,
	"nan":  true,
}

func IsNA(value string) bool {
	return naSentinels[strings.ToLower(strings.TrimSpace(value))]
}

var bracketPrefixRe = regexp.MustCompile(`^\[[^\]]+\]\s*`)

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanText trims, collapses internal whitespace and strips the POS
// "[reference] " prefix some exports prepend to product names.
func CleanText(raw string) string {
	if IsNA(raw) {
		return ""
	}
	value := strings.TrimSpace(raw)
	value = bracketPrefixRe.ReplaceAllString(value, "")
	value = whitespaceRe.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

var decimalNoiseRe = regexp.MustCompile(`[^0-9.-]`)

// CleanDecimal parses numbers the way irregular exports write them:
// currency prefixes, thousand separators, commas as decimal points and
// stray grouping dots ("1.234.56" means 1234.56).
func CleanDecimal(raw string) (decimal.Decimal, error) {
	value := strings.TrimSpace(raw)
	if IsNA(value) {
		return decimal.Zero, errors.New("empty value")
	}

	negative := strings.HasPrefix(value, "-")
	value = strings.ReplaceAll(value, ",", ".")
	value = decimalNoiseRe.ReplaceAllString(value, "")
	value = strings.ReplaceAll(value, "-", "")

	// keep only the last dot as the decimal separator
	if n := strings.Count(value, "."); n > 1 {
		last := strings.LastIndex(value, ".")
		value = strings.ReplaceAll(value[:last], ".", "") + value[last:]
	}
	if value == "" || value == "." {
		return decimal.Zero, errors.New("no digits in value")
	}
	if negative {
		value = "-" + value
	}
	return utils.ParseDecimal(value)
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldAccents drops diacritics so "pièce" and "piece" compare equal.
func FoldAccents(value string) string {
	folded, _, err := transform.String(foldTransformer, value)
	if err != nil {
		return value
	}
	return folded
}

// unit synonyms in the French/English exports; keys are accent-folded
var unitSynonyms = map[string]string{
	"unit":       "unit",
	"unite":      "unit",
	"u":          "unit",
	"kg":         "kg",
	"kilo":       "kg",
	"kilogramme": "kg",
	"kilogram":   "kg",
	"g":          "g",
	"gr":         "g",
	"gramme":     "g",
	"gram":       "g",
	"l":          "l",
	"litre":      "l",
	"liter":      "l",
	"ml":         "ml",
	"millilitre": "ml",
	"milliliter": "ml",
	"cl":         "cl",
	"pc":         "pcs",
	"pcs":        "pcs",
	"piece":      "pcs",
	"pieces":     "pcs",
	"douzaine":   "dozen",
	"dozen":      "dozen",
	"bouteille":  "bottle",
	"bottle":     "bottle",
	"canette":    "can",
	"can":        "can",
	"paquet":     "pack",
	"pack":       "pack",
	"boite":      "box",
	"box":        "box",
	"botte":      "botte",
	"lot":        "lot",
}

// CleanUnit maps a raw unit label onto its canonical short form. Unknown
// units pass through lowercased so nothing is silently dropped.
func CleanUnit(raw string) string {
	value := strings.ToLower(strings.TrimSpace(FoldAccents(raw)))
	if value == "" || IsNA(value) {
		return ""
	}
	value = strings.TrimSuffix(value, ".")
	if canonical, ok := unitSynonyms[value]; ok {
		return canonical
	}
	return value
}
