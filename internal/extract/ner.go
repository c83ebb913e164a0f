package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// extractNER produces the NER-sourced entities: PERSON, ORG, GPE,
// DATE, TIME, MONEY, CARDINAL, QUANTITY, PERCENT. No tagger here emits
// LOC, although the label is defined. It is a deterministic
// heuristic tagger (capitalization runs, numeric/unit patterns) rather than
// a trained model — see the package doc comment for why.
func extractNER(text string) []Entity {
	var out []Entity
	out = append(out, tagProperNames(text)...)
	out = append(out, tagDatesTimes(text)...)
	out = append(out, tagQuantities(text)...)
	return out
}

var properRunRe = regexp.MustCompile(`\b[A-Z][a-zA-Z]*(?:\s+[A-Z][a-zA-Z]*)*\b`)

var orgSuffixes = []string{"Inc", "Corp", "LLC", "Ltd", "Co", "Company", "Corporation"}
var gpeHints = map[string]struct{}{
	"London": {}, "Paris": {}, "Tokyo": {}, "California": {}, "Texas": {},
	"Germany": {}, "France": {}, "China": {}, "India": {}, "Canada": {},
	"America": {}, "Europe": {}, "Seattle": {}, "Boston": {}, "Chicago": {},
}

// tagProperNames labels runs of capitalized words PERSON, ORG, or GPE using
// simple lexical hints: a known place name -> GPE, a trailing corporate
// suffix -> ORG, otherwise PERSON when the run has 2+ words, else skipped
// (single capitalized words are too ambiguous for a confident label).
func tagProperNames(text string) []Entity {
	var out []Entity
	for _, loc := range properRunRe.FindAllStringIndex(text, -1) {
		span := text[loc[0]:loc[1]]
		words := strings.Fields(span)
		if len(words) == 0 {
			continue
		}
		if _, isGPE := gpeHints[words[len(words)-1]]; isGPE {
			out = append(out, Entity{Text: span, Label: LabelGPE, Start: loc[0], End: loc[1], Confidence: 0.8, Source: "ner"})
			continue
		}
		last := words[len(words)-1]
		isOrg := false
		for _, suf := range orgSuffixes {
			if last == suf {
				isOrg = true
				break
			}
		}
		if isOrg {
			out = append(out, Entity{Text: span, Label: LabelOrg, Start: loc[0], End: loc[1], Confidence: 0.75, Source: "ner"})
			continue
		}
		if len(words) >= 2 {
			out = append(out, Entity{Text: span, Label: LabelPerson, Start: loc[0], End: loc[1], Confidence: 0.6, Source: "ner"})
		}
	}
	return out
}

var monthNames = `January|February|March|April|May|June|July|August|September|October|November|December`
var dateRe = regexp.MustCompile(`\b(?:\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4}|(?:` + monthNames + `)\s+\d{1,2}(?:,\s*\d{4})?)\b`)
var timeRe = regexp.MustCompile(`\b\d{1,2}:\d{2}(?::\d{2})?\s*(?:[AaPp][Mm])?\b`)

func tagDatesTimes(text string) []Entity {
	var out []Entity
	for _, loc := range dateRe.FindAllStringIndex(text, -1) {
		out = append(out, Entity{Text: text[loc[0]:loc[1]], Label: LabelDate, Start: loc[0], End: loc[1], Confidence: 0.9, Source: "ner"})
	}
	for _, loc := range timeRe.FindAllStringIndex(text, -1) {
		out = append(out, Entity{Text: text[loc[0]:loc[1]], Label: LabelTime, Start: loc[0], End: loc[1], Confidence: 0.85, Source: "ner"})
	}
	return out
}

var moneyRe = regexp.MustCompile(`[$€£]\s?\d[\d,]*(?:\.\d+)?|\b\d[\d,]*(?:\.\d+)?\s?(?:dollars|usd|eur|euros)\b`)
var percentRe = regexp.MustCompile(`\b\d+(?:\.\d+)?\s?%`)
var quantityRe = regexp.MustCompile(`\b\d+(?:\.\d+)?\s?(?:kg|g|lb|lbs|km|mi|miles|m|cm|mm|gb|mb|tb|kb)\b`)
var cardinalRe = regexp.MustCompile(`\b\d[\d,]*(?:\.\d+)?\b`)

func tagQuantities(text string) []Entity {
	var out []Entity
	consumed := make([]bool, len(text)+1)
	mark := func(start, end int) {
		for i := start; i < end && i < len(consumed); i++ {
			consumed[i] = true
		}
	}
	for _, loc := range moneyRe.FindAllStringIndex(text, -1) {
		out = append(out, Entity{Text: text[loc[0]:loc[1]], Label: LabelMoney, Start: loc[0], End: loc[1], Confidence: 0.9, Source: "ner"})
		mark(loc[0], loc[1])
	}
	for _, loc := range percentRe.FindAllStringIndex(text, -1) {
		out = append(out, Entity{Text: text[loc[0]:loc[1]], Label: LabelPercent, Start: loc[0], End: loc[1], Confidence: 0.9, Source: "ner"})
		mark(loc[0], loc[1])
	}
	for _, loc := range quantityRe.FindAllStringIndex(text, -1) {
		out = append(out, Entity{Text: text[loc[0]:loc[1]], Label: LabelQuantity, Start: loc[0], End: loc[1], Confidence: 0.85, Source: "ner"})
		mark(loc[0], loc[1])
	}
	for _, loc := range cardinalRe.FindAllStringIndex(text, -1) {
		if loc[0] < len(consumed) && consumed[loc[0]] {
			continue
		}
		if _, err := strconv.ParseFloat(strings.ReplaceAll(text[loc[0]:loc[1]], ",", ""), 64); err != nil {
			continue
		}
		out = append(out, Entity{Text: text[loc[0]:loc[1]], Label: LabelCardinal, Start: loc[0], End: loc[1], Confidence: 0.7, Source: "ner"})
	}
	return out
}
