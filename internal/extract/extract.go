// Package extract implements the Entity Extractor: it turns a
// normalized input string into labeled entity spans, a stopword-filtered
// token sequence, and a noun-phrase sequence, with no tool-specific
// knowledge whatsoever.
//
// Both the NER-style tagger and the noun-phrase chunker are hand-rolled on
// top of the standard library: capitalization runs identify names and
// places, and a fixed set of regexes catches structured spans (paths,
// URLs, emails, and the like). See DESIGN.md for why no NLP library was
// used instead.
package extract

import (
	"regexp"
	"sort"
	"strings"
)

// Entity is one labeled span produced by extraction.
type Entity struct {
	Text       string
	Label      string
	Start      int
	End        int
	Confidence float64
	Source     string // "ner" or "pattern"
}

// Result is the Extraction Result.
type Result struct {
	Original    string
	Normalized  string
	Entities    []Entity
	Tokens      []string
	NounPhrases []string
	Empty       bool
}

// NER entity labels.
const (
	LabelPerson    = "PERSON"
	LabelOrg       = "ORG"
	LabelGPE       = "GPE"
	LabelDate      = "DATE"
	LabelTime      = "TIME"
	LabelMoney     = "MONEY"
	LabelCardinal  = "CARDINAL"
	LabelQuantity  = "QUANTITY"
	LabelPercent   = "PERCENT"
	LabelLoc       = "LOC"
	LabelFilePath  = "FILE_PATH"
	LabelURL       = "URL"
	LabelEmail     = "EMAIL"
	LabelIPAddress = "IP_ADDRESS"
	LabelPort      = "PORT"
	LabelVersion   = "VERSION"
	LabelJSONPath  = "JSON_PATH"
	LabelCommand   = "COMMAND"
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "to": {}, "of": {}, "in": {}, "on": {}, "at": {},
	"for": {}, "and": {}, "or": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "it": {}, "this": {}, "that": {}, "with": {}, "as": {},
	"by": {}, "from": {}, "into": {}, "about": {}, "me": {}, "my": {}, "i": {},
	"you": {}, "your": {}, "please": {},
}

var punctRunes = ".,!?;:\"'()[]{}<>`"

// Extract normalizes text, then runs NER and pattern extraction, tokenization,
// and noun-phrase chunking over it in one pass.
func Extract(text string) Result {
	normalized := normalizeWhitespace(text)
	if normalized == "" {
		return Result{Original: text, Normalized: normalized, Empty: true}
	}

	nerEntities := extractNER(normalized)
	patternEntities := extractPatterns(normalized)
	entities := dedupe(append(nerEntities, patternEntities...))

	tokens := tokenize(normalized)
	nounPhrases := chunkNounPhrases(normalized, nerEntities)

	return Result{
		Original:    text,
		Normalized:  normalized,
		Entities:    entities,
		Tokens:      tokens,
		NounPhrases: nounPhrases,
	}
}

func normalizeWhitespace(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}

// dedupe implements the union + sort + left-to-right-emit algorithm:
// sort by (start, NER-first), then emit any entity whose start is >= the
// end of the last emitted entity. NER wins ties.
func dedupe(entities []Entity) []Entity {
	sort.SliceStable(entities, func(i, j int) bool {
		if entities[i].Start != entities[j].Start {
			return entities[i].Start < entities[j].Start
		}
		iNER := entities[i].Source == "ner"
		jNER := entities[j].Source == "ner"
		if iNER != jNER {
			return iNER
		}
		return false
	})
	out := make([]Entity, 0, len(entities))
	lastEnd := -1
	for _, e := range entities {
		if e.Start >= lastEnd {
			out = append(out, e)
			lastEnd = e.End
		}
	}
	return out
}

func tokenize(normalized string) []string {
	raw := strings.Fields(normalized)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		cleaned := strings.Trim(tok, punctRunes)
		if cleaned == "" {
			continue
		}
		if _, isStop := stopwords[strings.ToLower(cleaned)]; isStop {
			continue
		}
		out = append(out, cleaned)
	}
	return out
}

// chunkNounPhrases returns the text of every NER-tagged span, followed by
// every run of two to four adjacent words that each start with a letter
// (in either case) matched by nounRunRe, dropping repeats. This keeps the behavior
// deterministic while approximating what a real NER tagger's chunker
// returns verbatim.
func chunkNounPhrases(normalized string, nerEntities []Entity) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, e := range nerEntities {
		if _, ok := seen[e.Text]; ok {
			continue
		}
		seen[e.Text] = struct{}{}
		out = append(out, e.Text)
	}
	for _, m := range nounRunRe.FindAllString(normalized, -1) {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

var nounRunRe = regexp.MustCompile(`\b[A-Za-z][A-Za-z0-9_']*(?:\s+[A-Za-z][A-Za-z0-9_']*){1,3}\b`)
