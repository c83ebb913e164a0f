package extract

import "regexp"

// Pattern source regexes. Order matters only for readability;
// dedupe() in extract.go resolves any overlap.
var (
	filePathRe = regexp.MustCompile(`(?:~[\\/][\w.\-\\/ ]+|/[\w.\-]+(?:/[\w.\-]+)+|[A-Za-z]:\\[\w.\-\\ ]+|\.{1,2}/[\w.\-/]+)`)
	urlRe      = regexp.MustCompile(`\b(?:https?://|www\.)[^\s<>"']+`)
	emailRe    = regexp.MustCompile(`\b[\w.+-]+@[\w-]+\.[\w.-]+\b`)
	ipv4Re     = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	ipv6Re     = regexp.MustCompile(`\b[0-9A-Fa-f]{1,4}(?::[0-9A-Fa-f]{1,4}){7}\b`)
	portRe     = regexp.MustCompile(`:\d{1,5}\b`)
	versionRe  = regexp.MustCompile(`\bv?\d+\.\d+(?:\.\d+)*(?:-[A-Za-z0-9]+)?\b`)
	jsonPathRe = regexp.MustCompile(`\$(?:\.[\w\[\]*]+)+`)
	commandRe  = regexp.MustCompile("`([^`]+)`")
)

// extractPatterns applies the fixed compiled regex set.
func extractPatterns(text string) []Entity {
	var out []Entity
	add := func(re *regexp.Regexp, label string, confidence float64) {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			out = append(out, Entity{Text: text[loc[0]:loc[1]], Label: label, Start: loc[0], End: loc[1], Confidence: confidence, Source: "pattern"})
		}
	}
	add(filePathRe, LabelFilePath, 0.85)
	add(urlRe, LabelURL, 0.9)
	add(emailRe, LabelEmail, 0.95)
	add(ipv6Re, LabelIPAddress, 0.9)
	add(ipv4Re, LabelIPAddress, 0.9)
	add(portRe, LabelPort, 0.7)
	add(versionRe, LabelVersion, 0.8)
	add(jsonPathRe, LabelJSONPath, 0.85)

	for _, m := range commandRe.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, Entity{
			Text:       text[m[2]:m[3]],
			Label:      LabelCommand,
			Start:      m[0],
			End:        m[1],
			Confidence: 0.9,
			Source:     "pattern",
		})
	}
	return out
}
