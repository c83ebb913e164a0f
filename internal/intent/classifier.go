package intent

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Classifier is a TF-IDF vectorizer paired with a multinomial (softmax)
// logistic regression head, trained from (text, label) pairs and mapping
// text to (label, confidence, alternatives) entirely on the standard
// library. This mirrors the scikit-learn TfidfVectorizer + LogisticRegression
// pipeline the tool registry's own classifier uses, down to unigram+bigram
// features, balanced class weighting, and an L2 penalty.
type Classifier struct {
	Trained bool
	Classes []string
	Vocab   map[string]int // feature -> column index
	IDF     []float64      // column index -> inverse document frequency
	Weights [][]float64    // [class][feature]
	Bias    []float64      // [class]
}

// TrainingSample is one (text, label) example with an optional weight.
type TrainingSample struct {
	Text   string
	Label  string
	Weight float64
}

// ClassMetrics reports per-class precision/recall/F1 on the held-out split.
type ClassMetrics struct {
	Label     string
	Precision float64
	Recall    float64
	F1        float64
}

// TrainResult summarizes a training run.
type TrainResult struct {
	Classifier *Classifier
	Metrics    []ClassMetrics
}

const (
	maxFeatures  = 5000
	l2Lambda     = 0.01
	learningRate = 0.5
	epochs       = 200
)

var tokenRe = regexp.MustCompile(`[a-z0-9]+`)

// stopwords mirrors sklearn's stop_words="english" closely enough to keep
// these short command-style inputs from drowning in function words.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "to": {}, "of": {}, "in": {}, "on": {}, "at": {},
	"for": {}, "and": {}, "or": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "it": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"with": {}, "as": {}, "by": {}, "from": {}, "into": {}, "about": {}, "me": {},
	"my": {}, "i": {}, "you": {}, "your": {}, "please": {}, "can": {}, "could": {},
	"would": {}, "will": {}, "do": {}, "does": {}, "here": {}, "there": {},
}

// unigrams tokenizes and strips stopwords; bigrams are built only from what
// survives, same as sklearn's analyzer when stop_words is set.
func unigrams(text string) []string {
	raw := tokenRe.FindAllString(strings.ToLower(text), -1)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if _, stop := stopwords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// ngrams produces the unigram+bigram feature set for one document,
// matching TfidfVectorizer(ngram_range=(1, 2)).
func ngrams(tokens []string) []string {
	out := make([]string, 0, 2*len(tokens))
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

// Train fits a TF-IDF + multinomial logistic regression classifier. It
// requires at least 10 samples and at least 2 distinct labels, reports
// per-class precision/recall/F1 on a stratified 80/20 held-out split, and
// returns the classifier trained on ALL samples (the split is only used for
// reporting).
func Train(samples []TrainingSample) (*TrainResult, error) {
	if len(samples) < 10 {
		return nil, fmt.Errorf("intent: training requires at least 10 samples, got %d", len(samples))
	}
	labels := map[string]struct{}{}
	for _, s := range samples {
		labels[s.Label] = struct{}{}
	}
	if len(labels) < 2 {
		return nil, fmt.Errorf("intent: training requires at least 2 distinct labels, got %d", len(labels))
	}

	train, test := stratifiedSplit(samples, 0.2)
	model := fit(train)
	metrics := evaluate(model, test)

	full := fit(samples)
	return &TrainResult{Classifier: full, Metrics: metrics}, nil
}

func stratifiedSplit(samples []TrainingSample, testFrac float64) (train, test []TrainingSample) {
	byLabel := map[string][]TrainingSample{}
	var order []string
	for _, s := range samples {
		if _, ok := byLabel[s.Label]; !ok {
			order = append(order, s.Label)
		}
		byLabel[s.Label] = append(byLabel[s.Label], s)
	}
	sort.Strings(order)
	for _, label := range order {
		group := byLabel[label]
		nTest := int(math.Round(float64(len(group)) * testFrac))
		if nTest == 0 && len(group) > 1 {
			nTest = 1
		}
		if nTest >= len(group) {
			nTest = len(group) - 1
		}
		test = append(test, group[:nTest]...)
		train = append(train, group[nTest:]...)
	}
	if len(train) == 0 {
		train = samples
	}
	return train, test
}

// buildVocab ranks features by corpus-wide frequency, same ordering
// TfidfVectorizer(max_features=...) uses, ties broken alphabetically for
// determinism.
func buildVocab(docs [][]string) (vocab map[string]int, idf []float64) {
	freq := map[string]int{}
	docFreq := map[string]int{}
	for _, doc := range docs {
		seen := map[string]struct{}{}
		for _, tok := range doc {
			freq[tok]++
			if _, ok := seen[tok]; !ok {
				docFreq[tok]++
				seen[tok] = struct{}{}
			}
		}
	}
	terms := make([]string, 0, len(freq))
	for t := range freq {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if freq[terms[i]] != freq[terms[j]] {
			return freq[terms[i]] > freq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}
	sort.Strings(terms) // stable column order independent of frequency ranking

	vocab = make(map[string]int, len(terms))
	idf = make([]float64, len(terms))
	n := float64(len(docs))
	for i, t := range terms {
		vocab[t] = i
		// smooth idf, matching sklearn's default smooth_idf=True
		idf[i] = math.Log((1+n)/(1+float64(docFreq[t]))) + 1
	}
	return vocab, idf
}

// vectorize turns one document's n-grams into an L2-normalized sparse
// TF-IDF vector over vocab.
func vectorize(doc []string, vocab map[string]int, idf []float64) map[int]float64 {
	counts := map[int]float64{}
	for _, tok := range doc {
		if idx, ok := vocab[tok]; ok {
			counts[idx]++
		}
	}
	var norm float64
	vec := make(map[int]float64, len(counts))
	for idx, c := range counts {
		v := c * idf[idx]
		vec[idx] = v
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for idx, v := range vec {
		vec[idx] = v / norm
	}
	return vec
}

func fit(samples []TrainingSample) *Classifier {
	docs := make([][]string, len(samples))
	for i, s := range samples {
		docs[i] = ngrams(unigrams(s.Text))
	}
	vocab, idf := buildVocab(docs)

	classSet := map[string]struct{}{}
	for _, s := range samples {
		classSet[s.Label] = struct{}{}
	}
	classes := make([]string, 0, len(classSet))
	for c := range classSet {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	classIndex := make(map[string]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}

	vectors := make([]map[int]float64, len(samples))
	for i, doc := range docs {
		vectors[i] = vectorize(doc, vocab, idf)
	}

	// class_weight="balanced": each sample is weighted inversely to its
	// class's share of the training set, so a majority label can't dominate
	// the gradient just by appearing more often.
	classCounts := make([]float64, len(classes))
	for _, s := range samples {
		classCounts[classIndex[s.Label]]++
	}
	sampleWeight := make([]float64, len(samples))
	for i, s := range samples {
		w := s.Weight
		if w <= 0 {
			w = 1
		}
		balanced := float64(len(samples)) / (float64(len(classes)) * classCounts[classIndex[s.Label]])
		sampleWeight[i] = w * balanced
	}

	weights := make([][]float64, len(classes))
	for c := range weights {
		weights[c] = make([]float64, len(vocab))
	}
	bias := make([]float64, len(classes))

	n := float64(len(samples))
	for epoch := 0; epoch < epochs; epoch++ {
		gradW := make([][]float64, len(classes))
		for c := range gradW {
			gradW[c] = make([]float64, len(vocab))
		}
		gradB := make([]float64, len(classes))

		for i, vec := range vectors {
			logits := make([]float64, len(classes))
			for c := range classes {
				logit := bias[c]
				for idx, v := range vec {
					logit += weights[c][idx] * v
				}
				logits[c] = logit
			}
			probs := softmaxVec(logits)

			target := classIndex[samples[i].Label]
			w := sampleWeight[i]
			for c := range classes {
				err := probs[c]
				if c == target {
					err -= 1
				}
				err *= w
				gradB[c] += err
				for idx, v := range vec {
					gradW[c][idx] += err * v
				}
			}
		}

		for c := range classes {
			bias[c] -= learningRate * gradB[c] / n
			for idx := range weights[c] {
				grad := gradW[c][idx]/n + l2Lambda*weights[c][idx]
				weights[c][idx] -= learningRate * grad
			}
		}
	}

	return &Classifier{
		Trained: true,
		Classes: classes,
		Vocab:   vocab,
		IDF:     idf,
		Weights: weights,
		Bias:    bias,
	}
}

// Predict returns the argmax label, its probability, and up to 3 runner-up
// alternatives.
func (c *Classifier) Predict(text string) (string, float64, []Alternative) {
	doc := ngrams(unigrams(text))
	vec := vectorize(doc, c.Vocab, c.IDF)

	logits := make([]float64, len(c.Classes))
	for ci := range c.Classes {
		logit := c.Bias[ci]
		for idx, v := range vec {
			logit += c.Weights[ci][idx] * v
		}
		logits[ci] = logit
	}
	probs := softmaxVec(logits)

	type scored struct {
		label string
		prob  float64
	}
	ranked := make([]scored, len(c.Classes))
	for i, label := range c.Classes {
		ranked[i] = scored{label, probs[i]}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].prob != ranked[j].prob {
			return ranked[i].prob > ranked[j].prob
		}
		return ranked[i].label < ranked[j].label
	})
	if len(ranked) == 0 {
		return "unknown", 0, nil
	}
	top := ranked[0]
	var alts []Alternative
	for _, r := range ranked[1:] {
		if len(alts) >= 3 {
			break
		}
		alts = append(alts, Alternative{Intent: r.label, Probability: r.prob})
	}
	return top.label, top.prob, alts
}

func softmaxVec(logits []float64) []float64 {
	max := math.Inf(-1)
	for _, v := range logits {
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		e := math.Exp(v - max)
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func evaluate(model *Classifier, test []TrainingSample) []ClassMetrics {
	tp := map[string]int{}
	fp := map[string]int{}
	fn := map[string]int{}
	for _, s := range test {
		pred, _, _ := model.Predict(s.Text)
		if pred == s.Label {
			tp[s.Label]++
		} else {
			fp[pred]++
			fn[s.Label]++
		}
	}
	var out []ClassMetrics
	for _, label := range model.Classes {
		p := precisionOf(tp[label], fp[label])
		r := recallOf(tp[label], fn[label])
		f1 := f1Of(p, r)
		out = append(out, ClassMetrics{Label: label, Precision: p, Recall: r, F1: f1})
	}
	return out
}

func precisionOf(tp, fp int) float64 {
	if tp+fp == 0 {
		return 0
	}
	return float64(tp) / float64(tp+fp)
}

func recallOf(tp, fn int) float64 {
	if tp+fn == 0 {
		return 0
	}
	return float64(tp) / float64(tp+fn)
}

func f1Of(p, r float64) float64 {
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// gobModel is the on-disk representation persisted by Save/Load.
type gobModel struct {
	Classes []string
	Vocab   map[string]int
	IDF     []float64
	Weights [][]float64
	Bias    []float64
	Trained bool
}

// Save persists the classifier to path atomically: it writes to a temp file
// in the same directory and renames over the target, so a reader never
// observes a partially written model.
func Save(c *Classifier, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".classifier-*.tmp")
	if err != nil {
		return fmt.Errorf("intent: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	enc := gob.NewEncoder(tmp)
	model := gobModel{
		Classes: c.Classes, Vocab: c.Vocab, IDF: c.IDF,
		Weights: c.Weights, Bias: c.Bias, Trained: c.Trained,
	}
	if err := enc.Encode(model); err != nil {
		tmp.Close()
		return fmt.Errorf("intent: encode classifier: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("intent: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("intent: rename classifier file: %w", err)
	}
	return nil
}

// Load reads a classifier previously written by Save. It returns
// os.ErrNotExist if path does not exist, letting callers treat "no model
// yet" as a normal startup state.
func Load(path string) (*Classifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var model gobModel
	if err := gob.NewDecoder(f).Decode(&model); err != nil {
		return nil, fmt.Errorf("intent: decode classifier: %w", err)
	}
	return &Classifier{
		Classes: model.Classes, Vocab: model.Vocab, IDF: model.IDF,
		Weights: model.Weights, Bias: model.Bias, Trained: model.Trained,
	}, nil
}
