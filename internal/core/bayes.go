package core

import (
	"math"
	"math/rand"
	"sort"

	"healthmate/internal/dataset"
	"healthmate/pkg"
)

// bayesSeed fixes the train/test shuffle so the held-out accuracy is
// reproducible across runs.
const bayesSeed = 42

// BayesMatcher is a Bernoulli naive Bayes classifier over a fixed symptom
// vocabulary.  Each training row is a binary presence vector; an 80/20
// held-out split is used only to report accuracy, the final model is fitted
// on the training portion.
type BayesMatcher struct {
	vocab      []string
	vocabIndex map[string]int
	classes    []string    // sorted disease labels
	logPrior   []float64   // per class
	logOn      [][]float64 // [class][feature] log P(present|class)
	logOff     [][]float64 // [class][feature] log P(absent|class)
	accuracy   float64     // held-out accuracy, percentage
}

// NewBayesMatcher builds the vocabulary, fits the classifier and records the
// held-out accuracy.
func NewBayesMatcher(rows []dataset.SymptomRow) *BayesMatcher {
	m := &BayesMatcher{}
	m.buildVocabulary(rows)
	samples := make([][]uint8, len(rows))
	labels := make([]string, len(rows))
	for i, row := range rows {
		samples[i] = m.vectorize(row.Symptoms)
		labels[i] = row.Disease
	}

	// 80/20 split with a fixed seed; tiny datasets train on everything.
	idx := rand.New(rand.NewSource(bayesSeed)).Perm(len(rows))
	testN := len(rows) / 5
	trainIdx, testIdx := idx[:len(rows)-testN], idx[len(rows)-testN:]

	m.fit(samples, labels, trainIdx)
	m.accuracy = m.evaluate(samples, labels, testIdx)
	return m
}

func (m *BayesMatcher) buildVocabulary(rows []dataset.SymptomRow) {
	set := make(map[string]struct{})
	for _, row := range rows {
		for _, s := range row.Symptoms {
			if tok := NormalizeToken(s); tok != "" {
				set[tok] = struct{}{}
			}
		}
	}
	m.vocab = make([]string, 0, len(set))
	for tok := range set {
		m.vocab = append(m.vocab, tok)
	}
	sort.Strings(m.vocab)
	m.vocabIndex = make(map[string]int, len(m.vocab))
	for i, tok := range m.vocab {
		m.vocabIndex[tok] = i
	}
}

// vectorize maps a symptom list onto the vocabulary.  Unknown tokens carry no
// signal and are silently dropped.
func (m *BayesMatcher) vectorize(symptoms []string) []uint8 {
	vec := make([]uint8, len(m.vocab))
	for _, s := range symptoms {
		if i, ok := m.vocabIndex[NormalizeToken(s)]; ok {
			vec[i] = 1
		}
	}
	return vec
}

// fit estimates class priors and per-feature Bernoulli parameters with
// Laplace smoothing (alpha = 1).
func (m *BayesMatcher) fit(samples [][]uint8, labels []string, trainIdx []int) {
	classSet := make(map[string]struct{})
	for _, l := range labels {
		classSet[l] = struct{}{}
	}
	m.classes = make([]string, 0, len(classSet))
	for c := range classSet {
		m.classes = append(m.classes, c)
	}
	sort.Strings(m.classes)
	classIdx := make(map[string]int, len(m.classes))
	for i, c := range m.classes {
		classIdx[c] = i
	}

	counts := make([]float64, len(m.classes))
	featCounts := make([][]float64, len(m.classes))
	for i := range featCounts {
		featCounts[i] = make([]float64, len(m.vocab))
	}
	for _, i := range trainIdx {
		c := classIdx[labels[i]]
		counts[c]++
		for f, v := range samples[i] {
			if v == 1 {
				featCounts[c][f]++
			}
		}
	}

	total := float64(len(trainIdx))
	m.logPrior = make([]float64, len(m.classes))
	m.logOn = make([][]float64, len(m.classes))
	m.logOff = make([][]float64, len(m.classes))
	for c := range m.classes {
		// Unseen classes fall back to a uniform tiny prior via smoothing.
		m.logPrior[c] = math.Log((counts[c] + 1) / (total + float64(len(m.classes))))
		m.logOn[c] = make([]float64, len(m.vocab))
		m.logOff[c] = make([]float64, len(m.vocab))
		for f := range m.vocab {
			p := (featCounts[c][f] + 1) / (counts[c] + 2)
			m.logOn[c][f] = math.Log(p)
			m.logOff[c][f] = math.Log(1 - p)
		}
	}
}

// probabilities returns the normalized per-class posterior for a vector.
func (m *BayesMatcher) probabilities(vec []uint8) []float64 {
	joint := make([]float64, len(m.classes))
	for c := range m.classes {
		lp := m.logPrior[c]
		for f, v := range vec {
			if v == 1 {
				lp += m.logOn[c][f]
			} else {
				lp += m.logOff[c][f]
			}
		}
		joint[c] = lp
	}
	// Log-sum-exp normalization.
	max := math.Inf(-1)
	for _, lp := range joint {
		if lp > max {
			max = lp
		}
	}
	var sum float64
	probs := make([]float64, len(joint))
	for c, lp := range joint {
		probs[c] = math.Exp(lp - max)
		sum += probs[c]
	}
	for c := range probs {
		probs[c] /= sum
	}
	return probs
}

func (m *BayesMatcher) evaluate(samples [][]uint8, labels []string, testIdx []int) float64 {
	if len(testIdx) == 0 {
		return 0
	}
	correct := 0
	for _, i := range testIdx {
		probs := m.probabilities(samples[i])
		best := 0
		for c := range probs {
			if probs[c] > probs[best] {
				best = c
			}
		}
		if m.classes[best] == labels[i] {
			correct++
		}
	}
	return round2(float64(correct) / float64(len(testIdx)) * 100)
}

// PredictDisease returns the five most probable diseases with probabilities
// scaled to percentages.
func (m *BayesMatcher) PredictDisease(symptoms []string) pkg.Prediction {
	input := normalizeSymptoms(symptoms)
	probs := m.probabilities(m.vectorize(input))
	order := make([]int, len(m.classes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return probs[order[i]] > probs[order[j]]
	})
	if len(order) > maxPredictions {
		order = order[:maxPredictions]
	}
	out := pkg.Prediction{
		Diseases:      make([]string, 0, len(order)),
		Scores:        make(map[string]float64, len(order)),
		InputSymptoms: input,
	}
	for _, c := range order {
		out.Diseases = append(out.Diseases, m.classes[c])
		out.Scores[m.classes[c]] = round2(probs[c] * 100)
	}
	return out
}

// AllSymptoms returns the fixed vocabulary, sorted.
func (m *BayesMatcher) AllSymptoms() []string {
	out := make([]string, len(m.vocab))
	copy(out, m.vocab)
	return out
}

// Accuracy reports the held-out accuracy as a percentage.
func (m *BayesMatcher) Accuracy() float64 { return m.accuracy }

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
