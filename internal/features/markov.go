package features

import "github.com/yourusername/streak-oracle/internal/models"

func slot(l models.Label) int {
	if l == models.LabelA {
		return 0
	}
	return 1
}

// MarkovCounts holds order-1 and order-2 transition counts. Slot 0 is LabelA, slot 1 LabelB;
// the order-2 context ab is stored at First-label*2 + second-label.
type MarkovCounts struct {
	First  [2][2]int `json:"first"`
	Second [4][2]int `json:"second"`
}

// Markov counts transitions over consecutive pairs and triples of h.
func Markov(h []models.Event) MarkovCounts {
	var mc MarkovCounts
	for i := 1; i < len(h); i++ {
		mc.First[slot(h[i-1].Label)][slot(h[i].Label)]++
		if i >= 2 {
			ctx := slot(h[i-2].Label)*2 + slot(h[i-1].Label)
			mc.Second[ctx][slot(h[i].Label)]++
		}
	}
	return mc
}

// Transitions returns the number of observed transitions from a to b.
func (mc MarkovCounts) Transitions(a, b models.Label) int {
	return mc.First[slot(a)][slot(b)]
}

// P1 is P(next = A | last = x). Unseen contexts yield Neutral.
func (mc MarkovCounts) P1(x models.Label) float64 {
	row := mc.First[slot(x)]
	return ratio(row[0], row[0]+row[1])
}

// P2 is P(next = A | previous two = x, y). Unseen contexts yield Neutral.
func (mc MarkovCounts) P2(x, y models.Label) float64 {
	row := mc.Second[slot(x)*2+slot(y)]
	return ratio(row[0], row[0]+row[1])
}

// Seen2 reports whether the order-2 context (x, y) has been followed at least once.
func (mc MarkovCounts) Seen2(x, y models.Label) bool {
	row := mc.Second[slot(x)*2+slot(y)]
	return row[0]+row[1] > 0
}

// ratio reports Neutral for contexts that were never observed.
func ratio(num, den int) float64 {
	if den <= 0 {
		return Neutral
	}
	return float64(num) / float64(den)
}
