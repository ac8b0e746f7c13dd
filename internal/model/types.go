package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Item is a single knapsack candidate. Items are addressed by their position
// in Instance.Items.
type Item struct {
	Weight int `json:"weight"`
	Value  int `json:"value"`
}

// Instance is one knapsack test case.
type Instance struct {
	ID       string `json:"id,omitempty"`
	Capacity int    `json:"capacity"`
	Items    []Item `json:"items"`
}

// Chromosome encodes an item selection; gene i set means item i is packed.
type Chromosome []bool

func (c Chromosome) Clone() Chromosome {
	if c == nil {
		return nil
	}
	out := make(Chromosome, len(c))
	copy(out, c)
	return out
}

func (c Chromosome) Equal(other Chromosome) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the chromosome as a bit string, gene 0 first.
func (c Chromosome) String() string {
	buf := make([]byte, len(c))
	for i, gene := range c {
		if gene {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return string(buf)
}

// ParseChromosome is the inverse of Chromosome.String.
func ParseChromosome(bits string) (Chromosome, bool) {
	out := make(Chromosome, len(bits))
	for i := 0; i < len(bits); i++ {
		switch bits[i] {
		case '1':
			out[i] = true
		case '0':
		default:
			return nil, false
		}
	}
	return out, true
}

type Solution struct {
	Chromosome Chromosome `json:"chromosome"`
	Fitness    int        `json:"fitness"`
}

// Result is the structured outcome reported for one instance.
type Result struct {
	BestFitness     int   `json:"best_fitness"`
	SelectedIndices []int `json:"selected_indices"`
	TotalWeight     int   `json:"total_weight"`
	TotalValue      int   `json:"total_value"`
}

type GenerationDiagnostics struct {
	Generation        int     `json:"generation"`
	BestFitness       int     `json:"best_fitness"`
	GenerationBest    int     `json:"generation_best"`
	MeanFitness       float64 `json:"mean_fitness"`
	MinFitness        int     `json:"min_fitness"`
	FitnessStdDev     float64 `json:"fitness_std_dev"`
	FeasibleCount     int     `json:"feasible_count"`
	DistinctGenotypes int     `json:"distinct_genotypes"`
}

// CaseRecord is the persisted outcome of one instance inside a run.
type CaseRecord struct {
	CaseIndex     int      `json:"case_index"`
	Instance      Instance `json:"instance"`
	Best          Solution `json:"best"`
	Result        Result   `json:"result"`
	InitFallbacks int      `json:"init_fallbacks"`
	Optimum       *int     `json:"optimum,omitempty"`
}

// RunRecord groups every case solved by one solve invocation.
type RunRecord struct {
	VersionedRecord
	ID           string       `json:"id"`
	CreatedAtUTC string       `json:"created_at_utc"`
	Seed         int64        `json:"seed"`
	Cases        []CaseRecord `json:"cases"`
}
