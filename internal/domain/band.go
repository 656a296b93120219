package domain

// Band classifies a score into a proficiency level.
type Band int

const (
	BandInitial Band = iota
	BandBeginner
	BandIntermediate
	BandAdvanced
)

// BandFor returns the band for a score: >=80 advanced, >=50 intermediate,
// >=20 beginner, anything lower initial.
func BandFor(score int) Band {
	switch {
	case score >= 80:
		return BandAdvanced
	case score >= 50:
		return BandIntermediate
	case score >= 20:
		return BandBeginner
	default:
		return BandInitial
	}
}

// AllBands returns every band from lowest to highest.
func AllBands() []Band {
	return []Band{BandInitial, BandBeginner, BandIntermediate, BandAdvanced}
}

// String returns the band key used in content tables and the API.
func (b Band) String() string {
	switch b {
	case BandAdvanced:
		return "advanced"
	case BandIntermediate:
		return "intermediate"
	case BandBeginner:
		return "beginner"
	default:
		return "initial"
	}
}

// Label returns the learner-facing label.
func (b Band) Label() string {
	switch b {
	case BandAdvanced:
		return "Avanzado"
	case BandIntermediate:
		return "Intermedio"
	case BandBeginner:
		return "Principiante"
	default:
		return "Inicial"
	}
}

// MarshalText encodes the band as its key.
func (b Band) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}
