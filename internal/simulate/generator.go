package simulate

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/okian/turforacle/internal/adapters/repository"
	"github.com/okian/turforacle/internal/domain/injury"
	"github.com/okian/turforacle/internal/domain/model"
)

var (
	stallionNames = []string{"Secretariat", "Mahmoud", "War Admiral", "Northern Dancer", "Sea The Stars", "Frankel", "Galileo", "Dubawi"}
	mareNames     = []string{"Pocahontas", "Urban Sea", "Zenyatta", "Winx", "Enable", "Goldikova", "Personal Ensign", "Rags to Riches"}
	foalNames     = []string{"Silver Ledger", "Quiet Oath", "Hash Runner", "Copper Gate", "Night Auditor", "Blue Furlong", "Late Frost", "Morning Tally"}
	tracks        = []string{"Churchill Downs", "Ascot", "Longchamp", "Flemington", "Saratoga", "Meydan", "Tokyo", "Keeneland"}
	raceClasses   = []string{"Grade 1", "Grade 2", "Grade 3", "Listed", "Allowance", "Maiden"}
	surfaces      = []string{"dirt", "turf", "synthetic"}
	headlines     = []string{"%s impresses in morning work", "%s scratched after vet check", "%s changes trainers", "%s syndicated for stud duty", "%s misses entry deadline"}
)

// Generator builds a deterministic herd and event stream from a seed.
type Generator struct {
	rng     *rand.Rand
	seed    uint64
	start   time.Time
	seq     int
	catalog []string
	herd    []repository.Horse
}

// NewGenerator creates a generator. Events are stamped one minute apart
// starting at start.
func NewGenerator(seed uint64, start time.Time) *Generator {
	return &Generator{
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		seed:    seed,
		start:   start.UTC(),
		catalog: injury.Default().Codes(),
	}
}

// Herd generates n horses with token ids from firstID: a quarter stallions,
// a quarter mares and the rest their foals.
func (g *Generator) Herd(n int, firstID model.TokenID) []repository.Horse {
	sires := max(1, n/4)
	mares := max(1, n/4)
	if sires+mares > n {
		mares = n - sires
	}

	herd := make([]repository.Horse, 0, n)
	id := firstID
	for i := range sires {
		herd = append(herd, g.parent(id, pick(stallionNames, i), model.SexMale))
		id++
	}
	for i := range mares {
		herd = append(herd, g.parent(id, pick(mareNames, i), model.SexFemale))
		id++
	}
	for i := range n - sires - mares {
		sire := herd[g.rng.IntN(sires)].TokenID
		dam := herd[sires+g.rng.IntN(mares)].TokenID
		herd = append(herd, repository.Horse{
			TokenID:       id,
			Name:          pick(foalNames, i),
			Sex:           g.foalSex(),
			SireID:        &sire,
			DamID:         &dam,
			PedigreeScore: g.rng.IntN(10001),
			Value:         float64(5_000 + g.rng.IntN(95_001)),
		})
		id++
	}
	g.herd = herd
	return herd
}

func (g *Generator) parent(id model.TokenID, name string, sex model.Sex) repository.Horse {
	return repository.Horse{
		TokenID:       id,
		Name:          name,
		Sex:           sex,
		PedigreeScore: 5_000 + g.rng.IntN(5_001),
		Value:         float64(100_000 + g.rng.IntN(900_001)),
	}
}

func (g *Generator) foalSex() model.Sex {
	switch g.rng.IntN(5) {
	case 0, 1:
		return model.SexMale
	case 2, 3:
		return model.SexFemale
	default:
		return model.SexGelding
	}
}

// Events generates n events about horses of the last generated herd.
func (g *Generator) Events(n int) []model.Event {
	events := make([]model.Event, 0, n)
	for range n {
		events = append(events, g.Event(g.herd[g.rng.IntN(len(g.herd))]))
	}
	return events
}

// Event generates one event about h: mostly race results, some news and the
// occasional injury.
func (g *Generator) Event(h repository.Horse) model.Event { //nolint:gocritic // hugeParam
	g.seq++
	e := model.Event{
		SchemaVersion: model.SchemaVersion,
		EventID:       fmt.Sprintf("sim-%d-%06d", g.seed, g.seq),
		OccurredAt:    g.start.Add(time.Duration(g.seq) * time.Minute).Format(time.RFC3339),
		Horse:         model.HorseRef{TokenID: h.TokenID, Name: h.Name},
		Source:        model.Source{Kind: model.SourceSimulation, Provider: simulationProvider, Confidence: 1},
	}

	switch roll := g.rng.IntN(100); {
	case roll < 60:
		e.Type = model.EventRaceResult
		e.Payload = g.race()
	case roll < 85:
		e.Type = model.EventNews
		e.Payload = model.NewsItem{
			Headline:     fmt.Sprintf(pick(headlines, g.rng.IntN(len(headlines))), h.Name),
			SentimentBps: g.rng.IntN(20_001) - 10_000,
		}
	default:
		e.Type = model.EventInjury
		e.Payload = model.InjuryReport{
			Type:            g.catalog[g.rng.IntN(len(g.catalog))],
			SeverityBps:     g.rng.IntN(10_001),
			ExpectedDaysOut: g.rng.IntN(366),
		}
	}
	return e
}

func (g *Generator) race() model.RaceResult {
	field := 6 + g.rng.IntN(9)
	finish := 1 + g.rng.IntN(field)
	purse := float64(25_000 * (1 + g.rng.IntN(40)))
	r := model.RaceResult{
		Track:          tracks[g.rng.IntN(len(tracks))],
		RaceClass:      raceClasses[g.rng.IntN(len(raceClasses))],
		Surface:        surfaces[g.rng.IntN(len(surfaces))],
		DistanceMeters: 1_000 + 100*g.rng.IntN(23),
		FieldSize:      field,
		FinishPosition: finish,
		MarginLengths:  float64(g.rng.IntN(40)) / 4,
		FinalTimeMs:    int64(55_000 + g.rng.IntN(150_000)),
		Purse:          purse,
		Odds:           1 + float64(g.rng.IntN(400))/10,
		Connections:    model.Connections{Jockey: "sim-jockey", Trainer: "sim-trainer"},
	}
	if finish == 1 {
		r.Earnings = purse * 0.6
	}
	return r
}

// pick cycles through names, numbering repeats.
func pick(names []string, i int) string {
	name := names[i%len(names)]
	if round := i / len(names); round > 0 {
		return fmt.Sprintf("%s %d", name, round+1)
	}
	return name
}
