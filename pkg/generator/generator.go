package generator

import (
	mathrand "math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/getmockd/mockapi/internal/id"
	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/record"
)

// Generator produces field values and whole records.
// It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *mathrand.Rand
	now func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes the generator deterministic.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.rng = mathrand.New(mathrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithClock overrides the time source used for createdAt and date fields.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// New creates a Generator. Without WithSeed it draws from the global source.
func New(opts ...Option) *Generator {
	g := &Generator{now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var defaultGenerator = New()

// Generate produces one value for field using the package default generator.
func Generate(field catalog.FieldSpec, related map[string][]*record.Record) any {
	return defaultGenerator.Value(field, related)
}

// GenerateRecords produces count records for def using the package default generator.
func GenerateRecords(def *catalog.ResourceDefinition, count int, related map[string][]*record.Record) []*record.Record {
	return defaultGenerator.Records(def, count, related)
}

// Value produces one value for field. related maps resource names to their
// records and is consulted only for relation fields.
func (g *Generator) Value(field catalog.FieldSpec, related map[string][]*record.Record) any {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value(field, related)
}

// Records produces count records for def. Every record gets a fresh id first,
// then one value per field in declaration order, then createdAt.
func (g *Generator) Records(def *catalog.ResourceDefinition, count int, related map[string][]*record.Record) []*record.Record {
	if def == nil || count <= 0 {
		return []*record.Record{}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]*record.Record, 0, count)
	for range count {
		r := record.New()
		r.Set(record.FieldID, id.SeededUUID(g.rng))
		for _, f := range def.Fields {
			if f.Name == "" || f.Name == record.FieldID || f.Name == record.FieldCreatedAt {
				continue
			}
			r.Set(f.Name, g.value(f, related))
		}
		r.Set(record.FieldCreatedAt, record.Timestamp(g.now()))
		out = append(out, r)
	}
	return out
}

func (g *Generator) value(f catalog.FieldSpec, related map[string][]*record.Record) any {
	hint, hasHint := hints[hintKey(f.Generator)]

	switch f.Type {
	case catalog.FieldNumber:
		if hasHint {
			if n, ok := record.ToNumber(hint(g)); ok {
				return n
			}
		}
		return float64(g.intN(1000))
	case catalog.FieldBoolean:
		return g.intN(2) == 1
	case catalog.FieldDate:
		return g.date(hintKey(f.Generator))
	case catalog.FieldEmail:
		return g.email()
	case catalog.FieldUUID:
		return id.SeededUUID(g.rng)
	case catalog.FieldImage:
		return g.image(hintKey(f.Generator))
	case catalog.FieldRelation:
		return g.relation(related[f.RelationTo])
	default:
		if hasHint {
			return record.Render(hint(g))
		}
		return pick(g, words)
	}
}

func (g *Generator) relation(records []*record.Record) any {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if id := r.ID(); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return ids[g.intN(len(ids))]
}

func (g *Generator) date(hint string) string {
	const day = 24 * time.Hour
	now := g.now()
	switch hint {
	case "future":
		return record.Timestamp(now.Add(time.Duration(g.intN(365)+1) * day))
	case "recent":
		return record.Timestamp(now.Add(-time.Duration(g.intN(7*24*60)) * time.Minute))
	case "birthdate":
		return now.AddDate(-(18 + g.intN(62)), 0, -g.intN(365)).UTC().Format(time.DateOnly)
	default:
		return record.Timestamp(now.Add(-time.Duration(g.intN(365*24)) * time.Hour))
	}
}

func (g *Generator) image(hint string) string {
	switch hint {
	case "avatar":
		return "https://i.pravatar.cc/150?u=" + id.SeededUUID(g.rng)
	default:
		return "https://picsum.photos/seed/" + pick(g, words) + id.SeededUUID(g.rng)[:8] + "/640/480"
	}
}

func (g *Generator) intN(n int) int {
	if n <= 0 {
		return 0
	}
	if g.rng != nil {
		return g.rng.IntN(n)
	}
	return mathrand.IntN(n)
}

func (g *Generator) float64() float64 {
	if g.rng != nil {
		return g.rng.Float64()
	}
	return mathrand.Float64()
}

func pick(g *Generator, list []string) string {
	return list[g.intN(len(list))]
}

// hintKey folds "firstName", "first_name" and "first-name" to one key.
func hintKey(hint string) string {
	hint = strings.ToLower(strings.TrimSpace(hint))
	return strings.NewReplacer("_", "", "-", "", ".", "").Replace(hint)
}
