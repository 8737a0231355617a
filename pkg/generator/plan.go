package generator

import (
	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/record"
)

// Order returns defs arranged so a resource comes after the resources its
// relation fields point at. Cycles and unknown targets keep catalog order.
func Order(defs []*catalog.ResourceDefinition) []*catalog.ResourceDefinition {
	byName := make(map[string]*catalog.ResourceDefinition, len(defs))
	for _, d := range defs {
		byName[d.Name] = d
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(defs))
	out := make([]*catalog.ResourceDefinition, 0, len(defs))

	var visit func(d *catalog.ResourceDefinition)
	visit = func(d *catalog.ResourceDefinition) {
		if state[d.Name] != unvisited {
			return
		}
		state[d.Name] = visiting
		for _, f := range d.Fields {
			if f.Type != catalog.FieldRelation || f.RelationTo == d.Name {
				continue
			}
			if dep, ok := byName[f.RelationTo]; ok {
				visit(dep)
			}
		}
		state[d.Name] = done
		out = append(out, d)
	}
	for _, d := range defs {
		visit(d)
	}
	return out
}

// All generates counts[name] records for every resource in defs, in
// dependency order, so relation fields can point at records generated in the
// same pass. existing seeds relation targets that are not regenerated.
func (g *Generator) All(defs []*catalog.ResourceDefinition, counts map[string]int, existing map[string][]*record.Record) map[string][]*record.Record {
	related := make(map[string][]*record.Record, len(existing)+len(counts))
	for name, recs := range existing {
		related[name] = recs
	}

	out := make(map[string][]*record.Record, len(counts))
	for _, d := range Order(defs) {
		n, ok := counts[d.Name]
		if !ok {
			continue
		}
		recs := g.Records(d, n, related)
		out[d.Name] = recs
		related[d.Name] = recs
	}
	return out
}
