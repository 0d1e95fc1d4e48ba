package sankey

import (
	"fmt"
	"reflect"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

var propertyLayers = []string{"District", "Year", "Category"}

// rowsFromSeeds expands generated integers into crime-like rows drawn from
// small alphabets so that duplicate pairs are common.
func rowsFromSeeds(seeds []int) []Row {
	rows := make([]Row, len(seeds))
	for i, s := range seeds {
		rows[i] = Row{
			"District": fmt.Sprintf("D%d", s%4),
			"Year":     2020 + (s/4)%3,
			"Category": string(rune('P' + (s/12)%4)),
			"count":    s % 9,
		}
	}
	return rows
}

// preCodeEdges returns the aggregated edges keyed by label pair.
func preCodeEdges(g *Graph) map[string]string {
	out := make(map[string]string, len(g.Links))
	for _, l := range g.Links {
		key := fmt.Sprintf("%v->%v", g.Labels[l.Source], g.Labels[l.Target])
		out[key] = l.Value.String()
	}
	return out
}

// TestBuildProperties checks the builder invariants on generated tables.
func TestBuildProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	seeds := gen.SliceOf(gen.IntRange(0, 1000))

	properties.Property("repeated builds are identical", prop.ForAll(
		func(s []int) bool {
			a, errA := Build(rowsFromSeeds(s), propertyLayers, "count")
			b, errB := Build(rowsFromSeeds(s), propertyLayers, "count")
			return errA == nil && errB == nil && reflect.DeepEqual(a.Labels, b.Labels) &&
				reflect.DeepEqual(preCodeEdges(a), preCodeEdges(b)) && len(a.Links) == len(b.Links)
		},
		seeds,
	))

	properties.Property("record order does not change edges or codes", prop.ForAll(
		func(s []int) bool {
			rows := rowsFromSeeds(s)
			reversed := slices.Clone(rows)
			slices.Reverse(reversed)

			a, errA := Build(rows, propertyLayers, "count")
			b, errB := Build(reversed, propertyLayers, "count")
			return errA == nil && errB == nil &&
				reflect.DeepEqual(a.Labels, b.Labels) &&
				reflect.DeepEqual(preCodeEdges(a), preCodeEdges(b))
		},
		seeds,
	))

	properties.Property("every label is used and codes are dense", prop.ForAll(
		func(s []int) bool {
			g, err := Build(rowsFromSeeds(s), propertyLayers, "count")
			if err != nil {
				return false
			}
			used := make([]bool, len(g.Labels))
			for _, l := range g.Links {
				if l.Source < 0 || l.Source >= len(used) || l.Target < 0 || l.Target >= len(used) {
					return false
				}
				used[l.Source] = true
				used[l.Target] = true
			}
			return !slices.Contains(used, false)
		},
		seeds,
	))

	properties.Property("(source, target) pairs are unique", prop.ForAll(
		func(s []int) bool {
			g, err := Build(rowsFromSeeds(s), propertyLayers, "count")
			if err != nil {
				return false
			}
			seen := make(map[[2]int]bool, len(g.Links))
			for _, l := range g.Links {
				k := [2]int{l.Source, l.Target}
				if seen[k] {
					return false
				}
				seen[k] = true
			}
			return true
		},
		seeds,
	))

	properties.Property("sums match a direct recount", prop.ForAll(
		func(s []int) bool {
			rows := rowsFromSeeds(s)
			g, err := Build(rows, propertyLayers, "count")
			if err != nil {
				return false
			}

			want := make(map[string]decimal.Decimal)
			for hop := 0; hop < len(propertyLayers)-1; hop++ {
				for _, r := range rows {
					src, _ := normalizeLabel(r[propertyLayers[hop]])
					dst, _ := normalizeLabel(r[propertyLayers[hop+1]])
					key := fmt.Sprintf("%v->%v", src, dst)
					want[key] = want[key].Add(decimal.NewFromInt(int64(r["count"].(int))))
				}
			}

			got := preCodeEdges(g)
			if len(got) != len(want) {
				return false
			}
			for k, v := range want {
				if got[k] != v.String() {
					return false
				}
			}
			return true
		},
		seeds,
	))

	properties.Property("total weight is preserved per hop", prop.ForAll(
		func(s []int) bool {
			rows := rowsFromSeeds(s)
			g, err := Build(rows, propertyLayers, "count")
			if err != nil {
				return false
			}
			sum := 0
			for _, r := range rows {
				sum += r["count"].(int)
			}
			hops := int64(len(propertyLayers) - 1)
			return g.Total().Equal(decimal.NewFromInt(int64(sum) * hops))
		},
		seeds,
	))

	properties.TestingRun(t)
}
