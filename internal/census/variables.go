package census

import (
	"context"
	"slices"
	"strings"
)

// reservedVariables are API clauses listed in variables.json that are not
// statistical fields.
var reservedVariables = []string{"for", "in", "ucgid"}

// Variable is one queryable entry of a dataset-year variable catalog.
type Variable struct {
	Code          string `json:"code" yaml:"code"`
	Label         string `json:"label" yaml:"label"`
	Concept       string `json:"concept" yaml:"concept"`
	Group         string `json:"group,omitempty" yaml:"group,omitempty"`
	PredicateType string `json:"predicate_type,omitempty" yaml:"predicate_type,omitempty"`
}

type rawVariables struct {
	Variables map[string]rawVariable `json:"variables"`
}

type rawVariable struct {
	Label         string `json:"label"`
	Concept       string `json:"concept"`
	Group         string `json:"group"`
	PredicateType string `json:"predicateType"`
}

// Variables returns the queryable variables of the dataset in year, sorted by
// code. Reserved clauses, entries without a concept and the "Geography"
// placeholder are excluded.
func (d *Dataset) Variables(ctx context.Context, year int) ([]Variable, error) {
	if err := d.checkYear(ctx, year); err != nil {
		return nil, err
	}
	raw, err := getMetadata[rawVariables](ctx, d.client, d, year, "variables.json")
	if err != nil {
		return nil, err
	}
	return filterVariables(raw), nil
}

// ValidateVariables checks every code in vars against the dataset-year
// catalog and reports all unknown codes at once, in request order.
func (d *Dataset) ValidateVariables(ctx context.Context, year int, vars []string) error {
	catalog, err := d.Variables(ctx, year)
	if err != nil {
		return err
	}

	valid := make(map[string]bool, len(catalog))
	for _, v := range catalog {
		valid[v.Code] = true
	}

	var invalid []string
	for _, v := range vars {
		if !valid[v] && !slices.Contains(invalid, v) {
			invalid = append(invalid, v)
		}
	}
	if len(invalid) > 0 {
		return &NotFoundError{
			Kind:    KindVariable,
			Dataset: d.name,
			Year:    year,
			Invalid: invalid,
		}
	}
	return nil
}

func filterVariables(raw *rawVariables) []Variable {
	out := make([]Variable, 0, len(raw.Variables))
	for code, v := range raw.Variables {
		if slices.Contains(reservedVariables, code) {
			continue
		}
		if strings.TrimSpace(v.Concept) == "" || v.Label == "Geography" {
			continue
		}
		out = append(out, Variable{
			Code:          code,
			Label:         v.Label,
			Concept:       v.Concept,
			Group:         v.Group,
			PredicateType: v.PredicateType,
		})
	}
	slices.SortFunc(out, func(a, b Variable) int { return strings.Compare(a.Code, b.Code) })
	return out
}
