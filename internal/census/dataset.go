package census

import (
	"context"
	"slices"
	"strconv"
	"sync"
)

// Dataset is a catalog-validated Bureau dataset such as "dec/pl" or "acs/acs5".
type Dataset struct {
	client *Client
	name   string

	mu    sync.Mutex
	years []int
}

// Dataset looks up name in the catalog and returns a handle to it. It fails
// with a NotFoundError when the catalog has no vintage of name.
func (c *Client) Dataset(ctx context.Context, name string) (*Dataset, error) {
	names, err := c.catalog.Names(ctx)
	if err != nil {
		return nil, err
	}
	if _, found := slices.BinarySearch(names, name); !found {
		return nil, &NotFoundError{Kind: KindDataset, Invalid: []string{name}}
	}
	return &Dataset{client: c, name: name}, nil
}

// Name returns the slash-joined dataset name.
func (d *Dataset) Name() string { return d.name }

// AvailableYears returns the vintages the catalog lists for the dataset,
// sorted ascending. The result is memoized on the Dataset.
func (d *Dataset) AvailableYears(ctx context.Context) ([]int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.years != nil {
		return d.years, nil
	}
	years, err := d.client.catalog.Years(ctx, d.name)
	if err != nil {
		return nil, err
	}
	d.years = years
	return years, nil
}

// checkYear fails with a NotFoundError naming the valid years when year is
// not a published vintage.
func (d *Dataset) checkYear(ctx context.Context, year int) error {
	years, err := d.AvailableYears(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(years, year) {
		return &NotFoundError{
			Kind:    KindYear,
			Dataset: d.name,
			Year:    year,
			Invalid: []string{strconv.Itoa(year)},
			Valid:   yearStrings(years),
		}
	}
	return nil
}
