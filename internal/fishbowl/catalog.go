package fishbowl

import (
	"sort"

	"github.com/beevik/etree"
	"github.com/danmuck/fishbowl/internal/protocol/codec"
	"github.com/danmuck/fishbowl/internal/records"
	"github.com/danmuck/fishbowl/internal/session"
)

func (c *Client) GetTaxRates() ([]*records.Record, error) {
	nodes, err := c.list("TaxRateGetRq", "TaxRateGetRs", "TaxRate")
	if err != nil {
		return nil, err
	}
	out := make([]*records.Record, 0, len(nodes))
	for _, el := range nodes {
		out = append(out, records.FromNode(records.TaxRate, el))
	}
	return out, nil
}

func (c *Client) GetLocationGroups(onlyActive bool) ([]*records.Record, error) {
	rows, err := c.SendQuery(locationGroupsSQL)
	if err != nil {
		return nil, err
	}
	var out []*records.Record
	for rows.Next() {
		group := records.FromRow(records.LocationGroup, rows.Row().Map())
		if onlyActive && !group.Bool("ActiveFlag") {
			continue
		}
		out = append(out, group)
	}
	return out, rows.Err()
}

// GetUOMMap returns units of measure keyed by UOM id.
func (c *Client) GetUOMMap() (map[int]*records.Record, error) {
	nodes, err := c.list("UOMRq", "UOMRs", "UOM")
	if err != nil {
		return nil, err
	}
	out := make(map[int]*records.Record, len(nodes))
	for _, el := range nodes {
		uom := records.FromNode(records.UOM, el)
		if id, ok := uom.Int("UOMID"); ok {
			out[id] = uom
		}
	}
	return out, nil
}

func attachUOM(rec *records.Record, uoms map[int]*records.Record) {
	id, ok := rec.Int("UOMID")
	if !ok {
		return
	}
	if uom, ok := uoms[id]; ok {
		rec.SetDerived("UOM", uom)
	}
}

// GetParts returns the light part list, optionally with each part's UOM
// attached as a derived field.
func (c *Client) GetParts(populateUOMs bool) ([]*records.Record, error) {
	nodes, err := c.list("LightPartListRq", "LightPartListRs", "LightPart")
	if err != nil {
		return nil, err
	}
	parts := make([]*records.Record, 0, len(nodes))
	for _, el := range nodes {
		parts = append(parts, records.FromNode(records.Part, el))
	}
	if !populateUOMs {
		return parts, nil
	}
	uoms, err := c.GetUOMMap()
	if err != nil {
		return nil, err
	}
	for _, part := range parts {
		attachUOM(part, uoms)
	}
	return parts, nil
}

func (c *Client) GetPartsAll() ([]*records.Record, error) {
	return c.BasicQuery(PartsSQL, records.Part)
}

func (c *Client) GetSerialNumbers() ([]*records.Record, error) {
	return c.BasicQuery(SerialNumberSQL, records.Serial)
}

func (c *Client) productFetch(number string) records.Fetch {
	return func() (*etree.Element, error) {
		return c.sess.SendRequest(session.Call{
			Name:         "ProductGetRq",
			Value:        codec.Fields{{Name: "Number", Value: number}},
			ResponseNode: "ProductGetRs",
		})
	}
}

// GetProducts builds the product list from the part list since the server
// has no product list request. Lazy products fetch on first access; eager
// ones cost one request per part, and parts with no product are skipped.
func (c *Client) GetProducts(lazy bool) ([]*records.Record, error) {
	parts, err := c.GetParts(false)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(parts))
	var products []*records.Record
	for _, part := range parts {
		number := part.String("Num")
		if number == "" || seen[number] {
			continue
		}
		fetch := c.productFetch(number)
		var product *records.Record
		if lazy {
			product = records.Lazy(records.Product, number, fetch).WithPolicy(c.opts.LazyErrors)
		} else {
			node, err := fetch()
			if err != nil {
				return nil, err
			}
			if len(node.ChildElements()) == 0 {
				continue
			}
			product = records.FromNode(records.Product, node)
		}
		product.SetDerived("Part", part)
		products = append(products, product)
		seen[number] = true
	}
	return products, nil
}

// GetProductsFast loads every product and its part in one query.
// customBools maps a field name to a boolean part custom field; each
// appears on the attached part record under the field name.
func (c *Client) GetProductsFast(populateUOMs bool, customBools map[string]string) ([]*records.Record, error) {
	var uoms map[int]*records.Record
	if populateUOMs {
		var err error
		if uoms, err = c.GetUOMMap(); err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(customBools))
	for name := range customBools {
		names = append(names, name)
	}
	sort.Strings(names)
	partSchema := records.Part.WithBools(names...)

	rows, err := c.SendQuery(ProductsSQL(customBools))
	if err != nil {
		return nil, err
	}
	var products []*records.Record
	for rows.Next() {
		// Newer servers add a customFields JSON column that clashes with
		// custom fields parsed from tree responses.
		row := rows.Row().Without("customFields").Map()
		product := records.FromRow(records.Product, row)
		if product.IsEmpty() {
			continue
		}
		if populateUOMs {
			attachUOM(product, uoms)
		}
		product.SetDerived("Part", records.FromRow(partSchema, row))
		products = append(products, product)
	}
	return products, rows.Err()
}
