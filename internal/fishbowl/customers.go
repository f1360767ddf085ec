package fishbowl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/danmuck/fishbowl/internal/protocol/codec"
	"github.com/danmuck/fishbowl/internal/records"
	"github.com/danmuck/fishbowl/internal/session"
)

// Customer inclusion types on a pricing rule.
const (
	inclAllCustomers = "1"
	inclAccountGroup = "3"
)

// PricingRules groups rules by the customer they apply to. All holds the
// rules that apply to every customer.
type PricingRules struct {
	All        []*records.Record
	ByCustomer map[int][]*records.Record
}

// For returns the rules that apply to customerID, general rules first.
func (p PricingRules) For(customerID int) []*records.Record {
	out := make([]*records.Record, 0, len(p.All)+len(p.ByCustomer[customerID]))
	out = append(out, p.All...)
	return append(out, p.ByCustomer[customerID]...)
}

// GetCustomers returns every customer. Lazy customers are built from the
// name list and fetch their full record on first access; silenceLazyErrors
// turns a failed lookup into an empty record.
func (c *Client) GetCustomers(lazy, silenceLazyErrors bool) ([]*records.Record, error) {
	if !lazy {
		nodes, err := c.list("CustomerListRq", "CustomerListRs", "Customer")
		if err != nil {
			return nil, err
		}
		out := make([]*records.Record, 0, len(nodes))
		for _, el := range nodes {
			out = append(out, records.FromNode(records.Customer, el))
		}
		return out, nil
	}

	names, err := c.list("CustomerNameListRq", "CustomerNameListRs", "Name")
	if err != nil {
		return nil, err
	}
	out := make([]*records.Record, 0, len(names))
	for _, el := range names {
		name := el.Text()
		fetch := func() (*etree.Element, error) {
			return c.sess.SendRequest(session.Call{
				Name:          "CustomerGetRq",
				Value:         codec.Fields{{Name: "Name", Value: name}},
				ResponseNode:  "CustomerGetRs",
				SilenceErrors: silenceLazyErrors,
			})
		}
		out = append(out, records.Lazy(records.Customer, name, fetch).WithPolicy(c.opts.LazyErrors))
	}
	return out, nil
}

// GetPricingRules merges the direct and account group pricing rules.
func (c *Client) GetPricingRules() (PricingRules, error) {
	rules := PricingRules{ByCustomer: make(map[int][]*records.Record)}
	for _, sql := range []string{PricingRulesSQL, CustomerGroupPricingRulesSQL} {
		rows, err := c.SendQuery(sql)
		if err != nil {
			return PricingRules{}, err
		}
		for rows.Next() {
			if err := rules.add(rows.Row()); err != nil {
				return PricingRules{}, err
			}
		}
		if err := rows.Err(); err != nil {
			return PricingRules{}, err
		}
	}
	return rules, nil
}

func (p *PricingRules) add(row Row) error {
	inclType, _ := row.Get("CUSTOMERINCLTYPEID")
	rule := records.FromRow(records.PricingRule, row.Without("CUSTOMERINCLTYPEID", "CUSTOMERINCLID", "CUSTOMERID").Map())

	column := "CUSTOMERINCLID"
	switch strings.TrimSpace(inclType) {
	case inclAllCustomers:
		p.All = append(p.All, rule)
		return nil
	case inclAccountGroup:
		column = "CUSTOMERID"
	}
	raw, _ := row.Get(column)
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("fishbowl: pricing rule %s %q: %w", column, raw, err)
	}
	p.ByCustomer[id] = append(p.ByCustomer[id], rule)
	return nil
}

func rowInt(row Row, column string) (int, bool) {
	raw, ok := row.Get(column)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	return n, err == nil
}

// GetCustomersFast loads customers by query, optionally attaching
// addresses (with country and state) and pricing rules as derived fields.
func (c *Client) GetCustomersFast(populateAddresses, populatePricingRules bool) ([]*records.Record, error) {
	var addresses map[int][]*records.Record
	if populateAddresses {
		var err error
		if addresses, err = c.addressesByAccount(); err != nil {
			return nil, err
		}
	}
	var rules PricingRules
	if populatePricingRules {
		var err error
		if rules, err = c.GetPricingRules(); err != nil {
			return nil, err
		}
	}

	rows, err := c.SendQuery(customersSQL)
	if err != nil {
		return nil, err
	}
	var out []*records.Record
	for rows.Next() {
		customer := records.FromRow(records.Customer, rows.Row().Map())
		if customer.IsEmpty() {
			continue
		}
		account, _ := customer.Int("AccountID")
		if populateAddresses {
			list := addresses[account]
			if list == nil {
				list = []*records.Record{}
			}
			customer.SetDerived("Addresses", list)
		}
		if populatePricingRules {
			customer.SetDerived("PricingRules", rules.For(account))
		}
		out = append(out, customer)
	}
	return out, rows.Err()
}

func (c *Client) addressesByAccount() (map[int][]*records.Record, error) {
	countries, err := c.recordsByID(countriesSQL, records.Country)
	if err != nil {
		return nil, err
	}
	states, err := c.recordsByID(statesSQL, records.State)
	if err != nil {
		return nil, err
	}

	rows, err := c.SendQuery(addressesSQL)
	if err != nil {
		return nil, err
	}
	out := make(map[int][]*records.Record)
	for rows.Next() {
		row := rows.Row()
		address := records.FromRow(records.Address, row.Map())
		if address.IsEmpty() {
			continue
		}
		if id, ok := rowInt(row, "COUNTRYID"); ok {
			if country, ok := countries[id]; ok {
				address.SetDerived("Country", country)
			}
		}
		if id, ok := rowInt(row, "STATEID"); ok {
			if state, ok := states[id]; ok {
				address.SetDerived("State", state)
			}
		}
		account, _ := rowInt(row, "ACCOUNTID")
		out[account] = append(out[account], address)
	}
	return out, rows.Err()
}

func (c *Client) recordsByID(sql string, schema *records.Schema) (map[int]*records.Record, error) {
	rows, err := c.SendQuery(sql)
	if err != nil {
		return nil, err
	}
	out := make(map[int]*records.Record)
	for rows.Next() {
		row := rows.Row()
		id, ok := rowInt(row, "ID")
		if !ok {
			continue
		}
		out[id] = records.FromRow(schema, row.Map())
	}
	return out, rows.Err()
}
