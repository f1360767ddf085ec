package fishbowl

import (
	"github.com/beevik/etree"
	"github.com/danmuck/fishbowl/internal/protocol/codec"
	"github.com/danmuck/fishbowl/internal/records"
	"github.com/shopspring/decimal"
)

type AddInventoryParams struct {
	PartNum        string
	Quantity       decimal.Decimal
	UOMID          int
	Cost           decimal.Decimal
	LocationTagNum int
	Note           string
	Tracking       string
}

func (c *Client) AddInventory(p AddInventoryParams) error {
	req := codec.AddInventoryRequest(c.sess.Key(), p.PartNum, p.Quantity, p.UOMID, p.Cost, p.LocationTagNum, p.Note, p.Tracking)
	root, err := c.sess.Send(req)
	if err != nil {
		return err
	}
	if err := checkAll(root, "//AddInventoryRs"); err != nil {
		return err
	}
	c.logger.Info().
		Str("part", p.PartNum).
		Str("qty", p.Quantity.String()).
		Int("uom_id", p.UOMID).
		Str("cost", p.Cost.String()).
		Int("location_tag", p.LocationTagNum).
		Msg("inventory added")
	return nil
}

func (c *Client) CycleInventory(partNum string, qty decimal.Decimal, locationID int) error {
	root, err := c.sess.Send(codec.CycleCountRequest(c.sess.Key(), partNum, qty, locationID))
	if err != nil {
		return err
	}
	if err := checkAll(root, "//CycleCountRs"); err != nil {
		return err
	}
	c.logger.Info().
		Str("part", partNum).
		Str("qty", qty.String()).
		Int("location_id", locationID).
		Msg("inventory cycled")
	return nil
}

// GetPartInfo returns the raw inventory quantity response for a part.
func (c *Client) GetPartInfo(partNum string) (*etree.Element, error) {
	return c.sess.Send(codec.InventoryQuantityRequest(c.sess.Key(), partNum))
}

func (c *Client) GetTotalInventory(partNum, locationGroup string) (*etree.Element, error) {
	return c.sess.Send(codec.GetTotalInventoryRequest(c.sess.Key(), partNum, locationGroup))
}

func (c *Client) GetPOList(locationGroup string) (*etree.Element, error) {
	return c.sess.Send(codec.GetPOListRequest(c.sess.Key(), locationGroup))
}

// LocationQuantity is a part's stock at one location.
type LocationQuantity struct {
	Location    string
	Name        string
	Description string
	Group       string
	Available   decimal.Decimal
	Total       decimal.Decimal
}

// GetLocations lists where a part is stocked, optionally limited to one
// location group.
func (c *Client) GetLocations(partNum, locationGroup string) ([]LocationQuantity, error) {
	root, err := c.GetPartInfo(partNum)
	if err != nil {
		return nil, err
	}
	if _, err := codec.CheckStatus(root.SelectElement(codec.NodeResponses), codec.Success, true); err != nil {
		return nil, err
	}
	var out []LocationQuantity
	for _, el := range root.FindElements("//InvQty") {
		qty := records.FromNode(records.InvQty, el)
		loc := qty.Record("Location")
		if loc == nil {
			continue
		}
		group := loc.String("LocationGroupName")
		if locationGroup != "" && group != locationGroup {
			continue
		}
		available, _ := qty.Decimal("QtyAvailable")
		total, _ := qty.Decimal("QtyOnHand")
		out = append(out, LocationQuantity{
			Location:    loc.String("LocationID"),
			Name:        loc.String("Name"),
			Description: loc.String("Description"),
			Group:       group,
			Available:   available,
			Total:       total,
		})
	}
	return out, nil
}
