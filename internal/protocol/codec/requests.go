package codec

import (
	"errors"
	"fmt"
)

var ErrInvalidMemoItemType = errors.New("codec: invalid memo item type")

// MemoItemTypes lists the record kinds a memo can be attached to.
var MemoItemTypes = []string{"Part", "Product", "Customer", "Vendor", "SO", "PO", "TO", "MO", "RMA", "BOM"}

func ImportRequest(key, importType string, rows []string) *Request {
	if rows == nil {
		rows = []string{}
	}
	return NewRequest(key).Add("ImportRq", Fields{
		{Name: "Type", Value: importType},
		{Name: "Rows", Value: rows},
	})
}

func ImportHeadersRequest(key, importType string) *Request {
	return NewRequest(key).Add("ImportHeaderRq", Fields{{Name: "Type", Value: importType}})
}

func ImportListRequest(key string) *Request {
	return NewRequest(key).Add("ImportListRq", nil)
}

func ExportListRequest(key string) *Request {
	return NewRequest(key).Add("ExportListRq", nil)
}

func ExportRequest(key, exportType string) *Request {
	return NewRequest(key).Add("ExportRq", Fields{{Name: "Type", Value: exportType}})
}

func AddInventoryRequest(key string, partNum string, qty, uomID, cost any, locationTagNum any, note, tracking string) *Request {
	return NewRequest(key).Add("AddInventoryRq", Fields{
		{Name: "PartNum", Value: partNum},
		{Name: "Quantity", Value: qty},
		{Name: "UOMID", Value: uomID},
		{Name: "Cost", Value: cost},
		{Name: "Note", Value: note},
		{Name: "Tracking", Value: tracking},
		{Name: "LocationTagNum", Value: locationTagNum},
		{Name: "TagNum", Value: "0"},
	})
}

func CycleCountRequest(key, partNum string, qty, locationID any) *Request {
	return NewRequest(key).Add("CycleCountRq", Fields{
		{Name: "PartNum", Value: partNum},
		{Name: "Quantity", Value: qty},
		{Name: "LocationID", Value: locationID},
	})
}

func GetPOListRequest(key, locationGroup string) *Request {
	var value any
	if locationGroup != "" {
		value = Fields{{Name: "LocationGroup", Value: locationGroup}}
	}
	return NewRequest(key).Add("GetPOListRq", value)
}

func InventoryQuantityRequest(key, partNum string) *Request {
	var value any
	if partNum != "" {
		value = Fields{{Name: "PartNum", Value: partNum}}
	}
	return NewRequest(key).Add("InvQtyRq", value)
}

func GetTotalInventoryRequest(key, partNum, locationGroup string) *Request {
	return NewRequest(key).Add("GetTotalInventoryRq", Fields{
		{Name: "PartNumber", Value: partNum},
		{Name: "LocationGroup", Value: locationGroup},
	})
}

// SaveSORequest wraps a sales order element in SOSaveRq.
func SaveSORequest(key string, so Element) *Request {
	return NewRequest(key).Add("SOSaveRq", Fields{
		{Name: so.ElementName(), Value: so},
		{Name: "IgnoreItems", Value: false},
	})
}

// AddMemoRequest attaches a memo. Parts, products, customers and vendors are
// addressed by their own number node; everything else by OrderNum.
func AddMemoRequest(key, itemType, itemNum, memo, username string) (*Request, error) {
	valid := false
	for _, t := range MemoItemTypes {
		if t == itemType {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMemoItemType, itemType)
	}
	numNode := "OrderNum"
	switch itemType {
	case "Part", "Product", "Customer", "Vendor":
		numNode = itemType + "Num"
	}
	return NewRequest(key).Add("AddMemoRq", Fields{
		{Name: "ItemType", Value: itemType},
		{Name: numNode, Value: itemNum},
		{Name: "Memo", Value: Fields{
			{Name: "Memo", Value: memo},
			{Name: "UserName", Value: username},
		}},
	}), nil
}
