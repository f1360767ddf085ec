package records

func text(name string, aliases ...string) FieldSpec {
	return FieldSpec{Name: name, Kind: KindText, Aliases: aliases}
}

func integer(name string, aliases ...string) FieldSpec {
	return FieldSpec{Name: name, Kind: KindInt, Aliases: aliases}
}

func dec(name string, aliases ...string) FieldSpec {
	return FieldSpec{Name: name, Kind: KindDecimal, Aliases: aliases}
}

func boolean(name string, aliases ...string) FieldSpec {
	return FieldSpec{Name: name, Kind: KindBool, Aliases: aliases}
}

func datetime(name string, aliases ...string) FieldSpec {
	return FieldSpec{Name: name, Kind: KindDateTime, Aliases: aliases}
}

func nested(name string, schema *Schema) FieldSpec {
	return FieldSpec{Name: name, Kind: KindNested, Schema: schema}
}

func list(name string, schema *Schema) FieldSpec {
	return FieldSpec{Name: name, Kind: KindList, Schema: schema}
}

var Country = &Schema{
	Name:      "Country",
	NameField: "Name",
	Fields: []FieldSpec{
		integer("ID"),
		text("Name"),
		text("Code", "Abbreviation"),
	},
}

var State = &Schema{
	Name:      "State",
	NameField: "Name",
	Fields: []FieldSpec{
		integer("ID"),
		text("Name"),
		text("Code"),
		integer("CountryID", "CountryConstID"),
	},
}

var Address = &Schema{
	Name:      "Address",
	NameField: "Name",
	Fields: []FieldSpec{
		integer("ID"),
		integer("AccountID"),
		text("Name"),
		text("Attn"),
		text("Street", "AddressField", "Address"),
		text("City"),
		text("Zip"),
		text("Type", "TypeID"),
		boolean("Default", "DefaultFlag"),
		boolean("Residential", "ResidentialFlag"),
		integer("StateID"),
		integer("CountryID"),
		nested("State", State),
		nested("Country", Country),
	},
}

// BillTo and Ship are the inline addresses on a sales order.
var BillTo = &Schema{
	Name:      "BillTo",
	NameField: "Name",
	Fields: []FieldSpec{
		text("Name"),
		text("AddressField", "Street"),
		text("City"),
		text("State"),
		text("Zip"),
		text("Country"),
	},
}

var Ship = &Schema{
	Name:      "Ship",
	NameField: "Name",
	Fields:    BillTo.Fields,
}

var UOM = &Schema{
	Name:      "UOM",
	NameField: "Code",
	Fields: []FieldSpec{
		integer("UOMID", "ID"),
		text("Name"),
		text("Code"),
		text("Description"),
		boolean("Integral"),
		boolean("Active", "ActiveFlag"),
		text("Type"),
	},
}

var Part = &Schema{
	Name:      "Part",
	NameField: "Num",
	Fields: []FieldSpec{
		integer("PartID", "ID"),
		text("Num", "Number", "PartNum"),
		text("Description"),
		integer("UOMID"),
		text("UPC"),
		integer("TypeID", "PartTypeID"),
		dec("StandardCost", "StdCost"),
		dec("Len", "Length"),
		dec("Weight"),
		dec("Height"),
		dec("Width"),
		text("Revision", "Rev"),
		boolean("Serialized", "SerializedFlag"),
		boolean("ActiveFlag", "Active"),
		datetime("DateCreated"),
		datetime("DateLastModified"),
	},
}

var Product = &Schema{
	Name:      "Product",
	NameField: "Num",
	Fields: []FieldSpec{
		integer("ID", "ProductID"),
		integer("PartID"),
		text("Num", "Number"),
		text("Description"),
		text("Details"),
		text("SKU"),
		text("UPC"),
		dec("Price"),
		integer("UOMID"),
		dec("StandardCost", "StdCost"),
		integer("TypeID"),
		boolean("ActiveFlag", "Active"),
		boolean("Taxable", "TaxableFlag"),
		boolean("SellableInOtherUOM", "SellableInOtherUOMFlag"),
		dec("Weight"),
		dec("Len", "Length"),
		dec("Width"),
		dec("Height"),
		datetime("DateCreated"),
		datetime("DateLastModified"),
	},
}

var PricingRule = &Schema{
	Name: "PricingRule",
	Fields: []FieldSpec{
		integer("ID"),
		boolean("IsActive", "ActiveFlag"),
		text("ProductNum", "Num"),
		integer("PATypeID"),
		dec("PAPercent"),
		integer("PABaseAmountTypeID"),
		dec("PAAmount"),
		text("AccountGroupName"),
		text("CustomerName"),
	},
}

var Customer = &Schema{
	Name:      "Customer",
	NameField: "Name",
	Fields: []FieldSpec{
		integer("CustomerID", "ID"),
		integer("AccountID"),
		text("Status", "StatusID"),
		text("Name"),
		text("Number", "Num"),
		boolean("ActiveFlag", "Active"),
		text("TaxRate", "TaxRateName"),
		text("DefaultSalesman"),
		text("DefaultPaymentTerms"),
		text("DefaultShipTerms"),
		dec("CreditLimit"),
		boolean("TaxExempt", "TaxExemptFlag"),
		text("Note"),
		text("URL"),
		datetime("DateCreated"),
		datetime("DateLastModified"),
		list("Addresses", Address),
	},
}

var TaxRate = &Schema{
	Name:      "TaxRate",
	NameField: "Name",
	Fields: []FieldSpec{
		integer("ID"),
		text("Name"),
		text("Description"),
		dec("Rate", "Percentage"),
		integer("TypeID"),
		boolean("DefaultFlag"),
		boolean("ActiveFlag", "Active"),
	},
}

var LocationGroup = &Schema{
	Name:      "LocationGroup",
	NameField: "Name",
	Fields: []FieldSpec{
		integer("ID"),
		text("Name"),
		text("Description"),
		boolean("ActiveFlag", "Active"),
		integer("QBClassID"),
		datetime("DateLastModified"),
	},
}

var Location = &Schema{
	Name:      "Location",
	NameField: "Name",
	Fields: []FieldSpec{
		integer("LocationID", "ID"),
		integer("TypeID"),
		integer("ParentID"),
		text("Name"),
		text("Description"),
		boolean("CountedAsAvailable"),
		boolean("ActiveFlag", "Active"),
		text("LocationGroupName"),
	},
}

// InvQty is one part quantity at one location.
var InvQty = &Schema{
	Name: "InvQty",
	Fields: []FieldSpec{
		nested("Part", Part),
		nested("Location", Location),
		dec("QtyOnHand"),
		dec("QtyAvailable"),
		dec("QtyCommitted"),
	},
}

var Serial = &Schema{
	Name:      "Serial",
	NameField: "SerialNum",
	Fields: []FieldSpec{
		integer("ID"),
		integer("SerialID"),
		text("SerialNum", "Number"),
		text("PartNum"),
		datetime("DateCreated"),
		datetime("DateLastModified"),
	},
}

var SalesOrderItem = &Schema{
	Name:      "SalesOrderItem",
	NameField: "ProductNumber",
	Fields: []FieldSpec{
		integer("ID"),
		text("ProductNumber"),
		integer("SOID"),
		text("Description"),
		text("CustomerPartNum"),
		boolean("Taxable"),
		dec("Quantity"),
		dec("ProductPrice"),
		dec("TotalPrice"),
		text("UOMCode"),
		integer("ItemType"),
		integer("Status"),
		text("QuickBooksClassName"),
		boolean("NewItemFlag"),
		integer("LineNumber"),
		boolean("KitItemFlag"),
		datetime("DateScheduledFulfillment"),
		text("Note"),
	},
}

var SalesOrder = &Schema{
	Name:      "SalesOrder",
	NameField: "Number",
	Fields: []FieldSpec{
		integer("ID"),
		text("Note"),
		dec("TotalPrice"),
		dec("TotalTax"),
		dec("PaymentTotal"),
		dec("ItemTotal"),
		text("Salesman"),
		text("Number", "Num"),
		integer("Status"),
		text("Carrier"),
		datetime("FirstShipDate"),
		datetime("CreatedDate"),
		datetime("IssuedDate"),
		dec("TaxRatePercentage"),
		text("TaxRateName"),
		dec("ShippingCost"),
		text("ShippingTerms"),
		text("PaymentTerms"),
		text("CustomerContact"),
		text("CustomerName"),
		integer("CustomerID"),
		text("FOB"),
		text("QuickBooksClassName"),
		text("LocationGroup"),
		integer("PriorityId"),
		text("CustomerPO"),
		nested("BillTo", BillTo),
		nested("Ship", Ship),
		list("Items", SalesOrderItem),
	},
}
