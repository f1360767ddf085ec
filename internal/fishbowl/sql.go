package fishbowl

import (
	"fmt"
	"sort"
	"strings"
)

const PricingRulesSQL = "SELECT p.id, p.isactive, product.num, " +
	"p.patypeid, p.papercent, p.pabaseamounttypeid, p.paamount, " +
	"p.customerincltypeid, p.customerinclid " +
	"from pricingrule p INNER JOIN product on p.productinclid = product.id " +
	"where p.productincltypeid = 2 and " +
	"p.customerincltypeid in (1, 2)"

const CustomerGroupPricingRulesSQL = "SELECT p.id, p.isactive, product.num, p.patypeid, p.papercent, " +
	"p.pabaseamounttypeid, p.paamount, p.customerincltypeid, " +
	"p.customerinclid, c.id as customerid, ag.name as accountgroupname, " +
	"c.name as customername " +
	"FROM pricingrule p " +
	"INNER JOIN product ON p.productinclid = product.id " +
	"INNER JOIN accountgroup ag ON p.customerinclid = ag.id " +
	"INNER JOIN accountgrouprelation agr ON agr.groupid = ag.id " +
	"INNER JOIN customer c ON agr.accountid = c.accountid " +
	"WHERE p.productincltypeid = 2 AND p.customerincltypeid = 3"

const PartsSQL = `
SELECT
    id,
    num,
    stdCost as StandardCost,
    description,
    typeID,
    dateLastModified,
    dateCreated,
    len,
    weight,
    height,
    width,
    revision,
    serializedFlag
FROM Part
`

const SerialNumberSQL = "SELECT sn.id, sn.serialId, sn.serialNum, p.num as PartNum, " +
	"t.dateCreated as DateCreated, t.dateLastModified as DateLastModified " +
	"FROM serialnum sn " +
	"LEFT JOIN serial s ON s.id = sn.serialId " +
	"LEFT JOIN tag t on t.id = s.tagId " +
	"LEFT JOIN part p on t.partId = p.id"

const (
	locationGroupsSQL = "SELECT * FROM LOCATIONGROUP"
	countriesSQL      = "SELECT * FROM COUNTRYCONST"
	statesSQL         = "SELECT * FROM STATECONST"
	addressesSQL      = "SELECT * FROM ADDRESS"
	customersSQL      = "SELECT * FROM CUSTOMER"
)

const productsSQL = `
SELECT
    P.*,
    PART.STDCOST AS StandardCost,
    PART.TYPEID as TypeID
    %s
FROM PRODUCT P
INNER JOIN PART ON P.PARTID = PART.ID
%s
`

const customBoolJoin = `
LEFT JOIN CUSTOMINTEGER %[1]s ON %[1]s.recordid = PART.ID AND %[1]s.customfieldid = (
 select customfield.id from customfield
 inner join tablereference t on customfield.tableid=t.tableid
 where t.tablerefname='Part' and name='%[2]s')`

// ProductsSQL selects every product joined to its part. customBools maps a
// result column name to the name of a boolean part custom field.
func ProductsSQL(customBools map[string]string) string {
	columns := make([]string, 0, len(customBools))
	for column := range customBools {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	var fields, joins []string
	for i, column := range columns {
		alias := fmt.Sprintf("CI%d", i)
		fields = append(fields, fmt.Sprintf(", %s.INFO AS %s", alias, column))
		name := strings.ReplaceAll(customBools[column], "'", "''")
		joins = append(joins, fmt.Sprintf(customBoolJoin, alias, name))
	}
	return fmt.Sprintf(productsSQL, strings.Join(fields, ""), strings.Join(joins, " "))
}
