package codec

import "fmt"

const (
	// Success is the status code carried by every accepted request.
	Success = "1000"
	// LoggedOff acknowledges a logout request.
	LoggedOff = "1010"
)

var statusMessages = map[string]string{
	"1000": "Success!",
	"1001": "Unknown message received.",
	"1002": "Connection to Fishbowl server was lost.",
	"1003": "Some requests had errors.",
	"1004": "There was an error with the database.",
	"1009": "Fishbowl server has been shut down.",
	"1010": "You have been logged off the server.",
	"1011": "Unknown request function.",
	"1012": "The requested feature is not supported.",
	"1100": "Unknown login error occurred.",
	"1109": "This integrated application registration key does not match.",
	"1110": "A new integrated application has been added to Fishbowl Inventory. Please contact the Fishbowl Inventory administrator to approve it.",
	"1111": "This integrated application registration key does not match.",
	"1112": "This integrated application has not been approved by the Fishbowl Inventory administrator.",
	"1120": "Invalid username or password.",
	"1130": "Invalid ticket passed to Fishbowl Inventory server.",
	"1131": "Invalid key value.",
	"1140": "Initialization token is not correct type.",
	"1150": "Request was invalid.",
	"1160": "Response was invalid.",
	"1162": "The login limit has been reached for the server's key.",
	"1200": "Custom field is invalid.",
	"1500": "The import was not properly formed.",
	"1501": "That import type is not supported.",
	"1502": "File not found.",
	"1503": "That export type is not supported.",
	"1504": "Unable to write to file.",
	"1505": "The import data was of the wrong type.",
	"1506": "Import requires a header.",
	"2000": "Was not able to find the part.",
	"2001": "The part was invalid.",
	"2100": "Was not able to find the product.",
	"2101": "The product was invalid.",
	"2200": "The yield failed.",
	"2201": "Commit failed.",
	"2202": "Add initial inventory failed.",
	"2203": "Can not adjust committed inventory.",
	"2300": "Was not able to find the tag number.",
	"2301": "The tag is invalid.",
	"2302": "The tag move failed.",
	"2303": "Was not able to save the tag number.",
	"2304": "Not enough available inventory in the tag number.",
	"2305": "The tag number is a location.",
	"2400": "Invalid UOM.",
	"2401": "UOM not found.",
	"2402": "Integer UOM cannot have non-integer quantity.",
	"2500": "The tracking is not valid.",
	"2510": "Serial number is missing.",
	"2511": "Serial number is null.",
	"2512": "Serial number is duplicate.",
	"2513": "Serial number is not valid.",
	"2600": "Location not found.",
	"2601": "Invalid location.",
	"2602": "Location group not found.",
	"3000": "Customer not found.",
	"3001": "Customer is invalid.",
	"3100": "Vendor not found.",
	"3101": "Vendor is invalid.",
	"4000": "There was an error loading the purchase order.",
	"4001": "Unknown status.",
	"4002": "Unknown carrier.",
	"4003": "Unknown QuickBooks class.",
	"4004": "Purchase order does not have a number. Turn on the auto-assign PO number option in the purchase order module options.",
}

// StatusMessage looks up the human readable text for a status code.
func StatusMessage(code string) string {
	if code == "" {
		return "Missing status code."
	}
	if msg, ok := statusMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("Unknown status code %s.", code)
}
