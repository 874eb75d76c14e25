package order

import "github.com/corray333/backend-labs/booking/internal/validation"

// CreateSchema describes a document accepted on creation.
var CreateSchema = validation.Schema{
	fieldAddress: {
		Type:     validation.TypeObject,
		Required: true,
		Properties: validation.Schema{
			"city":    {Type: validation.TypeString, Required: true, Example: "Berlin"},
			"country": {Type: validation.TypeString, Required: true, Example: "Germany"},
			"street":  {Type: validation.TypeString, Required: true, Example: "Wriezener str. 12"},
			"zip":     {Type: validation.TypeString, Required: true, Example: "13055"},
		},
	},
	fieldBookingDate: {Type: validation.TypeInteger, Required: true, Example: 1554284950000},
	fieldCustomer: {
		Type:     validation.TypeObject,
		Required: true,
		Properties: validation.Schema{
			"name":  {Type: validation.TypeString, Required: true, Example: "Emmanuel Akita"},
			"phone": {Type: validation.TypeString, Required: true, Example: "0123456789"},
			"email": {
				Type:     validation.TypeString,
				Required: true,
				Format:   "email",
				Example:  "e.akita@email.com",
			},
		},
	},
	fieldTitle: {Type: validation.TypeString, Required: true, Example: "Test order 1"},
}

// UpdateSchema describes a document accepted on update.
var UpdateSchema = validation.Schema{
	fieldBookingDate: {Type: validation.TypeInteger, Required: true, Example: 1554284950000},
	fieldTitle:       {Type: validation.TypeString, Required: true, Example: "Test order 1"},
}
