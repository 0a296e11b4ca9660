package entity

import "regexp"

var countryCodePattern = regexp.MustCompile(`^\+?[1-9]\d{0,2}$`)

// Builtin kind names, used as serialization discriminators and transform
// input/output type names.
const (
	KindPerson   = "Person"
	KindCompany  = "Company"
	KindEmail    = "Email"
	KindEvent    = "Event"
	KindEvidence = "Evidence"
	KindImage    = "Image"
	KindLocation = "Location"
	KindPhone    = "Phone"
	KindText     = "Text"
	KindUsername = "Username"
	KindVehicle  = "Vehicle"
	KindWebsite  = "Website"
)

const tamperedEvidenceColor = "#750800"

// PhoneTypes are the accepted values for a phone's phone_type dropdown.
var PhoneTypes = []string{"Mobile", "Home", "Work", "Fax", "Other"}

func personKind() *Kind {
	return &Kind{
		Name:        KindPerson,
		Description: "A person representing an individual",
		Color:       "#4CAF50",
		TypeLabel:   "PERSON",
		Properties: []PropertySpec{
			{Name: "full_name", Type: TypeString, Validator: &StringValidator{MinLength: 2}},
			{Name: "age", Type: TypeInt, Validator: &IntValidator{Min: intPtr(0), Max: intPtr(150)}},
			{Name: "height", Type: TypeFloat, Validator: &FloatValidator{Min: floatPtr(0), Max: floatPtr(300)}},
			{Name: "nationality", Type: TypeString, Validator: &StringValidator{MinLength: 2}},
			{Name: "occupation", Type: TypeString},
		},
		LabelProps: []string{"full_name"},
	}
}

func companyKind() *Kind {
	return &Kind{
		Name:        KindCompany,
		Description: "A company",
		Color:       "#037d9e",
		TypeLabel:   "COMPANY",
		Properties: []PropertySpec{
			{Name: "name", Type: TypeString},
			{Name: "description", Type: TypeString},
		},
		LabelProps: []string{"name"},
	}
}

func phoneKind() *Kind {
	return &Kind{
		Name:        KindPhone,
		Description: "A phone number",
		Color:       "#b82549",
		TypeLabel:   "PHONE",
		Properties: []PropertySpec{
			{Name: "number", Type: TypeString, Validator: &StringValidator{MinLength: 3}},
			{Name: "phone_type", Type: TypeString, Validator: &ListValidator{Choices: PhoneTypes, AllowEmpty: true}},
			{Name: "country_code", Type: TypeString, Validator: &StringValidator{Pattern: countryCodePattern}},
		},
		LabelProps: []string{"number"},
	}
}

func websiteKind() *Kind {
	return &Kind{
		Name:        KindWebsite,
		Description: "A website, domain, or specific URL",
		Color:       "#9C27B0",
		TypeLabel:   "WEBSITE",
		Properties: []PropertySpec{
			{Name: "url", Type: TypeString, Validator: &StringValidator{MinLength: 4}},
			{Name: "domain", Type: TypeString, Validator: &StringValidator{MinLength: 3}},
			{Name: "title", Type: TypeString},
			{Name: "description", Type: TypeString},
			{Name: "ip_address", Type: TypeString},
			{Name: "status", Type: TypeString},
			{Name: "technologies", Type: TypeString},
		},
		LabelProps: []string{"title"},
	}
}

func usernameKind() *Kind {
	return &Kind{
		Name:        KindUsername,
		Description: "A username",
		Color:       "#21B57D",
		TypeLabel:   "USERNAME",
		Properties: []PropertySpec{
			{Name: "username", Type: TypeString},
			{Name: "platform", Type: TypeString},
			{Name: "link", Type: TypeString},
		},
		LabelProps: []string{"username"},
	}
}

func vehicleKind() *Kind {
	return &Kind{
		Name:        KindVehicle,
		Description: "A vehicle with make, model, and metadata",
		Color:       "#6c5952",
		TypeLabel:   "VEHICLE",
		Properties: []PropertySpec{
			{Name: "model", Type: TypeString},
			{Name: "color", Type: TypeString},
			{Name: "year", Type: TypeInt},
			{Name: "vin", Type: TypeString},
		},
		LabelProps: []string{"model", "year"},
	}
}

func imageKind() *Kind {
	return &Kind{
		Name:        KindImage,
		Description: "An image",
		Color:       "#E9B96E",
		TypeLabel:   "IMAGE",
		Properties: []PropertySpec{
			{Name: "title", Type: TypeString},
			{Name: "url", Type: TypeString},
			{Name: "description", Type: TypeString},
		},
		LabelProps: []string{"title"},
	}
}

func textKind() *Kind {
	return &Kind{
		Name:        KindText,
		Description: "A text",
		Color:       "#D0BD1D",
		TypeLabel:   "TEXT",
		Properties: []PropertySpec{
			{Name: "text", Type: TypeString},
		},
		LabelProps: []string{"text"},
	}
}

func evidenceKind() *Kind {
	return &Kind{
		Name:        KindEvidence,
		Description: "Evidence",
		Color:       "#02bfd4",
		TypeLabel:   "EVIDENCE",
		Properties: []PropertySpec{
			{Name: "name", Type: TypeString},
			{Name: "description", Type: TypeString},
			{Name: "tampered", Type: TypeBool},
		},
		LabelProps: []string{"name"},
	}
}
