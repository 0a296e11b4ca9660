package entity

import (
	"regexp"
	"strings"
)

var domainPattern = regexp.MustCompile(`^[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func emailKind() *Kind {
	return &Kind{
		Name:        KindEmail,
		Description: "An email address",
		Color:       "#2196F3",
		TypeLabel:   "EMAIL",
		Properties: []PropertySpec{
			{Name: "address", Type: TypeString, Validator: NewEmailValidator()},
			{Name: "domain", Type: TypeString, Validator: &StringValidator{MinLength: 3, Pattern: domainPattern}},
		},
		LabelProps: []string{"address"},
		Init:       deriveEmailDomain,
	}
}

// deriveEmailDomain backfills the domain property from the address when the
// address is set and no domain was supplied.
func deriveEmailDomain(e *Entity) error {
	address := e.GetString("address")
	if address == "" || e.GetString("domain") != "" {
		return nil
	}
	_, domain, found := strings.Cut(address, "@")
	if !found || domain == "" {
		return &PropertyError{
			Property: "address",
			Value:    address,
			Expected: "valid email address with domain",
		}
	}
	e.props["domain"] = domain
	return nil
}
