package entity

func eventKind() *Kind {
	return &Kind{
		Name:        KindEvent,
		Description: "An event",
		Color:       "#F22416",
		TypeLabel:   "EVENT",
		Properties: []PropertySpec{
			{Name: "name", Type: TypeString},
			{Name: "description", Type: TypeString},
			{Name: "start_date", Type: TypeString, Validator: &DateTimeValidator{}},
			{Name: "end_date", Type: TypeString, Validator: &DateTimeValidator{}},
			{Name: "add_to_timeline", Type: TypeBool},
		},
		LabelProps: []string{"name"},
		Defaults:   map[string]any{"add_to_timeline": true},
	}
}
