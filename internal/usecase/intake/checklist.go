package intake

// Field is one required checklist entry. Lookup is the retrieval query run on
// the field's behalf to attach the governing clause or drawing as proof.
type Field struct {
	ID     string
	Prompt string
	Lookup string
}

// CulvertChecklist is the shipped culvert form: the ordered required fields
// and the lookups that back each requirement.
func CulvertChecklist() []Field {
	return []Field{
		{
			ID:     "flow_rate",
			Prompt: "Design flow rate (m3/s)",
			Lookup: "design flow rate requirements for culverts",
		},
		{
			ID:     "pipe_class",
			Prompt: "Pipe class",
			Lookup: "allowed pipe classes for reinforced concrete culverts",
		},
		{
			ID:     "cover_depth",
			Prompt: "Minimum cover depth (m)",
			Lookup: "minimum cover depth over culvert pipes",
		},
		{
			ID:     "drawing_reference",
			Prompt: "Standard drawing reference",
			Lookup: "standard drawing for culvert installation",
		},
	}
}
