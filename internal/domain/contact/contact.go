package contact

// Contact is an open record: the caller-supplied fields kept verbatim plus
// the server-generated "id".
type Contact map[string]any

const IDField = "id"

func (c Contact) ID() string {
	id, _ := c[IDField].(string)
	return id
}

// Merge returns a copy of c with fields shallow-merged over it: new keys are
// added, existing keys overwritten, the id is immune.
func (c Contact) Merge(fields map[string]any) Contact {
	merged := make(Contact, len(c)+len(fields))

	for k, v := range c {
		merged[k] = v
	}

	for k, v := range fields {
		if k == IDField {
			continue
		}
		merged[k] = v
	}

	return merged
}
