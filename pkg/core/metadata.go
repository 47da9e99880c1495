package core

// Field describes one field of a remote object, as reported by the describe
// endpoint.
type Field struct {
	Name              string
	Label             string
	Type              string // string, double, int, boolean, date, datetime, reference, picklist, ...
	Length            int
	Nillable          bool
	Custom            bool
	Createable        bool
	Updateable        bool
	DefaultedOnCreate bool
	ReferenceTo       []string
	RelationshipName  string
	PicklistValues    []string
}

// IsPrimaryKey reports whether the field is the object's id field.
func (f Field) IsPrimaryKey() bool {
	return f.Type == "id"
}

// IsReference reports whether the field is a foreign key to another object.
func (f Field) IsReference() bool {
	return f.Type == "reference" && len(f.ReferenceTo) > 0
}

// ObjectMetadata describes a remote object type (the analogue of a table).
type ObjectMetadata struct {
	Name       string
	Label      string
	KeyPrefix  string
	Custom     bool
	Queryable  bool
	Createable bool
	Updateable bool
	Deletable  bool
	Fields     []Field
}

// FieldByName returns the field with the given name, or nil.
// Lookup is exact; remote field names are case-preserved.
func (m *ObjectMetadata) FieldByName(name string) *Field {
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			return &m.Fields[i]
		}
	}
	return nil
}

// ObjectSummary is the lightweight global-describe entry for one object.
type ObjectSummary struct {
	Name      string
	Label     string
	KeyPrefix string
	Custom    bool
	Queryable bool
}
