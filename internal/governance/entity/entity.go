// Package entity defines the storage-agnostic row mutations handed to sinks.
package entity

import (
	"encoding/json"

	"golang.org/x/xerrors"
)

type (
	Operation int32

	Field struct {
		Name  string `json:"name"`
		Value Value  `json:"newValue"`
	}

	EntityChange struct {
		Entity    string    `json:"entity"`
		Id        string    `json:"id"`
		Ordinal   uint64    `json:"ordinal"`
		Operation Operation `json:"operation"`
		Fields    []*Field  `json:"fields"`
	}

	// EntityChanges is the ordered output of one block.
	EntityChanges struct {
		BlockNumber uint64          `json:"blockNumber"`
		BlockHash   string          `json:"blockHash"`
		Changes     []*EntityChange `json:"entityChanges"`
	}

	Builder struct {
		change *EntityChange
	}
)

const (
	OperationUnspecified Operation = 0
	OperationCreate      Operation = 1
	OperationUpdate      Operation = 2
)

var (
	ErrInvalidValue     = xerrors.New("invalid value")
	ErrInvalidOperation = xerrors.New("invalid operation")

	operationNames = map[Operation]string{
		OperationUnspecified: "UNSPECIFIED",
		OperationCreate:      "CREATE",
		OperationUpdate:      "UPDATE",
	}

	operationValues = map[string]Operation{
		"UNSPECIFIED": OperationUnspecified,
		"CREATE":      OperationCreate,
		"UPDATE":      OperationUpdate,
	}
)

func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return "UNKNOWN"
}

func ParseOperation(s string) (Operation, error) {
	if o, ok := operationValues[s]; ok && o != OperationUnspecified {
		return o, nil
	}
	return OperationUnspecified, xerrors.Errorf("unknown operation %q: %w", s, ErrInvalidOperation)
}

func (o Operation) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *Operation) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return xerrors.Errorf("failed to unmarshal operation: %w", err)
	}

	op, err := ParseOperation(s)
	if err != nil {
		return err
	}

	*o = op
	return nil
}

func NewCreate(entity string, id string) *Builder {
	return newBuilder(entity, id, OperationCreate)
}

func NewUpdate(entity string, id string) *Builder {
	return newBuilder(entity, id, OperationUpdate)
}

func newBuilder(entity string, id string, operation Operation) *Builder {
	return &Builder{
		change: &EntityChange{
			Entity:    entity,
			Id:        id,
			Operation: operation,
			Fields:    []*Field{},
		},
	}
}

// Set appends a field. Fields keep the order in which they are set.
func (b *Builder) Set(name string, value Value) *Builder {
	b.change.Fields = append(b.change.Fields, &Field{Name: name, Value: value})
	return b
}

func (b *Builder) Build() *EntityChange {
	return b.change
}

// Append adds the change built by b and assigns its ordinal, i.e. its position in the output.
func (c *EntityChanges) Append(b *Builder) *EntityChange {
	change := b.Build()
	change.Ordinal = uint64(len(c.Changes))
	c.Changes = append(c.Changes, change)
	return change
}

func (c *EntityChanges) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Changes)
}

// Field returns the first field with the given name.
func (c *EntityChange) Field(name string) (Value, bool) {
	for _, field := range c.Fields {
		if field.Name == name {
			return field.Value, true
		}
	}
	return Value{}, false
}

// Key identifies the row a change applies to.
func (c *EntityChange) Key() string {
	return c.Entity + "/" + c.Id
}
