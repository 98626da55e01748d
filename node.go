package surrealcrud

import (
	"encoding/json"
	"fmt"

	"github.com/surrealcrud/surrealcrud/pkg/models"
	"github.com/surrealcrud/surrealcrud/pkg/schema"
)

// Node is the result of a write: the id of the stored row, the values
// written (links hold ids) and the nodes of the inline records created on
// the way, keyed by field.
type Node struct {
	ID       models.ID
	Data     models.Document
	Children map[string]*Node
}

// Document returns the written graph: Data with "id" set and every created
// child in place of its id.
func (n *Node) Document() models.Document {
	d := n.Data.Clone()
	if d == nil {
		d = models.Document{}
	}
	d[schema.IDField] = n.ID
	for field, child := range n.Children {
		d[field] = child.Document()
	}
	return d
}

// Child returns the node created for field.
func (n *Node) Child(field string) (*Node, bool) {
	c, ok := n.Children[field]
	return c, ok
}

func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Document())
}

// UnmarshalJSON reads the id back. Created children stay embedded in Data
// as documents.
func (n *Node) UnmarshalJSON(data []byte) error {
	doc, err := models.DecodeDocument(data)
	if err != nil {
		return err
	}
	raw, _ := doc[schema.IDField].(string)
	id, err := models.ParseID(raw)
	if err != nil {
		return fmt.Errorf("node id: %w", err)
	}
	delete(doc, schema.IDField)
	*n = Node{ID: id, Data: doc}
	return nil
}
