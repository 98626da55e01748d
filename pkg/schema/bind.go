package schema

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/surrealcrud/surrealcrud/pkg/models"
	"github.com/surrealcrud/surrealcrud/pkg/validation"
)

var (
	idType      = reflect.TypeOf(models.ID{})
	timeType    = reflect.TypeOf(time.Time{})
	tablerType  = reflect.TypeOf((*Tabler)(nil)).Elem()
	modelsPkg   = idType.PkgPath()
	refTypeName = "Of["
)

// FromStruct derives an entity from the Go type T. Fields come from json
// tags; models.Of[X] fields become refs to X's table, models.ID fields become
// links. The crud tag carries validators plus the options "optional" and
// "link=<table>":
//
//	Title      string             `json:"title" crud:"not_empty,length_at_most(64)"`
//	CurrencyID models.ID          `json:"currency_id" crud:"link=currencies"`
//	MetadataID models.Of[Metadata] `json:"metadata_id"`
func FromStruct[T Tabler](paths ...string) (Entity, error) {
	var zero T
	t := reflect.TypeOf(zero)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return Entity{}, &Error{Table: zero.TableName(), Reason: fmt.Sprintf("%s is not a struct", t)}
	}

	b := NewEntity(zero.TableName()).OwnedBy(paths...)
	if err := bindFields(b, t); err != nil {
		return Entity{}, err
	}
	return b.Build()
}

func MustFromStruct[T Tabler](paths ...string) Entity {
	e, err := FromStruct[T](paths...)
	if err != nil {
		panic(err)
	}
	return e
}

func bindFields(b *EntityBuilder, t reflect.Type) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && sf.Tag.Get("json") == "" {
			if err := bindFields(b, sf.Type); err != nil {
				return err
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}

		name, omitempty := jsonName(sf)
		if name == "-" || name == IDField {
			continue
		}

		f := Field{Name: name, Optional: omitempty}
		ft := sf.Type
		if ft.Kind() == reflect.Pointer {
			f.Optional = true
			ft = ft.Elem()
		}

		switch {
		case ft == idType:
			f.Kind = Link
		case isRefType(ft):
			target, err := refTarget(ft)
			if err != nil {
				return &Error{Table: b.e.Table, Field: name, Reason: err.Error()}
			}
			f.Kind, f.Target = Ref, target
		default:
			f.Kind, f.Type = Scalar, scalarType(ft)
		}

		if tag := sf.Tag.Get("crud"); tag != "" {
			specs, err := validation.SplitSpecs(tag)
			if err != nil {
				return &Error{Table: b.e.Table, Field: name, Reason: err.Error()}
			}
			for _, s := range specs {
				switch {
				case s.Name == "optional":
					f.Optional = true
				case strings.HasPrefix(s.Name, "link="):
					if f.Kind != Link {
						return &Error{Table: b.e.Table, Field: name, Reason: "link= applies to models.ID fields"}
					}
					f.Target = strings.TrimPrefix(s.Name, "link=")
				default:
					f.Rules = append(f.Rules, s)
				}
			}
		}

		b.e.Fields = append(b.e.Fields, f)
	}
	return nil
}

func jsonName(sf reflect.StructField) (name string, omitempty bool) {
	tag := sf.Tag.Get("json")
	if tag == "" {
		return sf.Name, false
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = sf.Name
	}
	return name, strings.Contains(opts, "omitempty")
}

func isRefType(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.PkgPath() == modelsPkg && strings.HasPrefix(t.Name(), refTypeName)
}

// refTarget finds the table of X in models.Of[X] through its record field.
func refTarget(t reflect.Type) (string, error) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type.Kind() != reflect.Pointer {
			continue
		}
		elem := f.Type.Elem()
		switch {
		case elem.Implements(tablerType):
			return reflect.Zero(elem).Interface().(Tabler).TableName(), nil
		case reflect.PointerTo(elem).Implements(tablerType):
			return reflect.New(elem).Interface().(Tabler).TableName(), nil
		}
		return "", fmt.Errorf("%s does not implement TableName", elem)
	}
	return "", fmt.Errorf("%s is not a record reference", t)
}

func scalarType(t reflect.Type) ScalarType {
	if t == timeType {
		return Datetime
	}
	switch t.Kind() {
	case reflect.String:
		return String
	case reflect.Bool:
		return Bool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return Number
	}
	return Any
}
