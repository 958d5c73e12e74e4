package baseline

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v2"

	"github.com/antoninbas/benchguard/destination"
)

var ErrMalformedDocument = errors.New("malformed baseline document")

// MalformedDocumentError reports a registry or catalog document that could not
// be decoded or that holds invalid values.
type MalformedDocumentError struct {
	Path string
	Err  error
}

func (e *MalformedDocumentError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %v", ErrMalformedDocument, e.Err)
	}
	return fmt.Sprintf("%v %s: %v", ErrMalformedDocument, e.Path, e.Err)
}

func (e *MalformedDocumentError) Unwrap() error { return e.Err }

func (e *MalformedDocumentError) Is(target error) bool { return target == ErrMalformedDocument }

// EncodeRegistry renders a registry document. Keys are sorted.
func EncodeRegistry(r destination.Registry) ([]byte, error) {
	if r == nil {
		r = destination.Registry{}
	}
	return yaml.Marshal(r)
}

func DecodeRegistry(data []byte) (destination.Registry, error) {
	r := destination.Registry{}
	if err := yaml.UnmarshalStrict(data, &r); err != nil {
		return nil, &MalformedDocumentError{Err: err}
	}
	if r == nil {
		r = destination.Registry{}
	}
	return r, nil
}

// EncodeCatalog renders a catalog document. Keys are sorted.
func EncodeCatalog(c Catalog) ([]byte, error) {
	if c == nil {
		c = Catalog{}
	}
	return yaml.Marshal(c)
}

// DecodeCatalog parses a catalog document and validates every baseline in it.
func DecodeCatalog(data []byte) (Catalog, error) {
	c := Catalog{}
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, &MalformedDocumentError{Err: err}
	}
	if c == nil {
		c = Catalog{}
	}
	for group, tests := range c {
		for name, b := range tests {
			if err := b.Validate(); err != nil {
				return nil, &MalformedDocumentError{Err: fmt.Errorf("%s/%s: %w", group, name, err)}
			}
		}
	}
	return c, nil
}
