// Package format is the bridge between on-disk document encodings and the
// canonical in-memory tree. All field-name aliases are normalized here so
// downstream components never branch on encoding variants.
package format

import (
	"path"
	"strings"

	"github.com/planweave/planweave/internal/models"
)

// Encoding identifies one of the supported on-disk document encodings
type Encoding string

const (
	// EncodingXML is the tree-markup encoding: a <plan> root wrapping
	// nested <node> elements
	EncodingXML Encoding = "xml"
	// EncodingJSON is the structured-data encoding: a root object with a
	// nodes array
	EncodingJSON Encoding = "json"
)

// EncodingForPath selects the encoding for a document path by extension
func EncodingForPath(docPath string) (Encoding, error) {
	switch strings.ToLower(path.Ext(docPath)) {
	case ".xml":
		return EncodingXML, nil
	case ".json":
		return EncodingJSON, nil
	default:
		return "", models.Errorf(models.KindMalformedDocument, docPath,
			"unsupported document extension %q", path.Ext(docPath))
	}
}

// Parse decodes document text into the canonical tree shape. Input
// missing the required root container is a MalformedDocument error.
func Parse(data []byte, enc Encoding) (*models.Document, error) {
	switch enc {
	case EncodingXML:
		return parseXML(data)
	case EncodingJSON:
		return parseJSON(data)
	default:
		return nil, models.Errorf(models.KindMalformedDocument, "", "unknown encoding %q", enc)
	}
}

// Serialize encodes a document for persistence. Provenance is never
// emitted on this path.
func Serialize(doc *models.Document, enc Encoding) ([]byte, error) {
	switch enc {
	case EncodingXML:
		return serializeXML(doc)
	case EncodingJSON:
		return serializeJSON(doc, false)
	default:
		return nil, models.Errorf(models.KindMalformedDocument, doc.Path, "unknown encoding %q", enc)
	}
}

// SerializeWithProvenance is the diagnostic variant: the structured
// encoding carries each node's provenance under a _provenance key. The
// tree-markup encoding has no provenance form and serializes normally.
func SerializeWithProvenance(doc *models.Document, enc Encoding) ([]byte, error) {
	if enc == EncodingJSON {
		return serializeJSON(doc, true)
	}
	return Serialize(doc, enc)
}
