package knowledge

import (
	"fmt"
	"strconv"
)

// DocumentType is the kind of entity a vector document was rendered from.
type DocumentType string

const (
	DocumentTypeCharacter DocumentType = "character"
	DocumentTypeContent   DocumentType = "content"
	DocumentTypeScene     DocumentType = "scene"
)

// DefaultCollection is the single collection shared by all owners.
const DefaultCollection = "plotcraft_collection"

// UnknownScope fills novel_id/owner_id when an entity has no project or creator.
const UnknownScope = "unknown"

// Metadata keys stored alongside every vector.
const (
	MetaType     = "type"
	MetaNovelID  = "novel_id"
	MetaOwnerID  = "owner_id"
	MetaSourceID = "source_id"
)

// Prefix is the id prefix for documents of this type.
func (t DocumentType) Prefix() string {
	switch t {
	case DocumentTypeCharacter:
		return "char"
	case DocumentTypeContent:
		return "chap"
	case DocumentTypeScene:
		return "scene"
	default:
		return string(t)
	}
}

func (t DocumentType) Valid() bool {
	switch t {
	case DocumentTypeCharacter, DocumentTypeContent, DocumentTypeScene:
		return true
	}
	return false
}

// DocumentID derives the stable vector id, e.g. char_12.
func DocumentID(t DocumentType, sourceID uint) string {
	return fmt.Sprintf("%s_%d", t.Prefix(), sourceID)
}

// DocumentMetadata is the filterable part of a vector document.
type DocumentMetadata struct {
	Type     DocumentType
	NovelID  string
	OwnerID  string
	SourceID string
}

func (m DocumentMetadata) Map() map[string]string {
	return map[string]string{
		MetaType:     string(m.Type),
		MetaNovelID:  m.NovelID,
		MetaOwnerID:  m.OwnerID,
		MetaSourceID: m.SourceID,
	}
}

func metadataFromMap(values map[string]string) DocumentMetadata {
	return DocumentMetadata{
		Type:     DocumentType(values[MetaType]),
		NovelID:  values[MetaNovelID],
		OwnerID:  values[MetaOwnerID],
		SourceID: values[MetaSourceID],
	}
}

func metadataFromPayload(payload map[string]interface{}) DocumentMetadata {
	str := func(key string) string {
		switch v := payload[key].(type) {
		case string:
			return v
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case nil:
			return ""
		default:
			return fmt.Sprint(v)
		}
	}
	return DocumentMetadata{
		Type:     DocumentType(str(MetaType)),
		NovelID:  str(MetaNovelID),
		OwnerID:  str(MetaOwnerID),
		SourceID: str(MetaSourceID),
	}
}

// IndexedDocument is a rendered entity ready to be embedded.
type IndexedDocument struct {
	ID       string
	Text     string
	Metadata DocumentMetadata
}

// scopeID formats an optional id, substituting UnknownScope for nil or zero.
func scopeID(id *uint) string {
	if id == nil || *id == 0 {
		return UnknownScope
	}
	return strconv.FormatUint(uint64(*id), 10)
}

func formatID(id uint) string {
	if id == 0 {
		return UnknownScope
	}
	return strconv.FormatUint(uint64(id), 10)
}
