package model

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]{1,64}$`)

// CheckDocumentID reports whether id is acceptable as a document identifier.
func CheckDocumentID(id string) bool {
	return idRegex.MatchString(id)
}

// Document is the user facing document type, a flat JSON object.
//
//	"id" field is reserved for document ID.
//	"version" field is reserved for document version.
//	"updatedAt" field is reserved for last updated timestamp.
//	"createdAt" field is reserved for creation timestamp.
//	"collection" field is reserved for collection name.
type Document map[string]interface{}

// StripProtectedFields removes server-managed fields from doc so that
// client-supplied values can never overwrite them.
func (doc Document) StripProtectedFields() {
	delete(doc, "version")
	delete(doc, "updatedAt")
	delete(doc, "createdAt")
	delete(doc, "collection")
	delete(doc, "deleted")
}

func (doc Document) GetID() string {
	if id, ok := doc["id"].(string); ok {
		return id
	}
	return ""
}

func (doc Document) SetID(newID string) {
	doc["id"] = newID
}

func (doc Document) GenerateIDIfEmpty() {
	if _, ok := doc["id"]; !ok {
		doc["id"] = uuid.New().String()
	}
}

// Get resolves a possibly dotted field path ("author.id") against the document.
// The second return value reports whether the full path was present.
func (doc Document) Get(field string) (interface{}, bool) {
	if !strings.Contains(field, ".") {
		v, ok := doc[field]
		return v, ok
	}

	var cur interface{} = map[string]interface{}(doc)
	for _, part := range strings.Split(field, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
