package services

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"internmatch/profile-builder/internal/models"
)

//go:embed templates/resume.schema.json
var resumeSchemaJSON string

var resumeSchema = mustCompileSchema(resumeSchemaJSON)

func mustCompileSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid resume schema: %v", err))
	}
	return schema
}

// ValidateResumeDocument checks a document against the schema the
// renderers accept. Failures wrap ErrInvalidDocument.
func ValidateResumeDocument(doc models.ResumeDocument) error {
	res, err := resumeSchema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to validate resume document: %w", err)
	}
	if res.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
}
