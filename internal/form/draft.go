package form

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pipeline-entry/internal/models"
	"github.com/pipeline-entry/internal/validation"
	"gopkg.in/yaml.v3"
)

// Draft is a record prepared offline, typically as a YAML file
type Draft struct {
	Fields       map[string]string           `yaml:"fields"`
	Competitions []models.CompetitionStation `yaml:"competitions"`
}

// LoadDraft decodes a YAML draft. Unknown top-level keys are rejected.
func LoadDraft(r io.Reader) (*Draft, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var d Draft
	if err := dec.Decode(&d); err != nil {
		if err == io.EOF {
			return &Draft{}, nil
		}
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &d, nil
}

// Apply copies a draft into the form. Field errors are cleared as if each
// value had been typed. The competition list is replaced when the draft
// carries one. A draft with any unusable key leaves the form untouched.
func (f *Form) Apply(d *Draft) error {
	keys := make([]string, 0, len(d.Fields))
	for key := range d.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		field, ok := f.validator.Field(key)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, key)
		}
		if field.Kind == validation.KindGroup {
			return fmt.Errorf("%w: %s", ErrNotEditable, key)
		}
	}
	for _, key := range keys {
		if err := f.UpdateField(key, d.Fields[key]); err != nil {
			return err
		}
	}
	if d.Competitions == nil {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.competitions = append([]models.CompetitionStation{}, d.Competitions...)
	for key := range f.errors {
		if strings.HasPrefix(key, models.FieldCompetitions+"[") {
			delete(f.errors, key)
		}
	}
	return nil
}

// DraftTemplate renders an empty draft for the given fields in catalogue
// order, annotated with each field's kind and options.
func DraftTemplate(fields []validation.Field) ([]byte, error) {
	fieldMap := &yaml.Node{Kind: yaml.MappingNode}
	for _, field := range fields {
		if field.Kind == validation.KindGroup {
			continue
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: field.Key}
		value := &yaml.Node{
			Kind:        yaml.ScalarNode,
			Tag:         "!!str",
			Value:       "",
			LineComment: templateComment(field),
		}
		fieldMap.Content = append(fieldMap.Content, key, value)
	}

	competition := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range []string{
		models.CompetitionCompanyName,
		models.CompetitionStationSales,
		models.CompetitionDieselSales,
		models.CompetitionGasolineSales,
		models.CompetitionComments,
	} {
		competition.Content = append(competition.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: ""},
		)
	}

	root := &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: "fields"},
			fieldMap,
			{Kind: yaml.ScalarNode, Value: models.FieldCompetitions, HeadComment: "blank entries are ignored"},
			{Kind: yaml.SequenceNode, Content: []*yaml.Node{competition}},
		},
	}
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func templateComment(field validation.Field) string {
	var parts []string
	if field.Required {
		parts = append(parts, "required")
	}
	parts = append(parts, field.Kind.String())
	switch field.Kind {
	case validation.KindEnum:
		parts = append(parts, "one of: "+strings.Join(field.Options, ", "))
	case validation.KindDate:
		parts = append(parts, "YYYY-MM-DD")
	case validation.KindFile:
		parts = append(parts, "local path")
	}
	return strings.Join(parts, ", ")
}
