package model

import (
	"encoding/json"

	"github.com/Nephrolytics-ai/glossify/pkg/utils"
	"github.com/invopop/jsonschema"
)

// GenerateSchema reflects T into a JSON schema map.
func GenerateSchema[T any]() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	var value T
	schema := reflector.Reflect(value)

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	var schemaMap map[string]any
	err = json.Unmarshal(schemaJSON, &schemaMap)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	return schemaMap, nil
}

// ContractSchema describes the messages exchanged with the presentation layer.
func ContractSchema() (map[string]any, error) {
	request, err := GenerateSchema[RunRequest]()
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	response, err := GenerateSchema[RunResponse]()
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	entry, err := GenerateSchema[GlossaryEntry]()
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	return map[string]any{
		"request":        request,
		"response":       response,
		"glossary_entry": entry,
	}, nil
}
