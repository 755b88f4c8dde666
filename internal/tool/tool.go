//
// Tencent is pleased to support the open source community by making trpc-tool-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-tool-go is licensed under the Apache License Version 2.0.
//
//

// Package tool holds helpers shared by tool implementations.
package tool

import (
	"reflect"
	"strings"

	"trpc.group/trpc-go/trpc-tool-go/tool"
)

// GenerateJSONSchema generates a basic JSON schema from a reflect.Type.
// A nil type yields an empty object schema. Recursive types are cut at the
// first repetition with an untyped object.
func GenerateJSONSchema(t reflect.Type) *tool.Schema {
	if t == nil {
		return &tool.Schema{Type: "object"}
	}
	return schemaFor(t, map[reflect.Type]bool{}, true)
}

func schemaFor(t reflect.Type, visiting map[reflect.Type]bool, top bool) *tool.Schema {
	switch t.Kind() {
	case reflect.String:
		return &tool.Schema{Type: "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &tool.Schema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return &tool.Schema{Type: "number"}
	case reflect.Bool:
		return &tool.Schema{Type: "boolean"}
	case reflect.Slice, reflect.Array:
		return &tool.Schema{Type: "array", Items: schemaFor(t.Elem(), visiting, false)}
	case reflect.Map:
		return &tool.Schema{Type: "object", AdditionalProperties: schemaFor(t.Elem(), visiting, false)}
	case reflect.Ptr:
		s := schemaFor(t.Elem(), visiting, top)
		if !top {
			// Nested pointers are nullable.
			s.Type += ",null"
		}
		return s
	case reflect.Struct:
		if visiting[t] {
			return &tool.Schema{Type: "object"}
		}
		visiting[t] = true
		defer delete(visiting, t)
		return structSchema(t, visiting)
	default:
		return &tool.Schema{Type: "object"}
	}
}

func structSchema(t reflect.Type, visiting map[reflect.Type]bool) *tool.Schema {
	schema := &tool.Schema{Type: "object", Properties: map[string]*tool.Schema{}}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty, skip := jsonFieldName(field)
		if skip {
			continue
		}
		fieldSchema := schemaFor(field.Type, visiting, false)
		tags := parseJSONSchemaTag(field.Tag.Get("jsonschema"))
		if tags.description != "" {
			fieldSchema.Description = tags.description
		}
		schema.Properties[name] = fieldSchema

		if tags.required || (field.Type.Kind() != reflect.Ptr && !omitEmpty) {
			schema.Required = append(schema.Required, name)
		}
	}
	return schema
}

// jsonFieldName resolves the JSON property name of field.
func jsonFieldName(field reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name = field.Name
	if tag == "" {
		return name, false, false
	}
	parts := strings.Split(tag, ",")
	if parts[0] != "" {
		name = parts[0]
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

type jsonSchemaTag struct {
	description string
	required    bool
}

// parseJSONSchemaTag reads `jsonschema:"description=...,required"`.
// Descriptions cannot contain commas.
func parseJSONSchemaTag(tag string) jsonSchemaTag {
	var out jsonSchemaTag
	for _, part := range strings.Split(tag, ",") {
		key, value, _ := strings.Cut(strings.TrimSpace(part), "=")
		switch key {
		case "description":
			out.description = value
		case "required":
			out.required = true
		}
	}
	return out
}
