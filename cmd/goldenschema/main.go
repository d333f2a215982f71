// Command goldenschema emits the JSON schema for golden-checksum fixture
// documents so fixture files can be validated in CI.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"

	"github.com/invopop/jsonschema"

	"popblast/replay/internal/golden"
)

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "output path for the JSON schema")
	flag.Parse()

	if outPath == "" {
		log.Fatal("goldenschema: missing -out path")
	}

	schema, err := buildSchema()
	if err != nil {
		log.Fatalf("goldenschema: %v", err)
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("goldenschema: marshal schema: %v", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		log.Fatalf("goldenschema: create output dir: %v", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		log.Fatalf("goldenschema: write schema: %v", err)
	}
}

func buildSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}

	docSchema := reflector.ReflectFromType(reflect.TypeOf(golden.Document{}))
	if docSchema == nil {
		return nil, fmt.Errorf("failed to reflect fixture schema")
	}
	docSchema.Version = jsonschema.Version
	docSchema.Title = "Golden Checksum Fixture"
	docSchema.Description = "State checksums sampled at fixed intervals from a known-good replay run."
	return docSchema, nil
}
