// Package catalog loads catalog definition seed files into the database at
// server start. Seed files are YAML or JSON documents, one catalog kind per
// file, validated against embedded JSON schemas before anything is written.
package catalog

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
	"sigs.k8s.io/yaml"

	"github.com/volticar/volticar/internal/common/apperrors"
	"github.com/volticar/volticar/internal/gamesrv/db"
	"github.com/volticar/volticar/internal/gamesrv/db/models"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Catalog document kinds.
const (
	KindVehicleCatalog     = "VehicleCatalog"
	KindItemCatalog        = "ItemCatalog"
	KindDestinationCatalog = "DestinationCatalog"
	KindTaskCatalog        = "TaskCatalog"
)

var schemaFiles = map[string]string{
	KindVehicleCatalog:     "schemas/vehicle_catalog.json",
	KindItemCatalog:        "schemas/item_catalog.json",
	KindDestinationCatalog: "schemas/destination_catalog.json",
	KindTaskCatalog:        "schemas/task_catalog.json",
}

var schemas map[string]*jsonschema.Schema

func init() {
	schemas = make(map[string]*jsonschema.Schema, len(schemaFiles))
	for kind, path := range schemaFiles {
		data, err := schemaFS.ReadFile(path)
		if err != nil {
			panic("missing embedded schema: " + path)
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(path, bytes.NewReader(data)); err != nil {
			panic("invalid embedded schema " + path + ": " + err.Error())
		}
		schema, err := compiler.Compile(path)
		if err != nil {
			panic("invalid embedded schema " + path + ": " + err.Error())
		}
		schemas[kind] = schema
	}
}

type vehicleCatalogDoc struct {
	Kind  string                     `json:"kind"`
	Items []models.VehicleDefinition `json:"items"`
}

type itemCatalogDoc struct {
	Kind  string                  `json:"kind"`
	Items []models.ItemDefinition `json:"items"`
}

type destinationCatalogDoc struct {
	Kind  string               `json:"kind"`
	Items []models.Destination `json:"items"`
}

type taskCatalogDoc struct {
	Kind  string                  `json:"kind"`
	Items []models.TaskDefinition `json:"items"`
}

// SeedSummary counts the definitions upserted by one load.
type SeedSummary struct {
	Vehicles     int
	Items        int
	Destinations int
	Tasks        int
}

// LoadSeedDir loads every .yaml, .yml, and .json file in dir into the catalog
// through the given store. Every file is validated before any write; a single
// bad file aborts the whole load.
func LoadSeedDir(ctx context.Context, store db.CatalogManager, dir string) (*SeedSummary, apperrors.Error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ErrSeedIO.Err(err)
	}

	var docs []json.RawMessage // validated JSON documents in file order
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, ErrSeedIO.Err(err)
		}
		doc, appErr := validateSeedDoc(entry.Name(), data)
		if appErr != nil {
			return nil, appErr
		}
		docs = append(docs, doc)
		names = append(names, entry.Name())
	}

	summary := &SeedSummary{}
	for i, doc := range docs {
		if appErr := applySeedDoc(ctx, store, doc, summary); appErr != nil {
			return nil, appErr.Msg("failed to apply seed file " + names[i])
		}
	}
	log.Ctx(ctx).Info().
		Int("vehicles", summary.Vehicles).
		Int("items", summary.Items).
		Int("destinations", summary.Destinations).
		Int("tasks", summary.Tasks).
		Msg("catalog seed loaded")
	return summary, nil
}

// validateSeedDoc converts the file to JSON and validates it against the
// schema for its kind.
func validateSeedDoc(name string, data []byte) (json.RawMessage, apperrors.Error) {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, ErrInvalidSeed.Msg(name + ": not valid YAML or JSON")
	}

	kind := gjson.GetBytes(jsonData, "kind").String()
	schema, ok := schemas[kind]
	if !ok {
		return nil, ErrInvalidSeed.Msg(name + ": unknown catalog kind " + kind)
	}

	var instance any
	if err := json.Unmarshal(jsonData, &instance); err != nil {
		return nil, ErrInvalidSeed.Err(err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, ErrInvalidSeed.Msg(name + ": " + err.Error())
	}
	return jsonData, nil
}

func applySeedDoc(ctx context.Context, store db.CatalogManager, doc json.RawMessage, summary *SeedSummary) apperrors.Error {
	kind := gjson.GetBytes(doc, "kind").String()
	switch kind {
	case KindVehicleCatalog:
		var parsed vehicleCatalogDoc
		if err := json.Unmarshal(doc, &parsed); err != nil {
			return ErrInvalidSeed.Err(err)
		}
		for i := range parsed.Items {
			if err := store.UpsertVehicleDefinition(ctx, &parsed.Items[i]); err != nil {
				return err
			}
			summary.Vehicles++
		}
	case KindItemCatalog:
		var parsed itemCatalogDoc
		if err := json.Unmarshal(doc, &parsed); err != nil {
			return ErrInvalidSeed.Err(err)
		}
		for i := range parsed.Items {
			if err := store.UpsertItemDefinition(ctx, &parsed.Items[i]); err != nil {
				return err
			}
			summary.Items++
		}
	case KindDestinationCatalog:
		var parsed destinationCatalogDoc
		if err := json.Unmarshal(doc, &parsed); err != nil {
			return ErrInvalidSeed.Err(err)
		}
		for i := range parsed.Items {
			if err := store.UpsertDestination(ctx, &parsed.Items[i]); err != nil {
				return err
			}
			summary.Destinations++
		}
	case KindTaskCatalog:
		var parsed taskCatalogDoc
		if err := json.Unmarshal(doc, &parsed); err != nil {
			return ErrInvalidSeed.Err(err)
		}
		for i := range parsed.Items {
			if err := store.UpsertTaskDefinition(ctx, &parsed.Items[i]); err != nil {
				return err
			}
			summary.Tasks++
		}
	}
	return nil
}
