package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/cwhitt/adventure-engine/internal/services"
	"github.com/cwhitt/adventure-engine/pkg/world"
)

const defaultSchemaPath = "data/schemas/world.schema.json"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <world.json> [schema.json]\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	schemaPath := defaultSchemaPath
	if len(os.Args) > 2 {
		schemaPath = os.Args[2]
	}

	validator := &WorldValidator{schemaPath: schemaPath}
	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("World file is valid!")
}

type WorldValidator struct {
	schemaPath string
	errors     []string
}

func (v *WorldValidator) addError(format string, args ...interface{}) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *WorldValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("world file must have .json extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, ".json")
	if !isValidWorldFilename(nameWithoutExt) {
		return fmt.Errorf("world filename '%s' must be lowercase snake_case (e.g., great_underground.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	// Structural validation against the JSON schema first, then the
	// semantic checks the schema cannot express.
	if err := v.validateSchema(filename, data); err != nil {
		return err
	}

	doc, err := services.LoadDocument(data)
	if err != nil {
		return fmt.Errorf("file %s failed unmarshaling: %w", filename, err)
	}

	v.validateDocument(doc)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *WorldValidator) validateSchema(filename string, data []byte) error {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(v.schemaPath)
	if err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", v.schemaPath, err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("file %s contains invalid JSON: %w", filename, err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("file %s failed schema validation: %w", filename, err)
	}
	return nil
}

func (v *WorldValidator) validateDocument(doc *services.WorldDocument) {
	// FromCatalogue runs the world-level semantic checks: exits point at
	// rooms, locations exist, containment is acyclic.
	w, err := world.FromCatalogue(&doc.Catalogue)
	if err != nil {
		v.addError("world: %v", err)
		return
	}

	for _, r := range doc.Rooms {
		v.validateIDFormat("room ID", r.ID)
	}
	for _, o := range doc.Objects {
		v.validateIDFormat("object ID", o.ID)
		v.validateObject(o)
	}
	v.validateActors(doc, w)
}

func (v *WorldValidator) validateObject(o *world.GameObject) {
	if o.Name == "" {
		v.addError("object %q has no name", o.ID)
	}
	if o.Properties.Container && o.Properties.Capacity < 0 {
		v.addError("object %q has negative capacity", o.ID)
	}
	if o.Properties.Treasure && o.Properties.Value <= 0 {
		v.addError("treasure %q must have a positive value", o.ID)
	}
	if len(o.Properties.Contents) > 0 && !o.Properties.Container {
		v.addError("object %q has contents but is not a container", o.ID)
	}
}

func (v *WorldValidator) validateActors(doc *services.WorldDocument, w *world.World) {
	seen := make(map[string]bool)
	for _, a := range doc.Actors {
		v.validateIDFormat("actor ID", a.ID)
		if seen[a.ID] {
			v.addError("duplicate actor ID %q", a.ID)
		}
		seen[a.ID] = true

		if a.Kind != "thief" && a.Kind != "troll" {
			v.addError("actor %q has unknown kind %q", a.ID, a.Kind)
		}
		if _, ok := w.Room(a.Location); !ok {
			v.addError("actor %q starts in unknown room %q", a.ID, a.Location)
		}
		if a.Strength <= 0 {
			v.addError("actor %q must have positive strength", a.ID)
		}
		if a.Weapon != "" {
			if _, ok := w.Object(a.Weapon); !ok {
				v.addError("actor %q wields unknown object %q", a.ID, a.Weapon)
			}
		}
		if a.Kind == "thief" && a.TreasureRoom != "" {
			if _, ok := w.Room(a.TreasureRoom); !ok {
				v.addError("thief %q has unknown treasure room %q", a.ID, a.TreasureRoom)
			}
		}
	}
}

var idFormatRegex = regexp.MustCompile(`^[a-z0-9]+(?:[_-][a-z0-9]+)*$`)

func (v *WorldValidator) validateIDFormat(field, id string) {
	if id == "" {
		return
	}
	if !idFormatRegex.MatchString(id) {
		v.addError("%s %q must be lowercase with words separated by '_' or '-'", field, id)
	}
}

var worldFilenameRegex = regexp.MustCompile(`^[a-z0-9]+(?:_[a-z0-9]+)*$`)

func isValidWorldFilename(name string) bool {
	return worldFilenameRegex.MatchString(name)
}
