package configresolver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ruteri/kongcloak/interfaces"
	"sigs.k8s.io/yaml"
)

// LoadOptions controls where the document comes from and how it is completed.
type LoadOptions struct {
	// Path of the document, a local file path or a key in DocumentStore.
	Path string

	// DocumentStore, when set, is used instead of the local file system.
	DocumentStore interfaces.StorageBackend

	// SecretStore resolves __SECRET_REF_<name> placeholders.
	SecretStore interfaces.StorageBackend

	// LookupEnv reads environment overrides. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)

	// Overrides take precedence over both the environment and the document.
	Overrides Overrides
}

// Overrides are explicitly provided connection settings, empty fields are ignored.
type Overrides struct {
	KeycloakHost     string
	KeycloakUsername string
	KeycloakPassword string
	KongHost         string
}

// Load reads, parses and completes the configuration document.
//
// The document is YAML or JSON. Unknown fields are rejected. Secret references
// are resolved, then environment overrides, explicit overrides and defaults
// are applied and the result is validated.
//
// Parameters:
//   - ctx: Context for storage operations
//   - log: Structured logger
//   - opts: Document source, secret store and overrides
//
// Returns:
//   - The completed document, never mutated afterwards
//   - *interfaces.ConfigError if the document is missing, malformed or incomplete
func Load(ctx context.Context, log *slog.Logger, opts LoadOptions) (*interfaces.Document, error) {
	raw, err := readDocument(ctx, opts)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(ctx, log, raw, opts.SecretStore)
	if err != nil {
		return nil, err
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	ApplyEnv(doc, lookup)
	ApplyOverrides(doc, opts.Overrides)
	ApplyDefaults(doc)

	if err := Validate(doc); err != nil {
		return nil, err
	}

	log.Info("Loaded configuration document",
		slog.String("path", opts.Path),
		slog.String("realm", doc.Keycloak.Realm.Name),
		slog.Int("users", len(doc.Keycloak.Realm.Users)),
		slog.Int("consumers", len(doc.Kong.Consumers)),
		slog.Int("endpoints", len(doc.Kong.Endpoints)))

	return doc, nil
}

// Parse decodes a document and resolves its secret references.
// Defaults and validation are not applied.
func Parse(ctx context.Context, log *slog.Logger, raw []byte, secrets interfaces.StorageBackend) (*interfaces.Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &interfaces.ConfigError{Err: errors.New("document is empty")}
	}

	jsonDoc, err := yaml.YAMLToJSON(raw)
	if err != nil {
		return nil, &interfaces.ConfigError{Err: fmt.Errorf("malformed document: %w", err)}
	}

	var tree any
	if err := json.Unmarshal(jsonDoc, &tree); err != nil {
		return nil, &interfaces.ConfigError{Err: fmt.Errorf("malformed document: %w", err)}
	}
	if _, ok := tree.(map[string]any); !ok {
		return nil, &interfaces.ConfigError{Err: errors.New("document must be a mapping")}
	}

	tree, err = resolveSecretRefs(ctx, log, secrets, tree)
	if err != nil {
		return nil, err
	}

	resolved, err := json.Marshal(tree)
	if err != nil {
		return nil, &interfaces.ConfigError{Err: fmt.Errorf("failed to re-encode document: %w", err)}
	}

	var doc interfaces.Document
	if err := yaml.UnmarshalStrict(resolved, &doc); err != nil {
		return nil, &interfaces.ConfigError{Err: fmt.Errorf("malformed document: %w", err)}
	}

	return &doc, nil
}

func readDocument(ctx context.Context, opts LoadOptions) ([]byte, error) {
	if opts.Path == "" {
		return nil, &interfaces.ConfigError{Field: "config", Err: errors.New("no document path given")}
	}

	if opts.DocumentStore != nil {
		raw, err := opts.DocumentStore.Fetch(ctx, opts.Path, interfaces.DocumentType)
		if err != nil {
			return nil, &interfaces.ConfigError{Err: fmt.Errorf("failed to fetch %s from %s: %w", opts.Path, opts.DocumentStore.LocationURI(), err)}
		}
		return raw, nil
	}

	raw, err := os.ReadFile(opts.Path)
	if err != nil {
		return nil, &interfaces.ConfigError{Err: fmt.Errorf("failed to read document: %w", err)}
	}
	return raw, nil
}
