package configresolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ruteri/kongcloak/interfaces"
)

// SecretRefPrefix marks a string value to be replaced by a stored secret.
const SecretRefPrefix = "__SECRET_REF_"

var secretRefPattern = regexp.MustCompile(regexp.QuoteMeta(SecretRefPrefix) + `([A-Za-z0-9_.-]+)`)

// Reference is one secret reference found in the document.
type Reference struct {
	FullRef string // The full reference string (e.g., "__SECRET_REF_alice-password")
	Name    string // The key of the secret in the secret store
}

// FindReferences locates all secret references in s.
func FindReferences(s string) []Reference {
	matches := secretRefPattern.FindAllStringSubmatch(s, -1)
	refs := make([]Reference, 0, len(matches))
	for _, match := range matches {
		refs = append(refs, Reference{FullRef: match[0], Name: match[1]})
	}
	return refs
}

// resolveSecretRefs replaces every secret reference inside the string values
// of the decoded document tree. Each secret is fetched once.
func resolveSecretRefs(ctx context.Context, log *slog.Logger, secrets interfaces.StorageBackend, tree any) (any, error) {
	cache := map[string]string{}

	var walk func(path string, node any) (any, error)
	walk = func(path string, node any) (any, error) {
		switch v := node.(type) {
		case string:
			return replaceReferences(ctx, log, secrets, cache, path, v)
		case map[string]any:
			for key, child := range v {
				childPath := key
				if path != "" {
					childPath = path + "." + key
				}
				resolved, err := walk(childPath, child)
				if err != nil {
					return nil, err
				}
				v[key] = resolved
			}
			return v, nil
		case []any:
			for i, child := range v {
				resolved, err := walk(fmt.Sprintf("%s[%d]", path, i), child)
				if err != nil {
					return nil, err
				}
				v[i] = resolved
			}
			return v, nil
		default:
			return node, nil
		}
	}

	return walk("", tree)
}

func replaceReferences(ctx context.Context, log *slog.Logger, secrets interfaces.StorageBackend, cache map[string]string, field, value string) (string, error) {
	refs := FindReferences(value)
	if len(refs) == 0 {
		return value, nil
	}
	if secrets == nil {
		return "", &interfaces.ConfigError{Field: field, Err: fmt.Errorf("secret reference %s found but no secret store is configured", refs[0].Name)}
	}

	for _, ref := range refs {
		secret, ok := cache[ref.Name]
		if !ok {
			data, err := secrets.Fetch(ctx, ref.Name, interfaces.SecretType)
			if err != nil {
				log.Error("Failed to fetch secret", "err", err, slog.String("name", ref.Name))
				if errors.Is(err, interfaces.ErrContentNotFound) {
					return "", &interfaces.ConfigError{Field: field, Err: fmt.Errorf("secret %s not found", ref.Name)}
				}
				return "", &interfaces.ConfigError{Field: field, Err: fmt.Errorf("failed to fetch secret %s: %w", ref.Name, err)}
			}
			secret = strings.TrimRight(string(data), "\r\n")
			cache[ref.Name] = secret
		}
	}

	// One name may be a prefix of another, so every match is replaced on its own.
	return secretRefPattern.ReplaceAllStringFunc(value, func(match string) string {
		return cache[secretRefPattern.FindStringSubmatch(match)[1]]
	}), nil
}
