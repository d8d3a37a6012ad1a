package configresolver

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ruteri/kongcloak/interfaces"
)

var errRequired = errors.New("required field is missing")

// Validate checks that every required field is present.
// It returns the first failure as *interfaces.ConfigError naming the field path.
func Validate(doc *interfaces.Document) error {
	if doc.Keycloak.Credentials.Username == "" {
		return required("keycloak.credentials.username")
	}

	realm := doc.Keycloak.Realm
	if realm.Name == "" {
		return required("keycloak.realm.name")
	}
	if prefix := doc.Keycloak.PathPrefix; prefix != nil && *prefix != "" && !strings.HasPrefix(*prefix, "/") {
		return &interfaces.ConfigError{Field: "keycloak.pathPrefix", Err: errors.New("must start with /")}
	}

	for i, user := range realm.Users {
		if user.Username == "" {
			return required(fmt.Sprintf("keycloak.realm.users[%d].username", i))
		}
	}
	for i, client := range realm.Clients {
		if client.Name == "" {
			return required(fmt.Sprintf("keycloak.realm.clients[%d].name", i))
		}
	}

	for i, consumer := range doc.Kong.Consumers {
		if consumer.Username == "" {
			return required(fmt.Sprintf("kong.consumers[%d].username", i))
		}
		if err := validatePlugins(fmt.Sprintf("kong.consumers[%d]", i), consumer.Plugins); err != nil {
			return err
		}
	}

	for i, endpoint := range doc.Kong.Endpoints {
		field := fmt.Sprintf("kong.endpoints[%d]", i)
		if endpoint.Name == "" {
			return required(field + ".name")
		}
		if endpoint.URL == "" {
			return required(field + ".url")
		}
		if u, err := url.Parse(endpoint.URL); err != nil || u.Scheme == "" || u.Host == "" {
			return &interfaces.ConfigError{Field: field + ".url", Err: fmt.Errorf("not an absolute URL: %q", endpoint.URL)}
		}
		if err := validatePlugins(field, endpoint.Plugins); err != nil {
			return err
		}
	}

	return nil
}

func validatePlugins(owner string, plugins []interfaces.Plugin) error {
	for i, plugin := range plugins {
		if plugin.Name == "" {
			return required(fmt.Sprintf("%s.plugins[%d].name", owner, i))
		}
	}
	return nil
}

func required(field string) error {
	return &interfaces.ConfigError{Field: field, Err: errRequired}
}
