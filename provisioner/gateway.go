package provisioner

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/ruteri/kongcloak/api/clients"
	"github.com/ruteri/kongcloak/interfaces"
)

// JWTAlgorithm is the signing algorithm of synthesized JWT credentials.
const JWTAlgorithm = "RS256"

// GatewayProvisioner declares consumers, routes and their plugins at the gateway.
type GatewayProvisioner struct {
	Gateway  interfaces.Gateway
	IDP      interfaces.IdentityProvider
	Document *interfaces.Document
	Mode     Mode

	// ContinueOnError lets a failed consumer or endpoint be logged while the others proceed.
	ContinueOnError bool

	Log *slog.Logger
}

// ProvisionConsumers creates every consumer in document order and attaches its plugins in order.
func (g *GatewayProvisioner) ProvisionConsumers(ctx context.Context, sess *Session) error {
	_, err := RunSequence(ctx, g.Log, g.ConsumerSteps(sess))
	return err
}

// DeclareEndpoints declares every route in document order and attaches its plugins in order.
func (g *GatewayProvisioner) DeclareEndpoints(ctx context.Context, sess *Session) error {
	_, err := RunSequence(ctx, g.Log, g.EndpointSteps(sess))
	return err
}

// ConsumerSteps returns one step per consumer; plugin attachments are nested steps.
func (g *GatewayProvisioner) ConsumerSteps(sess *Session) []Step {
	steps := make([]Step, 0, len(g.Document.Kong.Consumers))
	for _, consumer := range g.Document.Kong.Consumers {
		steps = append(steps, Step{
			Name: "consumer " + consumer.Username,
			Run: func(ctx context.Context) error {
				return g.createConsumer(ctx, consumer.Username)
			},
			Steps: Each(consumer.Plugins,
				func(p interfaces.Plugin) string { return "consumer-plugin " + consumer.Username + "/" + p.Name },
				func(ctx context.Context, p interfaces.Plugin) error {
					return g.attachConsumerPlugin(ctx, sess, consumer.Username, p)
				}),
			ContinueOnError: g.ContinueOnError,
		})
	}
	return steps
}

// EndpointSteps returns one step per endpoint; plugin attachments are nested steps.
func (g *GatewayProvisioner) EndpointSteps(sess *Session) []Step {
	steps := make([]Step, 0, len(g.Document.Kong.Endpoints))
	for _, endpoint := range g.Document.Kong.Endpoints {
		steps = append(steps, Step{
			Name: "endpoint " + endpoint.Name,
			Run: func(ctx context.Context) error {
				return g.declareRoute(ctx, endpoint)
			},
			Steps: Each(endpoint.Plugins,
				func(p interfaces.Plugin) string { return "endpoint-plugin " + endpoint.Name + "/" + p.Name },
				func(ctx context.Context, p interfaces.Plugin) error {
					return g.attachRoutePlugin(ctx, endpoint.Name, p)
				}),
			ContinueOnError: g.ContinueOnError,
		})
	}
	return steps
}

func (g *GatewayProvisioner) createConsumer(ctx context.Context, username string) error {
	if g.Mode != ModeCreate {
		exists, err := g.Gateway.ConsumerExists(ctx, username)
		if err != nil {
			return fmt.Errorf("check consumer %s: %w", username, err)
		}
		if exists {
			g.Log.Info("Consumer already exists", slog.String("consumer", username))
			return nil
		}
	}

	if err := g.Gateway.CreateConsumer(ctx, username); err != nil {
		return fmt.Errorf("create consumer %s: %w", username, err)
	}
	g.Log.Info("Created consumer", slog.String("consumer", username))
	return nil
}

func (g *GatewayProvisioner) attachConsumerPlugin(ctx context.Context, sess *Session, username string, plugin interfaces.Plugin) error {
	form, err := g.ConsumerPluginForm(sess, plugin)
	if err != nil {
		return fmt.Errorf("consumer %s plugin %s: %w", username, plugin.Name, err)
	}

	err = g.Gateway.AddConsumerPlugin(ctx, username, plugin.Name, form)
	if err != nil && !g.tolerated(err) {
		return fmt.Errorf("attach plugin %s to consumer %s: %w", plugin.Name, username, err)
	}

	g.Log.Info("Attached consumer plugin",
		slog.String("consumer", username),
		slog.String("plugin", plugin.Name),
		slog.Bool("already_present", err != nil))
	return nil
}

// ConsumerPluginForm builds the credential body for a consumer plugin.
// A JWT plugin without a config key is bound to the realm: the issuer URL
// as key, RS256 and the realm public key from sess. Any other plugin, and a
// JWT plugin with an explicit config (even an empty one), sends its
// configuration flattened.
func (g *GatewayProvisioner) ConsumerPluginForm(sess *Session, plugin interfaces.Plugin) (url.Values, error) {
	if plugin.Name != interfaces.JWTPluginName || plugin.Config != nil {
		return clients.FlattenForm(plugin.Config), nil
	}

	publicKey, err := sess.PublicKey()
	if err != nil {
		return nil, err
	}

	return url.Values{
		"key":            {g.IDP.IssuerURL(g.Document.Keycloak.Realm.Name)},
		"algorithm":      {JWTAlgorithm},
		"rsa_public_key": {publicKey},
	}, nil
}

func (g *GatewayProvisioner) declareRoute(ctx context.Context, endpoint interfaces.Endpoint) error {
	if g.Mode != ModeCreate {
		exists, err := g.Gateway.APIExists(ctx, endpoint.Name)
		if err != nil {
			return fmt.Errorf("check route %s: %w", endpoint.Name, err)
		}
		if exists {
			g.Log.Info("Route already declared", slog.String("endpoint", endpoint.Name))
			return nil
		}
	}

	if err := g.Gateway.CreateAPI(ctx, RouteForm(endpoint)); err != nil {
		return fmt.Errorf("declare route %s: %w", endpoint.Name, err)
	}
	g.Log.Info("Declared route",
		slog.String("endpoint", endpoint.Name),
		slog.String("upstream", endpoint.URL))
	return nil
}

func (g *GatewayProvisioner) attachRoutePlugin(ctx context.Context, api string, plugin interfaces.Plugin) error {
	err := g.Gateway.AddAPIPlugin(ctx, api, RoutePluginForm(plugin))
	if err != nil && !g.tolerated(err) {
		return fmt.Errorf("attach plugin %s to route %s: %w", plugin.Name, api, err)
	}

	g.Log.Info("Attached route plugin",
		slog.String("endpoint", api),
		slog.String("plugin", plugin.Name),
		slog.Bool("already_present", err != nil))
	return nil
}

// tolerated reports whether err means the resource is already present in upsert mode.
func (g *GatewayProvisioner) tolerated(err error) bool {
	return g.Mode != ModeCreate && interfaces.IsConflict(err)
}

// RouteForm builds the route declaration body. Plugins are not part of it
// and list fields are joined.
func RouteForm(endpoint interfaces.Endpoint) url.Values {
	fields := map[string]any{
		"name":         endpoint.Name,
		"upstream_url": endpoint.URL,
	}
	if len(endpoint.Route) > 0 {
		fields["uris"] = endpoint.Route
	}
	if len(endpoint.Hosts) > 0 {
		fields["hosts"] = endpoint.Hosts
	}
	if len(endpoint.Methods) > 0 {
		fields["methods"] = endpoint.Methods
	}
	if endpoint.StripURI != nil {
		fields["strip_uri"] = *endpoint.StripURI
	}
	if endpoint.PreserveHost != nil {
		fields["preserve_host"] = *endpoint.PreserveHost
	}
	return clients.FlattenForm(fields)
}

// RoutePluginForm builds a route plugin body: the plugin name plus its
// configuration as config.<key> fields, list values joined.
func RoutePluginForm(plugin interfaces.Plugin) url.Values {
	form := url.Values{"name": {plugin.Name}}
	if len(plugin.Config) == 0 {
		return form
	}
	return clients.MergeForm(form, clients.FlattenForm(map[string]any{"config": plugin.Config}))
}
