package core

// DefaultAPIVersion is the Salesforce REST API version used when none is
// configured.
const DefaultAPIVersion = "59.0"

// DefaultPKField is the primary-key field name on standard orgs.
const DefaultPKField = "Id"

// ConnectionConfig holds credentials and options for connecting to a remote
// org.
type ConnectionConfig struct {
	// Type selects the adapter implementation (e.g. "salesforce").
	Type string

	// Host is the login host, e.g. https://login.salesforce.com or a
	// My Domain URL. A bare hostname is accepted and upgraded to https.
	Host string

	Username string
	Password string

	// ConsumerKey and ConsumerSecret identify the connected app used for
	// the OAuth username-password flow.
	ConsumerKey    string
	ConsumerSecret string

	// SecurityToken, when set, is appended to the password at login time.
	SecurityToken string

	// APIVersion is the REST API version without the "v" prefix ("59.0").
	APIVersion string

	// PKField is the primary-key field name. Standard orgs use "Id";
	// some tooling objects expose "id".
	PKField string

	// LazyConnect defers authentication until the first API call.
	LazyConnect bool

	// QuietKnownBugs suppresses warnings for known platform quirks.
	QuietKnownBugs bool

	// Options holds adapter-specific settings.
	Options map[string]string
}

// EffectiveAPIVersion returns the configured API version or the default.
func (c ConnectionConfig) EffectiveAPIVersion() string {
	if c.APIVersion != "" {
		return c.APIVersion
	}
	return DefaultAPIVersion
}

// EffectivePKField returns the configured primary-key field name or "Id".
func (c ConnectionConfig) EffectivePKField() string {
	if c.PKField != "" {
		return c.PKField
	}
	return DefaultPKField
}
