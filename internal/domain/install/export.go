package install

import "encoding/json"

// RedactionMarker replaces every secret value in exported configuration.
const RedactionMarker = "***REDACTED***"

// ExportFilename is the attachment name of the exported configuration.
const ExportFilename = "windevexpert-config.json"

// Redacted returns a copy of c with every non-empty secret field replaced by
// RedactionMarker.
func (c Config) Redacted() Config {
	for _, p := range c.secretFields() {
		if *p != "" {
			*p = RedactionMarker
		}
	}
	return c
}

func (c *Config) secretFields() []*string {
	return []*string{
		&c.DBPassword,
		&c.NextAuthSecret,
		&c.EncryptionKey,
		&c.SMTPPassword,
		&c.StripeSecretKey,
		&c.PaypalSecret,
	}
}

// Export renders the redacted configuration as indented JSON.
func (c Config) Export() ([]byte, error) {
	return json.MarshalIndent(c.Redacted(), "", "  ")
}
