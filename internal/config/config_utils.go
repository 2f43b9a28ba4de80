package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks fills values viper could not supply: env-sourced API
// keys and the TLS/observability defaults that depend on other fields.
func (c *Config) applyFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv("CVFORGE_SERVER_APIKEYS"); apiKeysEnv != "" {
			keys := strings.Split(apiKeysEnv, ",")
			for i, key := range keys {
				keys[i] = strings.TrimSpace(key)
			}
			c.Server.APIKeys = keys
		}
	}

	if c.Server.TLS.Mode == "mutual" && c.Server.TLS.ClientAuthPolicy == "" {
		c.Server.TLS.ClientAuthPolicy = "require"
	}
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}

	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = serviceInstanceID(c.Observability.ServiceName)
	}
}

func serviceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// logConfigurationSources prints a startup summary of where the active
// configuration came from, masking anything key-like.
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"CVFORGE_AI_APIKEY",
		"CVFORGE_AI_PROVIDER",
		"CVFORGE_AI_MODEL",
		"CVFORGE_SERVER_PORT",
		"CVFORGE_SERVER_HOST",
		"CVFORGE_APP_LOGLEVEL",
		"CVFORGE_VAULT_ENABLED",
		"GEMINI_API_KEY", // legacy
	}

	log.Println("[CONFIG] Environment variables:")
	anySet := false
	for _, envVar := range envVars {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		anySet = true
		if strings.Contains(strings.ToLower(envVar), "key") {
			log.Printf("[CONFIG]   %s=***MASKED***", envVar)
		} else {
			log.Printf("[CONFIG]   %s=%s", envVar, value)
		}
	}
	if !anySet {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] AI Provider: %s", c.AI.Provider)
	log.Printf("[CONFIG] AI Model: %s", c.AI.Model)
	if c.AI.APIKey != "" {
		log.Println("[CONFIG] AI API Key: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] AI API Key: ***NOT SET***")
	}
	log.Printf("[CONFIG] Server Host: %s", c.Server.Host)
	log.Printf("[CONFIG] Server Port: %s", c.Server.Port)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] TLS Mode: %s", c.Server.TLS.Mode)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)

	log.Println("[CONFIG] === Operation-Specific AI Configurations ===")
	for _, op := range []struct {
		name string
		cfg  OperationAIConfig
	}{
		{"Structure", c.AI.Structure},
		{"Role", c.AI.Role},
		{"Bullets", c.AI.Bullets},
		{"Profile", c.AI.Profile},
		{"SoftSkills", c.AI.SoftSkills},
		{"CoverLetter", c.AI.CoverLetter},
	} {
		log.Printf("[CONFIG] %s - Provider: %s, Model: %s", op.name, op.cfg.Provider, op.cfg.Model)
	}

	log.Println("[CONFIG] =====================================")
}
