package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration - Global defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 3)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.useSystemPrompts", true)

	// AI Configuration - Job structuring defaults
	v.SetDefault("ai.structure.provider", "gemini")
	v.SetDefault("ai.structure.model", "")
	v.SetDefault("ai.structure.timeout", 60*time.Second)
	v.SetDefault("ai.structure.apiKey", "")
	v.SetDefault("ai.structure.maxRetries", 2)
	v.SetDefault("ai.structure.temperature", 0.1) // Extraction wants determinism
	v.SetDefault("ai.structure.useSystemPrompts", true)

	// AI Configuration - Role enhancement defaults
	v.SetDefault("ai.role.provider", "gemini")
	v.SetDefault("ai.role.model", "")
	v.SetDefault("ai.role.timeout", 30*time.Second)
	v.SetDefault("ai.role.apiKey", "")
	v.SetDefault("ai.role.maxRetries", 1)
	v.SetDefault("ai.role.temperature", 0.2)
	v.SetDefault("ai.role.useSystemPrompts", true)

	// AI Configuration - Bullet rewriting defaults.
	// One retry, then the slot falls back to direct content.
	v.SetDefault("ai.bullets.provider", "gemini")
	v.SetDefault("ai.bullets.model", "")
	v.SetDefault("ai.bullets.timeout", 45*time.Second)
	v.SetDefault("ai.bullets.apiKey", "")
	v.SetDefault("ai.bullets.maxRetries", 1)
	v.SetDefault("ai.bullets.temperature", 0.4)
	v.SetDefault("ai.bullets.useSystemPrompts", true)

	// AI Configuration - Profile generation defaults
	v.SetDefault("ai.profile.provider", "gemini")
	v.SetDefault("ai.profile.model", "")
	v.SetDefault("ai.profile.timeout", 30*time.Second)
	v.SetDefault("ai.profile.apiKey", "")
	v.SetDefault("ai.profile.maxRetries", 2)
	v.SetDefault("ai.profile.temperature", 0.5)
	v.SetDefault("ai.profile.useSystemPrompts", true)

	// AI Configuration - Soft skills defaults
	v.SetDefault("ai.softSkills.provider", "gemini")
	v.SetDefault("ai.softSkills.model", "")
	v.SetDefault("ai.softSkills.timeout", 30*time.Second)
	v.SetDefault("ai.softSkills.apiKey", "")
	v.SetDefault("ai.softSkills.maxRetries", 2)
	v.SetDefault("ai.softSkills.temperature", 0.3)
	v.SetDefault("ai.softSkills.useSystemPrompts", true)

	// AI Configuration - Cover letter defaults
	v.SetDefault("ai.coverLetter.provider", "gemini")
	v.SetDefault("ai.coverLetter.model", "")
	v.SetDefault("ai.coverLetter.timeout", 90*time.Second) // Longest generation
	v.SetDefault("ai.coverLetter.apiKey", "")
	v.SetDefault("ai.coverLetter.maxRetries", 3)
	v.SetDefault("ai.coverLetter.temperature", 0.6)
	v.SetDefault("ai.coverLetter.useSystemPrompts", true)

	// Circuit Breaker Configuration defaults for all operations
	for _, op := range []string{"structure", "role", "bullets", "profile", "softSkills", "coverLetter"} {
		v.SetDefault("ai."+op+".circuitBreaker.enabled", true)
		v.SetDefault("ai."+op+".circuitBreaker.maxRequests", 3)
		v.SetDefault("ai."+op+".circuitBreaker.interval", 60*time.Second)
		v.SetDefault("ai."+op+".circuitBreaker.timeout", 60*time.Second)
		v.SetDefault("ai."+op+".circuitBreaker.minRequests", 3)
		v.SetDefault("ai."+op+".circuitBreaker.failureThreshold", 0.6)
	}

	// Pipeline Configuration
	v.SetDefault("pipeline.minJobTextLength", 50)
	v.SetDefault("pipeline.requestTimeout", 120*time.Second)
	v.SetDefault("pipeline.bulletsPerExperience", 4)
	v.SetDefault("pipeline.maxBulletLength", 150)
	v.SetDefault("pipeline.targetTechnicalSkills", 25)
	v.SetDefault("pipeline.numSoftSkills", 5)
	v.SetDefault("pipeline.weights.technologyOverlap", 0.6)
	v.SetDefault("pipeline.weights.priority", 0.3)
	v.SetDefault("pipeline.weights.roleAvailability", 0.1)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 150*time.Second) // Must outlast the pipeline deadline
	v.SetDefault("server.idleTimeout", 120*time.Second)
	// TLS Configuration defaults
	v.SetDefault("server.tls.mode", "disabled") // disabled, server, mutual
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")           // TLS 1.2 minimum
	v.SetDefault("server.tls.cipherSuites", []string{})    // Use Go defaults
	v.SetDefault("server.tls.clientAuthPolicy", "require") // require, request, verify
	v.SetDefault("server.tls.insecureSkipVerify", false)
	v.SetDefault("server.tls.serverName", "")

	// Auto-reload configuration defaults
	v.SetDefault("server.tls.autoReload.enabled", true)
	v.SetDefault("server.tls.autoReload.checkInterval", 30*time.Second)
	v.SetDefault("server.tls.autoReload.preemptiveRenewal", 72*time.Hour) // 72 hours before expiry
	v.SetDefault("server.tls.autoReload.maxRetries", 3)
	v.SetDefault("server.tls.autoReload.retryDelay", 10*time.Second)

	// File watcher defaults
	v.SetDefault("server.tls.autoReload.fileWatcher.enabled", true)
	v.SetDefault("server.tls.autoReload.fileWatcher.debounceDelay", time.Second)

	// Vault watcher defaults
	v.SetDefault("server.tls.autoReload.vaultWatcher.enabled", false)
	v.SetDefault("server.tls.autoReload.vaultWatcher.pollInterval", 5*time.Minute)
	v.SetDefault("server.tls.autoReload.vaultWatcher.autoRenew", true)
	v.SetDefault("server.tls.autoReload.vaultWatcher.renewThreshold", 24*time.Hour)
	v.SetDefault("server.tls.autoReload.vaultWatcher.secretPath", "")
	// API Authentication defaults
	v.SetDefault("server.apiKeys", []string{})
	// Rate limiting defaults
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxRequestSize", 2*1024*1024) // 2MB, profiles carry full project databases

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.tlsCerts", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "cvforge")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	// Tracing Configuration
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)

	// Metrics Configuration
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	// Custom Metrics Configuration
	v.SetDefault("observability.customMetrics.aiOperations.enabled", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackModelInfo", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackSuccessRates", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackContentSizes", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackCertExpiry", true)

	// Console Configuration
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)

	// Prometheus Configuration
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	// OTLP Configuration
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})

	// Health Check Configuration
	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
	v.SetDefault("observability.healthCheck.aiModelCheckTimeout", 10*time.Second)
}
