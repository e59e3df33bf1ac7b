package main

type config struct {
	API              apiConfig              `yaml:"api"`
	Storage          storageConfig          `yaml:"storage"`
	ServiceDiscovery serviceDiscoveryConfig `yaml:"serviceDiscovery"`
	Jaeger           jaegerConfig           `yaml:"jaeger"`
	RateLimit        rateLimitConfig        `yaml:"rateLimit"`
}

type apiConfig struct {
	Port int `yaml:"port"`
}

type storageConfig struct {
	// Engine selects the store: memory, sqlite or mysql.
	Engine string `yaml:"engine"`
	DSN    string `yaml:"dsn"`
}

type serviceDiscoveryConfig struct {
	Consul consulConfig `yaml:"consul"`
}

type consulConfig struct {
	// Address of the Consul agent; empty disables registration.
	Address string `yaml:"address"`
}

type jaegerConfig struct {
	// Host of the Jaeger agent; empty disables tracing.
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type rateLimitConfig struct {
	Limit int `yaml:"limit"`
	Burst int `yaml:"burst"`
}
