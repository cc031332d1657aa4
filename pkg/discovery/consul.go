package discovery

import (
	"fmt"
	"strconv"

	"practice-service/internal/config"

	"github.com/hashicorp/consul/api"
)

type ServiceRegistry struct {
	client *api.Client
	config *config.Config
}

func NewServiceRegistry(cfg *config.Config) (*ServiceRegistry, error) {
	consulConfig := api.DefaultConfig()
	consulConfig.Address = cfg.ConsulAddress

	client, err := api.NewClient(consulConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Consul client: %w", err)
	}
	return &ServiceRegistry{client: client, config: cfg}, nil
}

// Register announces the service with an HTTP health check on /health.
func (sr *ServiceRegistry) Register() error {
	httpPort, _ := strconv.Atoi(sr.config.Port)

	registration := &api.AgentServiceRegistration{
		ID:      sr.config.ServiceName + "-http",
		Name:    sr.config.ServiceName,
		Port:    httpPort,
		Address: sr.config.ServiceAddress,
		Check: &api.AgentServiceCheck{
			HTTP:     fmt.Sprintf("http://%s:%s/health", sr.config.ServiceAddress, sr.config.Port),
			Interval: "10s",
			Timeout:  "5s",
		},
		Tags: []string{"practice", "session", "http"},
		Meta: map[string]string{
			"protocol": "http",
		},
	}
	return sr.client.Agent().ServiceRegister(registration)
}

// Deregister removes the service registration.
func (sr *ServiceRegistry) Deregister() error {
	return sr.client.Agent().ServiceDeregister(sr.config.ServiceName + "-http")
}
