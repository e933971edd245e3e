package discovery

import (
	"fmt"
	"strconv"

	"memory-test-service/internal/logger"

	"github.com/hashicorp/consul/api"
)

var serviceTags = []string{"memory-test", "questions", "reports", "llm"}

// ServiceRegistry registers this instance with Consul so the gateway can
// route to it.
type ServiceRegistry struct {
	client      *api.Client
	serviceName string
	serviceID   string
	host        string
	servicePort string
	log         *logger.Logger
}

func NewServiceRegistry(consulAddress, serviceName, serviceID, host, servicePort string, log *logger.Logger) (*ServiceRegistry, error) {
	config := api.DefaultConfig()
	config.Address = consulAddress

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Consul client: %w", err)
	}

	return &ServiceRegistry{
		client:      client,
		serviceName: serviceName,
		serviceID:   serviceID,
		host:        host,
		servicePort: servicePort,
		log:         log,
	}, nil
}

func (sr *ServiceRegistry) Register() error {
	registration, err := sr.registration()
	if err != nil {
		return err
	}

	if err := sr.client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	sr.log.Info("Service registered with Consul", "service", sr.serviceName, "id", sr.serviceID)
	return nil
}

func (sr *ServiceRegistry) Deregister() error {
	if err := sr.client.Agent().ServiceDeregister(sr.serviceID); err != nil {
		return fmt.Errorf("failed to deregister service: %w", err)
	}

	sr.log.Info("Service deregistered from Consul", "service", sr.serviceName)
	return nil
}

func (sr *ServiceRegistry) registration() (*api.AgentServiceRegistration, error) {
	port, err := strconv.Atoi(sr.servicePort)
	if err != nil {
		return nil, fmt.Errorf("invalid port: %s: %w", sr.servicePort, err)
	}

	// The health check goes through the service name, which resolves
	// inside the container network even when host is 0.0.0.0.
	checkHost := sr.host
	if checkHost == "" || checkHost == "0.0.0.0" {
		checkHost = sr.serviceName
	}

	return &api.AgentServiceRegistration{
		ID:   sr.serviceID,
		Name: sr.serviceName,
		Port: port,
		Tags: serviceTags,
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/health", checkHost, port),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}, nil
}
