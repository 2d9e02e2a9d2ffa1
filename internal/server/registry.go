package server

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/hashicorp/go-hclog"
)

const (
	checkTTL        = "5s"
	deregisterAfter = "1m"
)

// Registry registers the server with a Consul agent and keeps its TTL check
// passing.
type Registry struct {
	client *api.Client
	log    hclog.Logger
}

func NewRegistry(addr string, logger hclog.Logger) (*Registry, error) {
	cfg := api.DefaultConfig()
	cfg.Address = addr
	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Registry{client: client, log: logger.Named("registry")}, nil
}

func checkID(instanceID string) string { return "service:" + instanceID }

// Register announces instanceID of serviceName at hostPort with a TTL check.
func (r *Registry) Register(ctx context.Context, instanceID, serviceName, hostPort string) error {
	host, portStr, err := net.SplitHostPort(hostPort)
	if err != nil {
		return err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", portStr, err)
	}

	reg := &api.AgentServiceRegistration{
		ID:      instanceID,
		Name:    serviceName,
		Address: host,
		Port:    port,
		Tags:    []string{"solsim"},
		Check: &api.AgentServiceCheck{
			CheckID:                        checkID(instanceID),
			TTL:                            checkTTL,
			DeregisterCriticalServiceAfter: deregisterAfter,
		},
	}
	opts := api.ServiceRegisterOpts{}.WithContext(ctx)
	if err := r.client.Agent().ServiceRegisterOpts(reg, opts); err != nil {
		return fmt.Errorf("register %s: %w", instanceID, err)
	}
	r.log.Info("registered", "id", instanceID, "service", serviceName, "addr", hostPort)
	return nil
}

func (r *Registry) Deregister(ctx context.Context, instanceID string) error {
	q := (&api.QueryOptions{}).WithContext(ctx)
	if err := r.client.Agent().ServiceDeregisterOpts(instanceID, q); err != nil {
		return fmt.Errorf("deregister %s: %w", instanceID, err)
	}
	r.log.Info("deregistered", "id", instanceID)
	return nil
}

// ReportHealthyState marks the TTL check of instanceID as passing.
func (r *Registry) ReportHealthyState(instanceID string) error {
	return r.client.Agent().UpdateTTL(checkID(instanceID), "simulation running", api.HealthPassing)
}

// Heartbeat reports a healthy state every interval until ctx is done.
func (r *Registry) Heartbeat(ctx context.Context, instanceID string, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		if err := r.ReportHealthyState(instanceID); err != nil {
			r.log.Warn("failed to report healthy state", "id", instanceID, "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
