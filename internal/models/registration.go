package models

import "time"

// ServiceHealth is the mapped health state reported in snapshots.
type ServiceHealth string

const (
	HealthUp      ServiceHealth = "UP"
	HealthDown    ServiceHealth = "DOWN"
	HealthUnknown ServiceHealth = "UNKNOWN"
)

// MapServiceHealth converts a raw registration status into the health
// enum used by snapshots. Anything but UP/DOWN maps to UNKNOWN.
func MapServiceHealth(status string) ServiceHealth {
	switch status {
	case "UP":
		return HealthUp
	case "DOWN":
		return HealthDown
	default:
		return HealthUnknown
	}
}

// ServiceRegistration is a participating microservice's liveness
// record. At most one record exists per ServiceID; re-registration
// updates in place.
type ServiceRegistration struct {
	ServiceID        string    `json:"serviceId"`
	Name             string    `json:"name"`
	Technology       string    `json:"technology"`
	Protocol         string    `json:"protocol"`
	Endpoint         string    `json:"endpoint"`
	HealthEndpoint   string    `json:"healthEndpoint,omitempty"`
	Status           string    `json:"status"`
	LastMessage      string    `json:"lastMessage,omitempty"`
	RegistrationDate time.Time `json:"registrationDate"`
	LastHeartbeat    time.Time `json:"lastHeartbeat"`
	LastUpdated      time.Time `json:"lastUpdated"`
}

// NewServiceRegistration creates a registration with status UP and all
// timestamps set to now.
func NewServiceRegistration(serviceID, name, technology, protocol, endpoint string) *ServiceRegistration {
	now := time.Now().UTC()
	return &ServiceRegistration{
		ServiceID:        serviceID,
		Name:             name,
		Technology:       technology,
		Protocol:         protocol,
		Endpoint:         endpoint,
		Status:           "UP",
		RegistrationDate: now,
		LastHeartbeat:    now,
		LastUpdated:      now,
	}
}

// UpdateHeartbeat resets the staleness clock and marks the service UP.
func (s *ServiceRegistration) UpdateHeartbeat() {
	now := time.Now().UTC()
	s.LastHeartbeat = now
	s.LastUpdated = now
	s.Status = "UP"
}

// MarkAsDown flips the service to DOWN with a reason message.
func (s *ServiceRegistration) MarkAsDown(reason string) {
	s.Status = "DOWN"
	s.LastMessage = reason
	s.LastUpdated = time.Now().UTC()
}

// IsHealthy reports whether the service is currently UP.
func (s *ServiceRegistration) IsHealthy() bool {
	return s.Status == "UP"
}
