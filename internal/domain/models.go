package domain

import (
	"errors"
	"fmt"
	"time"
)

// Service is one named endpoint from the services file.
type Service struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

type Health string

const (
	HealthOnline  Health = "online"
	HealthOffline Health = "offline"
	HealthError   Health = "error"
)

// ServiceStatus is the classified outcome of probing a Service.
// StatusCode is only set when Status is HealthError.
type ServiceStatus struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	Status     Health `json:"status"`
	StatusCode int    `json:"statusCode,omitempty"`
}

func Online(s Service) ServiceStatus {
	return ServiceStatus{Name: s.Name, URL: s.URL, Status: HealthOnline}
}

func Offline(s Service) ServiceStatus {
	return ServiceStatus{Name: s.Name, URL: s.URL, Status: HealthOffline}
}

func Errored(s Service, code int) ServiceStatus {
	return ServiceStatus{Name: s.Name, URL: s.URL, Status: HealthError, StatusCode: code}
}

func (s ServiceStatus) Service() Service {
	return Service{Name: s.Name, URL: s.URL}
}

func (s ServiceStatus) Healthy() bool { return s.Status == HealthOnline }

// Validate reports whether the tag and code agree.
func (s ServiceStatus) Validate() error {
	switch s.Status {
	case HealthOnline, HealthOffline:
		if s.StatusCode != 0 {
			return fmt.Errorf("service %q: status %s carries code %d", s.Name, s.Status, s.StatusCode)
		}
	case HealthError:
		if s.StatusCode == 0 {
			return fmt.Errorf("service %q: error status without code", s.Name)
		}
	default:
		return fmt.Errorf("service %q: unknown status %q", s.Name, s.Status)
	}
	if s.Name == "" {
		return errors.New("status without service name")
	}
	return nil
}

// Alert is the message sent to operators when something is unhealthy.
type Alert struct {
	Subject string
	Body    string
}

// Snapshot is the full result of one run.
type Snapshot struct {
	RunID     string          `json:"run_id"`
	CheckedAt time.Time       `json:"checked_at"`
	Statuses  []ServiceStatus `json:"statuses"`
}
