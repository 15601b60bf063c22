package domain

// Unhealthy returns the statuses that are not online, keeping input order.
func Unhealthy(statuses []ServiceStatus) []ServiceStatus {
	out := make([]ServiceStatus, 0, len(statuses))
	for _, s := range statuses {
		if !s.Healthy() {
			out = append(out, s)
		}
	}
	return out
}

// Names returns the service names of statuses in order.
func Names(statuses []ServiceStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, s.Name)
	}
	return out
}
